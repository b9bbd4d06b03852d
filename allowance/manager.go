// Package allowance keeps the ERC-20 approval of the purchase contract in
// step with what the user is about to spend.
package allowance

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/vitwit/crosspay/clients"
	"github.com/vitwit/crosspay/logger"
	"github.com/vitwit/crosspay/metrics"
	"github.com/vitwit/crosspay/types"
	"github.com/vitwit/crosspay/utils"
	"github.com/vitwit/crosspay/wallet"
)

// DefaultDecimals is assumed when the token does not answer decimals().
const DefaultDecimals int32 = 18

// TokenReader is the read side of the payment token.
type TokenReader interface {
	Decimals(ctx context.Context) (uint8, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Token() common.Address
	PurchaseContract() common.Address
}

// Waiter blocks until a submitted transaction is final.
type Waiter interface {
	Track(ctx context.Context, hash string, chain types.ChainFamily) (*types.TransactionRecord, error)
}

type OutcomeKind string

const (
	AlreadySufficient OutcomeKind = "already_sufficient"
	Raised            OutcomeKind = "raised"
	Rejected          OutcomeKind = "rejected"
)

// Outcome describes what EnsureAllowance did. TxHash and Record are set
// whenever an approve transaction was broadcast, including rejected ones.
type Outcome struct {
	Kind      OutcomeKind
	Requested *big.Int
	Allowance *big.Int
	TxHash    string
	Record    *types.TransactionRecord
}

type Manager struct {
	token      TokenReader
	waiter     Waiter
	failClosed bool
	log        logger.Logger
	metrics    metrics.Recorder
}

// New builds a Manager. With failClosed set a failed decimals() query is an
// error instead of falling back to DefaultDecimals.
func New(token TokenReader, waiter Waiter, failClosed bool, log logger.Logger, rec metrics.Recorder) *Manager {
	return &Manager{
		token:      token,
		waiter:     waiter,
		failClosed: failClosed,
		log:        logger.OrNoop(log),
		metrics:    metrics.OrNoop(rec),
	}
}

// Spender is the purchase contract the allowance is granted to.
func (m *Manager) Spender() common.Address { return m.token.PurchaseContract() }

// Decimals returns the token precision.
func (m *Manager) Decimals(ctx context.Context) (int32, error) {
	d, err := m.token.Decimals(ctx)
	if err != nil {
		if m.failClosed {
			return 0, types.Wrap(types.ErrRPCFailure, fmt.Errorf("read decimals: %w", err))
		}
		m.log.Warn("decimals lookup failed, assuming default", map[string]any{
			"token":    m.token.Token().Hex(),
			"decimals": DefaultDecimals,
			"error":    err,
		})
		return DefaultDecimals, nil
	}
	return int32(d), nil
}

// ToSmallestUnits scales a human amount by the token precision. Amounts
// that round to zero units are rejected.
func (m *Manager) ToSmallestUnits(ctx context.Context, amount decimal.Decimal) (*big.Int, error) {
	units, _, err := m.scale(ctx, amount)
	return units, err
}

func (m *Manager) scale(ctx context.Context, amount decimal.Decimal) (*big.Int, int32, error) {
	decimals, err := m.Decimals(ctx)
	if err != nil {
		return nil, 0, err
	}
	units, err := utils.ParseAmountWithDecimals(amount, decimals)
	if err != nil {
		return nil, 0, types.Wrap(types.ErrInvalidAmount, err)
	}
	if units.Sign() <= 0 {
		return nil, 0, types.Wrap(types.ErrInvalidAmount,
			fmt.Errorf("amount %s is below one unit at %d decimals", amount.String(), decimals))
	}
	return units, decimals, nil
}

// AllowanceOf returns what owner has approved for the purchase contract, in
// smallest units.
func (m *Manager) AllowanceOf(ctx context.Context, owner string) (*big.Int, error) {
	if !common.IsHexAddress(owner) {
		return nil, types.Wrap(types.ErrInvalidAddress, fmt.Errorf("owner %q", owner))
	}
	allowance, err := m.token.Allowance(ctx, common.HexToAddress(owner), m.Spender())
	if err != nil {
		return nil, types.Wrap(types.ErrRPCFailure, fmt.Errorf("read allowance: %w", err))
	}
	return allowance, nil
}

// Approval snapshots the current allowance of owner.
func (m *Manager) Approval(ctx context.Context, owner string) (*types.TokenApproval, error) {
	allowance, err := m.AllowanceOf(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &types.TokenApproval{
		Owner:     owner,
		Spender:   m.Spender().Hex(),
		Token:     m.token.Token().Hex(),
		Allowance: allowance,
	}, nil
}

// Approved reports whether owner has any allowance at all.
func (m *Manager) Approved(ctx context.Context, owner string) (bool, error) {
	allowance, err := m.AllowanceOf(ctx, owner)
	if err != nil {
		return false, err
	}
	return allowance.Sign() > 0, nil
}

// EnsureAllowance makes sure the session owner has approved at least amount.
// It approves exactly the requested amount, never an unlimited one, and
// sends nothing when the current allowance already covers it.
func (m *Manager) EnsureAllowance(ctx context.Context, session *wallet.Session, amount decimal.Decimal) (*Outcome, error) {
	provider, err := session.EVM()
	if err != nil {
		return nil, err
	}

	requested, decimals, err := m.scale(ctx, amount)
	if err != nil {
		return nil, err
	}

	approval, err := m.Approval(ctx, session.Address)
	if err != nil {
		return nil, err
	}
	labels := metrics.Labels(types.ChainEVM.String())

	if approval.Covers(requested) {
		m.metrics.IncCounter(metrics.EventApprovalSkipped, labels)
		m.log.Debug("allowance already sufficient", map[string]any{
			"owner":     session.Address,
			"allowance": utils.FormatAmountFromBigInt(approval.Allowance, decimals),
			"requested": utils.FormatAmountFromBigInt(requested, decimals),
		})
		return &Outcome{Kind: AlreadySufficient, Requested: requested, Allowance: approval.Allowance}, nil
	}

	data, err := clients.PackApprove(m.Spender(), requested)
	if err != nil {
		return nil, types.Wrap(types.ErrApprovalRejected, err)
	}

	start := time.Now()
	hash, err := provider.SendTransaction(ctx, m.token.Token(), data)
	if err != nil {
		m.log.Warn("approve not sent", map[string]any{"owner": session.Address, "error": err})
		return nil, types.Wrap(types.ErrApprovalRejected, err)
	}
	m.metrics.IncCounter(metrics.EventApprovalSent, labels)

	outcome := &Outcome{Kind: Rejected, Requested: requested, Allowance: approval.Allowance, TxHash: hash.Hex()}
	m.log.Info("approve sent", map[string]any{
		"owner":     session.Address,
		"hash":      outcome.TxHash,
		"requested": utils.FormatAmountFromBigInt(requested, decimals),
	})

	record, err := m.waiter.Track(ctx, outcome.TxHash, types.ChainEVM)
	outcome.Record = record
	m.metrics.ObserveLatency("approve", time.Since(start), labels)
	if err != nil {
		return outcome, types.Wrap(types.ErrApprovalRejected, err)
	}
	if record.Status != types.TxStatusConfirmed {
		return outcome, types.Wrap(types.ErrApprovalRejected, fmt.Errorf("approve %s %s: %s", outcome.TxHash, record.Status, record.Reason))
	}

	current, err := m.AllowanceOf(ctx, session.Address)
	if err != nil {
		return outcome, types.Wrap(types.ErrApprovalRejected, err)
	}
	outcome.Allowance = current
	if current.Sign() == 0 {
		return outcome, types.Wrap(types.ErrApprovalRejected, fmt.Errorf("allowance still zero after %s", outcome.TxHash))
	}

	outcome.Kind = Raised
	return outcome, nil
}
