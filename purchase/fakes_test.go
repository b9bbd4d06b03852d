package purchase

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/vitwit/crosspay/allowance"
	"github.com/vitwit/crosspay/types"
	"github.com/vitwit/crosspay/utils"
	"github.com/vitwit/crosspay/wallet"
)

const (
	collection = "4By4qAmTobfAjDvQoHxorksz6sVknZ3aypwoVPf5XNyf"
	evmOwner   = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
)

var purchaseContract = common.HexToAddress("0xEa1f309761aca404097Ab170dED244D10F06470c")

type fakeSolana struct {
	mu      sync.Mutex
	anchors int
	sent    [][]byte
	sendErr error
}

func (f *fakeSolana) GetRecentAnchor(context.Context) (solana.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.anchors++
	var h solana.Hash
	h[0] = byte(f.anchors)
	return h, nil
}

func (f *fakeSolana) SendRawTransaction(_ context.Context, raw []byte) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	f.sent = append(f.sent, raw)
	var sig solana.Signature
	sig[0] = byte(len(f.sent))
	return sig, nil
}

type fakeTracker struct {
	mu     sync.Mutex
	status types.TxStatus
	err    error
	hashes []string
}

func (f *fakeTracker) Track(_ context.Context, hash string, chain types.ChainFamily) (*types.TransactionRecord, error) {
	f.mu.Lock()
	f.hashes = append(f.hashes, hash)
	f.mu.Unlock()

	record := types.NewTransactionRecord(hash, chain, "https://explorer.example/tx/"+hash)
	if f.err != nil {
		return record, f.err
	}
	if err := record.Transition(f.status, "reason"); err != nil {
		return nil, err
	}
	return record, nil
}

type evmCall struct {
	to   common.Address
	data []byte
}

type fakeEVMProvider struct {
	mu    sync.Mutex
	calls []evmCall
	err   error
}

func (f *fakeEVMProvider) Kind() types.PaymentKind                 { return types.PaymentKindToken }
func (f *fakeEVMProvider) Connect(context.Context) (string, error) { return evmOwner, nil }
func (f *fakeEVMProvider) Disconnect()                             {}

func (f *fakeEVMProvider) SendTransaction(_ context.Context, to common.Address, data []byte) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return common.Hash{}, f.err
	}
	f.calls = append(f.calls, evmCall{to: to, data: data})
	return common.BigToHash(big.NewInt(int64(len(f.calls)))), nil
}

// fakeAllowance models a token with fixed decimals whose approve always
// lands unless approveErr is set.
type fakeAllowance struct {
	decimals   int32
	current    *big.Int
	approveErr error
	ensures    int
}

func (f *fakeAllowance) Spender() common.Address { return purchaseContract }

func (f *fakeAllowance) ToSmallestUnits(_ context.Context, amount decimal.Decimal) (*big.Int, error) {
	return utils.ParseAmountWithDecimals(amount, f.decimals)
}

func (f *fakeAllowance) AllowanceOf(context.Context, string) (*big.Int, error) {
	return new(big.Int).Set(f.current), nil
}

func (f *fakeAllowance) EnsureAllowance(ctx context.Context, _ *wallet.Session, amount decimal.Decimal) (*allowance.Outcome, error) {
	f.ensures++
	requested, _ := f.ToSmallestUnits(ctx, amount)
	if f.approveErr != nil {
		return nil, types.Wrap(types.ErrApprovalRejected, f.approveErr)
	}
	if f.current.Cmp(requested) >= 0 {
		return &allowance.Outcome{Kind: allowance.AlreadySufficient, Requested: requested, Allowance: f.current}, nil
	}
	f.current = requested
	return &allowance.Outcome{Kind: allowance.Raised, Requested: requested, Allowance: f.current, TxHash: "0xapprove"}, nil
}

var errNode = errors.New("node unavailable")
