package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vitwit/crosspay/allowance"
	"github.com/vitwit/crosspay/clients"
	"github.com/vitwit/crosspay/types"
	"github.com/vitwit/crosspay/validation"
	"github.com/vitwit/crosspay/wallet"
)

// TokenPurchaser pays with the ERC-20 token: approve when needed, then call
// buy on the purchase contract. Tokens are delivered to the Solana
// destination.
type TokenPurchaser struct {
	router  *Router
	session *wallet.Session
}

func (p *TokenPurchaser) Chain() types.ChainFamily { return types.ChainEVM }

func (p *TokenPurchaser) Purchase(ctx context.Context, attempt *Attempt, req types.PurchaseRequest) (*types.TransactionRecord, error) {
	provider, err := p.session.EVM()
	if err != nil {
		return nil, err
	}

	req.Kind = types.PaymentKindToken
	amount, err := validation.Request(req)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(p.session.Address) {
		return nil, types.Wrap(types.ErrInvalidAddress, fmt.Errorf("sender %q", p.session.Address))
	}
	sender := common.HexToAddress(p.session.Address)
	svc := p.router.Allowance

	requested, err := svc.ToSmallestUnits(ctx, amount)
	if err != nil {
		return nil, err
	}
	if requested.Sign() <= 0 {
		return nil, types.Wrap(types.ErrInvalidAmount, fmt.Errorf("amount %s is below one token unit", amount.String()))
	}

	current, err := svc.AllowanceOf(ctx, p.session.Address)
	if err != nil {
		return nil, types.Wrap(types.ErrInsufficientAllowance, err)
	}

	if current.Cmp(requested) < 0 {
		if err := attempt.Advance(StateApproving); err != nil {
			return nil, err
		}

		outcome, err := svc.EnsureAllowance(ctx, p.session, amount)
		if err != nil {
			return approvalRecord(outcome), types.Wrap(types.ErrInsufficientAllowance, err)
		}
		if outcome.Kind == allowance.Raised {
			p.router.log().Info("allowance raised", map[string]any{"attempt": attempt.ID, "hash": outcome.TxHash})
		}

		current, err = svc.AllowanceOf(ctx, p.session.Address)
		if err != nil {
			return nil, types.Wrap(types.ErrInsufficientAllowance, err)
		}
		if current.Cmp(requested) < 0 {
			return nil, types.Wrap(types.ErrInsufficientAllowance,
				fmt.Errorf("allowance %s below requested %s", current.String(), requested.String()))
		}
	}

	if err := attempt.Advance(StateSubmitting); err != nil {
		return nil, err
	}

	data, err := clients.PackBuy(req.Destination, sender, requested)
	if err != nil {
		return nil, types.Wrap(types.ErrContractCallFailed, err)
	}

	hash, err := provider.SendTransaction(ctx, svc.Spender(), data)
	if err != nil {
		if errors.Is(err, types.ErrSigningRejected) {
			return nil, err
		}
		return nil, types.Wrap(types.ErrContractCallFailed, err)
	}

	p.router.log().Info("buy submitted", map[string]any{
		"attempt":     attempt.ID,
		"hash":        hash.Hex(),
		"destination": req.Destination,
		"amount":      requested.String(),
	})

	if err := attempt.Advance(StateAwaitingConfirmation); err != nil {
		return nil, err
	}

	record, err := p.router.Tracker.Track(ctx, hash.Hex(), types.ChainEVM)
	if err != nil {
		return record, err
	}
	if record.Status == types.TxStatusFailed {
		if advErr := attempt.Advance(StateFailed); advErr != nil {
			return record, advErr
		}
		return record, types.Wrap(types.ErrContractCallFailed, fmt.Errorf("buy %s failed: %s", record.Hash, record.Reason))
	}
	if err := attempt.Advance(StateConfirmed); err != nil {
		return record, err
	}
	return record, nil
}

func approvalRecord(outcome *allowance.Outcome) *types.TransactionRecord {
	if outcome == nil {
		return nil
	}
	return outcome.Record
}
