package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/vitwit/crosspay/clients"
	"github.com/vitwit/crosspay/types"
	"github.com/vitwit/crosspay/utils"
	"github.com/vitwit/crosspay/validation"
	"github.com/vitwit/crosspay/wallet"
)

// NativePurchaser pays in SOL with a single system transfer to the
// collection address.
type NativePurchaser struct {
	router  *Router
	session *wallet.Session
}

func (p *NativePurchaser) Chain() types.ChainFamily { return types.ChainSolana }

func (p *NativePurchaser) Purchase(ctx context.Context, attempt *Attempt, req types.PurchaseRequest) (*types.TransactionRecord, error) {
	provider, err := p.session.Solana()
	if err != nil {
		return nil, err
	}

	amount, err := validation.Amount(req.Amount)
	if err != nil {
		return nil, err
	}
	lamports, err := utils.ToLamports(amount)
	if err != nil {
		return nil, types.Wrap(types.ErrInvalidAmount, err)
	}

	from, err := solana.PublicKeyFromBase58(p.session.Address)
	if err != nil {
		return nil, types.Wrap(types.ErrInvalidAddress, err)
	}
	to := p.router.Collection

	if err := attempt.Advance(StateSubmitting); err != nil {
		return nil, err
	}

	blockhash, err := p.router.Solana.GetRecentAnchor(ctx)
	if err != nil {
		return nil, types.Wrap(types.ErrRPCFailure, err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(lamports, from, to).Build()},
		blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return nil, types.Wrap(types.ErrSubmissionFailed, fmt.Errorf("build transfer: %w", err))
	}

	raw, err := provider.SignTransaction(ctx, tx)
	if err != nil {
		var pe *types.PaymentError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, types.Wrap(types.ErrSigningRejected, err)
	}

	if err := checkSignedTransfer(raw, from, to, lamports, blockhash); err != nil {
		return nil, types.Wrap(types.ErrSubmissionFailed, err)
	}

	sig, err := p.router.Solana.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, types.Wrap(types.ErrSubmissionFailed, err)
	}

	p.router.log().Info("transfer submitted", map[string]any{
		"attempt":   attempt.ID,
		"signature": sig.String(),
		"lamports":  lamports,
		"to":        to.String(),
	})

	if err := attempt.Advance(StateAwaitingConfirmation); err != nil {
		return nil, err
	}

	record, err := p.router.Tracker.Track(ctx, sig.String(), types.ChainSolana)
	if err != nil {
		return record, err
	}
	if record.Status == types.TxStatusFailed {
		if advErr := attempt.Advance(StateFailed); advErr != nil {
			return record, advErr
		}
		return record, types.Wrap(types.ErrSubmissionFailed, fmt.Errorf("transfer %s failed: %s", record.Hash, record.Reason))
	}
	if err := attempt.Advance(StateConfirmed); err != nil {
		return record, err
	}
	return record, nil
}

// checkSignedTransfer makes sure the wallet signed exactly the transfer we
// built.
func checkSignedTransfer(raw []byte, from, to solana.PublicKey, lamports uint64, blockhash solana.Hash) error {
	tx, err := clients.DecodeTransaction(raw)
	if err != nil {
		return err
	}
	if tx.Message.RecentBlockhash != blockhash {
		return fmt.Errorf("signed transaction uses a different blockhash")
	}
	transfer, err := clients.SingleTransfer(tx)
	if err != nil {
		return err
	}
	if !transfer.From.Equals(from) || !transfer.To.Equals(to) || transfer.Lamports != lamports {
		return fmt.Errorf("signed transfer does not match the request")
	}
	if len(tx.Signatures) == 0 || tx.Signatures[0] == (solana.Signature{}) {
		return fmt.Errorf("transaction is not signed")
	}
	return nil
}
