package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	"github.com/vitwit/crosspay/types"
)

// Provider is a wallet able to pay with one PaymentKind.
type Provider interface {
	// Kind returns the payment kind the provider pays with.
	Kind() types.PaymentKind

	// Connect asks the user to expose an account and returns its address.
	Connect(ctx context.Context) (string, error)

	// Disconnect forgets the connected account. Safe to call repeatedly.
	Disconnect()
}

// SolanaProvider signs Chain A transactions. The returned bytes are the
// serialized signed transaction, ready for broadcast.
type SolanaProvider interface {
	Provider
	SignTransaction(ctx context.Context, tx *solana.Transaction) ([]byte, error)
}

// EVMProvider signs and broadcasts Chain B contract calls.
type EVMProvider interface {
	Provider
	SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
}

// Prompt describes a request shown to the user before the wallet acts.
type Prompt struct {
	Action  string
	Chain   types.ChainFamily
	Address string
	Detail  string
}

const (
	ActionConnect = "connect"
	ActionSign    = "sign"
)

// ConfirmFunc stands in for the wallet's approve/reject dialog. Returning
// false rejects the request.
type ConfirmFunc func(ctx context.Context, p Prompt) bool

// AutoApprove accepts every prompt.
func AutoApprove(context.Context, Prompt) bool { return true }

func orAutoApprove(fn ConfirmFunc) ConfirmFunc {
	if fn == nil {
		return AutoApprove
	}
	return fn
}
