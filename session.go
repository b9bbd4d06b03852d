package crosspay

import (
	"github.com/vitwit/crosspay/purchase"
	"github.com/vitwit/crosspay/types"
	"github.com/vitwit/crosspay/wallet"
)

// OrchestrationSession is the engine's view of the user: the payment kind
// they picked, the connected wallet and the purchaser chosen for it.
type OrchestrationSession struct {
	Kind   types.PaymentKind
	Wallet *wallet.Session

	route purchase.Purchaser
}

// Connected reports whether a wallet of the selected kind is connected.
func (s *OrchestrationSession) Connected() bool {
	return s.Wallet != nil && s.Wallet.Kind == s.Kind
}

const (
	LabelSelectToken = "SELECT A TOKEN FOR PAYMENT"
	LabelBuy         = "BUY TOKEN"
	LabelApprove     = "APPROVE"

	// TokenWarning is shown when the ERC-20 payment is selected.
	TokenWarning = "Do not enter your solana exchange address, you will lose your token."

	MessageConfirmed       = "Transaction confirmed!"
	MessageAlreadyApproved = "Token already approved."
)

func (s *OrchestrationSession) actionLabel() string {
	switch s.Kind {
	case types.PaymentKindNative:
		return LabelBuy
	case types.PaymentKindToken:
		if s.Connected() && s.Wallet.Approved {
			return LabelBuy
		}
		return LabelApprove
	default:
		return LabelSelectToken
	}
}
