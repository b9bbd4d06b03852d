// Package validation holds the pure checks run on a purchase request before
// any transaction is built. Nothing here touches the network.
package validation

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/vitwit/crosspay/types"
	"github.com/vitwit/crosspay/utils"
)

// Amount parses raw and requires a strictly positive decimal.
func Amount(raw string) (decimal.Decimal, error) {
	amount, err := utils.ValidateAmount(raw)
	if err != nil {
		return decimal.Zero, types.Wrap(types.ErrInvalidAmount, err)
	}
	return amount, nil
}

// Destination checks that address is usable on chain. Solana addresses must
// decode to 32 bytes that lie on the ed25519 curve, so program derived
// addresses are refused.
func Destination(address string, chain types.ChainFamily) error {
	switch chain {
	case types.ChainSolana:
		if !utils.IsSolanaAddress(address) {
			return types.Wrap(types.ErrInvalidAddress, fmt.Errorf("%q is not a base58 public key", address))
		}
		pub := solana.MustPublicKeyFromBase58(address)
		if !solana.IsOnCurve(pub[:]) {
			return types.Wrap(types.ErrInvalidAddress, fmt.Errorf("%s is off the ed25519 curve", address))
		}
		return nil
	case types.ChainEVM:
		if !common.IsHexAddress(address) {
			return types.Wrap(types.ErrInvalidAddress, fmt.Errorf("%q is not a hex address", address))
		}
		return nil
	default:
		return types.Wrap(types.ErrInvalidAddress, fmt.Errorf("unknown chain %q", chain))
	}
}

// Request validates a whole purchase request and returns the parsed amount.
// For token payments the Solana delivery address is checked before the
// amount.
func Request(req types.PurchaseRequest) (decimal.Decimal, error) {
	if !req.Kind.IsSet() {
		return decimal.Zero, types.ErrNoTokenSelected
	}

	if req.Kind == types.PaymentKindToken {
		if strings.TrimSpace(req.Destination) == "" {
			return decimal.Zero, types.ErrMissingDestination
		}
		if err := Destination(req.Destination, types.ChainSolana); err != nil {
			return decimal.Zero, types.Wrap(types.ErrInvalidDestination, err)
		}
	}

	return Amount(req.Amount)
}
