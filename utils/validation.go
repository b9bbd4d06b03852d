package utils

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

var base58Pattern = regexp.MustCompile("^[1-9A-HJ-NP-Za-km-z]+$")

// maxAmountDigits bounds both the integer digits and the fractional digits
// of an amount. A uint256 has 78 decimal digits.
const maxAmountDigits = 78

// ValidateAmount parses a user-entered amount and requires it to be
// strictly positive.
func ValidateAmount(amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return decimal.Zero, fmt.Errorf("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format: %w", err)
	}

	if !dec.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be greater than zero")
	}

	// Checked before any scaling: Shift and Round on a huge exponent build
	// enormous integers.
	exp := int64(dec.Exponent())
	intDigits := int64(len(dec.Coefficient().String())) + exp
	if intDigits > maxAmountDigits || -exp > maxAmountDigits {
		return decimal.Zero, fmt.Errorf("amount %q is out of range", amount)
	}

	return dec, nil
}

// ParseAmountWithDecimals scales amount by 10^decimals and rounds half away
// from zero to an integer amount of smallest units.
func ParseAmountWithDecimals(amount decimal.Decimal, decimals int32) (*big.Int, error) {
	if decimals < 0 {
		return nil, fmt.Errorf("decimals cannot be negative: %d", decimals)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	return amount.Shift(decimals).Round(0).BigInt(), nil
}

// ToLamports converts a SOL amount to lamports (1 SOL = 10^9 lamports). The result must be at least
// one lamport and fit a uint64.
func ToLamports(amount decimal.Decimal) (uint64, error) {
	lamports, err := ParseAmountWithDecimals(amount, 9)
	if err != nil {
		return 0, err
	}
	if lamports.Sign() <= 0 {
		return 0, fmt.Errorf("amount %s is below one lamport", amount.String())
	}
	if !lamports.IsUint64() {
		return 0, fmt.Errorf("amount %s overflows lamports", amount.String())
	}
	return lamports.Uint64(), nil
}

// FormatAmountFromBigInt formats a smallest-unit amount back to a decimal
// string.
func FormatAmountFromBigInt(amount *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// IsSolanaAddress reports whether s decodes to a 32-byte public key.
func IsSolanaAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 || !base58Pattern.MatchString(s) {
		return false
	}
	_, err := solana.PublicKeyFromBase58(s)
	return err == nil
}
