package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitwit/crosspay/types"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// buyPay is the asset to pay with (sol or usdt).
	buyPay string
	// buyAmount is the human-readable amount to pay.
	buyAmount string
	// buyDestination receives the purchased tokens on Solana.
	buyDestination string
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var buyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Buy the sale token",
	Long: `Buy the sale token with native SOL or with the ERC-20 payment token.

Paying with SOL sends a single transfer to the collection address.
Paying with usdt approves the purchase contract for the exact amount when
needed, then calls it. A Solana destination address is required.

Examples:
  crosspay buy --pay sol --amount 1
  crosspay buy --pay usdt --amount 10 --destination 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin`,
	RunE: runBuy,
}

func runBuy(cmd *cobra.Command, _ []string) error {
	engine, err := newEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	if warning := engine.SelectPaymentKind(types.ParsePaymentKind(buyPay)); warning != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "WARNING:", warning)
	}

	ctx := commandContext(cmd)
	if err := engine.Connect(ctx); err != nil {
		return err
	}

	record, err := engine.Buy(ctx, types.PurchaseRequest{
		Amount:      buyAmount,
		Destination: buyDestination,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "tx: %s\n", record.Hash)
	return nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	buyCmd.Flags().StringVar(&buyPay, "pay", "", "payment asset: sol or usdt")
	buyCmd.Flags().StringVarP(&buyAmount, "amount", "a", "", "amount to pay")
	buyCmd.Flags().StringVarP(&buyDestination, "destination", "d", "", "Solana address receiving the tokens (usdt payments)")
}
