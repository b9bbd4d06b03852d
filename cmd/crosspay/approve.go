package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitwit/crosspay/allowance"
	"github.com/vitwit/crosspay/types"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var approveAmount string

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve the purchase contract to spend the payment token",
	Long: `Approve the purchase contract for exactly the given amount of the ERC-20
payment token. Nothing is sent when the current allowance already covers it.`,
	RunE: runApprove,
}

func runApprove(cmd *cobra.Command, _ []string) error {
	engine, err := newEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	engine.SelectPaymentKind(types.PaymentKindToken)

	ctx := commandContext(cmd)
	if err := engine.Connect(ctx); err != nil {
		return err
	}

	outcome, err := engine.Approve(ctx, approveAmount)
	if err != nil {
		return err
	}

	if outcome.Kind == allowance.Raised {
		fmt.Fprintf(cmd.OutOrStdout(), "tx: %s\n", outcome.TxHash)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "allowance: %s\n", outcome.Allowance)
	return nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	approveCmd.Flags().StringVarP(&approveAmount, "amount", "a", "", "amount to approve")
}
