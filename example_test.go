package crosspay_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/vitwit/crosspay"
	"github.com/vitwit/crosspay/logger"
	"github.com/vitwit/crosspay/notifier"
	"github.com/vitwit/crosspay/types"
	"github.com/vitwit/crosspay/utils"
	"github.com/vitwit/crosspay/wallet"
)

// Pay 10 units of the ERC-20 token and receive the sale token on Solana.
// Approval of the purchase contract happens inside Buy when needed.
func ExampleEngine_Buy() {
	cfg, err := utils.LoadConfig("crosspay.example.yaml")
	if err != nil {
		log.Fatal("invalid config:", err)
	}

	zl, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	engine, err := crosspay.Dial(cfg, wallet.AutoApprove, zl,
		crosspay.WithNotifier(notifier.NewWriter(os.Stdout)),
	)
	if err != nil {
		log.Fatal("failed to dial chains:", err)
	}
	defer engine.Close()

	if warning := engine.SelectPaymentKind(types.PaymentKindToken); warning != "" {
		fmt.Println(warning)
	}

	ctx := context.Background()
	if err := engine.Connect(ctx); err != nil {
		return
	}

	record, err := engine.Buy(ctx, types.PurchaseRequest{
		Amount:      "10",
		Destination: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
	})
	if err != nil {
		return
	}
	fmt.Println(record.Status, record.ExplorerURL)
}
