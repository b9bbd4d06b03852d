package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vitwit/crosspay"
	"github.com/vitwit/crosspay/logger"
	"github.com/vitwit/crosspay/metrics"
	"github.com/vitwit/crosspay/notifier"
	"github.com/vitwit/crosspay/types"
	"github.com/vitwit/crosspay/utils"
	"github.com/vitwit/crosspay/wallet"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var (
	// Global flags
	configPath  string
	assumeYes   bool
	logLevel    string
	metricsFile string

	// Global state initialized in PersistentPreRunE
	cfg       *types.Config
	appLogger logger.Logger
	recorder  *metrics.PrometheusRecorder
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var rootCmd = &cobra.Command{
	Use:   "crosspay",
	Short: "Buy the sale token with SOL or an ERC-20 token",
	Long: `crosspay buys the sale token by paying either with native SOL on Solana
or with an ERC-20 token on an EVM chain. Tokens are always delivered on Solana.

Signing keys are read from CROSSPAY_SOLANA_PRIVATE_KEY (base58) and
CROSSPAY_EVM_PRIVATE_KEY (hex), or from a .env file in the working directory.

Example:
  crosspay buy --pay sol --amount 0.5
  crosspay buy --pay usdt --amount 10 --destination <solana address>
  crosspay approve --amount 10
  crosspay status <tx hash> --chain evm`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd == versionCmd {
			return nil
		}
		return initGlobals()
	},
}

// Execute runs the root command. Ctrl-C cancels the running operation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// initGlobals loads the configuration and builds the logger and recorder.
func initGlobals() error {
	var err error
	cfg, err = utils.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	zl, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	appLogger = zl

	recorder = metrics.NewPrometheusRecorder()
	return nil
}

// cleanup flushes the logger and writes the metrics file.
func cleanup() {
	if zl, ok := appLogger.(*logger.ZapLogger); ok {
		_ = zl.Sync()
	}
	if recorder != nil && metricsFile != "" {
		if err := recorder.WriteToTextfile(metricsFile); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write metrics to %s: %v\n", metricsFile, err)
		}
	}
}

// newEngine dials both chains for cmd. The caller closes the engine.
func newEngine(cmd *cobra.Command) (*crosspay.Engine, error) {
	confirm := wallet.AutoApprove
	if !assumeYes {
		confirm = promptConfirm(cmd.InOrStdin(), cmd.ErrOrStderr())
	}

	return crosspay.Dial(cfg, confirm, appLogger,
		crosspay.WithMetrics(recorder),
		crosspay.WithNotifier(notifier.NewWriter(cmd.OutOrStdout())),
	)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file, see crosspay.example.yaml (without it the deployment addresses must come from CROSSPAY_* env vars)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "approve wallet prompts without asking")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this file on exit")

	rootCmd.AddCommand(buyCmd, approveCmd, statusCmd, versionCmd)
}
