package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vitwit/crosspay/types"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var statusChain string

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var statusCmd = &cobra.Command{
	Use:   "status <hash>",
	Short: "Wait for a submitted transaction to become final",
	Long: `Poll a transaction until it is confirmed or failed and print its explorer
link. Hashes starting with 0x are looked up on the EVM chain unless --chain
says otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	hash := strings.TrimSpace(args[0])
	chain, err := statusChainFor(statusChain, hash)
	if err != nil {
		return err
	}

	engine, err := newEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	record, err := engine.Track(commandContext(cmd), hash, chain)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n  %s\n", record.Status, record.ExplorerURL)
	if record.Status == types.TxStatusFailed {
		return fmt.Errorf("transaction %s failed: %s", record.Hash, record.Reason)
	}
	return nil
}

func statusChainFor(flag, hash string) (types.ChainFamily, error) {
	switch strings.ToLower(flag) {
	case "":
		if strings.HasPrefix(hash, "0x") {
			return types.ChainEVM, nil
		}
		return types.ChainSolana, nil
	case "evm", "usdt":
		return types.ChainEVM, nil
	case "solana", "sol":
		return types.ChainSolana, nil
	default:
		return "", fmt.Errorf("unknown chain %q, use solana or evm", flag)
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	statusCmd.Flags().StringVar(&statusChain, "chain", "", "chain of the transaction: solana or evm")
}
