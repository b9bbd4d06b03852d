package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitwit/crosspay"
)

// commit is set at build time with -ldflags "-X main.commit=...".
//
//nolint:gochecknoglobals // set by the linker
var commit = ""

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the crosspay version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), formatVersion(crosspay.Version, commit))
	},
}

func formatVersion(version, commit string) string {
	if commit == "" {
		commit = "unknown"
	}
	return fmt.Sprintf("crosspay %s (commit: %s)", version, commit)
}
