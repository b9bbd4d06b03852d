package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vitwit/crosspay/types"
	"github.com/vitwit/crosspay/wallet"
)

// promptConfirm asks on out and reads a y/N answer from in for every wallet
// request.
func promptConfirm(in io.Reader, out io.Writer) wallet.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(_ context.Context, p wallet.Prompt) bool {
		fmt.Fprintf(out, "%s %s wallet %s", p.Action, p.Chain, p.Address)
		if p.Detail != "" {
			fmt.Fprintf(out, " (%s)", p.Detail)
		}
		fmt.Fprint(out, "? [y/N]: ")

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		response := strings.ToLower(strings.TrimSpace(line))
		return response == "y" || response == "yes"
	}
}

// Exit codes returned by the CLI.
const (
	exitError    = 1
	exitInput    = 2
	exitRejected = 3
)

// exitCode maps err to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	switch types.Code(err) {
	case types.CodeInvalidAmount, types.CodeInvalidAddress, types.CodeInvalidDestination,
		types.CodeNoTokenSelected, types.CodeConfigError:
		return exitInput
	case types.CodeUserRejected, types.CodeSigningRejected:
		return exitRejected
	default:
		return exitError
	}
}
