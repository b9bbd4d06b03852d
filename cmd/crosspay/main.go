// Package main is the entry point for the crosspay CLI.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
