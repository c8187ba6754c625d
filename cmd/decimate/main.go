// Package main provides decimate, a NIST SP 800-90B decimation level
// search tool.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/teronlabs/decimate/internal/cli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, sigCh)

	os.Exit(exitCode)
}
