package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dslstructurizr/internal/cli"
	dserrors "github.com/matzehuels/dslstructurizr/pkg/errors"
)

// Exit codes. Diagram-level problems are warnings and never change the code.
const (
	exitOK          = 0
	exitFailure     = 1   // document I/O, cache or renderer setup failures
	exitConfig      = 2   // invalid configuration file or option value
	exitInterrupted = 130 // SIGINT/SIGTERM, shell convention
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx, os.Args[1:])
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, dserrors.UserMessage(err))
	}
	os.Exit(exitCode(err))
}

// exitCode maps the error returned by a command to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	}
	switch dserrors.GetCode(err) {
	case dserrors.ErrCodeConfig, dserrors.ErrCodeInvalidFormat, dserrors.ErrCodeInvalidParam:
		return exitConfig
	}
	return exitFailure
}

func run(ctx context.Context, args []string) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every diagram, cache lookup and renderer call")

	// --verbose must take effect before the root pre-run logs the version.
	attachLogger := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		return attachLogger(cmd, args)
	}

	return root.ExecuteContext(ctx)
}
