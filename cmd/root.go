// Package cmd implements the CLI commands for mht2html using Cobra.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/mht2html/config"
)

// exitConversionFailed is returned to the shell when a conversion fails.
const exitConversionFailed = -1

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mht2html <source>",
		Short: "Convert MHTML archives into standalone HTML pages",
		Long: `mht2html reads a saved web page archive (.mht / .mhtml) and writes a single
HTML file with every image and style sheet embedded as data URIs.

Usage:
  mht2html page.mht [flags]
  mht2html convert page.mht [flags]`,
		Args:          cobra.ExactArgs(1),
		RunE:          runConvert,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(rootCmd)
	rootCmd.AddCommand(newConvertCmd())
	return rootCmd
}

// Execute runs the root command and exits with its status.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetErr(stderr)
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var convErr *conversionError
	if errors.As(err, &convErr) {
		// Already logged by the pipeline.
		return exitConversionFailed
	}
	fmt.Fprintln(stderr, err)
	return 1
}
