// Iometer is a command-line client for IOmeter bridges.
//
// It reads the current meter values and the bridge status over the bridge's
// local HTTP API, finds bridges on the LAN via mDNS and remembers the ones it
// has talked to.
//
// Usage:
//
//	iometer [command] [flags]
//
// See 'iometer --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/muurk/iometer/internal/logging"
	"github.com/muurk/iometer/internal/version"
)

// errReported marks errors that were already shown to the user in an error box
var errReported = errors.New("reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "iometer",
	Short: "IOmeter bridge client",
	Long: `A command-line client for IOmeter bridges.

Reads the current meter values and bridge status from an IOmeter bridge on
the local network. The bridge is chosen from --host, IOMETER_HOST, the
default bridge in the configuration file, or mDNS discovery, in that order.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "iometer %s (commit: %s)\n", version.Version, version.Commit)
	},
}
