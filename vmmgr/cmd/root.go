// Package cmd provides the command-line interface of vmmgr.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// Environment variables that provide flag defaults. They can also be set in a
// .env file in the working directory.
const (
	EnvBackingStore = "VMMGR_BACKING_STORE"
	EnvRecord       = "VMMGR_RECORD"
	EnvMonitorPort  = "VMMGR_MONITOR_PORT"
)

const defaultBackingStore = "BACKING_STORE.bin"

// NewRootCmd creates the vmmgr command.
func NewRootCmd() *cobra.Command {
	opts := &runOptions{}

	rootCmd := &cobra.Command{
		Use:   "vmmgr [flags] <address-file>",
		Short: "Translate logical addresses through a simulated virtual memory.",
		Long: `vmmgr reads whitespace-separated logical addresses, translates ` +
			`each through a 16-entry TLB and a 256-entry page table backed by ` +
			`128 physical frames, and prints the physical address and the ` +
			`byte stored there, followed by TLB and page fault statistics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(),
				args[0], opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.backingStore, "backing-store",
		envOr(EnvBackingStore, defaultBackingStore),
		"file that holds the content of every page")
	flags.StringVar(&opts.record, "record", os.Getenv(EnvRecord),
		"record every translation into <record>.sqlite3")
	flags.BoolVar(&opts.monitor, "monitor", false,
		"serve the state of the run over HTTP")
	flags.IntVar(&opts.monitorPort, "monitor-port",
		envIntOr(EnvMonitorPort, 0),
		"port of the monitoring server, random if 0")
	flags.BoolVar(&opts.openBrowser, "open-browser", false,
		"open the monitoring page in a browser")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false,
		"do not print a line for each address")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false,
		"log every translation and TLB event to stderr")

	rootCmd.AddCommand(newReportCmd())

	return rootCmd
}

// Execute runs the root command and exits the process. Interrupts cancel the
// run between two addresses.
func Execute() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: cannot load .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err = NewRootCmd().ExecuteContext(ctx)

	stop()

	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func envOr(name, fallback string) string {
	value, found := os.LookupEnv(name)
	if !found || value == "" {
		return fallback
	}

	return value
}

func envIntOr(name string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return fallback
	}

	return value
}
