// kwangun derives Middle Chinese transcriptions from rhyme-table categories
// and answers Datalog queries over a local reading store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kwangun/internal/config"
	"kwangun/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	// Loaded by the root PersistentPreRunE
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kwangun",
		Short: "Middle Chinese reading derivation",
		Long: `kwangun transcribes Middle Chinese readings from their rhyme-table
categories (onset, articulation, grade, rhyme, tone) using ordered rule tables
over a small category expression language.

Readings can be imported into a local SQLite store and queried with
Datalog through the Mangle engine.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			cfg = loaded

			if logger == nil {
				logger, err = newLogger(cfg.Logging, verbose)
				if err != nil {
					return fmt.Errorf("failed to initialize logger: %w", err)
				}
			}
			if err := logging.Initialize(cfg.Logging.ToLogging(), logger); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			logging.BootDebug("config loaded from %s", configPath)
			logging.Get(logging.CategoryCLI).With(zap.String("cmd", cmd.CommandPath())).Debug("running with %d args", len(args))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file path")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Timeout for store and query operations")

	root.AddCommand(
		newDeriveCmd(),
		newExplainCmd(),
		newEvalCmd(),
		newSiHuCmd(),
		newImportCmd(),
		newExportCmd(),
		newQueryCmd(),
		newFactsCmd(),
		newRulesCmd(),
		newConfigCmd(),
	)
	return root
}

// newLogger builds the CLI logger from the logging section. --verbose forces
// debug level over logging.level.
func newLogger(c config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	lc := c.ToLogging()
	if verbose {
		lc.Level = "debug"
	}
	return logging.Build(lc)
}

// commandContext returns a context bounded by --timeout and cancelled on
// SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
