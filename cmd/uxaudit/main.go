package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ochairo/uxaudit/internal/config"
	"github.com/ochairo/uxaudit/internal/domain/interfaces"
	"github.com/ochairo/uxaudit/internal/external-adapters/zaplog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp(os.LookupEnv).rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand
type app struct {
	configPath string
	debug      bool
	lookupEnv  func(string) (string, bool)

	cfg    *config.Config
	logger interfaces.Logger
	sync   func() error
}

func newApp(lookupEnv func(string) (string, bool)) *app {
	return &app{
		lookupEnv: lookupEnv,
		logger:    &interfaces.NoOpLogger{},
		sync:      func() error { return nil },
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "uxaudit",
		Short: "Aggregate, prioritize and validate UX audit findings",
		Long: `uxaudit turns collected page data (screenshots, DOM facts, axe-core and
Lighthouse results) into a prioritized UX audit report.

Configuration is read from --config, or uxaudit.yml / uxaudit.yaml /
uxaudit.toml in the working directory, then ANTHROPIC_* and UXAUDIT_*
environment variables, then command flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = a.sync()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (.yml, .yaml or .toml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		a.auditCmd(),
		a.validateCmd(),
		a.criteriaCmd(),
		a.verifyCmd(),
	)
	return root
}

// setup loads configuration and builds the logger
func (a *app) setup() error {
	cfg, err := config.LoadWithEnv(a.configPath, a.lookupEnv)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Debug = true
	}

	logger, err := zaplog.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.sync = logger.Sync
	return nil
}
