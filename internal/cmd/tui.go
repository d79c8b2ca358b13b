package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"makerapi/internal/config"
	"makerapi/internal/logging"
	"makerapi/internal/session"
	"makerapi/internal/ui"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and try routes interactively (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd)
		},
	}
}

func runTUI(c *cobra.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if !stdoutIsTerminal() {
		return usageExit("the TUI needs a terminal; use a subcommand such as `makerapi routes` instead")
	}

	log, closeLog, err := tuiLogger(cfg)
	if err != nil {
		return ExitResult{Code: exitFailure, Message: err.Error(), ToStderr: true}
	}
	defer closeLog()

	st, err := session.Open(cfg, log)
	if err != nil {
		return failure(err)
	}
	if err := ui.New(st, cfg.Editor, log).Run(c.Context()); err != nil {
		return ExitResult{Code: exitFailure, Message: err.Error(), ToStderr: true}
	}
	return nil
}

// tuiLogger writes to the configured log file while the screen is owned by
// the TUI, and discards otherwise.
func tuiLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	if cfg.LogFile == "" {
		return logging.Nop(), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
		Output: f,
	})
	return log, func() { f.Close() }, nil
}
