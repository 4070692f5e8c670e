// Package cmdutils carries the shared bootstrap of every subcommand: config
// loading, logger initialisation, and the cobra command wrapper.
package cmdutils

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	slogctx "github.com/veqryn/slog-context"

	"github.com/gdpm-dev/session-bridge/internal/config"
)

// CobraCommand wraps a business function into a cobra command that loads the
// configuration and initialises logging before running it.
func CobraCommand(
	use, short, long string,
	businessFunc func(context.Context, *config.Config) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			ctx := cmd.Context()
			if err := initLogger(cfg); err != nil {
				return oops.In("main").Wrapf(err, "Failed to initialise the logger")
			}
			slogctx.Debug(ctx, "Starting the application", slog.String("name", cfg.Application.Name))

			if err := businessFunc(ctx, cfg); err != nil {
				return oops.In("main").Wrapf(err, "Failed to start the main business application")
			}

			return nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(
		"/etc/session-bridge/config.yaml",
		"config.yaml",
	)
}

func initLogger(cfg *config.Config) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logger.Level)); err != nil {
		return fmt.Errorf("parsing log level %q: %w", cfg.Logger.Level, err)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Logger.Format) {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(slogctx.NewHandler(handler, nil)))

	return nil
}
