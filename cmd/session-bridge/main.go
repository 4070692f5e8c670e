package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gdpm-dev/session-bridge/cmd/session-bridge/apiserver"
	"github.com/gdpm-dev/session-bridge/cmd/session-bridge/migrate"
)

var (
	// BuildInfo will be set by the build system
	BuildInfo = "dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Session Bridge Version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		slog.InfoContext(cmd.Context(), BuildInfo)

		return nil
	},
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session-bridge",
		Short: "Session Bridge",
		Long:  "gdpm session bridge, deriving marketplace sessions from auth provider cookies.",
	}

	cmd.AddCommand(
		versionCmd,
		apiserver.Cmd(),
		migrate.Cmd(),
	)

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
