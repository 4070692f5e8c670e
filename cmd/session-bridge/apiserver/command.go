package apiserver

import (
	"github.com/spf13/cobra"

	"github.com/gdpm-dev/session-bridge/internal/business"
	"github.com/gdpm-dev/session-bridge/internal/cmdutils"
)

func Cmd() *cobra.Command {
	return cmdutils.CobraCommand(
		"apiserver",
		"Starts the session bridge API server",
		"Starts the HTTP server exposing the credential flows and session resolution.",
		business.Main,
	)
}
