package migrate

import (
	"github.com/spf13/cobra"

	"github.com/gdpm-dev/session-bridge/internal/business"
	"github.com/gdpm-dev/session-bridge/internal/cmdutils"
)

func Cmd() *cobra.Command {
	return cmdutils.CobraCommand(
		"migrate",
		"Applies the database migrations",
		"Creates or updates the profiles, orgs, and usernames tables.",
		business.MigrateMain,
	)
}
