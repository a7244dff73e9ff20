package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/restbind/internal/app"
	"github.com/conduit-lang/restbind/internal/cli/ui"
	"github.com/conduit-lang/restbind/internal/orm/session"
)

// NewMigrateCommand creates the tables of every served entity
func NewMigrateCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing entity tables",
		Long: `Create the table of every served entity in the configured database.
Existing tables are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.logger.Sync()

			db, dialect, err := env.openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			a, err := app.New(nil, env.logger)
			if err != nil {
				return err
			}

			sess := session.New(db, dialect, a.Registry, session.WithLogger(env.logger))
			n := len(a.Models())
			return ui.WithProgress(cmd.OutOrStdout(), fmt.Sprintf("Created %d tables", n), n, env.noColor,
				func(bar *ui.ProgressBar) error {
					return createTables(cmd.Context(), sess, a, bar)
				})
		},
	}
}
