package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/restbind/internal/app"
	"github.com/conduit-lang/restbind/internal/cli/ui"
	"github.com/conduit-lang/restbind/internal/orm/schema"
)

// NewEntitiesCommand lists the entities restbind serves
func NewEntitiesCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the served entities",
		Long: `List every entity with the URL segment it is served under, its table
and the number of fields visible on the wire.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(nil, nil)
			if err != nil {
				return err
			}

			table := ui.NewTable(cmd.OutOrStdout(), flags.noColor, "Resource", "Entity", "Table", "Fields")
			for _, m := range a.Models() {
				s := m.Schema()
				fields := s.IterJSONColumns(true, schema.AllColumns)
				table.AddRow(app.ResourceName(s.Name), s.Name, s.TableName, strconv.Itoa(len(fields)))
			}
			table.Render()
			return nil
		},
	}
}
