package commands

import (
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/restbind/internal/app"
	"github.com/conduit-lang/restbind/internal/cli/ui"
	"github.com/conduit-lang/restbind/internal/orm/metadata"
)

// NewMetadataCommand prints the metadata catalog of one entity
func NewMetadataCommand(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "metadata <entity>",
		Short: "Print the field catalog of an entity",
		Long: `Print the metadata catalog of an entity: one record per wire name with
its type, constraints and presentation hints. The entity may be given by
name (Member) or by resource (members).`,
		Example: `  restbind metadata members
  restbind metadata Member --format yaml
  restbind metadata roles --format table`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(nil, nil)
			if err != nil {
				return err
			}

			m, err := findModel(a, args[0], cmd.ErrOrStderr(), flags.noColor)
			if err != nil {
				return err
			}

			catalog, err := m.JSONMetadata()
			if err != nil {
				return err
			}
			return writeCatalog(cmd.OutOrStdout(), m.Name(), catalog, format, flags.noColor)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, yaml or table")
	return cmd
}

func writeCatalog(w io.Writer, entity string, catalog metadata.Catalog, format string, noColor bool) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(catalog, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(catalog); err != nil {
			return err
		}
		return enc.Close()

	case "table":
		ui.Header(w, entity, noColor)

		title := cases.Title(language.English)
		columns := []string{"wire name", "attribute", "type", "required", "readonly", "label"}
		headers := make([]string, len(columns))
		for i, c := range columns {
			headers[i] = title.String(c)
		}

		table := ui.NewTable(w, noColor, headers...)
		for _, r := range catalog.Sorted() {
			table.AddRow(r.Key, r.Name, r.Type,
				strconv.FormatBool(r.Required),
				strconv.FormatBool(r.Readonly),
				r.Label)
		}
		table.Render()
		return nil
	}
	return fmt.Errorf("unknown format %q: use json, yaml or table", format)
}
