package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/restbind/internal/app"
	"github.com/conduit-lang/restbind/internal/cli/ui"
	"github.com/conduit-lang/restbind/internal/docs"
)

// NewDocsCommand generates API documentation from the entity catalogs
func NewDocsCommand(flags *globalFlags) *cobra.Command {
	var (
		format string
		output string
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Generate API documentation",
		Long: `Generate API documentation for every served entity from its metadata
catalog, as an OpenAPI 3.0 document or as Markdown.`,
		Example: `  restbind docs > openapi.json
  restbind docs --format markdown --output API.md --prefix /api`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(nil, nil)
			if err != nil {
				return err
			}

			doc, err := docs.Extract(cmd.Context(), a, nil)
			if err != nil {
				return err
			}

			config := &docs.Config{Version: Version, Prefix: prefix}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			switch format {
			case "openapi":
				err = docs.NewOpenAPIGenerator(config).Write(w, doc)
			case "markdown":
				err = docs.NewMarkdownGenerator(config).Write(w, doc)
			default:
				return fmt.Errorf("unknown format %q: use openapi or markdown", format)
			}
			if err != nil {
				return err
			}

			if output != "" {
				ui.WriteSuccess(cmd.OutOrStdout(), "Wrote "+output, flags.noColor)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "openapi", "Output format: openapi or markdown")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Path prefix the API is mounted under")
	return cmd
}
