package docs

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
)

// MarkdownGenerator generates Markdown documentation
type MarkdownGenerator struct {
	config *Config
}

// NewMarkdownGenerator creates a new Markdown generator
func NewMarkdownGenerator(config *Config) *MarkdownGenerator {
	if config == nil {
		config = &Config{}
	}
	return &MarkdownGenerator{config: config}
}

// Write renders doc as a single Markdown document
func (g *MarkdownGenerator) Write(w io.Writer, doc *Documentation) error {
	var buf strings.Builder

	title := g.config.Title
	if title == "" {
		title = "restbind API"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	if g.config.Description != "" {
		buf.WriteString(fmt.Sprintf("%s\n\n", g.config.Description))
	}
	if g.config.Version != "" {
		buf.WriteString(fmt.Sprintf("**Version:** %s\n\n", g.config.Version))
	}

	// Table of contents
	buf.WriteString("## Resources\n\n")
	for _, rd := range doc.Resources {
		buf.WriteString(fmt.Sprintf("- [%s](#%s)\n", rd.Entity, strings.ToLower(rd.Entity)))
	}
	buf.WriteString("\n")

	for _, rd := range doc.Resources {
		if err := g.writeResource(&buf, rd); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

func (g *MarkdownGenerator) writeResource(buf *strings.Builder, rd *ResourceDoc) error {
	buf.WriteString(fmt.Sprintf("## %s\n\n", rd.Entity))
	if rd.Documentation != "" {
		buf.WriteString(fmt.Sprintf("> %s\n\n", rd.Documentation))
	}

	// Endpoints
	base := g.config.Prefix + "/" + rd.Resource
	buf.WriteString("```http\n")
	buf.WriteString(fmt.Sprintf("POST  %s\n", base))
	if rd.PrimaryKey != nil {
		buf.WriteString(fmt.Sprintf("GET   %s/{id}\n", base))
		buf.WriteString(fmt.Sprintf("PATCH %s/{id}\n", base))
	}
	buf.WriteString(fmt.Sprintf("GET   %s/metadata\n", base))
	buf.WriteString("```\n\n")

	// Fields
	buf.WriteString("### Fields\n\n")
	if len(rd.Catalog) == 0 {
		buf.WriteString("No fields defined.\n\n")
		return nil
	}

	buf.WriteString("| Wire name | Attribute | Type | Required | Readonly | Constraints | Label |\n")
	buf.WriteString("|-----------|-----------|------|----------|----------|-------------|-------|\n")
	example := make(map[string]interface{})
	for _, r := range rd.Catalog.Sorted() {
		typ := r.Type
		if r.Target != "" {
			typ = fmt.Sprintf("%s(%s)", r.Type, r.Target)
		}
		buf.WriteString(fmt.Sprintf("| `%s` | `%s` | `%s` | %s | %s | %s | %s |\n",
			r.Key, r.Name, typ, yesNo(r.Required), yesNo(r.Readonly), constraints(r.MinLength, r.MaxLength, r.Minimum, r.Maximum, r.Pattern), dash(r.Label)))

		if r.Example != "" && !r.Readonly {
			example[r.Key] = r.Example
		}
	}
	buf.WriteString("\n")

	if len(example) > 0 {
		data, err := json.MarshalIndent(example, "", "  ")
		if err != nil {
			return err
		}
		buf.WriteString("### Example\n\n")
		buf.WriteString("```json\n")
		buf.Write(data)
		buf.WriteString("\n```\n\n")
	}
	return nil
}

func constraints(minLength, maxLength *int, minimum, maximum interface{}, pattern string) string {
	var parts []string
	if minLength != nil {
		parts = append(parts, fmt.Sprintf("min length %d", *minLength))
	}
	if maxLength != nil {
		parts = append(parts, fmt.Sprintf("max length %d", *maxLength))
	}
	if minimum != nil {
		parts = append(parts, fmt.Sprintf("min %v", minimum))
	}
	if maximum != nil {
		parts = append(parts, fmt.Sprintf("max %v", maximum))
	}
	if pattern != "" {
		parts = append(parts, fmt.Sprintf("pattern `%s`", pattern))
	}
	return dash(strings.Join(parts, ", "))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
