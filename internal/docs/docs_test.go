package docs

import (
	"bytes"
	"context"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/restbind/internal/app"
	"github.com/conduit-lang/restbind/internal/orm/metadata"
)

func extract(t *testing.T) *Documentation {
	t.Helper()
	a, err := app.New(nil, nil)
	require.NoError(t, err)

	doc, err := Extract(context.Background(), a, metadata.NewCache(nil, nil))
	require.NoError(t, err)
	return doc
}

func TestExtract(t *testing.T) {
	doc := extract(t)
	require.Len(t, doc.Resources, 2)

	member := doc.Resources[0]
	assert.Equal(t, "Member", member.Entity)
	assert.Equal(t, "members", member.Resource)
	assert.Equal(t, "A person using the service", member.Documentation)
	require.NotNil(t, member.PrimaryKey)
	assert.Equal(t, "id", member.PrimaryKey.Key)
	assert.Contains(t, member.Catalog, "fullName")
}

func TestOpenAPIGenerator(t *testing.T) {
	doc := extract(t)
	gen := NewOpenAPIGenerator(&Config{Title: "Members", Version: "1.2.0", Prefix: "/api"})

	var buf bytes.Buffer
	require.NoError(t, gen.Write(&buf, doc))

	var spec struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Paths      map[string]map[string]interface{} `json:"paths"`
		Components struct {
			Schemas map[string]struct {
				Properties map[string]map[string]interface{} `json:"properties"`
				Required   []string                          `json:"required"`
			} `json:"schemas"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &spec))

	assert.Equal(t, "3.0.3", spec.OpenAPI)
	assert.Equal(t, "Members", spec.Info.Title)
	assert.Equal(t, "1.2.0", spec.Info.Version)

	assert.Contains(t, spec.Paths["/api/members"], "post")
	assert.Contains(t, spec.Paths["/api/members/{id}"], "get")
	assert.Contains(t, spec.Paths["/api/members/{id}"], "patch")
	assert.Contains(t, spec.Paths, "/api/roles/metadata")

	member := spec.Components.Schemas["Member"]
	assert.Equal(t, []string{"fullName", "title"}, member.Required)
	assert.NotContains(t, member.Properties, "password")

	email := member.Properties["email"]
	assert.Equal(t, "string", email["type"])
	assert.Equal(t, "email", email["format"])
	assert.Equal(t, true, email["nullable"])

	id := member.Properties["id"]
	assert.Equal(t, "integer", id["type"])
	assert.Equal(t, true, id["readOnly"])

	title := member.Properties["title"]
	assert.EqualValues(t, 2, title["minLength"])
	assert.EqualValues(t, 100, title["maxLength"])

	role := member.Properties["role"]
	allOf, ok := role["allOf"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"$ref": "#/components/schemas/Role"}, allOf[0])

	assert.Contains(t, spec.Components.Schemas, "Error")
}

func TestMapTypeToOpenAPI(t *testing.T) {
	tests := []struct {
		in     string
		typ    string
		format string
	}{
		{"int", "integer", "int32"},
		{"bigint", "integer", "int64"},
		{"decimal", "number", ""},
		{"bool", "boolean", ""},
		{"timestamp", "string", "date-time"},
		{"uuid", "string", "uuid"},
		{"set", "array", ""},
		{"text", "string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			typ, format := mapTypeToOpenAPI(tt.in)
			assert.Equal(t, tt.typ, typ)
			assert.Equal(t, tt.format, format)
		})
	}
}

func TestMarkdownGenerator(t *testing.T) {
	doc := extract(t)
	gen := NewMarkdownGenerator(&Config{Prefix: "/api", Version: "1.2.0"})

	var buf bytes.Buffer
	require.NoError(t, gen.Write(&buf, doc))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# restbind API\n"))
	assert.Contains(t, out, "**Version:** 1.2.0")
	assert.Contains(t, out, "- [Member](#member)")
	assert.Contains(t, out, "PATCH /api/members/{id}")
	assert.Contains(t, out, "| `fullName` | `name` | `string` | Yes | No | min length 2, max length 100 | Full name |")
	assert.Contains(t, out, "| `role` | `role` | `entity(Role)` |")
	assert.Contains(t, out, `"title": "object 1"`)
	assert.NotContains(t, out, "password")
}
