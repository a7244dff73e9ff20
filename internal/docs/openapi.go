package docs

import (
	"fmt"
	"io"
	"net/http"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/conduit-lang/restbind/internal/orm/metadata"
)

// OpenAPIGenerator generates OpenAPI 3.0 documents
type OpenAPIGenerator struct {
	config *Config
}

// NewOpenAPIGenerator creates a new OpenAPI generator
func NewOpenAPIGenerator(config *Config) *OpenAPIGenerator {
	if config == nil {
		config = &Config{}
	}
	return &OpenAPIGenerator{config: config}
}

// Write encodes the document for doc as indented JSON
func (g *OpenAPIGenerator) Write(w io.Writer, doc *Documentation) error {
	data, err := json.MarshalIndent(g.Spec(doc), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal OpenAPI document: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Spec builds the OpenAPI document
func (g *OpenAPIGenerator) Spec(doc *Documentation) map[string]interface{} {
	title := g.config.Title
	if title == "" {
		title = "restbind API"
	}
	version := g.config.Version
	if version == "" {
		version = "dev"
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       title,
			"version":     version,
			"description": g.config.Description,
		},
		"servers":    g.createServers(),
		"paths":      g.createPaths(doc.Resources),
		"components": g.createComponents(doc.Resources),
	}
}

func (g *OpenAPIGenerator) createServers() []map[string]interface{} {
	servers := make([]map[string]interface{}, 0, len(g.config.ServerURLs))
	for _, s := range g.config.ServerURLs {
		servers = append(servers, map[string]interface{}{
			"url":         s.URL,
			"description": s.Description,
		})
	}

	if len(servers) == 0 {
		servers = append(servers, map[string]interface{}{
			"url":         "http://localhost:3000",
			"description": "Development server",
		})
	}
	return servers
}

func (g *OpenAPIGenerator) createPaths(resources []*ResourceDoc) map[string]interface{} {
	paths := make(map[string]interface{})

	for _, rd := range resources {
		base := g.config.Prefix + "/" + rd.Resource
		ref := schemaRef(rd.Entity)

		paths[base] = map[string]interface{}{
			"post": g.createOperation(rd, "create", "Create a "+rd.Entity, nil, ref,
				http.StatusCreated, http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity),
		}

		paths[base+"/metadata"] = map[string]interface{}{
			"get": map[string]interface{}{
				"summary":     "Field catalog of " + rd.Entity,
				"operationId": "metadata_" + rd.Resource,
				"tags":        []string{rd.Resource},
				"responses": map[string]interface{}{
					"200": map[string]interface{}{
						"description": "Records keyed by wire name",
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type":                 "object",
									"additionalProperties": map[string]interface{}{"type": "object"},
								},
							},
						},
					},
				},
			},
		}

		if rd.PrimaryKey != nil {
			idParam := []map[string]interface{}{{
				"name":     "id",
				"in":       "path",
				"required": true,
				"schema":   propertyObject(rd.PrimaryKey),
			}}
			paths[base+"/{id}"] = map[string]interface{}{
				"get": g.createOperation(rd, "show", "Fetch a "+rd.Entity, idParam, nil,
					http.StatusOK, http.StatusNotFound),
				"patch": g.createOperation(rd, "update", "Update a "+rd.Entity, idParam, ref,
					http.StatusOK, http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity),
			}
		}
	}

	return paths
}

func (g *OpenAPIGenerator) createOperation(rd *ResourceDoc, action, summary string, params []map[string]interface{}, body map[string]interface{}, statuses ...int) map[string]interface{} {
	operation := map[string]interface{}{
		"summary":     summary,
		"description": rd.Documentation,
		"operationId": fmt.Sprintf("%s_%s", action, rd.Resource),
		"tags":        []string{rd.Resource},
		"responses":   g.createResponses(rd, statuses),
	}

	if len(params) > 0 {
		operation["parameters"] = params
	}

	if body != nil {
		operation["requestBody"] = map[string]interface{}{
			"required": true,
			"content": map[string]interface{}{
				"application/json":                  map[string]interface{}{"schema": body},
				"application/x-www-form-urlencoded": map[string]interface{}{"schema": body},
				"multipart/form-data":               map[string]interface{}{"schema": body},
			},
		}
	}

	return operation
}

func (g *OpenAPIGenerator) createResponses(rd *ResourceDoc, statuses []int) map[string]interface{} {
	responses := make(map[string]interface{})

	for _, status := range statuses {
		response := map[string]interface{}{
			"description": http.StatusText(status),
		}
		schema := schemaRef("Error")
		if status < http.StatusBadRequest {
			schema = schemaRef(rd.Entity)
		}
		response["content"] = map[string]interface{}{
			"application/json": map[string]interface{}{"schema": schema},
		}
		responses[fmt.Sprintf("%d", status)] = response
	}

	return responses
}

func (g *OpenAPIGenerator) createComponents(resources []*ResourceDoc) map[string]interface{} {
	schemas := map[string]interface{}{
		"Error": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"error":   map[string]interface{}{"type": "string"},
				"code":    map[string]interface{}{"type": "string"},
				"fields":  map[string]interface{}{"type": "object"},
				"details": map[string]interface{}{"type": "object"},
			},
			"required": []string{"error"},
		},
	}

	for _, rd := range resources {
		properties := make(map[string]interface{})
		required := make([]string, 0)

		for _, r := range rd.Catalog.Sorted() {
			properties[r.Key] = propertyObject(r)
			if r.Required && !r.Readonly {
				required = append(required, r.Key)
			}
		}

		schema := map[string]interface{}{
			"type":       "object",
			"properties": properties,
		}
		if len(required) > 0 {
			sort.Strings(required)
			schema["required"] = required
		}
		if rd.Documentation != "" {
			schema["description"] = rd.Documentation
		}

		schemas[rd.Entity] = schema
	}

	return map[string]interface{}{
		"schemas": schemas,
	}
}

func schemaRef(name string) map[string]interface{} {
	return map[string]interface{}{"$ref": "#/components/schemas/" + name}
}

// propertyObject describes one catalog record as an OpenAPI schema
func propertyObject(r *metadata.Record) map[string]interface{} {
	switch r.Type {
	case "entity":
		return map[string]interface{}{
			"allOf":    []interface{}{schemaRef(r.Target)},
			"readOnly": r.Readonly,
		}
	case "list":
		return map[string]interface{}{
			"type":     "array",
			"items":    schemaRef(r.Target),
			"readOnly": r.Readonly,
		}
	}

	typ, format := mapTypeToOpenAPI(r.Type)
	prop := map[string]interface{}{
		"type": typ,
	}
	if format != "" {
		prop["format"] = format
	}
	if typ == "array" {
		prop["items"] = map[string]interface{}{"type": "string"}
	}
	if r.Label != "" {
		prop["title"] = r.Label
	}
	if r.Message != "" {
		prop["description"] = r.Message
	}
	if r.Readonly {
		prop["readOnly"] = true
	}
	if !r.NotNone {
		prop["nullable"] = true
	}
	if r.MinLength != nil {
		prop["minLength"] = *r.MinLength
	}
	if r.MaxLength != nil {
		prop["maxLength"] = *r.MaxLength
	}
	if r.Minimum != nil {
		prop["minimum"] = r.Minimum
	}
	if r.Maximum != nil {
		prop["maximum"] = r.Maximum
	}
	if r.Pattern != "" {
		prop["pattern"] = r.Pattern
	}
	if r.Example != "" {
		prop["example"] = r.Example
	}
	if r.Default != nil {
		prop["default"] = r.Default
	}
	return prop
}

// mapTypeToOpenAPI maps catalog type names to an OpenAPI type and format
func mapTypeToOpenAPI(t string) (string, string) {
	switch t {
	case "int":
		return "integer", "int32"
	case "bigint":
		return "integer", "int64"
	case "float":
		return "number", "double"
	case "decimal":
		return "number", ""
	case "bool":
		return "boolean", ""
	case "timestamp":
		return "string", "date-time"
	case "date":
		return "string", "date"
	case "uuid":
		return "string", "uuid"
	case "email":
		return "string", "email"
	case "url":
		return "string", "uri"
	case "file":
		return "string", "binary"
	case "json":
		return "object", ""
	case "set":
		return "array", ""
	default:
		return "string", ""
	}
}
