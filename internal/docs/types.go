// Package docs generates API documentation from the metadata catalogs of
// the served entities. It supports OpenAPI 3.0 and Markdown output.
package docs

import (
	"context"

	"github.com/conduit-lang/restbind/internal/app"
	"github.com/conduit-lang/restbind/internal/orm/metadata"
)

// Config holds configuration for documentation generation
type Config struct {
	// Title is the name of the API
	Title string

	// Version is the version reported in the document
	Version string

	// Description is a short description of the API
	Description string

	// Prefix is mounted in front of every entity path, e.g. "/api"
	Prefix string

	// ServerURLs are the servers listed in the OpenAPI document
	ServerURLs []ServerURL
}

// ServerURL represents an API server URL in the OpenAPI document
type ServerURL struct {
	URL         string
	Description string
}

// Documentation is everything the generators describe
type Documentation struct {
	Resources []*ResourceDoc
}

// ResourceDoc describes one served entity
type ResourceDoc struct {
	// Entity is the entity name, e.g. "Member"
	Entity string

	// Resource is the URL segment, e.g. "members"
	Resource string

	// Documentation is the entity's doc string
	Documentation string

	// PrimaryKey is the catalog record of the primary key, nil if the
	// entity exports none
	PrimaryKey *metadata.Record

	Catalog metadata.Catalog
}

// Extract collects the documentation of every model of a. Catalogs come
// from cache when given.
func Extract(ctx context.Context, a *app.App, cache *metadata.Cache) (*Documentation, error) {
	doc := &Documentation{}

	for _, m := range a.Models() {
		s := m.Schema()

		var (
			catalog metadata.Catalog
			err     error
		)
		if cache != nil {
			catalog, err = cache.Get(ctx, s)
		} else {
			catalog, err = metadata.Build(s)
		}
		if err != nil {
			return nil, err
		}

		rd := &ResourceDoc{
			Entity:        s.Name,
			Resource:      app.ResourceName(s.Name),
			Documentation: s.Documentation,
			Catalog:       catalog,
		}
		for _, r := range catalog.Sorted() {
			if r.Primary {
				rd.PrimaryKey = r
				break
			}
		}
		doc.Resources = append(doc.Resources, rd)
	}

	return doc, nil
}
