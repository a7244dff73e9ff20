package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/conduit-lang/restbind/internal/app"
	"github.com/conduit-lang/restbind/internal/docs"
	"github.com/conduit-lang/restbind/internal/orm/attachment"
	"github.com/conduit-lang/restbind/internal/orm/metadata"
	"github.com/conduit-lang/restbind/internal/orm/model"
	"github.com/conduit-lang/restbind/internal/orm/schema"
	"github.com/conduit-lang/restbind/internal/orm/session"
	"github.com/conduit-lang/restbind/internal/web/middleware"
	"github.com/conduit-lang/restbind/internal/web/request"
	"github.com/conduit-lang/restbind/internal/web/response"
)

// API serves the entities of an App over HTTP
type API struct {
	App      *app.App
	DB       *sql.DB
	Dialect  session.Dialect
	Catalogs *metadata.Cache
	Files    attachment.Store
	Logger   *zap.Logger

	// Prefix is mounted in front of every entity route, e.g. "/api"
	Prefix      string
	MaxBodySize int64

	// Version is reported in the OpenAPI document
	Version string
}

// Routes builds the chi router:
//
//	GET    /healthz
//	GET    {prefix}/metadata              every catalog as JSON Lines
//	GET    {prefix}/openapi.json          OpenAPI 3.0 document
//	GET    {prefix}/files/{id}            a stored attachment
//	GET    {prefix}/{entity}/metadata     one catalog
//	POST   {prefix}/{entity}              create from the request
//	GET    {prefix}/{entity}/{id}         export one entity
//	PATCH  {prefix}/{entity}/{id}         update from the request
func (api *API) Routes() http.Handler {
	if api.Logger == nil {
		api.Logger = zap.NewNop()
	}
	if api.Catalogs == nil {
		api.Catalogs = metadata.NewCache(nil, api.Logger)
	}

	parser := request.NewParser()
	if api.MaxBodySize > 0 {
		parser = request.NewParserWithMaxSize(api.MaxBodySize)
	}
	h := &handlers{api: api, parser: parser}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(api.Logger, "/healthz"),
		middleware.Recovery(api.Logger),
	)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.RenderMethodNotAllowed(w)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.RenderNotFound(w, "route not found")
	})

	r.Get("/healthz", h.health)

	routes := func(r chi.Router) {
		r.Get("/metadata", h.allMetadata)
		r.Get("/openapi.json", h.openapi)
		if api.Files != nil {
			r.Get("/files/{id}", h.file)
		}
		r.Route("/{entity}", func(r chi.Router) {
			r.Get("/metadata", h.metadata)
			r.Post("/", h.create)
			r.Get("/{id}", h.show)
			r.Patch("/{id}", h.update)
		})
	}
	if api.Prefix != "" {
		r.Route(api.Prefix, routes)
	} else {
		routes(r)
	}
	return r
}

type handlers struct {
	api    *API
	parser *request.Parser
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.api.DB.PingContext(ctx); err != nil {
		response.RenderErrorWithCode(w, http.StatusServiceUnavailable, err, "database_unavailable")
		return
	}
	response.RenderOK(w, map[string]string{"status": "ok"})
}

// model resolves the {entity} segment, rendering 404 when it names nothing
func (h *handlers) model(w http.ResponseWriter, r *http.Request) (*model.Model, bool) {
	name := chi.URLParam(r, "entity")
	m, ok := h.api.App.Model(name)
	if !ok {
		response.RenderNotFound(w, "unknown entity: "+name)
	}
	return m, ok
}

func (h *handlers) session() *session.Session {
	return session.New(h.api.DB, h.api.Dialect, h.api.App.Registry, session.WithLogger(h.api.Logger))
}

func (h *handlers) metadata(w http.ResponseWriter, r *http.Request) {
	m, ok := h.model(w, r)
	if !ok {
		return
	}

	catalog, err := h.api.Catalogs.Get(r.Context(), m.Schema())
	if err != nil {
		response.RenderError(w, m.Schema(), err)
		return
	}
	response.RenderJSONWithETag(w, r, catalog)
}

func (h *handlers) allMetadata(w http.ResponseWriter, r *http.Request) {
	streamer, err := response.NewStreamer(w)
	if err != nil {
		response.RenderInternalError(w, err)
		return
	}

	type entry struct {
		Entity string           `json:"entity"`
		Fields metadata.Catalog `json:"fields"`
	}

	// Build every catalog up front so a failure can still be reported
	// with a proper status.
	var entries []entry
	for _, m := range h.api.App.Models() {
		catalog, err := h.api.Catalogs.Get(r.Context(), m.Schema())
		if err != nil {
			response.RenderError(w, m.Schema(), err)
			return
		}
		entries = append(entries, entry{Entity: m.Name(), Fields: catalog})
	}

	objects := make(chan interface{}, len(entries))
	for _, e := range entries {
		objects <- e
	}
	close(objects)

	if err := streamer.StreamJSON(objects); err != nil {
		h.api.Logger.Warn("metadata stream failed", zap.Error(err))
	}
}

func (h *handlers) openapi(w http.ResponseWriter, r *http.Request) {
	doc, err := docs.Extract(r.Context(), h.api.App, h.api.Catalogs)
	if err != nil {
		response.RenderInternalError(w, err)
		return
	}

	gen := docs.NewOpenAPIGenerator(&docs.Config{
		Version: h.api.Version,
		Prefix:  h.api.Prefix,
		ServerURLs: []docs.ServerURL{{
			URL:         "http://" + r.Host,
			Description: "This server",
		}},
	})
	response.RenderOK(w, gen.Spec(doc))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	m, ok := h.model(w, r)
	if !ok {
		return
	}

	req, err := h.parser.Parse(w, r)
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}

	sess := h.session()
	e, err := m.FromRequest(sess, req)
	if err != nil {
		sess.Rollback()
		response.RenderError(w, m.Schema(), err)
		return
	}
	if err := sess.Commit(r.Context()); err != nil {
		sess.Rollback()
		response.RenderError(w, m.Schema(), err)
		return
	}

	h.render(w, m, e, http.StatusCreated)
}

func (h *handlers) show(w http.ResponseWriter, r *http.Request) {
	m, ok := h.model(w, r)
	if !ok {
		return
	}

	e, _, err := h.fetch(r, m)
	if err != nil {
		response.RenderError(w, m.Schema(), err)
		return
	}

	dict, err := m.ToDict(e)
	if err != nil {
		response.RenderError(w, m.Schema(), err)
		return
	}
	response.RenderJSONWithETag(w, r, dict)
}

func (h *handlers) update(w http.ResponseWriter, r *http.Request) {
	m, ok := h.model(w, r)
	if !ok {
		return
	}

	e, sess, err := h.fetch(r, m)
	if err != nil {
		response.RenderError(w, m.Schema(), err)
		return
	}

	req, err := h.parser.Parse(w, r)
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}

	if err := m.UpdateFromRequest(e, req); err != nil {
		response.RenderError(w, m.Schema(), err)
		return
	}
	sess.Add(e)
	if err := sess.Commit(r.Context()); err != nil {
		sess.Rollback()
		response.RenderError(w, m.Schema(), err)
		return
	}

	h.render(w, m, e, http.StatusOK)
}

// fetch loads the entity named by the {id} segment
func (h *handlers) fetch(r *http.Request, m *model.Model) (model.Entity, *session.Session, error) {
	id, err := primaryKeyValue(m.Schema(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, nil, err
	}

	e, err := m.New()
	if err != nil {
		return nil, nil, err
	}

	sess := h.session()
	if err := sess.Fetch(r.Context(), m.Schema(), id, e); err != nil {
		return nil, nil, err
	}
	return e, sess, nil
}

func (h *handlers) render(w http.ResponseWriter, m *model.Model, e model.Entity, status int) {
	dict, err := m.ToDict(e)
	if err != nil {
		response.RenderError(w, m.Schema(), err)
		return
	}
	response.RenderJSON(w, status, dict)
}

func (h *handlers) file(w http.ResponseWriter, r *http.Request) {
	rc, err := h.api.Files.Open(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, attachment.ErrNotFound) {
			response.RenderNotFound(w, "file not found")
			return
		}
		response.RenderInternalError(w, err)
		return
	}
	defer rc.Close()

	streamer, err := response.NewStreamer(w)
	if err != nil {
		response.RenderInternalError(w, err)
		return
	}
	if err := streamer.StreamReader("", rc); err != nil {
		h.api.Logger.Warn("file stream failed", zap.Error(err))
	}
}

// primaryKeyValue converts a path segment to the primary key's type. A
// malformed integer key cannot match any row and is reported as not found.
func primaryKeyValue(s *schema.EntitySchema, raw string) (interface{}, error) {
	pk, err := s.PrimaryKey()
	if err != nil {
		return nil, err
	}

	switch pk.Type {
	case schema.TypeInt, schema.TypeBigInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, session.ErrNotFound
		}
		return n, nil
	}
	return raw, nil
}
