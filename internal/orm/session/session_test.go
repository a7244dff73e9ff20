package session

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/restbind/internal/orm/attachment"
	"github.com/conduit-lang/restbind/internal/orm/model"
	"github.com/conduit-lang/restbind/internal/orm/schema"
	"github.com/conduit-lang/restbind/internal/web/request"
)

func newRegistry(t *testing.T) (*schema.Registry, *model.Model) {
	t.Helper()
	s := schema.NewEntitySchema("Member").MustAdd(
		schema.Column("id", schema.TypeInt).Primary().Auto().Readonly(),
		schema.Column("title", schema.TypeString).Unique(),
		schema.Column("is_active", schema.TypeBool).Default(false),
		schema.Column("_avatar", schema.TypeString).Attachment().Nullable(),
		schema.Computed("display", schema.TypeString),
	)
	registry := schema.NewRegistry()
	require.NoError(t, registry.Register(s))
	return registry, model.MustDefine(s)
}

func newEntity(t *testing.T, m *model.Model, form map[string]interface{}) model.Entity {
	t.Helper()
	e, err := m.New()
	require.NoError(t, err)
	require.NoError(t, m.UpdateFromRequest(e, request.New(form)))
	return e
}

func TestSession_AddPendingRollback(t *testing.T) {
	registry, m := newRegistry(t)
	s := New(nil, SQLite{}, registry)

	e := newEntity(t, m, map[string]interface{}{"title": "object 1"})
	s.Add(e)
	s.Add(e)
	assert.Len(t, s.Pending(), 1)

	s.Rollback()
	assert.Empty(t, s.Pending())
}

func TestSession_Commit_SQLite(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	registry, m := newRegistry(t)
	s := New(db, SQLite{}, registry)
	e := newEntity(t, m, map[string]interface{}{"title": "object 1", "isActive": "true"})
	s.Add(e)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "member" ("title", "is_active", "_avatar") VALUES (?, ?, ?)`)).
		WithArgs("object 1", true, nil).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Commit(context.Background()))
	assert.Equal(t, int64(42), e.Get("id"))
	assert.Empty(t, s.Pending())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_Commit_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	registry, m := newRegistry(t)
	s := New(db, Postgres{}, registry)
	e := newEntity(t, m, map[string]interface{}{"title": "object 1"})
	s.Add(e)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "member" ("title", "is_active", "_avatar") VALUES ($1, $2, $3) RETURNING "id"`)).
		WithArgs("object 1", false, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	require.NoError(t, s.Commit(context.Background()))
	assert.EqualValues(t, 7, e.Get("id"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_Commit_Failure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	registry, m := newRegistry(t)
	s := New(db, Postgres{}, registry)
	s.Add(newEntity(t, m, map[string]interface{}{"title": "dup"}))

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "member"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Detail: "Key (title)=(dup) already exists."})
	mock.ExpectRollback()

	err = s.Commit(context.Background())
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.Len(t, s.Pending(), 1, "failed commits keep entities pending")
	require.NoError(t, mock.ExpectationsWereMet())
}

type foreign struct{}

func (foreign) EntityName() string       { return "Foreign" }
func (foreign) Get(string) interface{}   { return nil }
func (foreign) Set(string, interface{}) {}

func TestSession_Commit_Unregistered(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	registry, _ := newRegistry(t)
	s := New(db, SQLite{}, registry)
	s.Add(foreign{})

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.ErrorIs(t, s.Commit(context.Background()), ErrUnregisteredEntity)
}

func TestSession_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	registry, m := newRegistry(t)
	s := New(db, Postgres{}, registry)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "member" WHERE "is_active" = TRUE AND "title" = $1`)).
		WithArgs("x").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := s.Count(context.Background(), m.Schema(), map[string]interface{}{
		"active": Raw(`"is_active" = TRUE`),
		"title":  "x",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = s.Count(context.Background(), m.Schema(), map[string]interface{}{"missing": 1})
	assert.ErrorIs(t, err, schema.ErrUnknownField)
}

func TestSession_SQLiteRoundTrip(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	registry, m := newRegistry(t)
	s := New(db, SQLite{}, registry)
	ctx := context.Background()
	require.NoError(t, s.CreateTable(ctx, m.Schema()))

	first := newEntity(t, m, map[string]interface{}{"title": "object 1", "isActive": "TRUE"})
	first.Set("_avatar", &attachment.StoredFile{ID: "a.png", Filename: "face.png", Size: 3})
	second := newEntity(t, m, map[string]interface{}{"title": "object 2"})
	s.Add(first)
	s.Add(second)
	require.NoError(t, s.Commit(ctx))

	assert.Equal(t, int64(1), first.Get("id"))
	assert.Equal(t, int64(2), second.Get("id"))

	loaded, err := m.New()
	require.NoError(t, err)
	require.NoError(t, s.Fetch(ctx, m.Schema(), 1, loaded))
	assert.Equal(t, "object 1", loaded.Get("title"))
	assert.Equal(t, true, loaded.Get("is_active"))
	avatar, ok := loaded.Get("_avatar").(*attachment.StoredFile)
	require.True(t, ok)
	assert.Equal(t, "face.png", avatar.Filename)

	n, err := s.Count(ctx, m.Schema(), map[string]interface{}{"is_active": true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, m.Set(first, "is_active", false))
	s.Add(first)
	require.NoError(t, s.Commit(ctx))

	n, err = s.Count(ctx, m.Schema(), map[string]interface{}{"is_active": true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "committing a persisted entity updates it")

	err = s.Fetch(ctx, m.Schema(), 99, loaded)
	assert.True(t, IsNotFound(err))

	s.Add(newEntity(t, m, map[string]interface{}{"title": "object 1"}))
	err = s.Commit(ctx)
	assert.True(t, IsUniqueViolation(err), "got %v", err)
}

func TestSession_ForeignKeys(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	team := schema.NewEntitySchema("Team").MustAdd(
		schema.Column("id", schema.TypeInt).Primary().Auto().Readonly(),
		schema.Column("name", schema.TypeString),
	)
	player := schema.NewEntitySchema("Player").MustAdd(
		schema.Column("id", schema.TypeInt).Primary().Auto().Readonly(),
		schema.Column("team_id", schema.TypeInt).Nullable(),
		schema.Relationship("team", "Team").ForeignKey("team_id"),
	)
	registry := schema.NewRegistry()
	require.NoError(t, registry.Register(team))
	require.NoError(t, registry.Register(player))

	s := New(db, SQLite{}, registry)
	ctx := context.Background()
	order, err := registry.CreationOrder()
	require.NoError(t, err)
	for _, es := range order {
		require.NoError(t, s.CreateTable(ctx, es))
	}

	players := model.MustDefine(player)
	s.Add(newEntity(t, players, map[string]interface{}{"teamId": 7}))
	err = s.Commit(ctx)
	assert.ErrorIs(t, err, ErrForeignKeyViolation)
	s.Rollback()

	teams := model.MustDefine(team)
	s.Add(newEntity(t, teams, map[string]interface{}{"name": "blue"}))
	require.NoError(t, s.Commit(ctx))

	s.Add(newEntity(t, players, map[string]interface{}{"teamId": 1}))
	require.NoError(t, s.Commit(ctx))
}

func TestConvertDBError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, ErrNotFound},
		{"pgx unique", &pgconn.PgError{Code: "23505"}, ErrUniqueViolation},
		{"pgx foreign key", &pgconn.PgError{Code: "23503"}, ErrForeignKeyViolation},
		{"pgx check", &pgconn.PgError{Code: "23514"}, ErrCheckViolation},
		{"pgx not null", &pgconn.PgError{Code: "23502", ColumnName: "title"}, ErrNotNullViolation},
		{"pq unique", &pq.Error{Code: "23505"}, ErrUniqueViolation},
		{"pq not null", &pq.Error{Code: "23502", Column: "title"}, ErrNotNullViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertDBError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	other := errors.New("connection reset")
	assert.Same(t, other, ConvertDBError(other))
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver      string
		name        string
		placeholder string
		wantErr     bool
	}{
		{driver: "sqlite3", name: "sqlite3", placeholder: "?"},
		{driver: "postgres", name: "postgres", placeholder: "$2"},
		{driver: "pgx", name: "pgx", placeholder: "$2"},
		{driver: "mysql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := DialectFor(tt.driver)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, d.Name())
			assert.Equal(t, tt.placeholder, d.Placeholder(2))
		})
	}
}

func TestOpen(t *testing.T) {
	db, dialect, err := Open(context.Background(), Config{Driver: "sqlite3", URL: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, "sqlite3", dialect.Name())

	_, _, err = Open(context.Background(), Config{Driver: "sqlite3"})
	assert.ErrorContains(t, err, "url is required")

	_, _, err = Open(context.Background(), Config{Driver: "oracle", URL: "x"})
	assert.Error(t, err)
}
