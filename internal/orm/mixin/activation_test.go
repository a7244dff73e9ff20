package mixin

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/restbind/internal/orm/model"
	"github.com/conduit-lang/restbind/internal/orm/schema"
	"github.com/conduit-lang/restbind/internal/orm/session"
	"github.com/conduit-lang/restbind/internal/web/request"
)

func newActiveObject(t *testing.T) (*schema.Registry, *model.Model) {
	t.Helper()
	s := schema.NewEntitySchema("ActiveObject").MustAdd(
		schema.Column("id", schema.TypeInt).Primary().Auto().Readonly(),
		schema.Column("title", schema.TypeString).Unique(),
	)
	require.NoError(t, Activation{}.Apply(s))

	registry := schema.NewRegistry()
	require.NoError(t, registry.Register(s))
	return registry, model.MustDefine(s)
}

func TestActivation(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	registry, m := newActiveObject(t)
	sess := session.New(db, session.SQLite{}, registry)
	ctx := context.Background()
	require.NoError(t, sess.CreateTable(ctx, m.Schema()))

	activation := Activation{}

	object1, err := m.FromRequest(sess, request.New(map[string]interface{}{"title": "object 1"}))
	require.NoError(t, err)
	require.NoError(t, sess.Commit(ctx))
	assert.False(t, activation.IsActive(object1))

	n, err := activation.CountActivated(ctx, sess, m.Schema())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, activation.Activate(m, object1))
	assert.True(t, activation.IsActive(object1))
	sess.Add(object1)
	require.NoError(t, sess.Commit(ctx))

	reloaded, err := m.New()
	require.NoError(t, err)
	require.NoError(t, sess.Fetch(ctx, m.Schema(), object1.Get("id"), reloaded))
	assert.True(t, activation.IsActive(reloaded))

	dict, err := m.ToDict(reloaded)
	require.NoError(t, err)
	assert.Equal(t, true, dict["isActive"])

	n, err = activation.CountActivated(ctx, sess, m.Schema())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, activation.Deactivate(m, reloaded))
	assert.False(t, activation.IsActive(reloaded))
}

func TestActivation_ImportValue(t *testing.T) {
	_, m := newActiveObject(t)

	tests := []struct {
		raw  interface{}
		want bool
	}{
		{"false", false},
		{"FALSE", false},
		{"False", false},
		{"true", true},
		{"TRUE", true},
		{"True", true},
		{true, true},
	}

	for _, tt := range tests {
		v, err := m.ImportValue(ActiveKey, tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, v, "ImportValue(%v)", tt.raw)
	}
}

func TestActivation_Metadata(t *testing.T) {
	_, m := newActiveObject(t)

	catalog, err := m.JSONMetadata()
	require.NoError(t, err)
	require.Contains(t, catalog, "isActive")
	assert.Equal(t, "is_active", catalog["isActive"].Name)
	assert.Equal(t, "bool", catalog["isActive"].Type)
	assert.Equal(t, false, catalog["isActive"].Default)
	assert.Equal(t, "Active", catalog["isActive"].Label)
}

func TestActivation_ApplyTwice(t *testing.T) {
	s := schema.NewEntitySchema("ActiveObject")
	require.NoError(t, Activation{}.Apply(s))
	assert.Error(t, Activation{}.Apply(s))
}

func TestActivation_ActivatedCondition(t *testing.T) {
	assert.Equal(t, session.Raw(`"is_active" = 1`), Activation{}.ActivatedCondition(session.SQLite{}))
	assert.Equal(t, session.Raw(`"is_active" = TRUE`), Activation{}.ActivatedCondition(session.Postgres{}))
}
