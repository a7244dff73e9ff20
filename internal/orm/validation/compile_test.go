package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/restbind/internal/orm/schema"
)

func TestForField(t *testing.T) {
	t.Run("no constraints", func(t *testing.T) {
		f := schema.Column("flag", schema.TypeBool).Descriptor()
		chain, err := ForField(f)
		require.NoError(t, err)
		assert.Nil(t, chain)
	})

	t.Run("length constraints", func(t *testing.T) {
		f := schema.Column("title", schema.TypeString).MinLength(2).MaxLength(5).Descriptor()
		chain, err := ForField(f)
		require.NoError(t, err)
		require.NotNil(t, chain)
		assert.Len(t, chain.Validators, 2)

		assert.Error(t, chain.Validate("a"))
		assert.NoError(t, chain.Validate("abc"))
		assert.Error(t, chain.Validate("abcdef"))
	})

	t.Run("range and pattern", func(t *testing.T) {
		f := schema.Column("age", schema.TypeInt).Min(18).Max(99).Descriptor()
		chain, err := ForField(f)
		require.NoError(t, err)
		assert.Error(t, chain.Validate(17))
		assert.NoError(t, chain.Validate("30"))

		f = schema.Column("slug", schema.TypeString).Pattern(`^[a-z]+$`).Descriptor()
		chain, err = ForField(f)
		require.NoError(t, err)
		assert.NoError(t, chain.Validate("slug"))
		assert.Error(t, chain.Validate("Slug"))
	})

	t.Run("email and url types", func(t *testing.T) {
		chain, err := ForField(schema.Column("email", schema.TypeEmail).Descriptor())
		require.NoError(t, err)
		require.NotNil(t, chain)
		assert.Error(t, chain.Validate("nope"))

		chain, err = ForField(schema.Column("site", schema.TypeURL).Descriptor())
		require.NoError(t, err)
		require.NotNil(t, chain)
		assert.NoError(t, chain.Validate("https://example.com"))
	})

	t.Run("custom message", func(t *testing.T) {
		f := schema.Column("title", schema.TypeString).MinLength(2).Message("Title is too short").Descriptor()
		chain, err := ForField(f)
		require.NoError(t, err)
		assert.EqualError(t, chain.Validate("a"), "Title is too short")
	})

	t.Run("invalid pattern", func(t *testing.T) {
		f := schema.Column("slug", schema.TypeString).Pattern(`([`).Descriptor()
		_, err := ForField(f)
		assert.Error(t, err)
	})
}

func TestCompile(t *testing.T) {
	s := schema.NewEntitySchema("ActiveObject").MustAdd(
		schema.Column("id", schema.TypeInt).Primary(),
		schema.Column("title", schema.TypeString).MinLength(2),
		schema.Column("is_active", schema.TypeBool),
		schema.Synonym("name", "title"),
	)

	require.NoError(t, Compile(s))
	require.NoError(t, Compile(s))

	title, _ := s.Field("title")
	assert.Len(t, title.Validators, 1, "compiling twice must not duplicate chains")
	assert.True(t, title.CanValidate())

	active, _ := s.Field("is_active")
	assert.Empty(t, active.Validators)
	assert.False(t, active.CanValidate())

	name, _ := s.Field("name")
	assert.Empty(t, name.Validators)

	_, err := title.Validate("a")
	var fieldErr *schema.FieldValidationError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "title", fieldErr.Field)
}
