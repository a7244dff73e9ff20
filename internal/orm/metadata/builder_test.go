package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/restbind/internal/orm/schema"
)

func newMemberSchema() *schema.EntitySchema {
	return schema.NewEntitySchema("Member").MustAdd(
		schema.Column("id", schema.TypeInt).Primary().Readonly(),
		schema.Column("title", schema.TypeString).Required().MinLength(2).MaxLength(50).
			Watermark("Enter a title").Example("object 1"),
		schema.Column("age", schema.TypeInt).Nullable().Min(0).Max(150),
		schema.Column("is_active", schema.TypeBool).Default(false),
		schema.Column("password", schema.TypeString).Protected(),
		schema.Column("role_id", schema.TypeInt).Nullable(),
		schema.Relationship("role", "Role").ForeignKey("role_id"),
		schema.Relationship("tags", "Tag").Many(),
		schema.Synonym("name", "title").JSON("fullName").Label("Full name"),
	)
}

func TestBuild(t *testing.T) {
	catalog, err := Build(newMemberSchema())
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"age", "fullName", "id", "isActive", "role", "roleId", "tags", "title"},
		catalog.Keys())
	assert.NotContains(t, catalog, "password", "protected fields are not described")

	id := catalog["id"]
	assert.True(t, id.Primary)
	assert.True(t, id.Readonly)
	assert.Equal(t, "int", id.Type)

	title := catalog["title"]
	assert.Equal(t, "title", title.Name)
	assert.Equal(t, "string", title.Type)
	assert.True(t, title.Required)
	assert.True(t, title.NotNone)
	require.NotNil(t, title.MinLength)
	assert.Equal(t, 2, *title.MinLength)
	require.NotNil(t, title.MaxLength)
	assert.Equal(t, 50, *title.MaxLength)
	assert.Equal(t, "Enter a title", title.Watermark)
	assert.Equal(t, "object 1", title.Example)
	assert.Equal(t, "Title", title.Label)

	age := catalog["age"]
	assert.False(t, age.NotNone)
	assert.Equal(t, 0, age.Minimum)
	assert.Equal(t, 150, age.Maximum)

	assert.Equal(t, false, catalog["isActive"].Default)
}

func TestBuild_Synonym(t *testing.T) {
	catalog, err := Build(newMemberSchema())
	require.NoError(t, err)

	name := catalog["fullName"]
	require.NotNil(t, name)
	assert.Equal(t, "name", name.Name)
	assert.Equal(t, "string", name.Type, "synonyms describe the aliased column")
	assert.True(t, name.Required)
	assert.Equal(t, "Full name", name.Label)
}

func TestBuild_Relationships(t *testing.T) {
	catalog, err := Build(newMemberSchema())
	require.NoError(t, err)

	role := catalog["role"]
	assert.Equal(t, "entity", role.Type)
	assert.Equal(t, "Role", role.Target)

	roleID := catalog["roleId"]
	require.NotNil(t, roleID)
	assert.Equal(t, "role_id", roleID.Name)
	assert.Equal(t, "int", roleID.Type)
	assert.Equal(t, "Role", roleID.Target)

	tags := catalog["tags"]
	assert.Equal(t, "list", tags.Type)
	assert.Equal(t, "Tag", tags.Target)
}

func TestBuild_LastWriteWins(t *testing.T) {
	s := schema.NewEntitySchema("Member").MustAdd(
		schema.Column("title", schema.TypeString),
		schema.Column("heading", schema.TypeText).JSON("title"),
	)

	catalog, err := Build(s)
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, "heading", catalog["title"].Name)
	assert.Equal(t, "text", catalog["title"].Type)
}

func TestBuild_DanglingSynonym(t *testing.T) {
	s := schema.NewEntitySchema("Member").MustAdd(
		schema.Synonym("name", "missing"),
	)

	_, err := Build(s)
	assert.ErrorIs(t, err, schema.ErrUnknownField)
}

func TestCatalog_Sorted(t *testing.T) {
	c := Catalog{
		"b": {Key: "b"},
		"a": {Key: "a"},
	}
	sorted := c.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "a", sorted[0].Key)
	assert.Equal(t, "b", sorted[1].Key)
}
