package authz

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultModel(t *testing.T) {
	m, err := DefaultModel()
	require.NoError(t, err)

	def, ok := m.Relation(TypeFile, CanView)
	require.True(t, ok)
	assert.Len(t, def.Union, 3)

	shared, ok := m.Relation(TypeFolder, IsShared)
	require.True(t, ok)
	assert.Equal(t, RelationOwner, shared.ButNot)

	assert.True(t, m.AllowsDirect(TypeFile, RelationParent, TypeFolder))
	assert.False(t, m.AllowsDirect(TypeFile, RelationParent, TypeUser))
	assert.False(t, m.AllowsDirect(TypeFile, CanView, TypeUser))

	_, ok = m.Relation(TypeFile, CanCreateFolder)
	assert.False(t, ok)
}

func TestGrantingRelations(t *testing.T) {
	m, err := DefaultModel()
	require.NoError(t, err)

	tests := []struct {
		relation Relation
		want     []Relation
		ok       bool
	}{
		{IsShared, []Relation{RelationViewer}, true},
		{CanShare, []Relation{RelationOwner}, true},
		{RelationOwner, []Relation{RelationOwner}, true},
		{CanView, nil, false},
		{CanCreateFile, nil, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.relation), func(t *testing.T) {
			got, ok := m.GrantingRelations(TypeFile, tt.relation)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseModel_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "types: {}"},
		{"unknown subject type", `
types:
  doc:
    relations:
      owner:
        direct: [team]
`},
		{"unknown computed relation", `
types:
  user: {}
  doc:
    relations:
      can_view:
        union:
          - computed: owner
`},
		{"unknown tupleset", `
types:
  user: {}
  doc:
    relations:
      can_view:
        union:
          - from: parent
            computed: can_view
`},
		{"target lacks relation", `
types:
  user: {}
  doc:
    relations:
      parent:
        direct: [user]
      can_view:
        union:
          - from: parent
            computed: can_view
`},
		{"unknown but_not", `
types:
  user: {}
  doc:
    relations:
      viewer:
        direct: [user]
      is_shared:
        union:
          - computed: viewer
        but_not: owner
`},
		{"malformed yaml", "types: ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseModel([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadModel(t *testing.T) {
	fsys := fstest.MapFS{
		"custom.yaml": {Data: []byte(`
types:
  user: {}
  folder:
    relations:
      owner:
        direct: [user]
      viewer:
        direct: [user]
      can_create_file:
        union:
          - computed: owner
          - computed: viewer
`)},
	}

	m, err := LoadModel(fsys, "custom.yaml")
	require.NoError(t, err)
	def, ok := m.Relation(TypeFolder, CanCreateFile)
	require.True(t, ok)
	assert.Len(t, def.Union, 2)

	_, err = LoadModel(fsys, "missing.yaml")
	assert.Error(t, err)
}

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("user:auth0|abc:1")
	require.NoError(t, err)
	assert.Equal(t, TypeUser, ref.Type)
	assert.Equal(t, "auth0|abc:1", ref.ID)
	assert.Equal(t, "user:auth0|abc:1", ref.String())

	for _, bad := range []string{"", "user", ":id", "user:"} {
		_, err := ParseRef(bad)
		assert.Error(t, err, bad)
	}
}
