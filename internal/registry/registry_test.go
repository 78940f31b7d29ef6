package registry

import (
	"testing"

	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedRegistry(t *testing.T) {
	r, err := Load()
	require.NoError(t, err)

	assert.Len(t, r.All(), 24)

	proyecto, ok := r.Get("proyecto")
	require.True(t, ok)
	assert.Equal(t, "proyecto", proyecto.Endpoint)
	assert.Equal(t, domain.KeySpec{Segment: "id", Fields: []string{"id"}}, proyecto.Key)
	assert.Equal(t, "fecha_modificacion", proyecto.ModifiedField)
	assert.Equal(t, domain.SearchBackend, proyecto.Search)

	lookups := proyecto.Lookups()
	names := make([]string, 0, len(lookups))
	for _, l := range lookups {
		names = append(names, l.Entity)
	}
	assert.Equal(t, []string{"proyecto", "responsable", "tipo_proyecto"}, names)
}

func TestAssociationKeys(t *testing.T) {
	r := MustLoad()

	re, ok := r.Get("responsable_entregable")
	require.True(t, ok)
	assert.True(t, re.Key.Composite())
	assert.Equal(t, []string{"id_responsable", "id_entregable"}, re.Key.Fields)

	mp, _ := r.Get("meta_proyecto")
	assert.Equal(t, "id_meta", mp.Key.Segment)

	ep, _ := r.Get("estado_proyecto")
	assert.Equal(t, "id_proyecto", ep.Key.Segment)
	assert.Equal(t, "view_estado_proyecto", ep.View)

	ae, _ := r.Get("archivo_entregable")
	assert.Equal(t, domain.SearchBackend, ae.Search)

	rol, _ := r.Get("rol")
	assert.Equal(t, []string{"roles"}, rol.Aliases)
}

func TestGroupsPreserveOrder(t *testing.T) {
	groups := MustLoad().Groups()
	require.NotEmpty(t, groups)
	assert.Equal(t, "Seguridad", groups[0].Name)
	assert.Equal(t, "usuario", groups[0].Entities[0].Name)
	assert.Equal(t, "Asociaciones", groups[len(groups)-1].Name)
}

func TestParseAppliesDefaults(t *testing.T) {
	r, err := Parse([]byte(`
- name: estado
  fields:
    - {name: nombre}
- name: tarea
  endpoint: tareas
  fields:
    - name: id_estado
      kind: int
      lookup: {entity: estado}
`))
	require.NoError(t, err)

	estado, _ := r.Get("estado")
	assert.Equal(t, "estado", estado.Title)
	assert.Equal(t, domain.KindString, estado.Fields[0].Kind)
	assert.Equal(t, "nombre", estado.Fields[0].Label)

	tarea, _ := r.Get("tarea")
	assert.Equal(t, "tareas", tarea.Endpoint)
	assert.Equal(t, "id", tarea.Fields[0].Lookup.Value)
	assert.Equal(t, "id", tarea.Fields[0].Lookup.Label)
}

func TestParseRejectsInvalidRegistries(t *testing.T) {
	cases := map[string]string{
		"duplicate entity": "- {name: a}\n- {name: a}\n",
		"unknown lookup":   "- name: a\n  fields:\n    - {name: x, lookup: {entity: b}}\n",
		"unknown kind":     "- name: a\n  fields:\n    - {name: x, kind: blob}\n",
		"bad search":       "- {name: a, search: remote}\n",
		"bad modified":     "- name: a\n  modified_field: x\n  fields:\n    - {name: x}\n",
		"bad name":         "- {name: A-B}\n",
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestParseRejectsAliasClashingWithEntity(t *testing.T) {
	_, err := Parse([]byte(`
- name: rol
  aliases: [usuario]
- name: usuario
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `alias "usuario" is an entity name`)
}
