package ui

import (
	"context"
	"strings"
	"testing"

	"github.com/atvirokodosprendimai/portafolio/internal/application"
	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"github.com/atvirokodosprendimai/portafolio/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityPageUpdateMode(t *testing.T) {
	reg := registry.MustLoad()
	def, ok := reg.Get("proyecto")
	require.True(t, ok)

	p := application.EntityPage{
		Entity: def,
		Mode:   application.ModeUpdate,
		Records: []domain.Record{
			{"id": 7, "codigo": "P-7", "titulo": "Portal", "id_responsable": 3, "fecha_inicio": "2026-01-02T00:00:00"},
		},
		Selected: domain.Record{"id": 7, "codigo": "P-7", "titulo": "Portal", "id_responsable": 3, "fecha_inicio": "2026-01-02"},
		Lookups: map[string][]domain.Record{
			"responsable": {{"id": 3, "nombre": "Ana"}, {"id": 4, "nombre": "Luis"}},
		},
		Notice: application.Notice{Kind: application.NoticeInfo, Text: "Registro encontrado."},
	}

	var b strings.Builder
	require.NoError(t, EntityPage(Layout{User: "ana@example.com", Groups: reg.Groups()}, p).Render(context.Background(), &b))
	html := b.String()

	assert.Contains(t, html, `action="/proyecto/actualizar"`)
	assert.Contains(t, html, `<input type="hidden" name="clave_id" value="7">`)
	assert.Contains(t, html, `<option value="3" selected>3 - Ana</option>`)
	assert.Contains(t, html, `<option value="4">4 - Luis</option>`)
	assert.Contains(t, html, `value="2026-01-02"`)
	assert.Contains(t, html, `action="/proyecto/eliminar/7"`)
	assert.Contains(t, html, `id="tabla-proyecto"`)
	assert.Contains(t, html, "Registro encontrado.")
	assert.Contains(t, html, "<td>Ana</td>")
	assert.Contains(t, html, "Actualizar")
}

func TestEntityPageCreateModeComposite(t *testing.T) {
	reg := registry.MustLoad()
	def, ok := reg.Get("responsable_entregable")
	require.True(t, ok)

	p := application.EntityPage{
		Entity:  def,
		Mode:    application.ModeCreate,
		Records: []domain.Record{{"id_responsable": 2, "id_entregable": 9}},
	}

	var b strings.Builder
	require.NoError(t, EntityPage(Layout{User: "ana@example.com"}, p).Render(context.Background(), &b))
	html := b.String()

	assert.Contains(t, html, `action="/responsable_entregable"`)
	assert.NotContains(t, html, `name="clave_`)
	assert.Contains(t, html, `name="id_responsable_buscar"`)
	assert.Contains(t, html, `name="id_entregable_buscar"`)
	assert.Contains(t, html, `action="/responsable_entregable/eliminar/2/9"`)
	assert.Contains(t, html, "Crear")
}

func TestEntityTableFragment(t *testing.T) {
	reg := registry.MustLoad()
	def, _ := reg.Get("estado")

	var b strings.Builder
	require.NoError(t, EntityTable(application.EntityPage{Entity: def}).Render(context.Background(), &b))
	assert.Contains(t, b.String(), `id="tabla-estado"`)
	assert.Contains(t, b.String(), "Sin registros.")
	assert.NotContains(t, b.String(), "<html")
}

func TestLoginPageEscapesInput(t *testing.T) {
	var b strings.Builder
	require.NoError(t, LoginPage("Credenciales inválidas.", `<x@y>`).Render(context.Background(), &b))
	assert.Contains(t, b.String(), "Credenciales inválidas.")
	assert.Contains(t, b.String(), "&lt;x@y&gt;")
	assert.NotContains(t, b.String(), `action="/logout"`)
}

func TestFlash(t *testing.T) {
	var b strings.Builder
	require.NoError(t, Flash("Registro eliminado.", "info").Render(context.Background(), &b))
	assert.Equal(t, `<div id="flash" class="flash flash-info" role="status">Registro eliminado.</div>`, b.String())
}

func TestErrorPageInsideLayout(t *testing.T) {
	var b strings.Builder
	layout := Layout{Title: "Página no encontrada.", User: "ana@example.com", Groups: registry.MustLoad().Groups()}
	require.NoError(t, ErrorPage(layout, 404, "Página no encontrada.").Render(context.Background(), &b))
	html := b.String()

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "<h1>404</h1>")
	assert.Contains(t, html, "<p>Página no encontrada.</p>")
	assert.Contains(t, html, `action="/logout"`)
	assert.Contains(t, html, `<div id="flash"></div>`)
}

func TestEntityPageEscapesRecordValues(t *testing.T) {
	reg := registry.MustLoad()
	def, _ := reg.Get("estado")
	p := application.EntityPage{
		Entity:   def,
		Mode:     application.ModeUpdate,
		Records:  []domain.Record{{"id": "a b", "nombre": `<b>"x"</b>`}},
		Selected: domain.Record{"id": 1, "nombre": `<b>"x"</b>`},
	}

	var b strings.Builder
	require.NoError(t, EntityPage(Layout{User: "ana@example.com"}, p).Render(context.Background(), &b))
	html := b.String()

	assert.NotContains(t, html, "<b>")
	assert.Contains(t, html, "<td>&lt;b&gt;&#34;x&#34;&lt;/b&gt;</td>")
	assert.Contains(t, html, `value="&lt;b&gt;&#34;x&#34;&lt;/b&gt;"`)
	assert.Contains(t, html, `action="/estado/eliminar/a%20b"`)
	assert.Contains(t, html, `data-on:click="@get(&#39;/estado/tabla&#39;)"`)
}
