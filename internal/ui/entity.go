package ui

import (
	"github.com/a-h/templ"
	"github.com/atvirokodosprendimai/portafolio/internal/application"
)

func EntityPage(layout Layout, p application.EntityPage) templ.Component {
	v := newEntityView(layout, p)
	return page(v.Layout, entityContent(v))
}

// EntityTable renders only the record table of p, with the same element id
// as the one on the full page.
func EntityTable(p application.EntityPage) templ.Component {
	return recordTableView(newRecordTable(p))
}

func entityContent(v entityView) templ.Component {
	return component(func(m *markup) {
		m.raw(`<section class="entity"`)
		m.attr("id", "entidad-"+v.Name)
		m.raw(">\n<h1>")
		m.text(v.Title)
		m.raw("</h1>\n")
		if v.Notice.Text != "" {
			m.raw("<p")
			m.attr("class", "flash flash-"+v.Notice.Kind)
			m.raw(">")
			m.text(v.Notice.Text)
			m.raw("</p>\n")
		}

		m.raw(`<form class="search" method="post"`)
		m.url("action", "/"+v.Name+"/buscar")
		m.raw(">\n")
		for _, f := range v.Search {
			m.raw("<label>")
			m.text(f.Label)
			m.raw(" <input")
			m.attr("name", f.Name)
			m.attr("value", f.Value)
			m.raw(" required></label>\n")
		}
		m.raw(`<button type="submit">Buscar</button>` + "\n")
		if v.Updating {
			m.raw(`<a class="button"`)
			m.url("href", "/"+v.Name)
			m.raw(">Nuevo</a>\n")
		}
		m.raw("</form>\n")

		m.raw(`<form class="record" method="post"`)
		m.url("action", v.Action)
		m.attr("data-modo", string(v.Mode))
		m.raw(">\n")
		for _, h := range v.Hidden {
			m.hidden(h.Name, h.Value)
		}
		for _, f := range v.Fields {
			m.render(fieldInput(f))
		}
		if v.Updating {
			m.raw(`<button type="submit">Actualizar</button>` + "\n")
		} else {
			m.raw(`<button type="submit">Crear</button>` + "\n")
		}
		m.raw("</form>\n")

		refresh := "@get('/" + v.Name + "/tabla')"
		m.raw(`<div class="table-tools" data-signals="{filtro: ''}">` + "\n")
		m.raw(`<input type="search" placeholder="Filtrar..." data-bind:filtro`)
		m.attr("data-on:input__debounce.300ms", refresh)
		m.raw(">\n")
		m.raw(`<button type="button"`)
		m.attr("data-on:click", refresh)
		m.raw(">Filtrar</button>\n</div>\n")
		m.render(recordTableView(v.Table))

		if v.View != nil {
			m.raw("<h2>Detalle</h2>\n")
			m.render(recordTableView(*v.View))
		}
		m.raw("</section>\n")
	})
}

func fieldInput(f formField) templ.Component {
	return component(func(m *markup) {
		m.raw("<label>")
		m.text(f.Label)
		m.raw(" ")
		switch {
		case f.Select:
			m.raw("<select")
			m.attr("name", f.Name)
			m.flag("required", f.Required)
			m.raw(">\n" + `<option value="">--</option>`)
			for _, o := range f.Options {
				m.raw("<option")
				m.attr("value", o.Value)
				m.flag("selected", o.Selected)
				m.raw(">")
				m.text(o.Label)
				m.raw("</option>")
			}
			m.raw("\n</select>")
		case f.Multiline:
			m.raw("<textarea")
			m.attr("name", f.Name)
			m.flag("required", f.Required)
			m.raw(">")
			m.text(f.Value)
			m.raw("</textarea>")
		case f.Checkbox:
			m.raw(`<input type="checkbox"`)
			m.attr("name", f.Name)
			m.flag("checked", f.Checked)
			m.raw(">")
		default:
			m.raw("<input")
			m.attr("type", f.InputType)
			m.attr("name", f.Name)
			m.attr("value", f.Value)
			if f.Step != "" {
				m.attr("step", f.Step)
			}
			m.flag("required", f.Required)
			m.flag("readonly", f.ReadOnly)
			m.raw(">")
		}
		m.raw("</label>\n")
	})
}

func recordTableView(t recordTable) templ.Component {
	return component(func(m *markup) {
		m.raw("<div")
		m.attr("id", t.ID)
		m.raw(` class="table-wrap">` + "\n")
		if len(t.Rows) == 0 {
			m.raw(`<p class="empty">Sin registros.</p>` + "\n</div>\n")
			return
		}
		m.raw("<table>\n<thead><tr>")
		for _, c := range t.Columns {
			m.raw("<th>")
			m.text(c)
			m.raw("</th>")
		}
		if t.Actions {
			m.raw("<th></th>")
		}
		m.raw("</tr></thead>\n<tbody>\n")
		for _, row := range t.Rows {
			m.raw("<tr>")
			for _, cell := range row.Cells {
				m.raw("<td>")
				m.text(cell)
				m.raw("</td>")
			}
			if t.Actions {
				m.render(rowActions(t.Entity, row))
			}
			m.raw("</tr>\n")
		}
		m.raw("</tbody>\n</table>\n</div>\n")
	})
}

func rowActions(entity string, row tableRow) templ.Component {
	return component(func(m *markup) {
		m.raw(`<td class="actions">`)
		if len(row.Edit) > 0 {
			m.raw(`<form method="post"`)
			m.url("action", "/"+entity+"/buscar")
			m.raw(">")
			for _, h := range row.Edit {
				m.hidden(h.Name, h.Value)
			}
			m.raw(`<button type="submit">Editar</button></form>`)
		}
		if row.DeleteURL != "" {
			m.raw(`<form method="post"`)
			m.url("action", row.DeleteURL)
			m.raw(` onsubmit="return confirm('¿Eliminar el registro?')">`)
			m.raw(`<button type="submit" class="danger">Eliminar</button></form>`)
		}
		m.raw("</td>")
	})
}
