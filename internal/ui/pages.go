package ui

import (
	"strconv"

	"github.com/a-h/templ"
	"github.com/atvirokodosprendimai/portafolio/internal/domain"
)

func LoginPage(message, email string) templ.Component {
	return page(Layout{Title: "Ingresar", Lang: "es"}, component(func(m *markup) {
		m.raw(`<section class="login">` + "\n<h1>Portafolio</h1>\n")
		if message != "" {
			m.raw(`<p class="flash flash-error">`)
			m.text(message)
			m.raw("</p>\n")
		}
		m.raw(`<form method="post" action="/login">` + "\n")
		m.raw(`<label>Correo <input type="email" name="email"`)
		m.attr("value", email)
		m.raw(" required autofocus></label>\n")
		m.raw(`<label>Contraseña <input type="password" name="contrasena" required></label>` + "\n")
		m.raw(`<button type="submit">Ingresar</button>` + "\n</form>\n</section>\n")
	}))
}

func HomePage(layout Layout) templ.Component {
	return page(layout, component(func(m *markup) {
		m.raw(`<section class="home">` + "\n<h1>Portafolio de proyectos</h1>\n")
		m.raw(`<div class="cards">` + "\n")
		for _, g := range layout.Groups {
			m.raw(`<article class="card"><h2>`)
			m.text(g.Name)
			m.raw("</h2>\n<ul>")
			for _, def := range g.Entities {
				m.raw("<li><a")
				m.url("href", "/"+def.Name)
				m.raw(">")
				m.text(def.Title)
				m.raw("</a></li>")
			}
			m.raw("</ul>\n</article>\n")
		}
		m.raw("</div>\n</section>\n")
	}))
}

// About is what the about page reports on the running instance.
type About struct {
	Version  string
	Backend  string
	Entities int
}

func AboutPage(layout Layout, about About) templ.Component {
	return page(layout, component(func(m *markup) {
		m.raw(`<section class="about">` + "\n<h1>Acerca de</h1>\n")
		m.raw("<p>Gestión del portafolio de proyectos: estrategia, proyectos, entregables, presupuesto y responsables.</p>\n")
		m.raw("<dl>\n<dt>Versión</dt><dd>")
		m.text(about.Version)
		m.raw("</dd>\n<dt>API</dt><dd>")
		m.text(about.Backend)
		m.raw("</dd>\n<dt>Entidades</dt><dd>")
		m.text(strconv.Itoa(about.Entities))
		m.raw("</dd>\n</dl>\n</section>\n")
	}))
}

func AuditPage(layout Layout, entries []domain.AuditEntry) templ.Component {
	return page(layout, component(func(m *markup) {
		m.raw(`<section class="audit">` + "\n<h1>Auditoría</h1>\n")
		if len(entries) == 0 {
			m.raw(`<p class="empty">Sin movimientos registrados.</p>` + "\n</section>\n")
			return
		}
		m.raw("<table>\n<thead><tr><th>Fecha</th><th>Usuario</th><th>Entidad</th><th>Acción</th><th>Clave</th><th>Resultado</th><th>Detalle</th></tr></thead>\n<tbody>\n")
		for _, e := range entries {
			m.raw("<tr")
			m.attr("class", "outcome-"+e.Outcome)
			m.raw(">")
			for _, cell := range []string{
				e.CreatedAt.Format("2006-01-02 15:04:05"),
				e.Actor,
				e.Entity,
				string(e.Action),
				e.Key,
				e.Outcome,
				e.Detail,
			} {
				m.raw("<td>")
				m.text(cell)
				m.raw("</td>")
			}
			m.raw("</tr>\n")
		}
		m.raw("</tbody>\n</table>\n</section>\n")
	}))
}

// ErrorPage reports an HTTP error inside the regular page chrome.
func ErrorPage(layout Layout, status int, message string) templ.Component {
	return page(layout, component(func(m *markup) {
		m.raw(`<section class="error">` + "\n<h1>")
		m.text(strconv.Itoa(status))
		m.raw("</h1>\n<p>")
		m.text(message)
		m.raw("</p>\n")
		m.raw(`<p><a href="/">Volver al inicio</a></p>` + "\n</section>\n")
	}))
}
