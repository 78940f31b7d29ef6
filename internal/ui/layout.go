package ui

import (
	"github.com/a-h/templ"
	"github.com/atvirokodosprendimai/portafolio/internal/application"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// page wraps content in the document shell: head, navigation for signed-in
// users, and the pending flash message.
func page(l Layout, content templ.Component) templ.Component {
	return component(func(m *markup) {
		lang := l.Lang
		if lang == "" {
			lang = "es"
		}
		m.raw("<!DOCTYPE html>\n<html")
		m.attr("lang", lang)
		m.raw(">\n<head>\n")
		m.raw(`<meta charset="utf-8">` + "\n")
		m.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
		m.raw("<title>")
		m.text(l.Title + " · Portafolio")
		m.raw("</title>\n")
		m.raw(`<link rel="stylesheet" href="/static/app.css">` + "\n")
		m.raw(`<script type="module"`)
		m.url("src", datastarScript)
		m.raw("></script>\n</head>\n<body>\n")
		if l.User != "" {
			m.render(topbar(l))
		}
		m.raw("<main>\n")
		m.render(flash(l.Flash))
		m.render(content)
		m.raw("</main>\n</body>\n</html>\n")
	})
}

func topbar(l Layout) templ.Component {
	return component(func(m *markup) {
		m.raw(`<header class="topbar">` + "\n")
		m.raw(`<a class="brand" href="/">Portafolio</a>` + "\n<nav>\n")
		for _, g := range l.Groups {
			m.raw(`<details class="menu"><summary>`)
			m.text(g.Name)
			m.raw("</summary>\n<ul>\n")
			for _, def := range g.Entities {
				m.raw("<li><a")
				m.url("href", "/"+def.Name)
				if def.Name == l.Active {
					m.attr("class", "active")
				}
				m.raw(">")
				m.text(def.Title)
				m.raw("</a></li>\n")
			}
			m.raw("</ul>\n</details>\n")
		}
		m.raw(`<a href="/auditoria">Auditoría</a>` + "\n")
		m.raw(`<a href="/acerca">Acerca de</a>` + "\n</nav>\n")
		m.raw(`<span class="user">`)
		m.text(l.User)
		m.raw("</span>\n")
		m.raw(`<form method="post" action="/logout"><button type="submit">Salir</button></form>` + "\n")
		m.raw("</header>\n")
	})
}

func flash(n application.Notice) templ.Component {
	return component(func(m *markup) {
		if n.Text == "" {
			m.raw(`<div id="flash"></div>`)
			return
		}
		m.raw(`<div id="flash"`)
		m.attr("class", "flash flash-"+n.Kind)
		m.raw(` role="status">`)
		m.text(n.Text)
		m.raw("</div>")
	})
}

// Flash renders the flash slot alone, for fragment responses.
func Flash(message, kind string) templ.Component {
	return flash(application.Notice{Kind: kind, Text: message})
}
