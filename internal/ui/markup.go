package ui

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// markup writes one component's HTML and keeps the first write error.
type markup struct {
	ctx context.Context
	w   io.Writer
	err error
}

func component(build func(m *markup)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := &markup{ctx: ctx, w: w}
		build(m)
		return m.err
	})
}

func (m *markup) raw(s string) {
	if m.err == nil {
		_, m.err = io.WriteString(m.w, s)
	}
}

func (m *markup) text(s string) { m.raw(templ.EscapeString(s)) }

func (m *markup) attr(name, value string) {
	m.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// url writes a link-like attribute after templ's URL sanitization.
func (m *markup) url(name, value string) {
	m.attr(name, string(templ.URL(value)))
}

func (m *markup) flag(name string, on bool) {
	if on {
		m.raw(" " + name)
	}
}

func (m *markup) render(c templ.Component) {
	if m.err == nil && c != nil {
		m.err = c.Render(m.ctx, m.w)
	}
}

func (m *markup) hidden(name, value string) {
	m.raw(`<input type="hidden"`)
	m.attr("name", name)
	m.attr("value", value)
	m.raw(">")
}
