package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/atvirokodosprendimai/portafolio/internal/application"
	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"github.com/atvirokodosprendimai/portafolio/internal/ui"
	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"
)

// mountEntity registers the CRUD routes of one registry entity.
func (h *Handler) mountEntity(r chi.Router, def *domain.EntityDef) {
	base := "/" + def.Name
	r.Get(base, h.handleList(def))
	r.Post(base, h.handleCreate(def))
	r.Post(base+"/crear", h.handleCreate(def))
	r.Post(base+"/buscar", h.handleSearch(def))
	r.Post(base+"/actualizar", h.handleUpdate(def))
	r.Post(base+"/actualizar/*", h.handleUpdate(def))
	r.Post(base+"/eliminar/*", h.handleDelete(def))
	r.Get(base+"/tabla", h.handleTable(def))

	for _, alias := range def.Aliases {
		redirect := redirectPrefix("/"+alias, base)
		r.Handle("/"+alias, redirect)
		r.Handle("/"+alias+"/*", redirect)
	}
}

// redirectPrefix answers with a permanent redirect that swaps from for to,
// keeping the rest of the path, the query and the request method.
func redirectPrefix(from, to string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := to + strings.TrimPrefix(r.URL.EscapedPath(), from)
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
	}
}

func (h *Handler) handleList(def *domain.EntityDef) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := h.catalog.ListPage(r.Context(), def)
		h.renderEntity(w, r, page)
	}
}

func (h *Handler) handleSearch(def *domain.EntityDef) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var values []string
		if err := r.ParseForm(); err != nil {
			h.logger.Warn("search form unreadable", zap.String("entity", def.Name), zap.Error(err))
		} else {
			values = application.SearchValues(def, r.PostForm)
		}
		page := h.catalog.Search(r.Context(), def, values)
		h.renderEntity(w, r, page)
	}
}

func (h *Handler) renderEntity(w http.ResponseWriter, r *http.Request, page application.EntityPage) {
	layout := h.layout(w, r, page.Entity.Title, page.Entity.Name)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ui.EntityPage(layout, page).Render(r.Context(), w); err != nil {
		h.logger.Error("render failed", zap.String("entity", page.Entity.Name), zap.Error(err))
	}
}

func (h *Handler) handleCreate(def *domain.EntityDef) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err == nil {
			err = h.catalog.Create(r.Context(), h.actor(r), def, r.PostForm)
		}
		h.redirectWithOutcome(w, r, def, err, "record.created", "record.create_failed")
	}
}

func (h *Handler) handleUpdate(def *domain.EntityDef) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err == nil {
			values := keyFromPath(r, "/"+def.Name+"/actualizar/")
			if values == nil {
				values = application.KeyValuesFromForm(def, r.PostForm)
			}
			err = h.catalog.Update(r.Context(), h.actor(r), def, values, r.PostForm)
		}
		h.redirectWithOutcome(w, r, def, err, "record.updated", "record.update_failed")
	}
}

func (h *Handler) handleDelete(def *domain.EntityDef) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values := keyFromPath(r, "/"+def.Name+"/eliminar/")
		err := h.catalog.Delete(r.Context(), h.actor(r), def, values)
		h.redirectWithOutcome(w, r, def, err, "record.deleted", "record.delete_failed")
	}
}

type tableSignals struct {
	Filtro string `json:"filtro"`
}

// handleTable streams the filtered record table back to the page.
func (h *Handler) handleTable(def *domain.EntityDef) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sig tableSignals
		if err := datastar.ReadSignals(r, &sig); err != nil {
			h.renderFlash(r.Context(), w, http.StatusBadRequest, h.catalog.Messages().T("form.invalid", map[string]any{"Error": "filtro"}))
			return
		}
		page := h.catalog.Table(r.Context(), def, sig.Filtro)

		var table strings.Builder
		if err := ui.EntityTable(page).Render(r.Context(), &table); err != nil {
			h.logger.Error("render failed", zap.String("entity", def.Name), zap.Error(err))
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		var flash strings.Builder
		_ = ui.Flash(page.Notice.Text, page.Notice.Kind).Render(r.Context(), &flash)

		sse := datastar.NewSSE(w, r)
		if err := sse.PatchElements(table.String()); err != nil {
			h.logger.Warn("table patch failed", zap.String("entity", def.Name), zap.Error(err))
			return
		}
		_ = sse.PatchElements(flash.String())
	}
}

func (h *Handler) redirectWithOutcome(w http.ResponseWriter, r *http.Request, def *domain.EntityDef, err error, okID, failID string) {
	m := h.catalog.Messages()
	if err != nil {
		h.setFlash(w, application.Notice{
			Kind: application.NoticeError,
			Text: m.T(failID, map[string]any{"Error": application.DescribeError(m, err)}),
		})
	} else {
		h.setFlash(w, application.Notice{Kind: application.NoticeInfo, Text: m.T(okID)})
	}
	http.Redirect(w, r, "/"+def.Name, http.StatusFound)
}

func (h *Handler) actor(r *http.Request) string {
	principal, _ := h.Principal(r)
	return principal.Email
}

// keyFromPath returns the unescaped key segments after prefix, or nil when
// the path carries none.
func keyFromPath(r *http.Request, prefix string) []string {
	rest, ok := strings.CutPrefix(r.URL.EscapedPath(), prefix)
	rest = strings.Trim(rest, "/")
	if !ok || rest == "" {
		return nil
	}
	parts := strings.Split(rest, "/")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		v, err := url.PathUnescape(p)
		if err != nil {
			v = p
		}
		values = append(values, v)
	}
	return values
}
