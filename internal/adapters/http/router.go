package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/atvirokodosprendimai/portafolio/internal/application"
	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"github.com/atvirokodosprendimai/portafolio/internal/ui"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Options carries the deployment settings the handlers need.
type Options struct {
	CookieName   string
	SecureCookie bool
	SecretKey    string
	Lang         string
	Version      string
	BackendURL   string
}

// PrincipalSource resolves the signed-in user of a request.
type PrincipalSource interface {
	Principal(r *http.Request) (domain.Principal, bool)
}

type contextKey string

const principalKey contextKey = "principal"

type Handler struct {
	catalog *application.CatalogService
	auth    *application.AuthService
	flash   flashCodec
	opts    Options
	logger  *zap.Logger
}

func NewRouter(catalog *application.CatalogService, auth *application.AuthService, opts Options, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CookieName == "" {
		opts.CookieName = "portafolio_session"
	}
	h := &Handler{
		catalog: catalog,
		auth:    auth,
		flash:   flashCodec{key: []byte(opts.SecretKey)},
		opts:    opts,
		logger:  logger.Named("http"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(h.recoverPanics)
	r.Use(h.requireSession)

	r.NotFound(h.handleNotFound)
	r.MethodNotAllowed(h.handleMethodNotAllowed)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(ui.Static())))

	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)
	r.Post("/logout", h.handleLogout)

	r.Get("/", h.handleHome)
	r.Get("/acerca", h.handleAbout)
	r.Get("/auditoria", h.handleAudit)

	for _, def := range catalog.Registry().All() {
		h.mountEntity(r, def)
	}
	return r
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if err := ui.LoginPage("", "").Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("contrasena")
	if password == "" {
		password = r.PostForm.Get("password")
	}

	_, token, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		status, message := http.StatusInternalServerError, "login.backend_error"
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			status, message = http.StatusUnauthorized, "login.invalid"
		case errors.Is(err, application.ErrBackendUnavailable):
			status = http.StatusServiceUnavailable
		default:
			h.logger.Error("login failed", zap.Error(err))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = ui.LoginPage(h.catalog.Messages().T(message), email).Render(r.Context(), w)
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(h.opts.CookieName)
	if err == nil && c.Value != "" {
		if err := h.auth.Logout(r.Context(), c.Value); err != nil {
			h.logger.Warn("logout failed", zap.Error(err))
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	if err := ui.HomePage(h.layout(w, r, "Inicio", "")).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleAbout(w http.ResponseWriter, r *http.Request) {
	about := ui.About{
		Version:  h.opts.Version,
		Backend:  h.opts.BackendURL,
		Entities: len(h.catalog.Registry().All()),
	}
	if err := ui.AboutPage(h.layout(w, r, "Acerca de", ""), about).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	layout := h.layout(w, r, "Auditoría", "")
	entries, err := h.catalog.ListAuditLogs(r.Context(), 200)
	if err != nil {
		h.logger.Error("audit list failed", zap.Error(err))
		entries = []domain.AuditEntry{}
		layout.Flash = application.Notice{Kind: application.NoticeError, Text: h.catalog.Messages().T("list.unavailable")}
	}
	if err := ui.AuditPage(layout, entries).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "error.not_found")
}

func (h *Handler) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusMethodNotAllowed, "error.method_not_allowed")
}

// recoverPanics logs a handler panic and answers with the internal error
// page instead of dropping the connection.
func (h *Handler) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			h.logger.Error("handler panic",
				zap.Any("panic", rvr),
				zap.String("path", r.URL.Path),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.ByteString("stack", debug.Stack()),
			)
			h.renderError(w, r, http.StatusInternalServerError, "error.internal")
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, messageID string) {
	message := h.catalog.Messages().T(messageID)
	layout := h.layout(w, r, message, "")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := ui.ErrorPage(layout, status, message).Render(r.Context(), w); err != nil {
		h.logger.Warn("error page render failed", zap.Error(err))
	}
}

// layout builds the page chrome and consumes any pending flash message.
func (h *Handler) layout(w http.ResponseWriter, r *http.Request, title, active string) ui.Layout {
	principal, _ := h.Principal(r)
	return ui.Layout{
		Title:  title,
		Lang:   h.opts.Lang,
		User:   principal.Email,
		Groups: h.catalog.Registry().Groups(),
		Active: active,
		Flash:  h.takeFlash(w, r),
	}
}

func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := h.authenticateRequest(r)
		if ok {
			r = r.WithContext(context.WithValue(r.Context(), principalKey, principal))
		} else if !publicPath(r.URL.Path) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func publicPath(path string) bool {
	return path == "/login" || path == "/logout" || strings.HasPrefix(path, "/static/")
}

func (h *Handler) authenticateRequest(r *http.Request) (domain.Principal, bool) {
	c, err := r.Cookie(h.opts.CookieName)
	if err != nil || strings.TrimSpace(c.Value) == "" {
		return domain.Principal{}, false
	}
	principal, err := h.auth.Authenticate(r.Context(), c.Value)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			h.logger.Warn("session lookup failed", zap.Error(err))
		}
		return domain.Principal{}, false
	}
	return principal, true
}

// Principal implements PrincipalSource for requests that went through the
// session gate.
func (h *Handler) Principal(r *http.Request) (domain.Principal, bool) {
	principal, ok := r.Context().Value(principalKey).(domain.Principal)
	return principal, ok
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.opts.SecureCookie,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(started)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func renderHTMLFragments(ctx context.Context, w http.ResponseWriter, status int, fragments ...templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	for _, fragment := range fragments {
		if fragment == nil {
			continue
		}
		_ = fragment.Render(ctx, w)
	}
}

func (h *Handler) renderFlash(ctx context.Context, w http.ResponseWriter, status int, message string) {
	if status >= 400 {
		renderHTMLFragments(ctx, w, status, ui.Flash(message, application.NoticeError))
		return
	}
	renderHTMLFragments(ctx, w, status, ui.Flash(message, application.NoticeInfo))
}
