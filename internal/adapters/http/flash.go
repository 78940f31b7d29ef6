package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/portafolio/internal/application"
)

const flashCookieName = "portafolio_flash"

// flashCodec signs one-shot notices carried across a redirect.
type flashCodec struct {
	key []byte
}

func (c flashCodec) encode(n application.Notice) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(n.Kind + "\n" + n.Text))
	return payload + "." + c.sign(payload)
}

func (c flashCodec) decode(value string) (application.Notice, bool) {
	payload, sig, ok := strings.Cut(value, ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(c.sign(payload))) {
		return application.Notice{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return application.Notice{}, false
	}
	kind, text, ok := strings.Cut(string(raw), "\n")
	if !ok || (kind != application.NoticeInfo && kind != application.NoticeError) {
		return application.Notice{}, false
	}
	return application.Notice{Kind: kind, Text: text}, true
}

func (c flashCodec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (h *Handler) setFlash(w http.ResponseWriter, n application.Notice) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    h.flash.encode(n),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.opts.SecureCookie,
		MaxAge:   60,
	})
}

// takeFlash returns the pending notice, if any, and clears it.
func (h *Handler) takeFlash(w http.ResponseWriter, r *http.Request) application.Notice {
	c, err := r.Cookie(flashCookieName)
	if err != nil {
		return application.Notice{}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
	n, ok := h.flash.decode(c.Value)
	if !ok {
		return application.Notice{}
	}
	return n
}
