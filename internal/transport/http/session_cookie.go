package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"opsdash/internal/session"
)

type sessionCtxKey struct{}

// SessionCookies issues and reads the cookie that identifies a browser
// session.
type SessionCookies struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Current returns the session ID carried by the request, or "" when the
// cookie is missing or malformed.
func (c SessionCookies) Current(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}

// Ensure returns the request's session ID, issuing a new cookie when there
// is none.
func (c SessionCookies) Ensure(w http.ResponseWriter, r *http.Request) string {
	if id := c.Current(r); id != "" {
		return id
	}
	id := session.NewID()
	http.SetCookie(w, c.cookie(id, int(c.TTL.Seconds())))
	return id
}

// Clear expires the session cookie.
func (c SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie("", -1))
}

func (c SessionCookies) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionCtx makes sure every request runs inside a session and stores its
// ID in the context.
func (c SessionCookies) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := c.Ensure(w, r)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionCtxKey{}, id)))
	})
}

// SessionID returns the ID stored by SessionCtx.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionCtxKey{}).(string)
	return id
}
