// Package session resolves the visitor identity that unlock state is keyed by.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// CookieName is the visitor cookie.
	CookieName = "gallery_visitor"
	// HeaderName lets API clients present their visitor id directly.
	HeaderName = "X-Visitor-ID"

	cookieMaxAge = 30 * 24 * time.Hour
)

// Read returns the visitor id from the header or cookie when present and valid.
func Read(r *http.Request) (uuid.UUID, bool) {
	if r == nil {
		return uuid.Nil, false
	}
	if id, ok := parse(r.Header.Get(HeaderName)); ok {
		return id, true
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie == nil {
		return uuid.Nil, false
	}
	return parse(cookie.Value)
}

// Write sets the visitor cookie.
func Write(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id.String(),
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// Resolve returns the request's visitor id, issuing a new one (and its
// cookie) when the request carries none.
func Resolve(w http.ResponseWriter, r *http.Request) uuid.UUID {
	if id, ok := Read(r); ok {
		return id
	}
	id := uuid.New()
	Write(w, r, id)
	return id
}

func parse(value string) (uuid.UUID, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(value)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func isHTTPS(r *http.Request) bool {
	if r == nil {
		return false
	}
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
