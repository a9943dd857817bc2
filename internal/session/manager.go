package session

import (
	"net/http"

	"github.com/google/uuid"
)

// DefaultCookieName is the session cookie used when none is configured.
const DefaultCookieName = "mtg_session"

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) ManagerOption {
	return func(m *Manager) {
		m.cookieName = name
	}
}

// WithSecureCookie marks issued cookies Secure (HTTPS-only).
func WithSecureCookie(secure bool) ManagerOption {
	return func(m *Manager) {
		m.secure = secure
	}
}

// Manager binds browser requests to store sessions via an opaque cookie.
// The cookie carries only a random identifier; all values stay server-side.
type Manager struct {
	store      Store
	cookieName string
	secure     bool
}

// NewManager creates a Manager on top of the given Store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:      store,
		cookieName: DefaultCookieName,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns the request's session, issuing a fresh identifier cookie
// if the request carries none. SameSite=Lax keeps the cookie on the
// top-level redirect back from the authorization server while blocking
// cross-site subresource requests.
func (m *Manager) Session(w http.ResponseWriter, r *http.Request) *Session {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return &Session{id: cookie.Value, store: m.store}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return &Session{id: id, store: m.store}
}
