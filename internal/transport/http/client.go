package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	cookieName  = "quiz-session"
	clientIDKey = "client_id"
)

// ClientBinder ties a browser to a client ID through a signed cookie. The client ID
// is what the quiz service keys creators and sessions by.
type ClientBinder struct {
	store sessions.Store
}

// NewClientBinder signs cookies with secret. secure marks the cookie HTTPS-only.
// The cookie carries no Max-Age, so it ends with the browser session.
func NewClientBinder(secret []byte, secure bool) *ClientBinder {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &ClientBinder{store: store}
}

// Bind returns the request's client ID, issuing a new one in the response cookie
// when the request carries none. It must run before the response body is written.
func (b *ClientBinder) Bind(w http.ResponseWriter, r *http.Request) (string, error) {
	// A tampered or stale cookie yields a fresh session, which is what we want.
	session, _ := b.store.Get(r, cookieName)
	if id, ok := session.Values[clientIDKey].(string); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	session.Values[clientIDKey] = id
	if err := session.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

// Lookup returns the client ID without issuing one.
func (b *ClientBinder) Lookup(r *http.Request) (string, bool) {
	session, err := b.store.Get(r, cookieName)
	if err != nil {
		return "", false
	}
	id, ok := session.Values[clientIDKey].(string)
	return id, ok && id != ""
}
