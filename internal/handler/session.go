package handler

import (
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Session identification. Browser clients carry a cookie; API clients may set
// the header instead. The header wins when both are present.
const (
	HeaderSessionID = "X-Session-ID"
	SessionCookie   = "slot_session"

	// SessionCookieMaxAge keeps a browser session across visits.
	SessionCookieMaxAge = 30 * 24 * time.Hour
)

// sessionIDPattern bounds what we accept as a session ID. Save stores key on
// this value, so it must stay filesystem- and SQL-safe.
var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,128}$`)

// SessionFromRequest extracts the session ID from the header or cookie.
func SessionFromRequest(r *http.Request) (string, bool) {
	if id := r.Header.Get(HeaderSessionID); id != "" {
		return id, true
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

// EnsureSession returns the request's session ID, minting a new one and
// setting the cookie when the client has none. A malformed ID is rejected
// with a 400; the caller should return without further writes.
func EnsureSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := SessionFromRequest(r)
	if !ok {
		id = uuid.New().String()
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(SessionCookieMaxAge.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		return id, true
	}

	if !sessionIDPattern.MatchString(id) {
		respondError(w, http.StatusBadRequest, ErrMsgSessionInvalid)
		return "", false
	}
	return id, true
}
