// Package session configures server-side session storage. Session data lives
// in the database; the browser only ever holds an opaque token cookie.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Session keys used across handlers and middleware.
const (
	KeyUserID       = "user_id"
	KeyIntendedPath = "intended_path"
)

// New creates a session manager backed by the SQLite sessions table.
func New(db *sql.DB, idleTimeout time.Duration, isDev bool) *scs.SessionManager {
	sm := scs.New()

	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.IdleTimeout = idleTimeout
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev // Secure cookies in production only

	return sm
}
