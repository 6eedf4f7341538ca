package handler

import (
	"net/http"
	"time"

	"github.com/mkravets/binderbot/internal/domain"
)

// Identity reports the marketplace account the daemon is signed in as.
type Identity interface {
	CurrentUser() (domain.UserSummary, bool)
}

// SessionHandler serves the daemon's session and status endpoints.
type SessionHandler struct {
	identity  Identity
	mode      string
	startedAt time.Time
}

// NewSessionHandler creates a SessionHandler for the given identity source
// and run mode.
func NewSessionHandler(identity Identity, mode string) *SessionHandler {
	return &SessionHandler{
		identity:  identity,
		mode:      mode,
		startedAt: time.Now().UTC(),
	}
}

// GetSession reports whether the daemon holds a marketplace session and, if
// so, the signed-in user. The credential itself is never exposed.
// GET /api/session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity.CurrentUser()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          user,
	})
}

// GetStatus responds with the daemon mode and uptime.
// GET /api/status
func (h *SessionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	_, authenticated := h.identity.CurrentUser()
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":           h.mode,
		"authenticated":  authenticated,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}
