package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mkravets/binderbot/internal/domain"
)

// NotificationCenter is the slice of the poller the notification handler
// needs: the local projection plus the optimistic mark-read operations.
type NotificationCenter interface {
	UnreadCount() int
	Notifications() []domain.Notification
	Fetch(ctx context.Context, limit int) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context) error
}

// NotificationHandler serves the notification endpoints off the poller's
// local projection.
type NotificationHandler struct {
	center NotificationCenter
	logger *slog.Logger
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(center NotificationCenter, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{center: center, logger: logger}
}

// ListNotifications returns the current projection. With ?refresh=1 it
// fetches a fresh list from the marketplace first.
// GET /api/notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") != "" {
		opts := parseListOpts(r)
		if _, err := h.center.Fetch(r.Context(), opts.Limit); err != nil {
			h.logger.WarnContext(r.Context(), "handler: notification refresh failed",
				slog.String("error", err.Error()),
			)
			// Serve the stale projection rather than failing the read.
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"unread_count":  h.center.UnreadCount(),
		"notifications": h.center.Notifications(),
	})
}

// MarkRead marks one notification as read. The local flip happens even when
// the marketplace call fails; the next poll reconciles.
// POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing notification id")
		return
	}

	if err := h.center.MarkAsRead(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "marketplace session expired")
			return
		}
		// Applied locally, not confirmed remotely.
		writeJSON(w, http.StatusAccepted, map[string]any{
			"unread_count": h.center.UnreadCount(),
			"confirmed":    false,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"unread_count": h.center.UnreadCount(),
		"confirmed":    true,
	})
}

// MarkAllRead marks every notification as read.
// POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.center.MarkAllAsRead(r.Context()); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "marketplace session expired")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"unread_count": h.center.UnreadCount(),
			"confirmed":    false,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"unread_count": h.center.UnreadCount(),
		"confirmed":    true,
	})
}
