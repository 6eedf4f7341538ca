package cardmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mkravets/binderbot/internal/domain"
)

// Notifications returns the most recent notifications, newest first.
func (c *Client) Notifications(ctx context.Context, limit int) ([]domain.Notification, error) {
	path := "/notifications"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: list notifications: %w", err)
	}

	var notifications []domain.Notification
	if err := json.Unmarshal(body, &notifications); err != nil {
		return nil, fmt.Errorf("cardmarket: decode notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/notifications/unread-count", nil)
	if err != nil {
		return 0, fmt.Errorf("cardmarket: get unread count: %w", err)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("cardmarket: decode unread count: %w", err)
	}
	return resp.Count, nil
}

// MarkNotificationRead marks a single notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	path := fmt.Sprintf("/notifications/%s/read", url.PathEscape(notificationID))

	if _, err := c.doRequest(ctx, http.MethodPut, path, nil); err != nil {
		return fmt.Errorf("cardmarket: mark notification %s read: %w", notificationID, err)
	}
	return nil
}

// MarkAllNotificationsRead marks every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	if _, err := c.doRequest(ctx, http.MethodPut, "/notifications/read-all", nil); err != nil {
		return fmt.Errorf("cardmarket: mark all notifications read: %w", err)
	}
	return nil
}
