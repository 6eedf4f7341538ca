package cardmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mkravets/binderbot/internal/domain"
)

// OfferMessages returns an offer's conversation thread, ordered by creation
// time.
func (c *Client) OfferMessages(ctx context.Context, offerID string) ([]domain.Message, error) {
	path := fmt.Sprintf("/trade-offers/%s/messages", url.PathEscape(offerID))

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: get messages for offer %s: %w", offerID, err)
	}

	var messages []domain.Message
	if err := json.Unmarshal(body, &messages); err != nil {
		return nil, fmt.Errorf("cardmarket: decode messages: %w", err)
	}
	return messages, nil
}

// SendMessage appends a message to an offer's thread and returns the message
// with its server-assigned identity.
func (c *Client) SendMessage(ctx context.Context, offerID, content string) (domain.Message, error) {
	path := fmt.Sprintf("/trade-offers/%s/messages", url.PathEscape(offerID))

	body, err := c.doRequest(ctx, http.MethodPost, path, map[string]string{
		"content": content,
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("cardmarket: send message to offer %s: %w", offerID, err)
	}

	var message domain.Message
	if err := json.Unmarshal(body, &message); err != nil {
		return domain.Message{}, fmt.Errorf("cardmarket: decode sent message: %w", err)
	}
	return message, nil
}

// MarkThreadRead marks every message in an offer's thread as read.
func (c *Client) MarkThreadRead(ctx context.Context, offerID string) error {
	path := fmt.Sprintf("/trade-offers/%s/messages/read", url.PathEscape(offerID))

	if _, err := c.doRequest(ctx, http.MethodPost, path, nil); err != nil {
		return fmt.Errorf("cardmarket: mark thread read for offer %s: %w", offerID, err)
	}
	return nil
}
