package domain

import "time"

// Notification is an account event created server-side. The client only ever
// mutates the read flag, and only through the mark-read operations.
type Notification struct {
	ID             string    `json:"id"`
	Message        string    `json:"message"`
	RelatedOfferID string    `json:"related_offer_id,omitempty"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

// Event returns the notification's event type for routing and filtering.
func (n Notification) Event() string {
	if n.RelatedOfferID != "" {
		return "offer_activity"
	}
	return "system"
}
