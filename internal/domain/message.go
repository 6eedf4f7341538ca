package domain

import "time"

// Message is one entry in a trade offer's conversation thread. Threads are
// append-only, ordered by creation time.
type Message struct {
	ID        string    `json:"id"`
	OfferID   string    `json:"offer_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`

	// Pending marks an optimistically appended message that has not been
	// confirmed by the server yet. Never set on server-sourced messages.
	Pending bool `json:"-"`
}
