package domain

import "time"

// CheckoutSession is a hosted payment session created by the backend's
// payment provider integration.
type CheckoutSession struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Transaction is a completed (or in-flight) purchase of a listing.
type Transaction struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	BuyerID   string    `json:"buyer_id"`
	SellerID  string    `json:"seller_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Review is buyer feedback on a seller after a completed transaction.
type Review struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	SellerID      string    `json:"seller_id"`
	ReviewerID    string    `json:"reviewer_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
