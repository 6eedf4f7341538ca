package domain

import "time"

// ListingStatus tracks the sell-side lifecycle of a listing.
type ListingStatus string

const (
	ListingStatusActive ListingStatus = "active"
	ListingStatusSold   ListingStatus = "sold"
	ListingStatusClosed ListingStatus = "closed"
)

// Listing is a card offered for sale by a seller.
type Listing struct {
	ID          string        `json:"id"`
	SellerID    string        `json:"seller_id"`
	Card        CardSummary   `json:"card"`
	Price       float64       `json:"price"`
	Currency    string        `json:"currency"`
	Condition   string        `json:"condition"`
	Quantity    int           `json:"quantity"`
	Description string        `json:"description,omitempty"`
	Status      ListingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ListingFilter narrows a marketplace listing search. Zero values mean
// "no constraint".
type ListingFilter struct {
	Query     string
	Game      string
	SetName   string
	Rarity    string
	Condition string
	MinPrice  float64
	MaxPrice  float64
	Limit     int
	Offset    int
}

// CollectionItem is a card the user owns.
type CollectionItem struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Card      CardSummary `json:"card"`
	Condition string      `json:"condition"`
	Quantity  int         `json:"quantity"`
	ForTrade  bool        `json:"for_trade"`
	AddedAt   time.Time   `json:"added_at"`
}

// WishlistItem is a card the user wants, with optional price and condition
// constraints the matching service honours.
type WishlistItem struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Card         CardSummary `json:"card"`
	MaxPrice     float64     `json:"max_price,omitempty"`
	MinCondition string      `json:"min_condition,omitempty"`
	Quantity     int         `json:"quantity"`
	AddedAt      time.Time   `json:"added_at"`
}

// Match pairs one of the user's wishlist items with a live listing. Matches
// are computed server-side; the client only renders them.
type Match struct {
	ID             string    `json:"id"`
	WishlistItemID string    `json:"wishlist_item_id"`
	Listing        Listing   `json:"listing"`
	MatchedAt      time.Time `json:"matched_at"`
}
