package domain

import "time"

// Card is a single printing of a trading card as catalogued by the
// marketplace backend.
type Card struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Game     string `json:"game"`
	SetName  string `json:"set_name"`
	Number   string `json:"number,omitempty"`
	Rarity   string `json:"rarity,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// CardSummary is the compact card reference embedded in listings, offers, and
// collection entries.
type CardSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SetName  string `json:"set_name,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// PricePoint is one sample in a card's price history.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// CardSearch holds the query parameters for a card catalogue search.
type CardSearch struct {
	Query   string
	Game    string
	SetName string
	Rarity  string
	Limit   int
	Offset  int
}
