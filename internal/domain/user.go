// Package domain defines the marketplace entities the client operates on and
// the pure rules (offer roles, allowed actions) that presentation code and
// services share.
package domain

import "time"

// UserSummary is the marketplace identity attached to a session and embedded
// in offers, messages, and reviews.
type UserSummary struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	FavoriteGames []string  `json:"favorite_games,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserPatch carries partial profile edits. Nil fields are left untouched when
// merged into a cached UserSummary.
type UserPatch struct {
	Username      *string
	Email         *string
	AvatarURL     *string
	Bio           *string
	FavoriteGames *[]string
}

// Apply merges the patch into u, field by field.
func (p UserPatch) Apply(u *UserSummary) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.FavoriteGames != nil {
		games := make([]string, len(*p.FavoriteGames))
		copy(games, *p.FavoriteGames)
		u.FavoriteGames = games
	}
}

// Session is the authenticated state of the client: an opaque credential plus
// the cached identity it belongs to. A zero Session means "not logged in".
type Session struct {
	Token string       `json:"token"`
	User  *UserSummary `json:"user"`
}

// Authenticated reports whether the session carries a credential.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// TradeStats summarises a user's public trading record.
type TradeStats struct {
	CompletedTrades int     `json:"completed_trades"`
	ActiveListings  int     `json:"active_listings"`
	AverageRating   float64 `json:"average_rating"`
	ReviewCount     int     `json:"review_count"`
}
