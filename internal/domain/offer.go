package domain

import "time"

// OfferStatus tracks the trade-offer lifecycle. Transitions are monotonic:
// once an offer reaches a terminal status it never leaves it.
type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusDeclined  OfferStatus = "declined"
	OfferStatusCancelled OfferStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted from s.
func (s OfferStatus) Terminal() bool {
	switch s {
	case OfferStatusAccepted, OfferStatusDeclined, OfferStatusCancelled:
		return true
	default:
		return false
	}
}

// TradeOffer is a buyer's proposed price against a seller's listing.
type TradeOffer struct {
	ID              string      `json:"id"`
	BuyerID         string      `json:"buyer_id"`
	SellerID        string      `json:"seller_id"`
	ListingID       string      `json:"listing_id"`
	Card            CardSummary `json:"card"`
	OfferedPrice    float64     `json:"offered_price"`
	ListingPrice    float64     `json:"listing_price"`
	Currency        string      `json:"currency"`
	Status          OfferStatus `json:"status"`
	InitialMessage  string      `json:"initial_message,omitempty"`
	ResponseMessage string      `json:"response_message,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Role is the viewer's relationship to a trade offer.
type Role int

const (
	RoleNone Role = iota
	RoleBuyer
	RoleSeller
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleBuyer:
		return "buyer"
	case RoleSeller:
		return "seller"
	default:
		return "none"
	}
}

// ResolveRole determines the viewer's role on an offer. An empty viewerID
// (no session) always resolves to RoleNone.
func ResolveRole(viewerID string, offer TradeOffer) Role {
	if viewerID == "" {
		return RoleNone
	}
	switch viewerID {
	case offer.BuyerID:
		return RoleBuyer
	case offer.SellerID:
		return RoleSeller
	default:
		return RoleNone
	}
}

// OfferAction is a user-triggerable offer transition.
type OfferAction string

const (
	OfferActionAccept  OfferAction = "accept"
	OfferActionDecline OfferAction = "decline"
	OfferActionCancel  OfferAction = "cancel"
)

// AllowedActions returns the transitions the given role may trigger on the
// offer in its current status. Terminal offers allow nothing for anyone.
func (o TradeOffer) AllowedActions(role Role) []OfferAction {
	if o.Status != OfferStatusPending {
		return nil
	}
	switch role {
	case RoleSeller:
		return []OfferAction{OfferActionAccept, OfferActionDecline}
	case RoleBuyer:
		return []OfferAction{OfferActionCancel}
	default:
		return nil
	}
}

// Allows reports whether role may trigger action on the offer right now.
func (o TradeOffer) Allows(role Role, action OfferAction) bool {
	for _, a := range o.AllowedActions(role) {
		if a == action {
			return true
		}
	}
	return false
}
