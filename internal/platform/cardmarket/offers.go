package cardmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mkravets/binderbot/internal/domain"
)

// OfferDraft is the payload for creating a trade offer against a listing.
type OfferDraft struct {
	ListingID      string  `json:"listing_id"`
	OfferedPrice   float64 `json:"offered_price"`
	InitialMessage string  `json:"initial_message,omitempty"`
}

// Matches returns the server-computed wishlist-to-listing matches for the
// authenticated user.
func (c *Client) Matches(ctx context.Context) ([]domain.Match, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/matches", nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: get matches: %w", err)
	}

	var matches []domain.Match
	if err := json.Unmarshal(body, &matches); err != nil {
		return nil, fmt.Errorf("cardmarket: decode matches: %w", err)
	}
	return matches, nil
}

// CreateOffer submits a new trade offer.
func (c *Client) CreateOffer(ctx context.Context, draft OfferDraft) (domain.TradeOffer, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/trade-offers", draft)
	if err != nil {
		return domain.TradeOffer{}, fmt.Errorf("cardmarket: create offer: %w", err)
	}
	return decodeOffer(body, "created offer")
}

// SentOffers returns offers the authenticated user made as a buyer.
func (c *Client) SentOffers(ctx context.Context) ([]domain.TradeOffer, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/trade-offers/sent", nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: list sent offers: %w", err)
	}
	return decodeOffers(body, "sent offers")
}

// ReceivedOffers returns offers made against the authenticated user's
// listings.
func (c *Client) ReceivedOffers(ctx context.Context) ([]domain.TradeOffer, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/trade-offers/received", nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: list received offers: %w", err)
	}
	return decodeOffers(body, "received offers")
}

// GetOffer returns a single trade offer by ID.
func (c *Client) GetOffer(ctx context.Context, offerID string) (domain.TradeOffer, error) {
	path := fmt.Sprintf("/trade-offers/%s", url.PathEscape(offerID))

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.TradeOffer{}, fmt.Errorf("cardmarket: get offer %s: %w", offerID, err)
	}
	return decodeOffer(body, "offer")
}

// AcceptOffer accepts a pending offer as the seller. The returned offer is
// the server's authoritative representation; callers must adopt it verbatim.
func (c *Client) AcceptOffer(ctx context.Context, offerID, responseMessage string) (domain.TradeOffer, error) {
	path := fmt.Sprintf("/trade-offers/%s/accept", url.PathEscape(offerID))

	body, err := c.doRequest(ctx, http.MethodPost, path, map[string]string{
		"response_message": responseMessage,
	})
	if err != nil {
		return domain.TradeOffer{}, fmt.Errorf("cardmarket: accept offer %s: %w", offerID, err)
	}
	return decodeOffer(body, "accepted offer")
}

// DeclineOffer declines a pending offer as the seller.
func (c *Client) DeclineOffer(ctx context.Context, offerID, responseMessage string) (domain.TradeOffer, error) {
	path := fmt.Sprintf("/trade-offers/%s/decline", url.PathEscape(offerID))

	body, err := c.doRequest(ctx, http.MethodPost, path, map[string]string{
		"response_message": responseMessage,
	})
	if err != nil {
		return domain.TradeOffer{}, fmt.Errorf("cardmarket: decline offer %s: %w", offerID, err)
	}
	return decodeOffer(body, "declined offer")
}

// CancelOffer cancels a pending offer as the buyer.
func (c *Client) CancelOffer(ctx context.Context, offerID string) (domain.TradeOffer, error) {
	path := fmt.Sprintf("/trade-offers/%s/cancel", url.PathEscape(offerID))

	body, err := c.doRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return domain.TradeOffer{}, fmt.Errorf("cardmarket: cancel offer %s: %w", offerID, err)
	}
	return decodeOffer(body, "cancelled offer")
}

// OffersByListing returns all offers against one of the authenticated user's
// listings.
func (c *Client) OffersByListing(ctx context.Context, listingID string) ([]domain.TradeOffer, error) {
	path := fmt.Sprintf("/listings/%s/trade-offers", url.PathEscape(listingID))

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: list offers for listing %s: %w", listingID, err)
	}
	return decodeOffers(body, "listing offers")
}

func decodeOffer(body []byte, what string) (domain.TradeOffer, error) {
	var offer domain.TradeOffer
	if err := json.Unmarshal(body, &offer); err != nil {
		return domain.TradeOffer{}, fmt.Errorf("cardmarket: decode %s: %w", what, err)
	}
	return offer, nil
}

func decodeOffers(body []byte, what string) ([]domain.TradeOffer, error) {
	var offers []domain.TradeOffer
	if err := json.Unmarshal(body, &offers); err != nil {
		return nil, fmt.Errorf("cardmarket: decode %s: %w", what, err)
	}
	return offers, nil
}
