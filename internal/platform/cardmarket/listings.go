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

// ListingDraft is the payload for creating or updating a listing.
type ListingDraft struct {
	CardID      string  `json:"card_id"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency,omitempty"`
	Condition   string  `json:"condition"`
	Quantity    int     `json:"quantity"`
	Description string  `json:"description,omitempty"`
}

// FilterOptions enumerates the filter values the marketplace currently offers.
type FilterOptions struct {
	Games      []string `json:"games"`
	Sets       []string `json:"sets"`
	Rarities   []string `json:"rarities"`
	Conditions []string `json:"conditions"`
}

// Listings searches marketplace listings with the given filter.
func (c *Client) Listings(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	params := url.Values{}
	if filter.Query != "" {
		params.Set("q", filter.Query)
	}
	if filter.Game != "" {
		params.Set("game", filter.Game)
	}
	if filter.SetName != "" {
		params.Set("set", filter.SetName)
	}
	if filter.Rarity != "" {
		params.Set("rarity", filter.Rarity)
	}
	if filter.Condition != "" {
		params.Set("condition", filter.Condition)
	}
	if filter.MinPrice > 0 {
		params.Set("min_price", strconv.FormatFloat(filter.MinPrice, 'f', -1, 64))
	}
	if filter.MaxPrice > 0 {
		params.Set("max_price", strconv.FormatFloat(filter.MaxPrice, 'f', -1, 64))
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		params.Set("offset", strconv.Itoa(filter.Offset))
	}

	path := "/listings"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: list listings: %w", err)
	}

	var listings []domain.Listing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("cardmarket: decode listings: %w", err)
	}
	return listings, nil
}

// GetListing returns a single listing by ID.
func (c *Client) GetListing(ctx context.Context, listingID string) (domain.Listing, error) {
	path := fmt.Sprintf("/listings/%s", url.PathEscape(listingID))

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("cardmarket: get listing %s: %w", listingID, err)
	}

	var listing domain.Listing
	if err := json.Unmarshal(body, &listing); err != nil {
		return domain.Listing{}, fmt.Errorf("cardmarket: decode listing: %w", err)
	}
	return listing, nil
}

// ListingFilters returns the filter values available for listing searches.
func (c *Client) ListingFilters(ctx context.Context) (FilterOptions, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/listings/filters", nil)
	if err != nil {
		return FilterOptions{}, fmt.Errorf("cardmarket: get listing filters: %w", err)
	}

	var opts FilterOptions
	if err := json.Unmarshal(body, &opts); err != nil {
		return FilterOptions{}, fmt.Errorf("cardmarket: decode listing filters: %w", err)
	}
	return opts, nil
}

// MyListings returns the authenticated user's own listings.
func (c *Client) MyListings(ctx context.Context) ([]domain.Listing, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/listings/mine", nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: list my listings: %w", err)
	}

	var listings []domain.Listing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("cardmarket: decode my listings: %w", err)
	}
	return listings, nil
}

// CreateListing publishes a new listing.
func (c *Client) CreateListing(ctx context.Context, draft ListingDraft) (domain.Listing, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/listings", draft)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("cardmarket: create listing: %w", err)
	}

	var listing domain.Listing
	if err := json.Unmarshal(body, &listing); err != nil {
		return domain.Listing{}, fmt.Errorf("cardmarket: decode created listing: %w", err)
	}
	return listing, nil
}

// UpdateListing replaces a listing's sale parameters.
func (c *Client) UpdateListing(ctx context.Context, listingID string, draft ListingDraft) (domain.Listing, error) {
	path := fmt.Sprintf("/listings/%s", url.PathEscape(listingID))

	body, err := c.doRequest(ctx, http.MethodPut, path, draft)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("cardmarket: update listing %s: %w", listingID, err)
	}

	var listing domain.Listing
	if err := json.Unmarshal(body, &listing); err != nil {
		return domain.Listing{}, fmt.Errorf("cardmarket: decode updated listing: %w", err)
	}
	return listing, nil
}

// DeleteListing removes a listing.
func (c *Client) DeleteListing(ctx context.Context, listingID string) error {
	path := fmt.Sprintf("/listings/%s", url.PathEscape(listingID))

	if _, err := c.doRequest(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("cardmarket: delete listing %s: %w", listingID, err)
	}
	return nil
}
