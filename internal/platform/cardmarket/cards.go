package cardmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mkravets/binderbot/internal/domain"
)

// SearchCards queries the card catalogue.
func (c *Client) SearchCards(ctx context.Context, search domain.CardSearch) ([]domain.Card, error) {
	params := url.Values{}
	if search.Query != "" {
		params.Set("q", search.Query)
	}
	if search.Game != "" {
		params.Set("game", search.Game)
	}
	if search.SetName != "" {
		params.Set("set", search.SetName)
	}
	if search.Rarity != "" {
		params.Set("rarity", search.Rarity)
	}
	if search.Limit > 0 {
		params.Set("limit", strconv.Itoa(search.Limit))
	}
	if search.Offset > 0 {
		params.Set("offset", strconv.Itoa(search.Offset))
	}

	path := "/cards"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: search cards: %w", err)
	}

	var cards []domain.Card
	if err := json.Unmarshal(body, &cards); err != nil {
		return nil, fmt.Errorf("cardmarket: decode cards: %w", err)
	}
	return cards, nil
}

// GetCard returns a single card by ID.
func (c *Client) GetCard(ctx context.Context, cardID string) (domain.Card, error) {
	path := fmt.Sprintf("/cards/%s", url.PathEscape(cardID))

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.Card{}, fmt.Errorf("cardmarket: get card %s: %w", cardID, err)
	}

	var card domain.Card
	if err := json.Unmarshal(body, &card); err != nil {
		return domain.Card{}, fmt.Errorf("cardmarket: decode card: %w", err)
	}
	return card, nil
}

// PriceHistory returns a card's historical price samples.
func (c *Client) PriceHistory(ctx context.Context, cardID string) ([]domain.PricePoint, error) {
	path := fmt.Sprintf("/cards/%s/price-history", url.PathEscape(cardID))

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: get price history %s: %w", cardID, err)
	}

	var points []domain.PricePoint
	if err := json.Unmarshal(body, &points); err != nil {
		return nil, fmt.Errorf("cardmarket: decode price history: %w", err)
	}
	return points, nil
}

// RandomCard returns a random card from the catalogue.
func (c *Client) RandomCard(ctx context.Context) (domain.Card, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/cards/random", nil)
	if err != nil {
		return domain.Card{}, fmt.Errorf("cardmarket: get random card: %w", err)
	}

	var card domain.Card
	if err := json.Unmarshal(body, &card); err != nil {
		return domain.Card{}, fmt.Errorf("cardmarket: decode random card: %w", err)
	}
	return card, nil
}

// UploadScan uploads a card photo for server-side recognition and returns the
// candidate cards it matched. Recognition itself happens on the backend.
func (c *Client) UploadScan(ctx context.Context, filename string, file io.Reader) ([]domain.Card, error) {
	body, err := c.doMultipart(ctx, "/cards/scan", "scan", filename, file, nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: upload scan: %w", err)
	}

	var cards []domain.Card
	if err := json.Unmarshal(body, &cards); err != nil {
		return nil, fmt.Errorf("cardmarket: decode scan candidates: %w", err)
	}
	return cards, nil
}
