package cardmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mkravets/binderbot/internal/domain"
)

// CollectionItemDraft is the payload for adding or updating a collection
// entry.
type CollectionItemDraft struct {
	CardID    string `json:"card_id"`
	Condition string `json:"condition"`
	Quantity  int    `json:"quantity"`
	ForTrade  bool   `json:"for_trade"`
}

// WishlistItemDraft is the payload for adding or updating a wishlist entry.
type WishlistItemDraft struct {
	CardID       string  `json:"card_id"`
	MaxPrice     float64 `json:"max_price,omitempty"`
	MinCondition string  `json:"min_condition,omitempty"`
	Quantity     int     `json:"quantity"`
}

// Collection returns the authenticated user's collection.
func (c *Client) Collection(ctx context.Context) ([]domain.CollectionItem, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/collections", nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: list collection: %w", err)
	}

	var items []domain.CollectionItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("cardmarket: decode collection: %w", err)
	}
	return items, nil
}

// AddCollectionItem adds a card to the collection.
func (c *Client) AddCollectionItem(ctx context.Context, draft CollectionItemDraft) (domain.CollectionItem, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/collections", draft)
	if err != nil {
		return domain.CollectionItem{}, fmt.Errorf("cardmarket: add collection item: %w", err)
	}

	var item domain.CollectionItem
	if err := json.Unmarshal(body, &item); err != nil {
		return domain.CollectionItem{}, fmt.Errorf("cardmarket: decode collection item: %w", err)
	}
	return item, nil
}

// UpdateCollectionItem updates an existing collection entry.
func (c *Client) UpdateCollectionItem(ctx context.Context, itemID string, draft CollectionItemDraft) (domain.CollectionItem, error) {
	path := fmt.Sprintf("/collections/%s", url.PathEscape(itemID))

	body, err := c.doRequest(ctx, http.MethodPut, path, draft)
	if err != nil {
		return domain.CollectionItem{}, fmt.Errorf("cardmarket: update collection item %s: %w", itemID, err)
	}

	var item domain.CollectionItem
	if err := json.Unmarshal(body, &item); err != nil {
		return domain.CollectionItem{}, fmt.Errorf("cardmarket: decode collection item: %w", err)
	}
	return item, nil
}

// RemoveCollectionItem removes a card from the collection.
func (c *Client) RemoveCollectionItem(ctx context.Context, itemID string) error {
	path := fmt.Sprintf("/collections/%s", url.PathEscape(itemID))

	if _, err := c.doRequest(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("cardmarket: remove collection item %s: %w", itemID, err)
	}
	return nil
}

// Wishlist returns the authenticated user's wishlist.
func (c *Client) Wishlist(ctx context.Context) ([]domain.WishlistItem, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/wishlists", nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: list wishlist: %w", err)
	}

	var items []domain.WishlistItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("cardmarket: decode wishlist: %w", err)
	}
	return items, nil
}

// AddWishlistItem adds a card to the wishlist.
func (c *Client) AddWishlistItem(ctx context.Context, draft WishlistItemDraft) (domain.WishlistItem, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/wishlists", draft)
	if err != nil {
		return domain.WishlistItem{}, fmt.Errorf("cardmarket: add wishlist item: %w", err)
	}

	var item domain.WishlistItem
	if err := json.Unmarshal(body, &item); err != nil {
		return domain.WishlistItem{}, fmt.Errorf("cardmarket: decode wishlist item: %w", err)
	}
	return item, nil
}

// UpdateWishlistItem updates an existing wishlist entry.
func (c *Client) UpdateWishlistItem(ctx context.Context, itemID string, draft WishlistItemDraft) (domain.WishlistItem, error) {
	path := fmt.Sprintf("/wishlists/%s", url.PathEscape(itemID))

	body, err := c.doRequest(ctx, http.MethodPut, path, draft)
	if err != nil {
		return domain.WishlistItem{}, fmt.Errorf("cardmarket: update wishlist item %s: %w", itemID, err)
	}

	var item domain.WishlistItem
	if err := json.Unmarshal(body, &item); err != nil {
		return domain.WishlistItem{}, fmt.Errorf("cardmarket: decode wishlist item: %w", err)
	}
	return item, nil
}

// RemoveWishlistItem removes a card from the wishlist.
func (c *Client) RemoveWishlistItem(ctx context.Context, itemID string) error {
	path := fmt.Sprintf("/wishlists/%s", url.PathEscape(itemID))

	if _, err := c.doRequest(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("cardmarket: remove wishlist item %s: %w", itemID, err)
	}
	return nil
}
