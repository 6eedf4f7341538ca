package cardmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/mkravets/binderbot/internal/domain"
)

// Profile returns another user's public profile.
func (c *Client) Profile(ctx context.Context, userID string) (domain.UserSummary, error) {
	path := fmt.Sprintf("/users/%s", url.PathEscape(userID))

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.UserSummary{}, fmt.Errorf("cardmarket: get profile %s: %w", userID, err)
	}

	var user domain.UserSummary
	if err := json.Unmarshal(body, &user); err != nil {
		return domain.UserSummary{}, fmt.Errorf("cardmarket: decode profile: %w", err)
	}
	return user, nil
}

// UpdateProfile applies partial profile edits and returns the updated user.
// Only non-nil patch fields are sent.
func (c *Client) UpdateProfile(ctx context.Context, patch domain.UserPatch) (domain.UserSummary, error) {
	payload := map[string]any{}
	if patch.Username != nil {
		payload["username"] = *patch.Username
	}
	if patch.Email != nil {
		payload["email"] = *patch.Email
	}
	if patch.Bio != nil {
		payload["bio"] = *patch.Bio
	}
	if patch.FavoriteGames != nil {
		payload["favorite_games"] = *patch.FavoriteGames
	}

	body, err := c.doRequest(ctx, http.MethodPut, "/users/me", payload)
	if err != nil {
		return domain.UserSummary{}, fmt.Errorf("cardmarket: update profile: %w", err)
	}

	var user domain.UserSummary
	if err := json.Unmarshal(body, &user); err != nil {
		return domain.UserSummary{}, fmt.Errorf("cardmarket: decode updated profile: %w", err)
	}
	return user, nil
}

// UpdatePassword changes the account password.
func (c *Client) UpdatePassword(ctx context.Context, current, updated string) error {
	_, err := c.doRequest(ctx, http.MethodPut, "/users/me/password", map[string]string{
		"current_password": current,
		"new_password":     updated,
	})
	if err != nil {
		return fmt.Errorf("cardmarket: update password: %w", err)
	}
	return nil
}

// UploadAvatar uploads a new avatar image and returns the updated user.
func (c *Client) UploadAvatar(ctx context.Context, filename string, file io.Reader) (domain.UserSummary, error) {
	body, err := c.doMultipart(ctx, "/users/me/avatar", "avatar", filename, file, nil)
	if err != nil {
		return domain.UserSummary{}, fmt.Errorf("cardmarket: upload avatar: %w", err)
	}

	var user domain.UserSummary
	if err := json.Unmarshal(body, &user); err != nil {
		return domain.UserSummary{}, fmt.Errorf("cardmarket: decode avatar response: %w", err)
	}
	return user, nil
}

// PublicListings returns a user's active listings.
func (c *Client) PublicListings(ctx context.Context, userID string) ([]domain.Listing, error) {
	path := fmt.Sprintf("/users/%s/listings", url.PathEscape(userID))

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: get public listings %s: %w", userID, err)
	}

	var listings []domain.Listing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("cardmarket: decode public listings: %w", err)
	}
	return listings, nil
}

// TradeStats returns a user's public trading record.
func (c *Client) TradeStats(ctx context.Context, userID string) (domain.TradeStats, error) {
	path := fmt.Sprintf("/users/%s/trade-stats", url.PathEscape(userID))

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.TradeStats{}, fmt.Errorf("cardmarket: get trade stats %s: %w", userID, err)
	}

	var stats domain.TradeStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return domain.TradeStats{}, fmt.Errorf("cardmarket: decode trade stats: %w", err)
	}
	return stats, nil
}
