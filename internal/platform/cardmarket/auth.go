package cardmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mkravets/binderbot/internal/domain"
)

// sessionEnvelope is the response shape of every credential-issuing endpoint.
type sessionEnvelope struct {
	Token string              `json:"token"`
	User  *domain.UserSummary `json:"user"`
}

func (e sessionEnvelope) toSession() domain.Session {
	return domain.Session{Token: e.Token, User: e.User}
}

// Register creates a new account and returns the freshly issued session.
func (c *Client) Register(ctx context.Context, username, email, password string) (domain.Session, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("cardmarket: register: %w", err)
	}

	var env sessionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.Session{}, fmt.Errorf("cardmarket: decode register response: %w", err)
	}
	return env.toSession(), nil
}

// Login exchanges email and password for a session.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Session, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("cardmarket: login: %w", err)
	}

	var env sessionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.Session{}, fmt.Errorf("cardmarket: decode login response: %w", err)
	}
	return env.toSession(), nil
}

// SocialExchange trades a third-party identity provider token for a session.
func (c *Client) SocialExchange(ctx context.Context, providerToken string) (domain.Session, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/auth/social/exchange", map[string]string{
		"provider_token": providerToken,
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("cardmarket: social exchange: %w", err)
	}

	var env sessionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.Session{}, fmt.Errorf("cardmarket: decode social exchange response: %w", err)
	}
	return env.toSession(), nil
}

// Logout invalidates the current session server-side.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.doRequest(ctx, http.MethodPost, "/auth/logout", nil); err != nil {
		return fmt.Errorf("cardmarket: logout: %w", err)
	}
	return nil
}

// Me returns the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (domain.UserSummary, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return domain.UserSummary{}, fmt.Errorf("cardmarket: me: %w", err)
	}

	var user domain.UserSummary
	if err := json.Unmarshal(body, &user); err != nil {
		return domain.UserSummary{}, fmt.Errorf("cardmarket: decode me response: %w", err)
	}
	return user, nil
}
