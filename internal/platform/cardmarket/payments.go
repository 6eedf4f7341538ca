package cardmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mkravets/binderbot/internal/domain"
)

// CreateCheckoutSession starts a hosted checkout for a listing and returns
// the payment URL the buyer should be sent to.
func (c *Client) CreateCheckoutSession(ctx context.Context, listingID string) (domain.CheckoutSession, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/payments/checkout-session", map[string]string{
		"listing_id": listingID,
	})
	if err != nil {
		return domain.CheckoutSession{}, fmt.Errorf("cardmarket: create checkout session: %w", err)
	}

	var session domain.CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return domain.CheckoutSession{}, fmt.Errorf("cardmarket: decode checkout session: %w", err)
	}
	return session, nil
}

// Transactions returns the authenticated user's transactions, newest first.
func (c *Client) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/transactions", nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: list transactions: %w", err)
	}

	var txs []domain.Transaction
	if err := json.Unmarshal(body, &txs); err != nil {
		return nil, fmt.Errorf("cardmarket: decode transactions: %w", err)
	}
	return txs, nil
}

// CreateReview submits seller feedback for a completed transaction.
func (c *Client) CreateReview(ctx context.Context, transactionID string, rating int, comment string) (domain.Review, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/reviews", map[string]any{
		"transaction_id": transactionID,
		"rating":         rating,
		"comment":        comment,
	})
	if err != nil {
		return domain.Review{}, fmt.Errorf("cardmarket: create review: %w", err)
	}

	var review domain.Review
	if err := json.Unmarshal(body, &review); err != nil {
		return domain.Review{}, fmt.Errorf("cardmarket: decode review: %w", err)
	}
	return review, nil
}

// SellerReviews returns the reviews left for a seller.
func (c *Client) SellerReviews(ctx context.Context, sellerID string) ([]domain.Review, error) {
	path := fmt.Sprintf("/sellers/%s/reviews", url.PathEscape(sellerID))

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("cardmarket: list reviews for seller %s: %w", sellerID, err)
	}

	var reviews []domain.Review
	if err := json.Unmarshal(body, &reviews); err != nil {
		return nil, fmt.Errorf("cardmarket: decode seller reviews: %w", err)
	}
	return reviews, nil
}

// TransactionReview returns the review attached to a transaction, if any.
func (c *Client) TransactionReview(ctx context.Context, transactionID string) (domain.Review, error) {
	path := fmt.Sprintf("/transactions/%s/review", url.PathEscape(transactionID))

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.Review{}, fmt.Errorf("cardmarket: get review for transaction %s: %w", transactionID, err)
	}

	var review domain.Review
	if err := json.Unmarshal(body, &review); err != nil {
		return domain.Review{}, fmt.Errorf("cardmarket: decode transaction review: %w", err)
	}
	return review, nil
}
