package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mkravets/binderbot/internal/domain"
	"github.com/mkravets/binderbot/internal/service"
)

// OfferOpener opens a live trade-offer view bound to the daemon's identity.
// Implemented by service.OfferService.
type OfferOpener interface {
	Open(ctx context.Context, offerID string) (*service.OfferView, error)
}

// OfferLister fetches the account's offers from the marketplace.
type OfferLister interface {
	SentOffers(ctx context.Context) ([]domain.TradeOffer, error)
	ReceivedOffers(ctx context.Context) ([]domain.TradeOffer, error)
}

// OfferHandler serves trade-offer endpoints. Reads come from the live
// marketplace API (or the local archive for history); writes go through the
// offer view so the role/status rules apply before anything reaches the
// marketplace.
type OfferHandler struct {
	opener  OfferOpener
	lister  OfferLister
	archive domain.OfferArchive // optional
	logger  *slog.Logger
}

// NewOfferHandler creates an OfferHandler. archive may be nil when the
// archive store is not configured.
func NewOfferHandler(opener OfferOpener, lister OfferLister, archive domain.OfferArchive, logger *slog.Logger) *OfferHandler {
	return &OfferHandler{
		opener:  opener,
		lister:  lister,
		archive: archive,
		logger:  logger,
	}
}

type listOffersResponse struct {
	Sent     []domain.TradeOffer `json:"sent"`
	Received []domain.TradeOffer `json:"received"`
}

// ListOffers returns the account's sent and received offers.
// GET /api/offers
func (h *OfferHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	sent, err := h.lister.SentOffers(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list sent offers failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to list sent offers")
		return
	}

	received, err := h.lister.ReceivedOffers(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list received offers failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to list received offers")
		return
	}

	writeJSON(w, http.StatusOK, listOffersResponse{Sent: sent, Received: received})
}

// ListArchived returns locally archived offers, newest first.
// GET /api/offers/archive
func (h *OfferHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusNotImplemented, "archive is not configured")
		return
	}

	offers, err := h.archive.ListOffers(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list archived offers failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list archived offers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"offers": offers})
}

type offerViewResponse struct {
	Offer   domain.TradeOffer    `json:"offer"`
	Role    string               `json:"role"`
	Allowed []domain.OfferAction `json:"allowed_actions"`
}

// GetOffer returns one offer with the viewer's role and allowed actions.
// GET /api/offers/{id}
func (h *OfferHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing offer id")
		return
	}

	view, err := h.opener.Open(r.Context(), id)
	if err != nil {
		h.writeOfferError(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, h.viewResponse(view))
}

type transitionRequest struct {
	Message string `json:"message"`
}

// AcceptOffer accepts a pending offer as the seller.
// POST /api/offers/{id}/accept
func (h *OfferHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "accept", func(ctx context.Context, v *service.OfferView, msg string) error {
		return v.Accept(ctx, msg)
	})
}

// DeclineOffer declines a pending offer as the seller.
// POST /api/offers/{id}/decline
func (h *OfferHandler) DeclineOffer(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "decline", func(ctx context.Context, v *service.OfferView, msg string) error {
		return v.Decline(ctx, msg)
	})
}

// CancelOffer withdraws a pending offer as the buyer.
// POST /api/offers/{id}/cancel
func (h *OfferHandler) CancelOffer(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel", func(ctx context.Context, v *service.OfferView, _ string) error {
		return v.Cancel(ctx)
	})
}

func (h *OfferHandler) transition(w http.ResponseWriter, r *http.Request, name string, apply func(context.Context, *service.OfferView, string) error) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing offer id")
		return
	}

	var req transitionRequest
	if r.Body != nil {
		// An empty body means no response message.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	view, err := h.opener.Open(r.Context(), id)
	if err != nil {
		h.writeOfferError(w, r, id, err)
		return
	}

	if err := apply(r.Context(), view, req.Message); err != nil {
		h.logger.WarnContext(r.Context(), "handler: offer transition rejected",
			slog.String("offer_id", id),
			slog.String("action", name),
			slog.String("error", err.Error()),
		)
		h.writeOfferError(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, h.viewResponse(view))
}

func (h *OfferHandler) viewResponse(v *service.OfferView) offerViewResponse {
	return offerViewResponse{
		Offer:   v.Offer(),
		Role:    v.Role().String(),
		Allowed: v.Allowed(),
	}
}

func (h *OfferHandler) writeOfferError(w http.ResponseWriter, r *http.Request, id string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "offer not found")
	case errors.Is(err, domain.ErrNotParticipant):
		writeError(w, http.StatusForbidden, "not a party to this offer")
	case errors.Is(err, domain.ErrNotAllowed):
		writeError(w, http.StatusForbidden, "action not allowed for this role")
	case errors.Is(err, domain.ErrOfferResolved):
		writeError(w, http.StatusConflict, "offer is no longer pending")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "marketplace session expired")
	default:
		h.logger.ErrorContext(r.Context(), "handler: offer request failed",
			slog.String("offer_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "marketplace request failed")
	}
}
