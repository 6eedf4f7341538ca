package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mkravets/binderbot/internal/domain"
)

// OfferAPI is the slice of the marketplace client the offer service needs.
type OfferAPI interface {
	GetOffer(ctx context.Context, offerID string) (domain.TradeOffer, error)
	AcceptOffer(ctx context.Context, offerID, responseMessage string) (domain.TradeOffer, error)
	DeclineOffer(ctx context.Context, offerID, responseMessage string) (domain.TradeOffer, error)
	CancelOffer(ctx context.Context, offerID string) (domain.TradeOffer, error)
	OfferMessages(ctx context.Context, offerID string) ([]domain.Message, error)
	SendMessage(ctx context.Context, offerID, content string) (domain.Message, error)
	MarkThreadRead(ctx context.Context, offerID string) error
}

// Identity reports who the current viewer is. Implemented by session.Store.
type Identity interface {
	CurrentUser() (domain.UserSummary, bool)
}

// OfferService opens trade offers into live views that enforce the role and
// status rules locally before any transition request leaves the process.
type OfferService struct {
	api      OfferAPI
	identity Identity
	logger   *slog.Logger
}

func NewOfferService(api OfferAPI, identity Identity, logger *slog.Logger) *OfferService {
	return &OfferService{
		api:      api,
		identity: identity,
		logger:   logger.With(slog.String("component", "offer_service")),
	}
}

// Open fetches the offer and builds a view bound to the current viewer. The
// viewer's role is resolved once from the fetched snapshot; an unauthenticated
// viewer gets a read-only view with no allowed actions.
func (s *OfferService) Open(ctx context.Context, offerID string) (*OfferView, error) {
	offer, err := s.api.GetOffer(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("offer_service: open %q: %w", offerID, err)
	}

	var viewerID string
	if user, ok := s.identity.CurrentUser(); ok {
		viewerID = user.ID
	}

	v := &OfferView{
		svc:      s,
		viewerID: viewerID,
		offer:    offer,
	}

	s.logger.Debug("offer view opened",
		slog.String("offer_id", offerID),
		slog.String("role", v.Role().String()),
		slog.String("status", string(offer.Status)),
	)
	return v, nil
}

// OfferView is a stateful projection of a single trade offer for one viewer.
// The server snapshot is authoritative: every successful transition replaces
// the held offer with the returned representation, and allowed actions are
// always derived from that current state rather than cached.
type OfferView struct {
	svc      *OfferService
	viewerID string

	mu         sync.Mutex
	offer      domain.TradeOffer
	messages   []domain.Message
	threadRead bool
}

// Offer returns the current offer snapshot.
func (v *OfferView) Offer() domain.TradeOffer {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.offer
}

// Role resolves the viewer's relationship to the offer.
func (v *OfferView) Role() domain.Role {
	v.mu.Lock()
	defer v.mu.Unlock()
	return domain.ResolveRole(v.viewerID, v.offer)
}

// Allowed lists the transitions the viewer may trigger right now.
func (v *OfferView) Allowed() []domain.OfferAction {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.offer.AllowedActions(domain.ResolveRole(v.viewerID, v.offer))
}

// Messages returns the current thread, including any optimistic entries still
// awaiting confirmation.
func (v *OfferView) Messages() []domain.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]domain.Message, len(v.messages))
	copy(out, v.messages)
	return out
}

// authorize rejects a transition locally when the viewer's role or the offer
// status does not permit it. No request is sent for rejected transitions.
func (v *OfferView) authorize(action domain.OfferAction) error {
	role := domain.ResolveRole(v.viewerID, v.offer)
	if role == domain.RoleNone {
		return domain.ErrNotParticipant
	}
	if v.offer.Status.Terminal() {
		return domain.ErrOfferResolved
	}
	if !v.offer.Allows(role, action) {
		return domain.ErrNotAllowed
	}
	return nil
}

// Accept accepts the offer with an optional response message. Seller only,
// pending only.
func (v *OfferView) Accept(ctx context.Context, responseMessage string) error {
	return v.transition(ctx, domain.OfferActionAccept, func(ctx context.Context) (domain.TradeOffer, error) {
		return v.svc.api.AcceptOffer(ctx, v.offer.ID, responseMessage)
	})
}

// Decline declines the offer with an optional response message. Seller only,
// pending only.
func (v *OfferView) Decline(ctx context.Context, responseMessage string) error {
	return v.transition(ctx, domain.OfferActionDecline, func(ctx context.Context) (domain.TradeOffer, error) {
		return v.svc.api.DeclineOffer(ctx, v.offer.ID, responseMessage)
	})
}

// Cancel withdraws the offer. Buyer only, pending only.
func (v *OfferView) Cancel(ctx context.Context) error {
	return v.transition(ctx, domain.OfferActionCancel, func(ctx context.Context) (domain.TradeOffer, error) {
		return v.svc.api.CancelOffer(ctx, v.offer.ID)
	})
}

func (v *OfferView) transition(ctx context.Context, action domain.OfferAction, call func(context.Context) (domain.TradeOffer, error)) error {
	v.mu.Lock()
	if err := v.authorize(action); err != nil {
		v.mu.Unlock()
		return fmt.Errorf("offer_service: %s %q: %w", action, v.offer.ID, err)
	}
	offerID := v.offer.ID
	v.mu.Unlock()

	updated, err := call(ctx)
	if err != nil {
		return fmt.Errorf("offer_service: %s %q: %w", action, offerID, err)
	}

	// Adopt the server representation verbatim, whatever status it carries.
	v.mu.Lock()
	v.offer = updated
	v.mu.Unlock()

	v.svc.logger.Info("offer transition applied",
		slog.String("offer_id", offerID),
		slog.String("action", string(action)),
		slog.String("status", string(updated.Status)),
	)
	return nil
}

// Refresh re-fetches the offer and replaces the held snapshot.
func (v *OfferView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	offerID := v.offer.ID
	v.mu.Unlock()

	offer, err := v.svc.api.GetOffer(ctx, offerID)
	if err != nil {
		return fmt.Errorf("offer_service: refresh %q: %w", offerID, err)
	}

	v.mu.Lock()
	v.offer = offer
	v.mu.Unlock()
	return nil
}

// EnterThread loads the message thread and marks it read on the server. The
// mark-read call happens at most once per view; subsequent refreshes of the
// thread do not repeat it.
func (v *OfferView) EnterThread(ctx context.Context) ([]domain.Message, error) {
	msgs, err := v.loadMessages(ctx)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	alreadyRead := v.threadRead
	v.threadRead = true
	offerID := v.offer.ID
	v.mu.Unlock()

	if !alreadyRead {
		if err := v.svc.api.MarkThreadRead(ctx, offerID); err != nil {
			v.svc.logger.Warn("mark thread read failed",
				slog.String("offer_id", offerID),
				slog.String("error", err.Error()),
			)
		}
	}
	return msgs, nil
}

// RefreshMessages re-fetches the thread without touching read state.
func (v *OfferView) RefreshMessages(ctx context.Context) ([]domain.Message, error) {
	return v.loadMessages(ctx)
}

func (v *OfferView) loadMessages(ctx context.Context) ([]domain.Message, error) {
	v.mu.Lock()
	offerID := v.offer.ID
	v.mu.Unlock()

	msgs, err := v.svc.api.OfferMessages(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("offer_service: load messages %q: %w", offerID, err)
	}

	v.mu.Lock()
	// Keep optimistic entries that have not been confirmed yet; the server
	// list replaces everything else.
	var pending []domain.Message
	for _, m := range v.messages {
		if m.Pending {
			pending = append(pending, m)
		}
	}
	v.messages = append(msgs, pending...)
	out := make([]domain.Message, len(v.messages))
	copy(out, v.messages)
	v.mu.Unlock()
	return out, nil
}

// SendMessage appends the message optimistically, then confirms it with the
// server. On success the temporary entry is reconciled with the server
// identity; on failure it is removed and the error surfaces to the caller.
func (v *OfferView) SendMessage(ctx context.Context, content string) (domain.Message, error) {
	if content == "" {
		return domain.Message{}, fmt.Errorf("offer_service: send message: %w", domain.ErrValidation)
	}

	v.mu.Lock()
	offerID := v.offer.ID
	temp := domain.Message{
		ID:       uuid.NewString(),
		OfferID:  offerID,
		SenderID: v.viewerID,
		Content:  content,
		Pending:  true,
	}
	v.messages = append(v.messages, temp)
	v.mu.Unlock()

	sent, err := v.svc.api.SendMessage(ctx, offerID, content)

	v.mu.Lock()
	defer v.mu.Unlock()
	idx := -1
	for i, m := range v.messages {
		if m.ID == temp.ID {
			idx = i
			break
		}
	}

	if err != nil {
		if idx >= 0 {
			v.messages = append(v.messages[:idx], v.messages[idx+1:]...)
		}
		return domain.Message{}, fmt.Errorf("offer_service: send message %q: %w", offerID, err)
	}

	if idx >= 0 {
		v.messages[idx] = sent
	} else {
		v.messages = append(v.messages, sent)
	}
	return sent, nil
}
