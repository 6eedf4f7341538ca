package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mkravets/binderbot/internal/domain"
)

type fakeOfferAPI struct {
	offer    domain.TradeOffer
	messages []domain.Message

	acceptCalls  int
	declineCalls int
	cancelCalls  int
	sendCalls    int
	readCalls    int

	transitionResult domain.TradeOffer
	sendResult       domain.Message
	sendErr          error
}

func (f *fakeOfferAPI) GetOffer(ctx context.Context, offerID string) (domain.TradeOffer, error) {
	return f.offer, nil
}

func (f *fakeOfferAPI) AcceptOffer(ctx context.Context, offerID, responseMessage string) (domain.TradeOffer, error) {
	f.acceptCalls++
	return f.transitionResult, nil
}

func (f *fakeOfferAPI) DeclineOffer(ctx context.Context, offerID, responseMessage string) (domain.TradeOffer, error) {
	f.declineCalls++
	return f.transitionResult, nil
}

func (f *fakeOfferAPI) CancelOffer(ctx context.Context, offerID string) (domain.TradeOffer, error) {
	f.cancelCalls++
	return f.transitionResult, nil
}

func (f *fakeOfferAPI) OfferMessages(ctx context.Context, offerID string) ([]domain.Message, error) {
	out := make([]domain.Message, len(f.messages))
	copy(out, f.messages)
	return out, nil
}

func (f *fakeOfferAPI) SendMessage(ctx context.Context, offerID, content string) (domain.Message, error) {
	f.sendCalls++
	return f.sendResult, f.sendErr
}

func (f *fakeOfferAPI) MarkThreadRead(ctx context.Context, offerID string) error {
	f.readCalls++
	return nil
}

type fakeIdentity struct {
	user domain.UserSummary
	ok   bool
}

func (f fakeIdentity) CurrentUser() (domain.UserSummary, bool) { return f.user, f.ok }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pendingOffer() domain.TradeOffer {
	return domain.TradeOffer{
		ID:       "off-1",
		BuyerID:  "buyer-1",
		SellerID: "seller-1",
		Status:   domain.OfferStatusPending,
	}
}

func hasAction(actions []domain.OfferAction, want domain.OfferAction) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}

func TestOfferView_unauthenticatedViewerIsReadOnly(t *testing.T) {
	t.Parallel()

	api := &fakeOfferAPI{offer: pendingOffer()}
	svc := NewOfferService(api, fakeIdentity{ok: false}, discardLogger())

	v, err := svc.Open(context.Background(), "off-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if got := v.Role(); got != domain.RoleNone {
		t.Errorf("Role() = %v, want RoleNone", got)
	}
	if got := v.Allowed(); len(got) != 0 {
		t.Errorf("Allowed() = %v, want none", got)
	}

	err = v.Accept(context.Background(), "")
	if !errors.Is(err, domain.ErrNotParticipant) {
		t.Errorf("Accept error = %v, want ErrNotParticipant", err)
	}
	if api.acceptCalls != 0 {
		t.Errorf("accept reached the server %d times, want 0", api.acceptCalls)
	}
}

func TestOfferView_sellerAcceptAdoptsServerState(t *testing.T) {
	t.Parallel()

	accepted := pendingOffer()
	accepted.Status = domain.OfferStatusAccepted
	accepted.ResponseMessage = "deal"

	api := &fakeOfferAPI{offer: pendingOffer(), transitionResult: accepted}
	svc := NewOfferService(api, fakeIdentity{user: domain.UserSummary{ID: "seller-1"}, ok: true}, discardLogger())

	v, err := svc.Open(context.Background(), "off-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := v.Role(); got != domain.RoleSeller {
		t.Fatalf("Role() = %v, want RoleSeller", got)
	}
	if allowed := v.Allowed(); !hasAction(allowed, domain.OfferActionAccept) || !hasAction(allowed, domain.OfferActionDecline) {
		t.Fatalf("Allowed() = %v, want accept and decline", allowed)
	}

	if err := v.Accept(context.Background(), "deal"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if got := v.Offer().Status; got != domain.OfferStatusAccepted {
		t.Errorf("status = %q, want accepted", got)
	}
	if got := v.Offer().ResponseMessage; got != "deal" {
		t.Errorf("response message = %q, want server value", got)
	}
	// Terminal state strips every control.
	if got := v.Allowed(); len(got) != 0 {
		t.Errorf("Allowed() after accept = %v, want none", got)
	}
}

func TestOfferView_buyerCancelThenFurtherActionsRejectedLocally(t *testing.T) {
	t.Parallel()

	cancelled := pendingOffer()
	cancelled.Status = domain.OfferStatusCancelled

	api := &fakeOfferAPI{offer: pendingOffer(), transitionResult: cancelled}
	svc := NewOfferService(api, fakeIdentity{user: domain.UserSummary{ID: "buyer-1"}, ok: true}, discardLogger())

	v, err := svc.Open(context.Background(), "off-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if allowed := v.Allowed(); !hasAction(allowed, domain.OfferActionCancel) || len(allowed) != 1 {
		t.Fatalf("Allowed() = %v, want exactly cancel", allowed)
	}

	if err := v.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := v.Offer().Status; got != domain.OfferStatusCancelled {
		t.Errorf("status = %q, want cancelled", got)
	}

	err = v.Cancel(context.Background())
	if !errors.Is(err, domain.ErrOfferResolved) {
		t.Errorf("second cancel error = %v, want ErrOfferResolved", err)
	}
	if api.cancelCalls != 1 {
		t.Errorf("cancel reached the server %d times, want 1", api.cancelCalls)
	}
}

func TestOfferView_buyerCannotAccept(t *testing.T) {
	t.Parallel()

	api := &fakeOfferAPI{offer: pendingOffer()}
	svc := NewOfferService(api, fakeIdentity{user: domain.UserSummary{ID: "buyer-1"}, ok: true}, discardLogger())

	v, err := svc.Open(context.Background(), "off-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	err = v.Accept(context.Background(), "")
	if !errors.Is(err, domain.ErrNotAllowed) {
		t.Errorf("Accept error = %v, want ErrNotAllowed", err)
	}
	if api.acceptCalls != 0 {
		t.Errorf("accept reached the server %d times, want 0", api.acceptCalls)
	}
}

func TestOfferView_enterThreadMarksReadOnce(t *testing.T) {
	t.Parallel()

	api := &fakeOfferAPI{
		offer:    pendingOffer(),
		messages: []domain.Message{{ID: "m1", OfferID: "off-1", Content: "hi"}},
	}
	svc := NewOfferService(api, fakeIdentity{user: domain.UserSummary{ID: "buyer-1"}, ok: true}, discardLogger())

	v, err := svc.Open(context.Background(), "off-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	msgs, err := v.EnterThread(context.Background())
	if err != nil {
		t.Fatalf("EnterThread: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("len(msgs) = %d, want 1", len(msgs))
	}

	if _, err := v.EnterThread(context.Background()); err != nil {
		t.Fatalf("EnterThread: %v", err)
	}
	if _, err := v.RefreshMessages(context.Background()); err != nil {
		t.Fatalf("RefreshMessages: %v", err)
	}
	if api.readCalls != 1 {
		t.Errorf("mark-read sent %d times, want 1", api.readCalls)
	}
}

func TestOfferView_sendMessageReconcilesOptimisticEntry(t *testing.T) {
	t.Parallel()

	api := &fakeOfferAPI{
		offer:      pendingOffer(),
		sendResult: domain.Message{ID: "srv-1", OfferID: "off-1", SenderID: "buyer-1", Content: "still interested?"},
	}
	svc := NewOfferService(api, fakeIdentity{user: domain.UserSummary{ID: "buyer-1"}, ok: true}, discardLogger())

	v, err := svc.Open(context.Background(), "off-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	sent, err := v.SendMessage(context.Background(), "still interested?")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if sent.ID != "srv-1" {
		t.Errorf("sent.ID = %q, want server identity", sent.ID)
	}

	msgs := v.Messages()
	if len(msgs) != 1 {
		t.Fatalf("len(msgs) = %d, want 1", len(msgs))
	}
	if msgs[0].ID != "srv-1" || msgs[0].Pending {
		t.Errorf("thread entry = %+v, want confirmed server message", msgs[0])
	}
}

func TestOfferView_sendMessageFailureRemovesOptimisticEntry(t *testing.T) {
	t.Parallel()

	api := &fakeOfferAPI{
		offer:   pendingOffer(),
		sendErr: errors.New("gateway timeout"),
	}
	svc := NewOfferService(api, fakeIdentity{user: domain.UserSummary{ID: "buyer-1"}, ok: true}, discardLogger())

	v, err := svc.Open(context.Background(), "off-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := v.SendMessage(context.Background(), "hello?"); err == nil {
		t.Fatal("expected send failure to surface")
	}
	if msgs := v.Messages(); len(msgs) != 0 {
		t.Errorf("thread still holds %d entries, want 0", len(msgs))
	}
}

func TestOfferView_sendEmptyMessageRejected(t *testing.T) {
	t.Parallel()

	api := &fakeOfferAPI{offer: pendingOffer()}
	svc := NewOfferService(api, fakeIdentity{user: domain.UserSummary{ID: "buyer-1"}, ok: true}, discardLogger())

	v, err := svc.Open(context.Background(), "off-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	_, err = v.SendMessage(context.Background(), "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
	if api.sendCalls != 0 {
		t.Errorf("send reached the server %d times, want 0", api.sendCalls)
	}
}
