package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/mkravets/binderbot/internal/domain"
)

type recordingSender struct {
	mu     sync.Mutex
	titles []string
}

func (r *recordingSender) Send(ctx context.Context, title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	return nil
}

func (r *recordingSender) Name() string { return "recording" }

type memDedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memDedup) FirstSeen(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[id] {
		return false, nil
	}
	m.seen[id] = true
	return true, nil
}

func TestForwarder_deliversOncePerNotification(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := NewNotifier([]Sender{sender}, nil, logger)
	fwd := NewForwarder(notifier, &memDedup{}, logger)

	n := domain.Notification{ID: "n1", Message: "New offer on Black Lotus", RelatedOfferID: "off-1"}
	fwd.HandleNotification(context.Background(), n)
	fwd.HandleNotification(context.Background(), n)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.titles) != 1 {
		t.Fatalf("delivered %d times, want 1", len(sender.titles))
	}
	if sender.titles[0] != "Trade offer off-1" {
		t.Errorf("title = %q", sender.titles[0])
	}
}

func TestNotifier_eventFilter(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := NewNotifier([]Sender{sender}, []string{"offer_activity"}, logger)
	fwd := NewForwarder(notifier, &memDedup{}, logger)

	fwd.HandleNotification(context.Background(), domain.Notification{ID: "n1", Message: "maintenance window"})
	fwd.HandleNotification(context.Background(), domain.Notification{ID: "n2", Message: "offer accepted", RelatedOfferID: "off-2"})

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.titles) != 1 {
		t.Fatalf("delivered %d times, want 1 (system event filtered)", len(sender.titles))
	}
}
