package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mkravets/binderbot/internal/domain"
)

type fakeNotifAPI struct {
	mu           sync.Mutex
	count        int
	items        []domain.Notification
	countErr     error
	markErr      error
	markCalls    []string
	markAllCalls int
	countCtxs    chan context.Context
}

func newFakeNotifAPI() *fakeNotifAPI {
	return &fakeNotifAPI{countCtxs: make(chan context.Context, 16)}
}

func (f *fakeNotifAPI) UnreadCount(ctx context.Context) (int, error) {
	select {
	case f.countCtxs <- ctx:
	default:
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count, f.countErr
}

func (f *fakeNotifAPI) Notifications(ctx context.Context, limit int) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Notification, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeNotifAPI) MarkNotificationRead(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls = append(f.markCalls, id)
	return f.markErr
}

func (f *fakeNotifAPI) MarkAllNotificationsRead(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markAllCalls++
	return f.markErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestPoller_startFetchesImmediately(t *testing.T) {
	t.Parallel()

	api := newFakeNotifAPI()
	api.count = 2
	api.items = []domain.Notification{{ID: "n1"}, {ID: "n2"}}

	p := New(api, time.Hour, 20, testLogger())
	p.Start(context.Background())
	defer p.Stop()

	if !p.Running() {
		t.Error("Running() = false after Start")
	}
	waitFor(t, func() bool { return p.UnreadCount() == 2 }, "immediate fetch never applied")
}

func TestPoller_restartCancelsPreviousTicker(t *testing.T) {
	t.Parallel()

	api := newFakeNotifAPI()
	p := New(api, time.Hour, 20, testLogger())

	p.Start(context.Background())
	firstCtx := <-api.countCtxs

	// Re-entering polling (e.g. re-login) must cancel the previous run.
	p.Start(context.Background())
	defer p.Stop()

	waitFor(t, func() bool { return firstCtx.Err() != nil }, "previous poll run not cancelled on restart")
	if !p.Running() {
		t.Error("Running() = false after restart")
	}
}

func TestPoller_stopHaltsTicking(t *testing.T) {
	t.Parallel()

	api := newFakeNotifAPI()
	p := New(api, 10*time.Millisecond, 20, testLogger())

	p.Start(context.Background())
	runCtx := <-api.countCtxs
	p.Stop()

	if p.Running() {
		t.Error("Running() = true after Stop")
	}
	waitFor(t, func() bool { return runCtx.Err() != nil }, "poll context not cancelled on Stop")

	// Stop again is a no-op.
	p.Stop()
}

func TestPoller_lateResponseDiscardedAfterStop(t *testing.T) {
	t.Parallel()

	api := newFakeNotifAPI()
	api.count = 7
	p := New(api, time.Hour, 20, testLogger())

	// A fetch issued under generation 0 resolves after the poller moved on.
	p.gen = 1
	p.pollOnce(context.Background(), 0)

	if got := p.UnreadCount(); got != 0 {
		t.Errorf("late response mutated state: count = %d, want 0", got)
	}
}

func TestPoller_markAsReadOptimisticNoRollback(t *testing.T) {
	t.Parallel()

	api := newFakeNotifAPI()
	api.count = 3
	api.items = []domain.Notification{{ID: "x"}, {ID: "y"}, {ID: "z"}}
	p := New(api, time.Hour, 20, testLogger())
	p.pollOnce(context.Background(), 0)

	api.markErr = errors.New("network down")

	err := p.MarkAsRead(context.Background(), "x")
	if err == nil {
		t.Fatal("expected network error to surface")
	}
	// Optimistic mutation applied synchronously, not rolled back on failure.
	if got := p.UnreadCount(); got != 2 {
		t.Errorf("count = %d, want 2", got)
	}

	// Next poll is the correction mechanism.
	api.mu.Lock()
	api.count = 3
	api.mu.Unlock()
	p.pollOnce(context.Background(), 0)
	if got := p.UnreadCount(); got != 3 {
		t.Errorf("count after corrective poll = %d, want 3", got)
	}
}

func TestPoller_markAllAsReadTwice(t *testing.T) {
	t.Parallel()

	api := newFakeNotifAPI()
	api.count = 4
	p := New(api, time.Hour, 20, testLogger())
	p.pollOnce(context.Background(), 0)

	if err := p.MarkAllAsRead(context.Background()); err != nil {
		t.Fatalf("MarkAllAsRead: %v", err)
	}
	if err := p.MarkAllAsRead(context.Background()); err != nil {
		t.Fatalf("MarkAllAsRead: %v", err)
	}

	if got := p.UnreadCount(); got != 0 {
		t.Errorf("count = %d, want 0", got)
	}
	if api.markAllCalls != 2 {
		t.Errorf("markAllCalls = %d, want 2", api.markAllCalls)
	}
}

func TestPoller_unseenSinkFiresOncePerNotification(t *testing.T) {
	t.Parallel()

	api := newFakeNotifAPI()
	api.count = 2
	api.items = []domain.Notification{{ID: "n1"}, {ID: "n2", Read: true}}
	p := New(api, time.Hour, 20, testLogger())

	var mu sync.Mutex
	sunk := map[string]int{}
	p.SetUnseenSink(func(ctx context.Context, n domain.Notification) {
		mu.Lock()
		sunk[n.ID]++
		mu.Unlock()
	})

	p.pollOnce(context.Background(), 0)
	p.pollOnce(context.Background(), 0)

	mu.Lock()
	defer mu.Unlock()
	if sunk["n1"] != 1 {
		t.Errorf("n1 forwarded %d times, want 1", sunk["n1"])
	}
	if sunk["n2"] != 0 {
		t.Errorf("already-read n2 forwarded %d times, want 0", sunk["n2"])
	}
}

func TestPoller_fetchAppliesSnapshot(t *testing.T) {
	t.Parallel()

	api := newFakeNotifAPI()
	api.items = []domain.Notification{{ID: "n1"}, {ID: "n2"}}
	p := New(api, time.Hour, 20, testLogger())

	items, err := p.Fetch(context.Background(), 50)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(items))
	}
	if got := p.Notifications(); len(got) != 2 {
		t.Errorf("projection list = %d items, want 2", len(got))
	}
}
