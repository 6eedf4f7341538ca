// Package poller keeps the unread-notification indicator current without
// user action. It is a start/stop state machine driven by authentication
// state: stopped -> polling when a session appears, polling -> stopped when
// it goes away. At most one ticker exists at any time.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mkravets/binderbot/internal/domain"
)

// API is the slice of the marketplace gateway the poller needs.
type API interface {
	UnreadCount(ctx context.Context) (int, error)
	Notifications(ctx context.Context, limit int) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// Poller polls the unread count on a fixed interval and maintains the local
// read-state projection. Safe for concurrent use.
type Poller struct {
	api       API
	interval  time.Duration
	listLimit int
	logger    *slog.Logger

	mu       sync.Mutex
	proj     Projection
	gen      uint64 // liveness generation; responses from older runs are discarded
	cancel   context.CancelFunc
	seen     map[string]bool
	onUnseen func(context.Context, domain.Notification)
}

// New creates a Poller. interval is how often the unread count is fetched
// while polling; listLimit bounds the list fetch used to discover new items.
func New(api API, interval time.Duration, listLimit int, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if listLimit <= 0 {
		listLimit = 20
	}
	return &Poller{
		api:       api,
		interval:  interval,
		listLimit: listLimit,
		logger:    logger.With(slog.String("component", "poller")),
		seen:      make(map[string]bool),
	}
}

// SetUnseenSink registers fn to receive each unread notification the first
// time the poller observes it. Used to forward activity to operator channels.
func (p *Poller) SetUnseenSink(fn func(context.Context, domain.Notification)) {
	p.mu.Lock()
	p.onUnseen = fn
	p.mu.Unlock()
}

// Start enters the polling state: an immediate fetch, then one tick per
// interval. Re-entering (e.g. re-login) cancels any previous ticker first, so
// duplicate timers cannot accumulate.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	p.logger.Info("notification polling started", slog.Duration("interval", p.interval))
	go p.run(runCtx, gen)
}

// Stop leaves the polling state and cancels the ticker. Responses to fetches
// already in flight are discarded, not applied. Safe to call when stopped.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.cancel == nil {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.cancel = nil
	p.gen++
	p.mu.Unlock()

	p.logger.Info("notification polling stopped")
}

// Running reports whether the poller is in the polling state.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) run(ctx context.Context, gen uint64) {
	p.pollOnce(ctx, gen)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx, gen)
		}
	}
}

// pollOnce fetches the unread count and, when new unread items exist, the
// recent list. Results are applied only if the poller generation is unchanged
// since the fetch was issued (late-response safety).
func (p *Poller) pollOnce(ctx context.Context, gen uint64) {
	count, err := p.api.UnreadCount(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("unread count fetch failed", slog.String("error", err.Error()))
		}
		return
	}

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.proj.ApplyCount(count)
	p.mu.Unlock()

	if count == 0 {
		return
	}

	items, err := p.api.Notifications(ctx, p.listLimit)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("notification list fetch failed", slog.String("error", err.Error()))
		}
		return
	}

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.proj.ApplyList(items)

	var fresh []domain.Notification
	for _, n := range items {
		if n.Read || p.seen[n.ID] {
			continue
		}
		p.seen[n.ID] = true
		fresh = append(fresh, n)
	}
	sink := p.onUnseen
	p.mu.Unlock()

	if sink != nil {
		for _, n := range fresh {
			sink(ctx, n)
		}
	}
}

// Fetch performs an on-demand full list fetch (e.g. when a dropdown opens),
// independent of the count-only poll cycle.
func (p *Poller) Fetch(ctx context.Context, limit int) ([]domain.Notification, error) {
	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()

	items, err := p.api.Notifications(ctx, limit)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if gen == p.gen {
		p.proj.ApplyList(items)
	}
	p.mu.Unlock()

	return items, nil
}

// MarkAsRead flips the notification's local read flag and decrements the
// count before the network call resolves. A failed network call is not
// rolled back; the next scheduled poll is the correction mechanism. The error
// is returned for diagnostics only.
func (p *Poller) MarkAsRead(ctx context.Context, id string) error {
	p.mu.Lock()
	p.proj.MarkRead(id)
	p.mu.Unlock()

	if err := p.api.MarkNotificationRead(ctx, id); err != nil {
		p.logger.Warn("mark-read failed, next poll will reconcile",
			slog.String("notification_id", id),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// MarkAllAsRead is the bulk form of MarkAsRead, with the same
// optimistic-then-eventually-corrected policy.
func (p *Poller) MarkAllAsRead(ctx context.Context) error {
	p.mu.Lock()
	p.proj.MarkAllRead()
	p.mu.Unlock()

	if err := p.api.MarkAllNotificationsRead(ctx); err != nil {
		p.logger.Warn("mark-all-read failed, next poll will reconcile",
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// UnreadCount returns the locally projected unread count.
func (p *Poller) UnreadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.proj.UnreadCount()
}

// Notifications returns a copy of the last known notification list.
func (p *Poller) Notifications() []domain.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.proj.Items()
}
