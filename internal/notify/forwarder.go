package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkravets/binderbot/internal/domain"
)

// Forwarder pushes freshly seen marketplace notifications to the operator
// channels. A dedup store guarantees each notification is forwarded at most
// once even across restarts or overlapping poll cycles.
type Forwarder struct {
	notifier *Notifier
	dedup    domain.ForwardDedup
	logger   *slog.Logger
}

func NewForwarder(notifier *Notifier, dedup domain.ForwardDedup, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		notifier: notifier,
		dedup:    dedup,
		logger:   logger.With(slog.String("component", "forwarder")),
	}
}

// HandleNotification forwards one notification unless it was already
// delivered. Dedup store failures fail open: losing the suppression record is
// better than dropping an alert.
func (f *Forwarder) HandleNotification(ctx context.Context, n domain.Notification) {
	first, err := f.dedup.FirstSeen(ctx, n.ID)
	if err != nil {
		f.logger.WarnContext(ctx, "dedup check failed",
			slog.String("notification_id", n.ID),
			slog.String("error", err.Error()),
		)
		first = true
	}
	if !first {
		return
	}

	title := "CardTrade activity"
	if n.RelatedOfferID != "" {
		title = fmt.Sprintf("Trade offer %s", n.RelatedOfferID)
	}

	if err := f.notifier.Notify(ctx, n.Event(), title, n.Message); err != nil {
		f.logger.WarnContext(ctx, "forward failed",
			slog.String("notification_id", n.ID),
			slog.String("error", err.Error()),
		)
	}
}
