package poller

import "github.com/mkravets/binderbot/internal/domain"

// Projection is the local view of notification read-state. It accepts either
// optimistic local patches or server snapshots; a snapshot always wins on
// conflict. The server stays ground truth, the recurring poll is the
// reconciliation tick.
type Projection struct {
	count int
	items []domain.Notification
}

// UnreadCount returns the locally projected unread count.
func (p *Projection) UnreadCount() int {
	return p.count
}

// Items returns a copy of the last known notification list.
func (p *Projection) Items() []domain.Notification {
	out := make([]domain.Notification, len(p.items))
	copy(out, p.items)
	return out
}

// ApplyCount replaces the projected count with a server snapshot.
func (p *Projection) ApplyCount(count int) {
	if count < 0 {
		count = 0
	}
	p.count = count
}

// ApplyList replaces the projected list with a server snapshot.
func (p *Projection) ApplyList(items []domain.Notification) {
	p.items = make([]domain.Notification, len(items))
	copy(p.items, items)
}

// MarkRead applies the optimistic local mutation for a single mark-read:
// flip the item's read flag if we hold it, and decrement the count. The count
// never goes below zero. This patch is deliberately never rolled back on
// network failure; the next snapshot corrects any drift.
func (p *Projection) MarkRead(id string) {
	for i := range p.items {
		if p.items[i].ID == id {
			if p.items[i].Read {
				return // already read locally, nothing to project
			}
			p.items[i].Read = true
			break
		}
	}
	if p.count > 0 {
		p.count--
	}
}

// MarkAllRead applies the optimistic bulk mutation: every held item becomes
// read and the count drops to zero. Idempotent.
func (p *Projection) MarkAllRead() {
	for i := range p.items {
		p.items[i].Read = true
	}
	p.count = 0
}
