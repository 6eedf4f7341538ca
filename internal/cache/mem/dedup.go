// Package mem provides in-memory fallbacks for the cache interfaces, used
// when Redis is not configured.
package mem

import (
	"context"
	"sync"

	"github.com/mkravets/binderbot/internal/domain"
)

// ForwardDedup is a process-local domain.ForwardDedup. Suppression state is
// lost on restart, which at worst re-delivers a notification once.
type ForwardDedup struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewForwardDedup() *ForwardDedup {
	return &ForwardDedup{seen: make(map[string]struct{})}
}

// FirstSeen marks id as seen and reports whether it was new.
func (d *ForwardDedup) FirstSeen(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return false, nil
	}
	d.seen[id] = struct{}{}
	return true, nil
}

var _ domain.ForwardDedup = (*ForwardDedup)(nil)
