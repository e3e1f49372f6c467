package revocation

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrInvalidEntry = errors.New("revocation: token id required")

// MemoryDenylist keeps revoked token ids in process memory. Entries are
// dropped once their expiry passes. State is lost on restart and not shared
// between instances; use RedisDenylist for that.
type MemoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	clock   func() time.Time
}

func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{entries: map[string]time.Time{}, clock: time.Now}
}

func (d *MemoryDenylist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return ErrInvalidEntry
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock()
	d.sweep(now)
	if !until.After(now) {
		// already expired; nothing to deny
		return nil
	}
	d.entries[tokenID] = until
	return nil
}

func (d *MemoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	until, ok := d.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !until.After(d.clock()) {
		delete(d.entries, tokenID)
		return false, nil
	}
	return true, nil
}

func (d *MemoryDenylist) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

func (d *MemoryDenylist) sweep(now time.Time) {
	for id, until := range d.entries {
		if !until.After(now) {
			delete(d.entries, id)
		}
	}
}
