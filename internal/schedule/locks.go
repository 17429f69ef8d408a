package schedule

import (
	"sort"
	"sync"
)

// Locks serializes check-then-create sequences per resource.  The
// availability read and the subsequent insert are not atomic on their own:
// two concurrent create calls for the same therapist can both observe a
// free calendar and both commit, double-booking the slot.  Holding the
// resource's mutex across the whole sequence closes that race within the
// process.  A persistence-layer exclusion constraint would close it across
// processes; this service runs as a single instance against its database.
type Locks struct {
	mu    sync.Mutex
	locks map[lockKey]*sync.Mutex
}

type lockKey struct {
	kind ResourceKind
	id   uint64
}

// NewLocks returns an empty lock table.  Mutexes are created lazily the
// first time a resource is locked and retained for the process lifetime;
// the set of staff and rooms is small and bounded.
func NewLocks() *Locks {
	return &Locks{locks: make(map[lockKey]*sync.Mutex)}
}

func (l *Locks) get(k lockKey) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[k]
	if !ok {
		m = &sync.Mutex{}
		l.locks[k] = m
	}
	return m
}

// Acquire locks every window's resource and returns a release function.
// Resources are locked in a deterministic order (kind, then id) so that
// two bookings contending for the same staff/room pair cannot deadlock by
// acquiring in opposite orders.  Duplicate resources are collapsed.
func (l *Locks) Acquire(windows ...Window) (release func()) {
	keys := make([]lockKey, 0, len(windows))
	seen := make(map[lockKey]struct{}, len(windows))
	for _, w := range windows {
		k := lockKey{kind: w.Kind, id: w.ID}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].kind != keys[j].kind {
			return keys[i].kind < keys[j].kind
		}
		return keys[i].id < keys[j].id
	})
	held := make([]*sync.Mutex, 0, len(keys))
	for _, k := range keys {
		m := l.get(k)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		// Unlock in reverse acquisition order.
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
