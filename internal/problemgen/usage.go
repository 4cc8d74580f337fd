package problemgen

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/abhisek/adaptiq/internal/catalog"
)

// Usage counts how often each template has been chosen, across all
// sessions. Counters only grow.
type Usage struct {
	mu     sync.RWMutex
	counts map[string]*atomic.Int64
}

// NewUsage returns an empty counter set.
func NewUsage() *Usage {
	return &Usage{counts: make(map[string]*atomic.Int64)}
}

func (u *Usage) counter(id string) *atomic.Int64 {
	u.mu.RLock()
	c, ok := u.counts[id]
	u.mu.RUnlock()
	if ok {
		return c
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if c, ok = u.counts[id]; !ok {
		c = new(atomic.Int64)
		u.counts[id] = c
	}
	return c
}

// Count returns the usage count for a template id.
func (u *Usage) Count(id string) int64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if c, ok := u.counts[id]; ok {
		return c.Load()
	}
	return 0
}

// Increment bumps the counter for id and returns the new value.
func (u *Usage) Increment(id string) int64 {
	return u.counter(id).Add(1)
}

// Snapshot returns a copy of all counters.
func (u *Usage) Snapshot() map[string]int64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make(map[string]int64, len(u.counts))
	for id, c := range u.counts {
		out[id] = c.Load()
	}
	return out
}

// Ordered returns templates sorted by ascending usage. Ties keep their
// input order.
func (u *Usage) Ordered(templates []catalog.QuestionTemplate) []catalog.QuestionTemplate {
	counts := make(map[string]int64, len(templates))
	for _, t := range templates {
		counts[t.ID] = u.Count(t.ID)
	}
	out := slices.Clone(templates)
	slices.SortStableFunc(out, func(a, b catalog.QuestionTemplate) int {
		switch ca, cb := counts[a.ID], counts[b.ID]; {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		}
		return 0
	})
	return out
}

// LeastUsed returns the template with the lowest count, the first one on
// ties. ok is false for an empty slice.
func (u *Usage) LeastUsed(templates []catalog.QuestionTemplate) (catalog.QuestionTemplate, bool) {
	if len(templates) == 0 {
		return catalog.QuestionTemplate{}, false
	}
	best, bestCount := 0, u.Count(templates[0].ID)
	for i := 1; i < len(templates); i++ {
		if c := u.Count(templates[i].ID); c < bestCount {
			best, bestCount = i, c
		}
	}
	return templates[best], true
}
