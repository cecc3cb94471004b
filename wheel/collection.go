package wheel

import "sync"

// =============================================================================
// COLLECTION - Caller-owned lot storage with the View/Apply pair
// =============================================================================

// Collection owns a lot slice and exposes exactly the two operations the
// engine is allowed to use: a read snapshot and a serialized mutation.
// Callers that hold lots elsewhere (a page, a cache) can supply their own
// View/Apply pair instead.
type Collection struct {
	mu   sync.RWMutex
	lots []Lot
}

func NewCollection(initial []Lot) *Collection {
	return &Collection{lots: cloneLots(initial)}
}

// View returns a deep-copied snapshot.
func (c *Collection) View() []Lot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneLots(c.lots)
}

// Apply runs mutate against the current lots and stores the result.
// Mutations are serialized.
func (c *Collection) Apply(mutate func(prev []Lot) []Lot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lots = mutate(c.lots)
}

// Lot returns a copy of the lot with the given number.
func (c *Collection) Lot(number int) (Lot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := lotIndex(c.lots, number); i >= 0 {
		return c.lots[i].Clone(), true
	}
	return Lot{}, false
}

// Len returns the number of lots.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lots)
}
