package rate

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

// MemoryWindow keeps counters in process memory.
type MemoryWindow struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryWindow creates a [MemoryWindow]. A nil clock defaults to time.Now.
func NewMemoryWindow(now func() time.Time) *MemoryWindow {
	if now == nil {
		now = time.Now
	}
	return &MemoryWindow{
		now:     now,
		entries: make(map[string]memoryEntry),
	}
}

// live returns the entry for key after dropping it when expired. Caller holds mu.
func (w *MemoryWindow) live(key string) (memoryEntry, bool) {
	e, ok := w.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !w.now().Before(e.expiresAt) {
		delete(w.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

// Incr implements [Window].
func (w *MemoryWindow) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.live(key)
	if !ok {
		e = memoryEntry{}
		if ttl > 0 {
			e.expiresAt = w.now().Add(ttl)
		}
	}
	e.count++
	w.entries[key] = e
	return e.count, nil
}

// Count implements [Window].
func (w *MemoryWindow) Count(_ context.Context, key string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, _ := w.live(key)
	return e.count, nil
}

// Remaining implements [Window].
func (w *MemoryWindow) Remaining(_ context.Context, key string) (time.Duration, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.live(key)
	if !ok || e.expiresAt.IsZero() {
		return 0, nil
	}
	return e.expiresAt.Sub(w.now()), nil
}

// Reset implements [Window].
func (w *MemoryWindow) Reset(_ context.Context, keys ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, k := range keys {
		delete(w.entries, k)
	}
	return nil
}
