package otel

import (
	"maps"
	"sync"
)

// DefaultRingSize is the capacity used when NewRingBuffer gets a
// non-positive size.
const DefaultRingSize = 1024

// RingBuffer keeps the most recent events in memory for the debug overlay.
// Safe for concurrent use.
type RingBuffer struct {
	mu    sync.Mutex
	slots []Event
	next  int  // slot the next Push writes
	full  bool // every slot holds an event
}

// NewRingBuffer creates a buffer holding up to size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{slots: make([]Event, size)}
}

// Push stores e, evicting the oldest event when full. Extra is cloned so
// later changes by the caller do not show through.
func (r *RingBuffer) Push(e Event) {
	e.Extra = maps.Clone(e.Extra)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[r.next] = e
	r.next++
	if r.next == len(r.slots) {
		r.next = 0
		r.full = true
	}
}

// inOrder returns the buffered events oldest first as two runs, which
// alias the buffer. Callers hold mu.
func (r *RingBuffer) inOrder() (older, newer []Event) {
	if !r.full {
		return r.slots[:r.next], nil
	}
	return r.slots[r.next:], r.slots[:r.next]
}

// Snapshot copies every buffered event, oldest first. Nil when empty.
func (r *RingBuffer) Snapshot() []Event {
	return r.Last(r.Cap())
}

// Last copies up to n of the newest events, oldest first. Nil when n <= 0
// or the buffer is empty.
func (r *RingBuffer) Last(n int) []Event {
	return r.LastMatching(n, nil)
}

// LastMatching copies up to n of the newest events for which keep reports
// true, oldest first. A nil keep matches everything.
func (r *RingBuffer) LastMatching(n int, keep func(Event) bool) []Event {
	if n <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	older, newer := r.inOrder()
	var out []Event
	// Walk newest to oldest, then reverse
	for _, run := range [][]Event{newer, older} {
		for i := len(run) - 1; i >= 0 && len(out) < n; i-- {
			if keep == nil || keep(run[i]) {
				out = append(out, run[i])
			}
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Len is the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.slots)
	}
	return r.next
}

// Cap is the buffer capacity.
func (r *RingBuffer) Cap() int {
	return len(r.slots)
}

// Stats counts buffered events by kind.
func (r *RingBuffer) Stats() map[EventKind]int {
	counts := make(map[EventKind]int)
	r.visit(func(e Event) { counts[e.Kind]++ })
	return counts
}

// LevelCounts counts buffered events by level. Events without a level
// count as info.
func (r *RingBuffer) LevelCounts() map[Level]int {
	counts := make(map[Level]int)
	r.visit(func(e Event) {
		if e.Level == "" {
			e.Level = LevelInfo
		}
		counts[e.Level]++
	})
	return counts
}

func (r *RingBuffer) visit(fn func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	older, newer := r.inOrder()
	for _, e := range older {
		fn(e)
	}
	for _, e := range newer {
		fn(e)
	}
}
