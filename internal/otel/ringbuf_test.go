package otel

import (
	"sync"
	"testing"
)

// counts extracts the Count field of each event.
func counts(evs []Event) []int {
	out := make([]int, len(evs))
	for i, e := range evs {
		out[i] = e.Count
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func fill(size, pushes int) *RingBuffer {
	r := NewRingBuffer(size)
	for i := 0; i < pushes; i++ {
		r.Push(Event{Kind: KindArticleMove, Count: i})
	}
	return r
}

func TestRingOrdering(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		pushes   int
		snapshot []int
		last2    []int
		length   int
	}{
		{"empty", 4, 0, nil, nil, 0},
		{"partial", 4, 3, []int{0, 1, 2}, []int{1, 2}, 3},
		{"exactly full", 4, 4, []int{0, 1, 2, 3}, []int{2, 3}, 4},
		{"wrapped", 4, 6, []int{2, 3, 4, 5}, []int{4, 5}, 4},
		{"wrapped twice", 3, 8, []int{5, 6, 7}, []int{6, 7}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := fill(tt.size, tt.pushes)
			snap := r.Snapshot()
			if tt.snapshot == nil && snap != nil {
				t.Errorf("Snapshot() = %v, want nil", snap)
			}
			if got := counts(snap); !equalInts(got, tt.snapshot) {
				t.Errorf("Snapshot() = %v, want %v", got, tt.snapshot)
			}
			if got := counts(r.Last(2)); !equalInts(got, tt.last2) {
				t.Errorf("Last(2) = %v, want %v", got, tt.last2)
			}
			if r.Len() != tt.length {
				t.Errorf("Len() = %d, want %d", r.Len(), tt.length)
			}
		})
	}
}

func TestRingLastBounds(t *testing.T) {
	r := fill(8, 3)
	if r.Last(0) != nil || r.Last(-2) != nil {
		t.Error("non-positive n should return nil")
	}
	if got := counts(r.Last(10)); !equalInts(got, []int{0, 1, 2}) {
		t.Errorf("Last(10) = %v", got)
	}
}

func TestRingCapacity(t *testing.T) {
	if got := NewRingBuffer(64).Cap(); got != 64 {
		t.Errorf("Cap() = %d, want 64", got)
	}
	if got := NewRingBuffer(0).Cap(); got != DefaultRingSize {
		t.Errorf("zero size should default to %d, got %d", DefaultRingSize, got)
	}
	if got := NewRingBuffer(-3).Cap(); got != DefaultRingSize {
		t.Errorf("negative size should default to %d, got %d", DefaultRingSize, got)
	}
}

func TestRingClonesExtra(t *testing.T) {
	r := NewRingBuffer(4)
	extra := map[string]any{"file": "links.xlsx"}
	r.Push(Event{Kind: KindUploadComplete, Extra: extra})
	extra["file"] = "other.csv"

	if got := r.Snapshot()[0].Extra["file"]; got != "links.xlsx" {
		t.Errorf("Extra aliased the caller's map: %v", got)
	}
}

func TestRingStats(t *testing.T) {
	r := NewRingBuffer(4)
	r.Push(Event{Kind: KindStartup})
	r.Push(Event{Kind: KindAnalysisStart})
	r.Push(Event{Kind: KindAnalysisStart})
	r.Push(Event{Kind: KindAnalysisError, Level: LevelError})
	r.Push(Event{Kind: KindStoredMiss, Level: LevelWarn}) // evicts startup

	stats := r.Stats()
	if stats[KindStartup] != 0 || stats[KindAnalysisStart] != 2 || stats[KindAnalysisError] != 1 || stats[KindStoredMiss] != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}

	levels := r.LevelCounts()
	if levels[LevelInfo] != 2 || levels[LevelError] != 1 || levels[LevelWarn] != 1 {
		t.Errorf("unexpected level counts: %v", levels)
	}
}

func TestRingLastMatching(t *testing.T) {
	r := NewRingBuffer(4)
	for i := 0; i < 6; i++ {
		id := "a"
		if i%2 == 1 {
			id = "b"
		}
		r.Push(Event{Kind: KindArticleMove, ArticleID: id, Count: i})
	}
	isB := func(e Event) bool { return e.ArticleID == "b" }

	// Buffer holds 2..5
	if got := counts(r.LastMatching(5, isB)); !equalInts(got, []int{3, 5}) {
		t.Errorf("LastMatching(5, b) = %v", got)
	}
	if got := counts(r.LastMatching(1, isB)); !equalInts(got, []int{5}) {
		t.Errorf("LastMatching(1, b) = %v", got)
	}
	if got := counts(r.LastMatching(3, nil)); !equalInts(got, []int{3, 4, 5}) {
		t.Errorf("nil keep should match all, got %v", got)
	}
}

func TestRingConcurrentUse(t *testing.T) {
	r := NewRingBuffer(32)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				r.Push(Event{Kind: KindGatewayRequest})
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = r.Snapshot()
				_ = r.Stats()
			}
		}()
	}
	wg.Wait()

	if r.Len() != 32 {
		t.Errorf("Len() = %d, want 32", r.Len())
	}
}
