package core

import "testing"

func TestDispatchHistory_Wraps(t *testing.T) {
	h := newDispatchHistory(3)
	if _, ok := h.Last(); ok {
		t.Fatal("Last() on empty history reported ok")
	}
	if got := h.Recent(5); got != nil {
		t.Fatalf("Recent() on empty history = %v", got)
	}

	for i := 1; i <= 5; i++ {
		h.Add(DispatchRecord{What: i})
	}

	got := h.Recent(0)
	if len(got) != 3 {
		t.Fatalf("Recent(0) len = %d, want 3", len(got))
	}
	for i, want := range []int{5, 4, 3} {
		if got[i].What != want {
			t.Errorf("Recent(0)[%d].What = %d, want %d", i, got[i].What, want)
		}
	}

	if got := h.Recent(1); len(got) != 1 || got[0].What != 5 {
		t.Errorf("Recent(1) = %v, want [5]", got)
	}
	if last, ok := h.Last(); !ok || last.What != 5 {
		t.Errorf("Last() = %v, %v", last, ok)
	}
}

func TestDispatchHistory_DefaultCapacity(t *testing.T) {
	h := newDispatchHistory(0)
	if len(h.items) != defaultHistoryCapacity {
		t.Errorf("capacity = %d, want %d", len(h.items), defaultHistoryCapacity)
	}
}

func TestDispatchRecord_Latency(t *testing.T) {
	var r DispatchRecord
	if r.Latency() != 0 {
		t.Errorf("Latency() of zero record = %v", r.Latency())
	}
}
