package sched

import (
	"slices"
	"testing"
)

func queueIDs(q *tierQueue) []TaskID {
	var out []TaskID
	q.each(func(t *Task) { out = append(out, t.ID) })
	return out
}

func TestTierQueue(t *testing.T) {
	t.Parallel()

	q := newTierQueue()
	if !q.empty() || q.pop() != nil {
		t.Fatal("new queue is not empty")
	}

	for i := 1; i <= 5; i++ {
		q.push(&Task{ID: TaskID(i)})
	}
	if q.len() != 5 {
		t.Fatalf("len = %d, want 5", q.len())
	}
	if got := q.pop(); got.ID != 1 {
		t.Fatalf("pop = %d, want 1", got.ID)
	}

	out := q.extract(func(t *Task) bool { return t.ID%2 == 0 })
	var got []TaskID
	for _, t := range out {
		got = append(got, t.ID)
	}
	if want := []TaskID{2, 4}; !slices.Equal(got, want) {
		t.Errorf("extracted %v, want %v", got, want)
	}
	if want := []TaskID{3, 5}; !slices.Equal(queueIDs(q), want) {
		t.Errorf("remaining %v, want %v", queueIDs(q), want)
	}

	if out := q.extract(func(*Task) bool { return false }); out != nil {
		t.Errorf("extract with no match returned %v", out)
	}
	if want := []TaskID{3, 5}; !slices.Equal(queueIDs(q), want) {
		t.Errorf("no-op extract reordered queue: %v", queueIDs(q))
	}

	q.push(&Task{ID: 6})
	for _, want := range []TaskID{3, 5, 6} {
		if got := q.pop(); got.ID != want {
			t.Fatalf("pop = %d, want %d", got.ID, want)
		}
	}
	if !q.empty() {
		t.Error("queue not empty after draining")
	}
}
