// internal/sched/queue.go

package sched

import (
	"github.com/emirpasic/gods/lists/doublylinkedlist"
)

// tierQueue is the FIFO run queue of a single priority tier.
type tierQueue struct {
	list *doublylinkedlist.List
}

func newTierQueue() *tierQueue {
	return &tierQueue{list: doublylinkedlist.New()}
}

func (q *tierQueue) push(t *Task) { q.list.Add(t) }

// pop removes and returns the head, or nil when the tier is empty.
func (q *tierQueue) pop() *Task {
	v, ok := q.list.Get(0)
	if !ok {
		return nil
	}
	q.list.Remove(0)
	return v.(*Task)
}

func (q *tierQueue) empty() bool { return q.list.Empty() }
func (q *tierQueue) len() int    { return q.list.Size() }

// each visits the queued tasks from head to tail.
func (q *tierQueue) each(fn func(t *Task)) {
	it := q.list.Iterator()
	for it.Next() {
		fn(it.Value().(*Task))
	}
}

// extract removes every task matching pred and returns them in queue order.
// Tasks left behind keep their relative order.
func (q *tierQueue) extract(pred func(t *Task) bool) []*Task {
	var (
		out  []*Task
		keep = make([]interface{}, 0, q.list.Size())
	)
	q.each(func(t *Task) {
		if pred(t) {
			out = append(out, t)
			return
		}
		keep = append(keep, t)
	})
	if len(out) == 0 {
		return nil
	}
	q.list.Clear()
	q.list.Add(keep...)
	return out
}

// snapshot returns the queued tasks from head to tail.
func (q *tierQueue) snapshot() []*Task {
	out := make([]*Task, 0, q.list.Size())
	q.each(func(t *Task) { out = append(out, t) })
	return out
}
