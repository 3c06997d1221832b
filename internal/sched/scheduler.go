// internal/sched/scheduler.go

package sched

import (
	"fmt"
)

// Engine is a tiered dispatch engine. It owns one FIFO queue per priority
// tier and the selection state of its policy.
//
// An Engine is not safe for concurrent use; callers that share one across
// goroutines must serialise every call. Independent engines share nothing.
type Engine struct {
	cfg      Config
	tiers    []*tierQueue
	disp     dispatcher
	observer Observer
	waiting  int // tasks across all tiers
}

// New validates cfg and returns an empty engine. An inconsistent config
// yields a *ConfigurationError and no engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	n, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      n,
		tiers:    make([]*tierQueue, n.TierCount),
		disp:     newDispatcher(n.Policy),
		observer: NopObserver{},
	}
	for i := range e.tiers {
		e.tiers[i] = newTierQueue()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// AddProcess appends t to the tail of its tier and resets its age.
func (e *Engine) AddProcess(t *Task) error {
	if t == nil {
		return fmt.Errorf("%w: nil task", ErrInvalidPriority)
	}
	if t.queued {
		return fmt.Errorf("task %d: %w", t.ID, ErrTaskQueued)
	}
	if t.tier < 0 || t.tier >= len(e.tiers) {
		return fmt.Errorf("task %d: %w: tier %d not in [0, %d]", t.ID, ErrInvalidPriority, t.tier, len(e.tiers)-1)
	}

	e.enqueue(t, t.tier)
	e.observer.OnEnqueue(t)
	return nil
}

func (e *Engine) enqueue(t *Task, tier int) {
	t.tier = tier
	t.age = 0
	t.queued = true
	e.tiers[tier].push(t)
	e.waiting++
}

// NextProcess removes and returns the task that runs next together with its
// quantum. ok is false when nothing is schedulable; that is not an error.
func (e *Engine) NextProcess() (t *Task, q Quantum, ok bool) {
	tier := e.disp.pick(e.tiers)
	if tier < 0 {
		return nil, Unlimited, false
	}

	t = e.tiers[tier].pop()
	e.waiting--
	q = e.cfg.Quanta[tier]

	t.queued = false
	t.dispatches++
	t.lastQuantum = q

	e.observer.OnDispatch(t, q)
	return t, q, true
}

// HasProcess reports whether any tier holds a task.
func (e *Engine) HasProcess() bool { return e.waiting > 0 }

// Len returns the number of waiting tasks.
func (e *Engine) Len() int { return e.waiting }

// TierLen returns the number of tasks waiting in tier, or 0 for a tier the
// engine does not have.
func (e *Engine) TierLen(tier int) int {
	if tier < 0 || tier >= len(e.tiers) {
		return 0
	}
	return e.tiers[tier].len()
}

// Tiers returns the configured tier count.
func (e *Engine) Tiers() int { return len(e.tiers) }

// Config returns the normalised configuration the engine runs with.
func (e *Engine) Config() Config {
	c := e.cfg
	c.Quanta = append([]Quantum(nil), e.cfg.Quanta...)
	return c
}

// Waiting returns a copy of the tasks in tier from head to tail.
func (e *Engine) Waiting(tier int) []*Task {
	if tier < 0 || tier >= len(e.tiers) {
		return nil
	}
	return e.tiers[tier].snapshot()
}
