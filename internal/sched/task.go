package sched

// TaskID uniquely identifies a task in the scheduler.
type TaskID uint64

// Task represents one schedulable task unit.
//
// While a task sits in one of the engine's tiers the engine owns its tier and
// age. Callers read them through Tier and Age and may only move a task with
// SetTier once it has been handed back by NextProcess.
type Task struct {
	ID   TaskID
	Name string

	tier   int   // 0 is the highest priority
	age    int64 // ticks waited since last enqueue or promotion
	queued bool

	dispatches  int     // times returned by NextProcess
	promotions  int     // times moved up by aging
	lastQuantum Quantum // slice granted on the last dispatch
}

// NewTask creates a task for the given tier. The tier is not checked here;
// AddProcess rejects tiers that the engine does not have.
func NewTask(id TaskID, tier int) *Task {
	return &Task{ID: id, tier: tier}
}

func (t *Task) Tier() int { return t.tier }
func (t *Task) Age() int64 { return t.age }
func (t *Task) Queued() bool { return t.queued }
func (t *Task) Dispatches() int { return t.dispatches }
func (t *Task) Promotions() int { return t.promotions }
func (t *Task) LastQuantum() Quantum { return t.lastQuantum }

// SetTier moves a task that is not currently enqueued to another tier, e.g.
// a driver demoting a task whose quantum expired.
func (t *Task) SetTier(tier int) error {
	if t.queued {
		return ErrTaskQueued
	}
	t.tier = tier
	return nil
}
