package sched

// Observer receives engine state changes as they happen. Hooks run
// synchronously inside the engine call and must not call back into it.
type Observer interface {
	OnEnqueue(t *Task)
	OnDispatch(t *Task, q Quantum)
	OnPromote(t *Task, from, to int)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnEnqueue(*Task) {}
func (NopObserver) OnDispatch(*Task, Quantum) {}
func (NopObserver) OnPromote(*Task, int, int) {}

// Option configures an [Engine].
type Option func(*Engine)

// WithObserver installs an observer for enqueue, dispatch and promotion
// events.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}
