// internal/sim/schedulerEvent.go

package sim

import (
	"ticksched/internal/sched"
)

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusEnqueue
	StatusDispatch
	StatusPreempt
	StatusFinish
	StatusPromote
	StatusReject
)

// StatusEvent is emitted on every idle tick and on key actions.
type StatusEvent struct {
	Tick     int64
	Kind     StatusKind
	TaskID   sched.TaskID
	Tier     int
	Quantum  sched.Quantum
	RanTicks int64
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusEnqueue:
		return "Enqueued"
	case StatusDispatch:
		return "Dispatch"
	case StatusPreempt:
		return "Preempt"
	case StatusFinish:
		return "Finish"
	case StatusPromote:
		return "Promote"
	case StatusReject:
		return "Reject"
	default:
		return "Unknown"
	}
}
