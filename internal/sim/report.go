package sim

import (
	"github.com/emirpasic/gods/maps/treemap"

	"ticksched/internal/sched"
)

// TaskStats is the outcome of one job in a simulation.
type TaskStats struct {
	ID         sched.TaskID
	Name       string
	Tier       int // tier the job arrived in
	FinalTier  int
	Arrival    int64
	FirstRun   int64 // -1 until first dispatched
	Completion int64 // -1 until finished
	Burst      int64
	Dispatches int
	Promotions int
}

func (ts TaskStats) Finished() bool { return ts.Completion >= 0 }

// Turnaround is the time from arrival to completion.
func (ts TaskStats) Turnaround() int64 {
	if !ts.Finished() {
		return 0
	}
	return ts.Completion - ts.Arrival
}

// Waiting is the time spent runnable but not running.
func (ts TaskStats) Waiting() int64 {
	if !ts.Finished() {
		return 0
	}
	return ts.Turnaround() - ts.Burst
}

// Response is the time from arrival to first dispatch.
func (ts TaskStats) Response() int64 {
	if ts.FirstRun < 0 {
		return 0
	}
	return ts.FirstRun - ts.Arrival
}

// Report summarises a simulation run. Per-task stats are kept ordered by
// task ID.
type Report struct {
	Policy     sched.Policy
	Config     sched.Config
	Workload   string
	Ticks      int64
	IdleTicks  int64
	Dispatches int
	Promotions int
	Rejected   int

	tasks *treemap.Map // sched.TaskID -> *TaskStats
}

func newReport(cfg sched.Config, workload string) *Report {
	return &Report{
		Policy:   cfg.Policy,
		Config:   cfg,
		Workload: workload,
		tasks:    treemap.NewWith(byTaskID),
	}
}

func (r *Report) track(ts *TaskStats) { r.tasks.Put(ts.ID, ts) }

func (r *Report) get(id sched.TaskID) *TaskStats {
	v, ok := r.tasks.Get(id)
	if !ok {
		return nil
	}
	return v.(*TaskStats)
}

// Task returns the stats of one job.
func (r *Report) Task(id sched.TaskID) (TaskStats, bool) {
	ts := r.get(id)
	if ts == nil {
		return TaskStats{}, false
	}
	return *ts, true
}

// Tasks returns every job's stats ordered by ID.
func (r *Report) Tasks() []TaskStats {
	out := make([]TaskStats, 0, r.tasks.Size())
	r.tasks.Each(func(_, v interface{}) {
		out = append(out, *v.(*TaskStats))
	})
	return out
}

// Completed returns the number of finished jobs.
func (r *Report) Completed() int {
	n := 0
	r.tasks.Each(func(_, v interface{}) {
		if v.(*TaskStats).Finished() {
			n++
		}
	})
	return n
}

func (r *Report) average(metric func(TaskStats) int64) float64 {
	var sum, n int64
	r.tasks.Each(func(_, v interface{}) {
		ts := *v.(*TaskStats)
		if ts.Finished() {
			sum += metric(ts)
			n++
		}
	})
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func (r *Report) AvgTurnaround() float64 { return r.average(TaskStats.Turnaround) }
func (r *Report) AvgWaiting() float64 { return r.average(TaskStats.Waiting) }
func (r *Report) AvgResponse() float64 { return r.average(TaskStats.Response) }

// Throughput is finished jobs per 100 ticks.
func (r *Report) Throughput() float64 {
	if r.Ticks == 0 {
		return 0
	}
	return 100 * float64(r.Completed()) / float64(r.Ticks)
}

// Utilization is the share of ticks the CPU was busy.
func (r *Report) Utilization() float64 {
	if r.Ticks == 0 {
		return 0
	}
	return float64(r.Ticks-r.IdleTicks) / float64(r.Ticks)
}

// byTaskID implements the gods comparator for sched.TaskID keys.
func byTaskID(a, b interface{}) int {
	ka, kb := a.(sched.TaskID), b.(sched.TaskID)
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}
