// internal/sim/simulator.go

package sim

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"ticksched/internal/job"
	"ticksched/internal/sched"
)

// ErrTickLimit is returned when a run hits Options.MaxTicks before every job
// finished. The partial report is still returned.
var ErrTickLimit = errors.New("simulation tick limit reached")

// Options tune the driver; the engine itself is configured by sched.Config.
type Options struct {
	// TickInterval paces the run in wall-clock time. Zero runs flat out.
	TickInterval time.Duration
	// DemoteOnExpiry re-adds a task one tier lower when it used its whole
	// (limited) quantum without finishing.
	DemoteOnExpiry bool
	// MaxTicks stops a run that still has work once the clock passed it. It
	// is checked between dispatches. Zero means no limit.
	MaxTicks int64
	Logger   zerolog.Logger
}

// Simulator drives one engine over one workload: it admits arriving jobs,
// ages the engine every tick, runs dispatched tasks for their quantum and
// re-submits them until all work is done.
type Simulator struct {
	engine   *sched.Engine
	clock    *TickClock
	workload job.Workload
	opts     Options
	log      zerolog.Logger

	bursts map[sched.TaskID]*job.Burst
	report *Report
	subs   []func(StatusEvent)

	// logging-related
	csvFile   *os.File
	csvWriter *csv.Writer
}

// New builds a simulator with a fresh engine for cfg.
func New(cfg sched.Config, w job.Workload, opts Options) (*Simulator, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	w.Jobs = slices.Clone(w.Jobs)
	w.Sort()

	s := &Simulator{
		clock:    NewTickClock(opts.TickInterval),
		workload: w,
		opts:     opts,
		log:      opts.Logger.With().Str("component", "sim").Str("policy", cfg.Policy.String()).Logger(),
		bursts:   make(map[sched.TaskID]*job.Burst, len(w.Jobs)),
	}

	engine, err := sched.New(cfg, sched.WithObserver(s))
	if err != nil {
		return nil, err
	}
	s.engine = engine
	s.report = newReport(engine.Config(), w.Name)
	return s, nil
}

// EnableCSVLogging opens the given file path for CSV logging of events.
// Must be called before Run().
func (s *Simulator) EnableCSVLogging(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)

	// write header
	if err := w.Write([]string{"tick", "event", "task_id", "tier", "quantum", "ran_ticks"}); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	s.csvFile = f
	s.csvWriter = w
	return nil
}

// Subscribe registers fn to receive every status event synchronously.
func (s *Simulator) Subscribe(fn func(StatusEvent)) { s.subs = append(s.subs, fn) }

// Run simulates until every admitted job has finished. It returns the
// report even when stopped early by ctx or MaxTicks.
func (s *Simulator) Run(ctx context.Context) (*Report, error) {
	defer s.closeCSV()

	err := s.loop(ctx)
	s.report.Ticks = s.clock.Count()

	s.log.Info().
		Str("workload", s.workload.Name).
		Int64("ticks", s.report.Ticks).
		Int("completed", s.report.Completed()).
		Int("dispatches", s.report.Dispatches).
		Int("promotions", s.report.Promotions).
		Float64("avg_turnaround", s.report.AvgTurnaround()).
		Float64("avg_waiting", s.report.AvgWaiting()).
		Msg("simulation finished")

	return s.report, err
}

func (s *Simulator) loop(ctx context.Context) error {
	jobs := s.workload.Jobs
	next := 0

	admit := func() {
		for next < len(jobs) && jobs[next].Arrival <= s.clock.Count() {
			s.admit(jobs[next])
			next++
		}
	}
	tick := func() error {
		if err := s.clock.Advance(ctx); err != nil {
			return err
		}
		s.engine.Age()
		admit()
		return nil
	}

	admit()
	for {
		if !s.engine.HasProcess() && next >= len(jobs) {
			return nil
		}
		if s.opts.MaxTicks > 0 && s.clock.Count() >= s.opts.MaxTicks {
			return fmt.Errorf("%w after %d ticks", ErrTickLimit, s.clock.Count())
		}

		// 1) idle case: nothing runnable, wait for the next arrival
		if !s.engine.HasProcess() {
			s.report.IdleTicks++
			s.emit(StatusEvent{Tick: s.clock.Count(), Kind: StatusIdle})
			if err := tick(); err != nil {
				return err
			}
			continue
		}

		// 2) dispatch next task
		t, q, ok := s.engine.NextProcess()
		if !ok {
			return errors.New("engine reported work but dispatched nothing")
		}
		burst := s.bursts[t.ID]

		// 3) run for the granted slice, one tick at a time
		slice := q.Slice(burst.Remaining())
		var ran int64
		for ran < slice {
			if err := tick(); err != nil {
				burst.Run(ran)
				return err
			}
			ran++
		}

		// 4) requeue or finish
		_, done := burst.Run(ran)
		ts := s.report.get(t.ID)
		ts.FinalTier = t.Tier()
		if done {
			ts.Completion = s.clock.Count()
			s.emit(StatusEvent{Tick: s.clock.Count(), Kind: StatusFinish, TaskID: t.ID, Tier: t.Tier(), Quantum: q, RanTicks: ran})
			continue
		}

		s.emit(StatusEvent{Tick: s.clock.Count(), Kind: StatusPreempt, TaskID: t.ID, Tier: t.Tier(), Quantum: q, RanTicks: ran})
		if s.opts.DemoteOnExpiry && !q.IsUnlimited() && t.Tier() < s.engine.Tiers()-1 {
			if err := t.SetTier(t.Tier() + 1); err != nil {
				return err
			}
		}
		if err := s.engine.AddProcess(t); err != nil {
			return fmt.Errorf("requeue task %d: %w", t.ID, err)
		}
	}
}

// admit hands an arriving job to the engine. Jobs the engine rejects are
// reported and dropped.
func (s *Simulator) admit(j job.Job) {
	id := sched.TaskID(j.ID)
	t := sched.NewTask(id, j.Tier)
	t.Name = j.Name

	if err := s.engine.AddProcess(t); err != nil {
		s.report.Rejected++
		s.log.Warn().Err(err).Uint64("task_id", j.ID).Int("tier", j.Tier).Msg("job rejected")
		s.emit(StatusEvent{Tick: s.clock.Count(), Kind: StatusReject, TaskID: id, Tier: j.Tier})
		return
	}

	s.bursts[id] = job.NewBurst(j.Burst)
	s.report.track(&TaskStats{
		ID:         id,
		Name:       j.Name,
		Tier:       j.Tier,
		FinalTier:  j.Tier,
		Arrival:    s.clock.Count(),
		FirstRun:   -1,
		Completion: -1,
		Burst:      j.Burst,
	})
}

// OnEnqueue implements sched.Observer.
func (s *Simulator) OnEnqueue(t *sched.Task) {
	s.emit(StatusEvent{Tick: s.clock.Count(), Kind: StatusEnqueue, TaskID: t.ID, Tier: t.Tier()})
}

// OnDispatch implements sched.Observer.
func (s *Simulator) OnDispatch(t *sched.Task, q sched.Quantum) {
	s.report.Dispatches++
	if ts := s.report.get(t.ID); ts != nil {
		ts.Dispatches++
		if ts.FirstRun < 0 {
			ts.FirstRun = s.clock.Count()
		}
	}
	s.emit(StatusEvent{Tick: s.clock.Count(), Kind: StatusDispatch, TaskID: t.ID, Tier: t.Tier(), Quantum: q})
}

// OnPromote implements sched.Observer.
func (s *Simulator) OnPromote(t *sched.Task, from, to int) {
	s.report.Promotions++
	if ts := s.report.get(t.ID); ts != nil {
		ts.Promotions++
		ts.FinalTier = to
	}
	s.emit(StatusEvent{Tick: s.clock.Count(), Kind: StatusPromote, TaskID: t.ID, Tier: to})
}

func (s *Simulator) emit(ev StatusEvent) {
	s.handleEvent(ev)
	for _, fn := range s.subs {
		fn(ev)
	}
}

func (s *Simulator) handleEvent(ev StatusEvent) {
	// idle ticks are frequent and carry no task; keep them out of the log.
	if ev.Kind != StatusIdle {
		s.log.Debug().
			Int64("tick", ev.Tick).
			Str("event", ev.Kind.String()).
			Uint64("task_id", uint64(ev.TaskID)).
			Int("tier", ev.Tier).
			Str("quantum", ev.Quantum.String()).
			Int64("ran_ticks", ev.RanTicks).
			Msg("status")
	}

	// CSV output
	if s.csvWriter != nil {
		rec := []string{
			strconv.FormatInt(ev.Tick, 10),
			ev.Kind.String(),
			strconv.FormatUint(uint64(ev.TaskID), 10),
			strconv.Itoa(ev.Tier),
			ev.Quantum.String(),
			strconv.FormatInt(ev.RanTicks, 10),
		}
		if err := s.csvWriter.Write(rec); err != nil {
			s.log.Warn().Err(err).Msg("csv write failed")
		}
	}
}

func (s *Simulator) closeCSV() {
	if s.csvFile == nil {
		return
	}
	s.csvWriter.Flush()
	if err := s.csvWriter.Error(); err != nil {
		s.log.Warn().Err(err).Msg("csv flush failed")
	}
	s.csvFile.Close()
	s.csvFile, s.csvWriter = nil, nil
}
