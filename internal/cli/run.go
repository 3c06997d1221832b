package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ticksched/internal/job"
	"ticksched/internal/sched"
	"ticksched/internal/sim"
	"ticksched/internal/store"
)

type runFlags struct {
	config    string
	policy    string
	workload  string
	generate  int
	seed      int64
	clamp     bool
	csv       string
	history   string
	tickMS    int
	demote    bool
	maxTicks  int64
	showTasks bool
	watch     bool
}

func newRunCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a workload under one dispatch policy",
		Example: `  ticksched run --policy mlfq --workload jobs.yml
  ticksched run --config config.yml --generate 50 --seed 7 --csv events.csv
  ticksched run --config config.yml --workload jobs.yml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.watch {
				return watchAndRun(cmd.Context(), cmd.OutOrStdout(), f)
			}
			_, err := runOnce(cmd.Context(), cmd.OutOrStdout(), f)
			return err
		},
	}

	cmd.Flags().StringVar(&f.config, "config", "", "Engine config YAML (policy, tier_count, quanta, aging_threshold)")
	cmd.Flags().StringVar(&f.policy, "policy", "", "Policy preset when no --config is given (fcfs, rr, tiered-rr, mlfq)")
	cmd.Flags().StringVar(&f.workload, "workload", "", "Workload YAML file")
	cmd.Flags().IntVar(&f.generate, "generate", 0, "Generate N random jobs instead of reading --workload")
	cmd.Flags().Int64Var(&f.seed, "seed", 1, "Seed for --generate")
	cmd.Flags().BoolVar(&f.clamp, "clamp-tiers", false, "Fold job tiers the engine does not have into its lowest tier")
	cmd.Flags().StringVar(&f.csv, "csv", "", "Write every scheduler event to this CSV file")
	cmd.Flags().StringVar(&f.history, "history", "", "Archive the run in this SQLite database")
	cmd.Flags().IntVar(&f.tickMS, "tick-ms", 0, "Pace the simulation at one tick per N milliseconds")
	cmd.Flags().BoolVar(&f.demote, "demote", false, "Re-add tasks one tier lower when they use their whole quantum")
	cmd.Flags().Int64Var(&f.maxTicks, "max-ticks", 0, "Stop after this many ticks (0 = no limit)")
	cmd.Flags().BoolVar(&f.showTasks, "tasks", true, "Print per-task statistics")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "Re-run whenever the config or workload file changes")

	return cmd
}

// loadEngineConfig resolves --config and --policy into an engine config.
func loadEngineConfig(configPath, policy string) (sched.Config, error) {
	if configPath != "" && policy != "" {
		return sched.Config{}, errors.New("use either --config or --policy, not both")
	}
	if policy != "" {
		p, err := sched.ParsePolicy(policy)
		if err != nil {
			return sched.Config{}, err
		}
		return sched.Preset(p), nil
	}
	return sched.Load(configPath)
}

// loadWorkload resolves --workload and --generate.
func loadWorkload(path string, generate int, seed int64, tiers int) (job.Workload, error) {
	switch {
	case path != "" && generate > 0:
		return job.Workload{}, errors.New("use either --workload or --generate, not both")
	case path != "":
		return job.LoadWorkload(path)
	case generate > 0:
		return job.Generate(job.GenSpec{
			Count:      generate,
			Seed:       seed,
			Tiers:      tiers,
			MaxBurst:   20,
			MaxArrival: int64(generate) * 5,
		})
	default:
		return job.Workload{}, errors.New("no workload: pass --workload or --generate")
	}
}

func runOnce(ctx context.Context, out io.Writer, f runFlags) (*sim.Report, error) {
	cfg, err := loadEngineConfig(f.config, f.policy)
	if err != nil {
		return nil, err
	}
	w, err := loadWorkload(f.workload, f.generate, f.seed, cfg.TierCount)
	if err != nil {
		return nil, err
	}
	if f.clamp {
		w = w.ClampTiers(cfg.TierCount)
	}

	s, err := sim.New(cfg, w, sim.Options{
		TickInterval:   time.Duration(f.tickMS) * time.Millisecond,
		DemoteOnExpiry: f.demote,
		MaxTicks:       f.maxTicks,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	if f.csv != "" {
		if err := s.EnableCSVLogging(f.csv); err != nil {
			return nil, fmt.Errorf("csv log: %w", err)
		}
	}

	report, runErr := s.Run(ctx)
	if report != nil {
		printReport(out, report, f.showTasks)
	}
	if runErr != nil && !errors.Is(runErr, sim.ErrTickLimit) {
		return report, runErr
	}
	if f.history != "" {
		if err := archive(ctx, f.history, report, logger); err != nil {
			return report, err
		}
	}
	return report, runErr
}

func archive(ctx context.Context, path string, report *sim.Report, log zerolog.Logger) error {
	st, err := store.NewSQLiteStore(path, log)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	run, err := store.NewRun(report, time.Now())
	if err != nil {
		return err
	}
	if err := st.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	log.Info().Str("run_id", run.ID).Str("db", path).Msg("run archived")
	return nil
}
