package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ticksched/internal/job"
)

func newWorkloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workload",
		Short: "Create and check workload files",
	}

	var (
		gs     job.GenSpec
		output string
	)
	gen := &cobra.Command{
		Use:   "gen",
		Short: "Generate a reproducible random workload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := job.Generate(gs)
			if err != nil {
				return err
			}
			data, err := w.Marshal()
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			logger.Info().Str("path", output).Int("jobs", len(w.Jobs)).Msg("workload written")
			return nil
		},
	}
	gen.Flags().IntVar(&gs.Count, "count", 20, "Number of jobs")
	gen.Flags().Int64Var(&gs.Seed, "seed", 1, "Random seed")
	gen.Flags().IntVar(&gs.Tiers, "tiers", 3, "Spread jobs over this many tiers")
	gen.Flags().Int64Var(&gs.MaxBurst, "max-burst", 20, "Largest CPU burst in ticks")
	gen.Flags().Int64Var(&gs.MaxArrival, "max-arrival", 100, "Latest arrival tick")
	gen.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")

	check := &cobra.Command{
		Use:   "check FILE",
		Short: "Validate a workload file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := job.LoadWorkload(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d jobs, %d ticks of work\n", args[0], len(w.Jobs), w.TotalBurst())
			return nil
		},
	}

	cmd.AddCommand(gen, check)
	return cmd
}
