package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ticksched/internal/sched"
	"ticksched/internal/sim"
)

func newCompareCmd() *cobra.Command {
	var (
		workload string
		generate int
		seed     int64
		demote   bool
		history  string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run one workload under every policy preset and compare the results",
		Long: "compare replays the same workload through the fcfs, rr, tiered-rr and mlfq presets. " +
			"Job tiers a preset does not have are folded into its lowest tier.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := loadWorkload(workload, generate, seed, sched.Preset(sched.PolicyMLFQ).TierCount)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "POLICY\tTICKS\tDISPATCHES\tPROMOTIONS\tAVG TURNAROUND\tAVG WAITING\tAVG RESPONSE\tTHROUGHPUT")

			for _, p := range sched.Policies {
				cfg := sched.Preset(p)
				s, err := sim.New(cfg, w.ClampTiers(cfg.TierCount), sim.Options{
					DemoteOnExpiry: demote,
					Logger:         logger,
				})
				if err != nil {
					return err
				}
				r, err := s.Run(ctx)
				if err != nil {
					return fmt.Errorf("%s: %w", p, err)
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
					p, r.Ticks, r.Dispatches, r.Promotions,
					r.AvgTurnaround(), r.AvgWaiting(), r.AvgResponse(), r.Throughput())

				if history != "" {
					if err := archive(ctx, history, r, logger); err != nil {
						return err
					}
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&workload, "workload", "", "Workload YAML file")
	cmd.Flags().IntVar(&generate, "generate", 0, "Generate N random jobs instead of reading --workload")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Seed for --generate")
	cmd.Flags().BoolVar(&demote, "demote", false, "Demote tasks that use their whole quantum")
	cmd.Flags().StringVar(&history, "history", "", "Archive every run in this SQLite database")

	return cmd
}
