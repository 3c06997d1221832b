package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ticksched/internal/store"
)

func newHistoryCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect archived simulation runs",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "ticksched.db", "SQLite run history")

	open := func(cmd *cobra.Command) (*store.SQLiteStore, error) {
		st, err := store.NewSQLiteStore(dbPath, logger)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(cmd.Context()); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWHEN\tPOLICY\tWORKLOAD\tTICKS\tCOMPLETED\tAVG TURNAROUND\tAVG WAITING")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%.2f\t%.2f\n",
					r.ID, humanize.Time(r.CreatedAt), r.Policy, orDash(r.Workload),
					humanize.Comma(r.Ticks), r.Completed, r.AvgTurnaround, r.AvgWaiting)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs (0 = all)")

	show := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one run with its per-task statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			r, err := st.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if r == nil {
				return fmt.Errorf("%w: %s", store.ErrRunNotFound, args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s  (%s)\n", r.ID, r.Policy, humanize.Time(r.CreatedAt))
			fmt.Fprintf(out, "workload %q: %s ticks, %d completed, %d rejected, %d dispatches, %d promotions\n",
				r.Workload, humanize.Comma(r.Ticks), r.Completed, r.Rejected, r.Dispatches, r.Promotions)
			fmt.Fprintf(out, "avg turnaround %.2f, avg waiting %.2f, avg response %.2f\n\n",
				r.AvgTurnaround, r.AvgWaiting, r.AvgResponse)
			fmt.Fprintf(out, "config:\n%s\n", r.Config)
			printTasks(out, r.Tasks)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm RUN_ID",
		Short: "Delete an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			return st.DeleteRun(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(list, show, rm)
	return cmd
}
