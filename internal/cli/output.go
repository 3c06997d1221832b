package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"ticksched/internal/sim"
)

func printReport(w io.Writer, r *sim.Report, showTasks bool) {
	fmt.Fprintf(w, "policy %s, workload %q, quanta %v, aging threshold %d\n",
		r.Policy, r.Workload, r.Config.Quanta, r.Config.AgingThreshold)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ticks\t%s\n", humanize.Comma(r.Ticks))
	fmt.Fprintf(tw, "idle ticks\t%s\n", humanize.Comma(r.IdleTicks))
	fmt.Fprintf(tw, "completed\t%d\n", r.Completed())
	fmt.Fprintf(tw, "rejected\t%d\n", r.Rejected)
	fmt.Fprintf(tw, "dispatches\t%d\n", r.Dispatches)
	fmt.Fprintf(tw, "promotions\t%d\n", r.Promotions)
	fmt.Fprintf(tw, "avg turnaround\t%.2f\n", r.AvgTurnaround())
	fmt.Fprintf(tw, "avg waiting\t%.2f\n", r.AvgWaiting())
	fmt.Fprintf(tw, "avg response\t%.2f\n", r.AvgResponse())
	fmt.Fprintf(tw, "throughput\t%.2f jobs/100 ticks\n", r.Throughput())
	fmt.Fprintf(tw, "utilization\t%.1f%%\n", 100*r.Utilization())
	tw.Flush()

	if !showTasks {
		return
	}
	fmt.Fprintln(w)
	printTasks(w, r.Tasks())
}

func printTasks(w io.Writer, tasks []sim.TaskStats) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTIER\tFINAL\tARRIVAL\tBURST\tFIRST RUN\tDONE\tTURNAROUND\tWAITING\tDISPATCHES\tPROMOTIONS")
	for _, ts := range tasks {
		done := "-"
		if ts.Finished() {
			done = fmt.Sprint(ts.Completion)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%d\t%d\t%d\t%d\n",
			ts.ID, orDash(ts.Name), ts.Tier, ts.FinalTier, ts.Arrival, ts.Burst, ts.FirstRun, done,
			ts.Turnaround(), ts.Waiting(), ts.Dispatches, ts.Promotions)
	}
	tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
