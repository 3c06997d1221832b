package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ticksched/internal/logx"
)

var (
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger = zerolog.Nop()
)

// NewRootCmd creates the root cobra command for the ticksched CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ticksched",
		Short: "Tiered CPU dispatch simulator",
		Long: "ticksched replays workloads through a tiered dispatch engine " +
			"(fcfs, rr, tiered-rr, mlfq) and reports per-task scheduling metrics.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logx.NewWithWriter(flagLogLevel, flagLogFormat, cmd.ErrOrStderr())
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging (every scheduler event)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newCompareCmd(),
		newHistoryCmd(),
		newWorkloadCmd(),
	)

	return root
}
