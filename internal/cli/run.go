package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var runInterval time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run stock, price, and metadata reconciliation in sequence",
	Long: `Run a full reconciliation pass: stock, then prices, then metadata for the
configured pairs. With --interval (or scheduler.interval in config) the
passes repeat on an aligned cadence until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp()
		if cmd.Flags().Changed("interval") {
			a.Config.Scheduler.Interval = runInterval
		}
		return a.Run(cmd.Context())
	},
}

func init() {
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "Repeat full passes on this interval (0 runs once)")
}
