package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vtex-sync/internal/app"
	"vtex-sync/internal/config"
	"vtex-sync/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	appHandle *app.App
	closeLogs func()
)

var rootCmd = &cobra.Command{
	Use:   "vtexsync",
	Short: "Reconcile stock, prices, and metadata between Sankhya and VTEX",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		logger, closer, err := logging.NewLogger(cfg.Logging)
		if err != nil {
			return err
		}
		closeLogs = closer

		appHandle = app.NewApp(cfg, logger)
		return nil
	},
}

// Execute runs the root command. Exit is non-zero only for propagated fatal
// failures; per-entry reconciliation failures never reach here.
func Execute() {
	err := rootCmd.Execute()
	if closeLogs != nil {
		closeLogs()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stockCmd)
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(versionCmd)
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}
