package cli

import (
	"github.com/spf13/cobra"
)

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Reconcile stock quantities for the full SKU catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SyncStock(cmd.Context())
	},
}
