package cli

import (
	"github.com/spf13/cobra"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Reconcile sale prices for the full SKU catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SyncPrice(cmd.Context())
	},
}
