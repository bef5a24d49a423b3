package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vtex-sync/internal/reconcile"
)

var catalogPairs []string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Push backoffice product metadata to designated storefront products",
	Long: `Push the five-field descriptive metadata group from the backoffice into
the storefront specification slots. Pairs come from configuration, or from
repeated --pair flags in the form <storefront-id>:<product-code>.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := parsePairs(catalogPairs)
		if err != nil {
			return err
		}
		return getApp().SyncMetadata(cmd.Context(), pairs)
	},
}

func parsePairs(raw []string) ([]reconcile.MetadataPair, error) {
	pairs := make([]reconcile.MetadataPair, 0, len(raw))
	for _, spec := range raw {
		id, code, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("invalid --pair %q, expected <storefront-id>:<product-code>", spec)
		}
		storefrontID, err := strconv.Atoi(id)
		if err != nil {
			return nil, fmt.Errorf("invalid storefront id in --pair %q: %w", spec, err)
		}
		if code == "" {
			return nil, fmt.Errorf("empty product code in --pair %q", spec)
		}
		pairs = append(pairs, reconcile.MetadataPair{StorefrontID: storefrontID, ProductCode: code})
	}
	return pairs, nil
}

func init() {
	catalogCmd.Flags().StringArrayVar(&catalogPairs, "pair", nil, "Storefront/backoffice pair as <storefront-id>:<product-code> (repeatable)")
}
