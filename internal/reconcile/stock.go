package reconcile

import (
	"context"
	"fmt"

	"vtex-sync/internal/alerting"
	"vtex-sync/internal/vtex"
)

// SyncStock reconciles stock for every catalog entry. Only catalog
// enumeration failure is fatal; a failing entry is logged, alerted, and
// skipped.
func (r *Reconciler) SyncStock(ctx context.Context) error {
	catalog, err := r.fetchCatalog(ctx)
	if err != nil {
		return err
	}

	for _, id := range catalog.SortedIDs() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.stockEntry(ctx, id, catalog[id]); err != nil {
			r.logger.Error().Err(err).Int("catalog_id", id).Msg("stock entry failed")
			alerting.Sendf(ctx, r.notifier, r.logger, "Stock sync failed for catalog entry %d: %v", id, err)
		}
	}

	r.logger.Info().Int("entries", len(catalog)).Msg("stock pass finished")
	return nil
}

func (r *Reconciler) stockEntry(ctx context.Context, catalogID int, skus vtex.SKUList) error {
	sku, ok := skus.Canonical()
	if !ok {
		return fmt.Errorf("catalog entry %d has no sku", catalogID)
	}

	logger := r.logger.With().Int("catalog_id", catalogID).Int("sku", sku).Logger()
	logger.Info().Msg("reconciling stock")

	refID, err := r.storefront.FetchProductRefID(ctx, catalogID)
	if err != nil {
		return err
	}

	balance, err := r.storefront.FetchStockBalance(ctx, sku)
	if err != nil {
		return err
	}

	storefrontQty, ok := balance[r.opts.WarehouseName]
	if !ok {
		logger.Debug().Str("warehouse", r.opts.WarehouseName).Msg("warehouse absent from balance, nothing to reconcile")
		return nil
	}

	level, err := r.backoffice.FetchStock(ctx, refID, r.opts.CompanyCode, r.opts.LocationCode)
	if err != nil {
		return err
	}
	if !level.Known() {
		return fmt.Errorf("backoffice stock unavailable for %s", refID)
	}

	if level.Quantity == storefrontQty {
		return nil
	}

	logger.Info().
		Str("ref_id", refID).
		Int("backoffice_qty", level.Quantity).
		Int("storefront_qty", storefrontQty).
		Msg("stock diverged, pushing correction")

	if err := r.storefront.UpdateWarehouseStock(ctx, sku, r.opts.WarehouseID, level.Quantity); err != nil {
		alerting.Sendf(ctx, r.notifier, r.logger,
			"Failed to update stock for product %s sku %d", refID, sku)
		return err
	}

	alerting.Sendf(ctx, r.notifier, r.logger,
		"Stock updated for product %s sku %d: %d (was %d)", refID, sku, level.Quantity, storefrontQty)
	return nil
}
