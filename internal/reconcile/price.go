package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"vtex-sync/internal/alerting"
	"vtex-sync/internal/vtex"
)

// NormalizePrice trims whitespace, replaces a comma decimal separator with
// a dot, and parses the result into an exact decimal. Prices never travel
// through floats.
func NormalizePrice(text string) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	price, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse price %q: %w", text, err)
	}
	return price, nil
}

// SyncPrice reconciles sale prices for every catalog entry. Promotional
// prices are honored on every run: a positive promo price replaces the fixed
// price override with a fresh time-boxed one.
func (r *Reconciler) SyncPrice(ctx context.Context) error {
	catalog, err := r.fetchCatalog(ctx)
	if err != nil {
		return err
	}

	for _, id := range catalog.SortedIDs() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.priceEntry(ctx, id, catalog[id]); err != nil {
			r.logger.Error().Err(err).Int("catalog_id", id).Msg("price entry failed")
			alerting.Sendf(ctx, r.notifier, r.logger, "Price sync failed for catalog entry %d: %v", id, err)
		}
	}

	r.logger.Info().Int("entries", len(catalog)).Msg("price pass finished")
	return nil
}

func (r *Reconciler) priceEntry(ctx context.Context, catalogID int, skus vtex.SKUList) error {
	sku, ok := skus.Canonical()
	if !ok {
		return fmt.Errorf("catalog entry %d has no sku", catalogID)
	}

	logger := r.logger.With().Int("catalog_id", catalogID).Int("sku", sku).Logger()

	refID, err := r.storefront.FetchProductRefID(ctx, catalogID)
	if err != nil {
		return err
	}

	quote, err := r.backoffice.FetchBasePrice(ctx, refID)
	if err != nil {
		// gateway already alerted; entry is skippable
		logger.Warn().Str("ref_id", refID).Msg("no backoffice price, skipping entry")
		return nil
	}

	backofficePrice, err := NormalizePrice(quote.Base)
	if err != nil {
		return fmt.Errorf("backoffice price for %s: %w", refID, err)
	}

	storefrontText, err := r.storefront.FetchBasePrice(ctx, sku)
	if err != nil {
		return err
	}
	storefrontPrice, err := NormalizePrice(storefrontText)
	if err != nil {
		return fmt.Errorf("storefront price for sku %d: %w", sku, err)
	}

	if !backofficePrice.Equal(storefrontPrice) {
		logger.Info().
			Str("ref_id", refID).
			Str("backoffice_price", backofficePrice.String()).
			Str("storefront_price", storefrontPrice.String()).
			Msg("price diverged, pushing correction")

		if err := r.storefront.UpdateBasePrice(ctx, sku, backofficePrice); err != nil {
			alerting.Sendf(ctx, r.notifier, r.logger,
				"Failed to update price for product %s sku %d", refID, sku)
			return err
		}
		alerting.Sendf(ctx, r.notifier, r.logger,
			"Price updated for product %s sku %d: %s (was %s)",
			refID, sku, backofficePrice.String(), storefrontPrice.String())
	}

	if quote.Promo != "" {
		if err := r.applyPromo(ctx, sku, backofficePrice, quote.Promo); err != nil {
			return fmt.Errorf("promotional price for sku %d: %w", sku, err)
		}
	}

	return nil
}

// applyPromo replaces any existing fixed-price override with a fresh one
// valid from now through the configured window, list price from the
// backoffice base and sale value from the promotion.
func (r *Reconciler) applyPromo(ctx context.Context, sku int, basePrice decimal.Decimal, promoText string) error {
	promo, err := NormalizePrice(promoText)
	if err != nil {
		return err
	}
	if !promo.IsPositive() {
		return nil
	}

	if err := r.storefront.ClearFixedPrices(ctx, sku); err != nil {
		return err
	}

	from := r.now()
	to := from.Add(r.opts.PromoWindow)
	if err := r.storefront.CreateFixedPrice(ctx, sku, basePrice, promo, from, to); err != nil {
		return err
	}

	r.logger.Info().
		Int("sku", sku).
		Str("value", promo.String()).
		Str("list_price", basePrice.String()).
		Time("until", to).
		Msg("promotional fixed price installed")
	return nil
}
