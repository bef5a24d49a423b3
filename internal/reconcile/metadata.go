package reconcile

import (
	"context"

	"vtex-sync/internal/alerting"
	"vtex-sync/internal/sankhya"
	"vtex-sync/internal/vtex"
)

// Specification slot ids on the storefront product.
const (
	specDescription     = 20
	specDifferentiators = 21
	specCharacteristics = 22
	specMaterials       = 23
	specImage           = 24
)

// SyncMetadata pushes the five-field descriptive metadata group for each
// designated pair as one batch update. A failing pair is logged, alerted,
// and skipped.
func (r *Reconciler) SyncMetadata(ctx context.Context, pairs []MetadataPair) error {
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.metadataPair(ctx, pair); err != nil {
			r.logger.Error().
				Err(err).
				Int("storefront_id", pair.StorefrontID).
				Str("product_code", pair.ProductCode).
				Msg("metadata pair failed")
			alerting.Sendf(ctx, r.notifier, r.logger,
				"Metadata sync failed for product %d: %v", pair.StorefrontID, err)
		}
	}

	r.logger.Info().Int("pairs", len(pairs)).Msg("metadata pass finished")
	return nil
}

func (r *Reconciler) metadataPair(ctx context.Context, pair MetadataPair) error {
	info, err := r.backoffice.FetchProductInfo(ctx, pair.ProductCode)
	if err != nil {
		return err
	}

	attrs := buildSpecifications(info)
	if err := r.storefront.UpdateSpecifications(ctx, pair.StorefrontID, attrs); err != nil {
		return err
	}

	alerting.Sendf(ctx, r.notifier, r.logger,
		"Metadata updated for product %d", pair.StorefrontID)
	return nil
}

func buildSpecifications(info sankhya.ProductInfo) []vtex.SpecificationAttribute {
	return []vtex.SpecificationAttribute{
		{Value: []string{info.LongDescription}, ID: specDescription, Name: "Descrição"},
		{Value: []string{info.Differentiators}, ID: specDifferentiators, Name: "Diferenciais"},
		{Value: []string{info.TechnicalDescription}, ID: specCharacteristics, Name: "Características"},
		{Value: []string{info.MaterialsURL}, ID: specMaterials, Name: "Download de materiais"},
		{Value: []string{info.ImageURL}, ID: specImage, Name: "Imagem da descrição"},
	}
}
