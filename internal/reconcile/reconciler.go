package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"vtex-sync/internal/alerting"
	"vtex-sync/internal/sankhya"
	"vtex-sync/internal/vtex"
)

// Backoffice is the slice of the ERP gateway the loops consume.
type Backoffice interface {
	FetchStock(ctx context.Context, productCode string, companyCode, locationCode int) (sankhya.StockLevel, error)
	FetchBasePrice(ctx context.Context, productCode string) (sankhya.PriceQuote, error)
	FetchProductInfo(ctx context.Context, productCode string) (sankhya.ProductInfo, error)
}

// Storefront is the slice of the commerce platform the loops consume.
type Storefront interface {
	FetchCatalog(ctx context.Context, pageSize int) (vtex.Catalog, error)
	FetchProductRefID(ctx context.Context, productID int) (string, error)
	FetchStockBalance(ctx context.Context, skuID int) (map[string]int, error)
	UpdateWarehouseStock(ctx context.Context, skuID int, warehouseID string, quantity int) error
	FetchBasePrice(ctx context.Context, skuID int) (string, error)
	UpdateBasePrice(ctx context.Context, skuID int, price decimal.Decimal) error
	ClearFixedPrices(ctx context.Context, skuID int) error
	CreateFixedPrice(ctx context.Context, skuID int, listPrice, value decimal.Decimal, from, to time.Time) error
	UpdateSpecifications(ctx context.Context, productID int, attrs []vtex.SpecificationAttribute) error
}

// MetadataPair designates one (storefront product, backoffice code) pair for
// the metadata loop.
type MetadataPair struct {
	StorefrontID int
	ProductCode  string
}

// Options tune the reconciliation loops.
type Options struct {
	// WarehouseName is the one storefront warehouse reconciled against the
	// backoffice; other warehouses in a balance are ignored.
	WarehouseName string
	// WarehouseID is the storefront warehouse slot receiving corrections.
	WarehouseID string
	// CompanyCode and LocationCode locate WarehouseName's counterpart in
	// the backoffice.
	CompanyCode  int
	LocationCode int
	// PromoWindow is how long a created fixed promotional price stays valid.
	PromoWindow time.Duration
	// PageSize is the catalog enumeration window.
	PageSize int
}

// Reconciler walks the storefront catalog and pushes corrective stock,
// price, and metadata updates sourced from the backoffice. Strictly
// sequential: one entry, one call at a time.
type Reconciler struct {
	backoffice Backoffice
	storefront Storefront
	notifier   alerting.Notifier
	logger     zerolog.Logger
	opts       Options

	now func() time.Time
}

// New constructs a reconciler.
func New(backoffice Backoffice, storefront Storefront, notifier alerting.Notifier, opts Options, logger zerolog.Logger) *Reconciler {
	if opts.WarehouseName == "" {
		opts.WarehouseName = "Estoque"
	}
	if opts.PromoWindow <= 0 {
		opts.PromoWindow = 24 * time.Hour
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 250
	}

	return &Reconciler{
		backoffice: backoffice,
		storefront: storefront,
		notifier:   notifier,
		logger:     logger.With().Str("component", "reconciler").Logger(),
		opts:       opts,
		now:        time.Now,
	}
}

func (r *Reconciler) fetchCatalog(ctx context.Context) (vtex.Catalog, error) {
	catalog, err := r.storefront.FetchCatalog(ctx, r.opts.PageSize)
	if err != nil {
		r.logger.Error().Err(err).Msg("could not enumerate the sku catalog")
		alerting.Send(ctx, r.notifier, r.logger, "Could not enumerate the storefront SKU catalog")
		return nil, err
	}
	return catalog, nil
}
