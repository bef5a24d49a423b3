package vtex

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// fixedPriceSeq is the single fixed-price slot the reconciler manages.
const fixedPriceSeq = 1

// FixedPrice is one time-boxed price override on a SKU.
type FixedPrice struct {
	ID    int             `json:"id"`
	Value decimal.Decimal `json:"value"`
}

// FetchBasePrice returns the standing base price of a SKU as wire text,
// preserving decimal precision for the comparison step.
func (c *Client) FetchBasePrice(ctx context.Context, skuID int) (string, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("pricing/prices/%d", skuID))
	if err != nil {
		return "", fmt.Errorf("fetch base price for sku %d: %w", skuID, err)
	}

	var resp struct {
		BasePrice json.Number `json:"basePrice"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("fetch base price for sku %d: decode: %w", skuID, err)
	}
	if resp.BasePrice == "" {
		return "", fmt.Errorf("fetch base price for sku %d: no basePrice in response", skuID)
	}

	return resp.BasePrice.String(), nil
}

// UpdateBasePrice pushes a corrected base price to a SKU.
func (c *Client) UpdateBasePrice(ctx context.Context, skuID int, price decimal.Decimal) error {
	payload := struct {
		Markup    int         `json:"markup"`
		BasePrice json.Number `json:"basePrice"`
	}{
		Markup:    0,
		BasePrice: json.Number(price.String()),
	}

	if _, err := c.Put(ctx, fmt.Sprintf("pricing/prices/%d", skuID), payload); err != nil {
		return fmt.Errorf("update base price for sku %d: %w", skuID, err)
	}

	c.logger.Info().Int("sku", skuID).Str("price", price.String()).Msg("base price updated")
	return nil
}

// FetchFixedPrices lists the fixed-price overrides of a SKU. A 404 means no
// overrides exist and yields an empty list.
func (c *Client) FetchFixedPrices(ctx context.Context, skuID int) ([]FixedPrice, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("pricing/prices/%d/fixed", skuID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch fixed prices for sku %d: %w", skuID, err)
	}

	var prices []FixedPrice
	if err := json.Unmarshal(raw, &prices); err != nil {
		return nil, fmt.Errorf("fetch fixed prices for sku %d: decode: %w", skuID, err)
	}
	return prices, nil
}

// ClearFixedPrices removes the managed fixed-price slot when any override
// exists.
func (c *Client) ClearFixedPrices(ctx context.Context, skuID int) error {
	prices, err := c.FetchFixedPrices(ctx, skuID)
	if err != nil {
		return err
	}
	if len(prices) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("pricing/prices/%d/fixed/%d", skuID, fixedPriceSeq)
	if _, err := c.Delete(ctx, endpoint); err != nil {
		return fmt.Errorf("delete fixed price for sku %d: %w", skuID, err)
	}

	c.logger.Info().Int("sku", skuID).Msg("fixed price deleted")
	return nil
}

// CreateFixedPrice installs a time-boxed promotional price: sale value from
// the promotion, list price from the standing base price.
func (c *Client) CreateFixedPrice(ctx context.Context, skuID int, listPrice, value decimal.Decimal, from, to time.Time) error {
	payload := []map[string]any{
		{
			"value":       json.Number(value.String()),
			"listPrice":   json.Number(listPrice.String()),
			"minQuantity": 1,
			"dateRange": map[string]string{
				"from": from.Format("2006-01-02T15:04:05-07:00"),
				"to":   to.Format("2006-01-02T15:04:05-07:00"),
			},
		},
	}

	endpoint := fmt.Sprintf("pricing/prices/%d/fixed/%d", skuID, fixedPriceSeq)
	if _, err := c.Post(ctx, endpoint, payload); err != nil {
		return fmt.Errorf("create fixed price for sku %d: %w", skuID, err)
	}

	c.logger.Info().
		Int("sku", skuID).
		Str("value", value.String()).
		Str("list_price", listPrice.String()).
		Msg("fixed price created")
	return nil
}
