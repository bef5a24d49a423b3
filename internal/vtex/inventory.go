package vtex

import (
	"context"
	"encoding/json"
	"fmt"
)

// FetchProductRefID returns the reference code (ERP product code) of a
// catalog product.
func (c *Client) FetchProductRefID(ctx context.Context, productID int) (string, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("catalog/pvt/product/%d", productID))
	if err != nil {
		return "", fmt.Errorf("fetch product %d: %w", productID, err)
	}

	var resp struct {
		RefID string `json:"RefId"`
		Name  string `json:"Name"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("fetch product %d: decode: %w", productID, err)
	}
	if resp.RefID == "" {
		return "", fmt.Errorf("fetch product %d: no RefId in response", productID)
	}

	c.logger.Debug().Int("product_id", productID).Str("ref_id", resp.RefID).Str("name", resp.Name).Msg("product resolved")
	return resp.RefID, nil
}

// FetchStockBalance returns the per-warehouse stock quantities of one SKU.
// Warehouses missing a name or quantity are skipped.
func (c *Client) FetchStockBalance(ctx context.Context, skuID int) (map[string]int, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("logistics/pvt/inventory/skus/%d", skuID))
	if err != nil {
		return nil, fmt.Errorf("fetch stock balance for sku %d: %w", skuID, err)
	}

	var resp struct {
		Balance []struct {
			WarehouseName *string `json:"warehouseName"`
			TotalQuantity *int    `json:"totalQuantity"`
		} `json:"balance"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("fetch stock balance for sku %d: decode: %w", skuID, err)
	}

	balance := make(map[string]int)
	for _, item := range resp.Balance {
		if item.WarehouseName == nil || item.TotalQuantity == nil {
			continue
		}
		balance[*item.WarehouseName] = *item.TotalQuantity
	}

	if len(balance) == 0 {
		c.logger.Warn().Int("sku", skuID).Msg("sku has no stock balance data")
	}
	return balance, nil
}

// UpdateWarehouseStock pushes a corrected quantity into one warehouse slot.
func (c *Client) UpdateWarehouseStock(ctx context.Context, skuID int, warehouseID string, quantity int) error {
	endpoint := fmt.Sprintf("logistics/pvt/inventory/skus/%d/warehouses/%s", skuID, warehouseID)
	payload := map[string]int{"quantity": quantity}

	if _, err := c.Put(ctx, endpoint, payload); err != nil {
		return fmt.Errorf("update stock for sku %d: %w", skuID, err)
	}

	c.logger.Info().Int("sku", skuID).Str("warehouse", warehouseID).Int("quantity", quantity).Msg("stock updated")
	return nil
}
