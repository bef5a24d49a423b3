package vtex

import (
	"context"
	"fmt"
)

// SpecificationAttribute is one specification slot on a storefront product.
type SpecificationAttribute struct {
	Value []string `json:"Value"`
	ID    int      `json:"Id"`
	Name  string   `json:"Name"`
}

// UpdateSpecifications pushes a batch of specification attributes onto one
// product.
func (c *Client) UpdateSpecifications(ctx context.Context, productID int, attrs []SpecificationAttribute) error {
	endpoint := fmt.Sprintf("catalog_system/pvt/products/%d/specification", productID)

	if _, err := c.Post(ctx, endpoint, attrs); err != nil {
		return fmt.Errorf("update specifications for product %d: %w", productID, err)
	}

	c.logger.Info().Int("product_id", productID).Int("attributes", len(attrs)).Msg("specifications updated")
	return nil
}
