package vtex

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

const catalogEndpoint = "catalog_system/pvt/products/GetProductAndSkuIds"

// SKUList is the SKU identifiers of one catalog entry. The storefront
// returns either a single number or an array; the first element is canonical
// for all downstream lookups.
type SKUList []int

// UnmarshalJSON accepts both the array and the scalar wire shapes.
func (s *SKUList) UnmarshalJSON(data []byte) error {
	var many []int
	if err := json.Unmarshal(data, &many); err == nil {
		*s = many
		return nil
	}
	var one int
	if err := json.Unmarshal(data, &one); err != nil {
		return fmt.Errorf("sku list is neither array nor scalar: %w", err)
	}
	*s = SKUList{one}
	return nil
}

// Canonical returns the SKU used for all lookups, or false when empty.
func (s SKUList) Canonical() (int, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[0], true
}

// Catalog maps catalog (product) ids to their SKU ids.
type Catalog map[int]SKUList

// SortedIDs returns the catalog ids in ascending order for deterministic
// iteration.
func (c Catalog) SortedIDs() []int {
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// FetchCatalogTotal returns the declared size of the SKU catalog.
func (c *Client) FetchCatalogTotal(ctx context.Context) (int, error) {
	raw, err := c.Get(ctx, catalogEndpoint)
	if err != nil {
		return 0, fmt.Errorf("fetch catalog total: %w", err)
	}

	var resp struct {
		Range struct {
			Total *int `json:"total"`
		} `json:"range"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, fmt.Errorf("fetch catalog total: decode: %w", err)
	}
	if resp.Range.Total == nil {
		return 0, fmt.Errorf("fetch catalog total: field total absent from response")
	}

	return *resp.Range.Total, nil
}

// FetchCatalogPage returns one window of catalog entries.
func (c *Client) FetchCatalogPage(ctx context.Context, from, to int) (Catalog, error) {
	endpoint := fmt.Sprintf("%s?_from=%d&_to=%d", catalogEndpoint, from, to)
	raw, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog page %d-%d: %w", from, to, err)
	}

	var resp struct {
		Data map[string]SKUList `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("fetch catalog page %d-%d: decode: %w", from, to, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("fetch catalog page %d-%d: no data in response", from, to)
	}

	page := make(Catalog, len(resp.Data))
	for key, skus := range resp.Data {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("fetch catalog page %d-%d: non-numeric catalog id %q", from, to, key)
		}
		page[id] = skus
	}
	return page, nil
}

// FetchCatalog walks the full catalog in fixed-size windows and merges every
// page into one mapping. A malformed page is logged and skipped; failing to
// obtain the total is fatal and propagates.
func (c *Client) FetchCatalog(ctx context.Context, pageSize int) (Catalog, error) {
	if pageSize <= 0 {
		pageSize = 250
	}

	total, err := c.FetchCatalogTotal(ctx)
	if err != nil {
		return nil, err
	}
	if total <= 0 {
		return nil, fmt.Errorf("fetch catalog: declared total is %d", total)
	}

	catalog := make(Catalog)
	for start := 0; start < total; start += pageSize {
		end := start + pageSize - 1
		if end > total-1 {
			end = total - 1
		}

		page, err := c.FetchCatalogPage(ctx, start, end)
		if err != nil {
			c.logger.Warn().Err(err).Int("from", start).Int("to", end).Msg("skipping malformed catalog page")
			continue
		}
		for id, skus := range page {
			catalog[id] = skus
		}
	}

	c.logger.Debug().Int("entries", len(catalog)).Int("declared_total", total).Msg("catalog merged")
	return catalog, nil
}
