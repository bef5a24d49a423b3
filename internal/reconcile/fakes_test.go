package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"vtex-sync/internal/sankhya"
	"vtex-sync/internal/vtex"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type fakeBackoffice struct {
	stock        map[string]sankhya.StockLevel
	stockErr     map[string]error
	prices       map[string]sankhya.PriceQuote
	priceErr     map[string]error
	info         map[string]sankhya.ProductInfo
	stockQueries []string
}

func (b *fakeBackoffice) FetchStock(_ context.Context, productCode string, companyCode, locationCode int) (sankhya.StockLevel, error) {
	b.stockQueries = append(b.stockQueries, fmt.Sprintf("%s/%d/%d", productCode, companyCode, locationCode))
	if err, ok := b.stockErr[productCode]; ok {
		return sankhya.StockLevel{Status: sankhya.StockUnavailable}, err
	}
	level, ok := b.stock[productCode]
	if !ok {
		return sankhya.StockLevel{Status: sankhya.StockZero}, nil
	}
	return level, nil
}

func (b *fakeBackoffice) FetchBasePrice(_ context.Context, productCode string) (sankhya.PriceQuote, error) {
	if err, ok := b.priceErr[productCode]; ok {
		return sankhya.PriceQuote{}, err
	}
	quote, ok := b.prices[productCode]
	if !ok {
		return sankhya.PriceQuote{}, errors.New("no price")
	}
	return quote, nil
}

func (b *fakeBackoffice) FetchProductInfo(_ context.Context, productCode string) (sankhya.ProductInfo, error) {
	info, ok := b.info[productCode]
	if !ok {
		return sankhya.ProductInfo{}, errors.New("no product info")
	}
	return info, nil
}

type stockPush struct {
	sku         int
	warehouseID string
	quantity    int
}

type pricePush struct {
	sku   int
	price decimal.Decimal
}

type fixedPricePush struct {
	sku       int
	listPrice decimal.Decimal
	value     decimal.Decimal
	from, to  time.Time
}

type fakeStorefront struct {
	catalog    vtex.Catalog
	catalogErr error
	refIDs     map[int]string
	balances   map[int]map[string]int
	prices     map[int]string

	stockPushes   []stockPush
	pricePushes   []pricePush
	clearedFixed  []int
	fixedPushes   []fixedPricePush
	specPushes    map[int][]vtex.SpecificationAttribute
	lookedUpStock []int
}

func (s *fakeStorefront) FetchCatalog(context.Context, int) (vtex.Catalog, error) {
	if s.catalogErr != nil {
		return nil, s.catalogErr
	}
	return s.catalog, nil
}

func (s *fakeStorefront) FetchProductRefID(_ context.Context, productID int) (string, error) {
	ref, ok := s.refIDs[productID]
	if !ok {
		return "", fmt.Errorf("no RefId for product %d", productID)
	}
	return ref, nil
}

func (s *fakeStorefront) FetchStockBalance(_ context.Context, skuID int) (map[string]int, error) {
	s.lookedUpStock = append(s.lookedUpStock, skuID)
	balance, ok := s.balances[skuID]
	if !ok {
		return map[string]int{}, nil
	}
	return balance, nil
}

func (s *fakeStorefront) UpdateWarehouseStock(_ context.Context, skuID int, warehouseID string, quantity int) error {
	s.stockPushes = append(s.stockPushes, stockPush{skuID, warehouseID, quantity})
	return nil
}

func (s *fakeStorefront) FetchBasePrice(_ context.Context, skuID int) (string, error) {
	price, ok := s.prices[skuID]
	if !ok {
		return "", fmt.Errorf("no price for sku %d", skuID)
	}
	return price, nil
}

func (s *fakeStorefront) UpdateBasePrice(_ context.Context, skuID int, price decimal.Decimal) error {
	s.pricePushes = append(s.pricePushes, pricePush{skuID, price})
	return nil
}

func (s *fakeStorefront) ClearFixedPrices(_ context.Context, skuID int) error {
	s.clearedFixed = append(s.clearedFixed, skuID)
	return nil
}

func (s *fakeStorefront) CreateFixedPrice(_ context.Context, skuID int, listPrice, value decimal.Decimal, from, to time.Time) error {
	s.fixedPushes = append(s.fixedPushes, fixedPricePush{skuID, listPrice, value, from, to})
	return nil
}

func (s *fakeStorefront) UpdateSpecifications(_ context.Context, productID int, attrs []vtex.SpecificationAttribute) error {
	if s.specPushes == nil {
		s.specPushes = make(map[int][]vtex.SpecificationAttribute)
	}
	s.specPushes[productID] = attrs
	return nil
}

var (
	_ Backoffice = (*fakeBackoffice)(nil)
	_ Storefront = (*fakeStorefront)(nil)
)
