package vtex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestClientSetsAPIKeyHeaders(t *testing.T) {
	var gotKey, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-VTEX-API-AppKey")
		gotToken = r.Header.Get("X-VTEX-API-AppToken")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := buildClient(srv)
	if _, err := c.Get(context.Background(), "/catalog/pvt/product/1"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if gotKey != "key" || gotToken != "token" {
		t.Fatalf("api key headers not set: %q %q", gotKey, gotToken)
	}
}

func TestClientEmptyBodyYieldsEmptyObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := buildClient(srv)
	raw, err := c.Put(context.Background(), "logistics/pvt/inventory/skus/1/warehouses/1f82610", map[string]int{"quantity": 3})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if string(raw) != "{}" {
		t.Fatalf("empty body should decode as empty object, got %q", raw)
	}
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	defer srv.Close()

	c := buildClient(srv)
	_, err := c.Get(context.Background(), "pricing/prices/1")
	if err == nil {
		t.Fatal("403 should surface as an error")
	}
	if IsNotFound(err) {
		t.Fatal("403 must not classify as not-found")
	}
}

func TestFetchStockBalanceSkipsIncompleteWarehouses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"balance":[
			{"warehouseName":"Estoque","totalQuantity":10},
			{"warehouseName":null,"totalQuantity":4},
			{"warehouseName":"Filial","totalQuantity":null}
		]}`))
	}))
	defer srv.Close()

	c := buildClient(srv)
	balance, err := c.FetchStockBalance(context.Background(), 541)
	if err != nil {
		t.Fatalf("FetchStockBalance: %v", err)
	}
	if len(balance) != 1 || balance["Estoque"] != 10 {
		t.Fatalf("unexpected balance: %v", balance)
	}
}

func TestFetchBasePricePreservesDecimalText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"basePrice": 10.50, "markup": 0}`))
	}))
	defer srv.Close()

	c := buildClient(srv)
	price, err := c.FetchBasePrice(context.Background(), 541)
	if err != nil {
		t.Fatalf("FetchBasePrice: %v", err)
	}
	if price != "10.50" {
		t.Fatalf("wire text should be preserved, got %q", price)
	}
}

func TestUpdateBasePriceSendsNumber(t *testing.T) {
	var body map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := buildClient(srv)
	price := decimal.RequireFromString("10.51")
	if err := c.UpdateBasePrice(context.Background(), 541, price); err != nil {
		t.Fatalf("UpdateBasePrice: %v", err)
	}
	if string(body["basePrice"]) != "10.51" {
		t.Fatalf("basePrice must be a bare number, got %s", body["basePrice"])
	}
	if string(body["markup"]) != "0" {
		t.Fatalf("markup must be zero, got %s", body["markup"])
	}
}

func TestFetchFixedPricesNotFoundMeansNone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := buildClient(srv)
	prices, err := c.FetchFixedPrices(context.Background(), 541)
	if err != nil {
		t.Fatalf("404 should mean no overrides: %v", err)
	}
	if len(prices) != 0 {
		t.Fatalf("expected no fixed prices, got %v", prices)
	}
}

func TestClearFixedPricesDeletesOnlyWhenPresent(t *testing.T) {
	var deletes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deletes++
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(`[{"id": 1, "value": 9.99}]`))
	}))
	defer srv.Close()

	c := buildClient(srv)
	if err := c.ClearFixedPrices(context.Background(), 541); err != nil {
		t.Fatalf("ClearFixedPrices: %v", err)
	}
	if deletes != 1 {
		t.Fatalf("expected one delete, got %d", deletes)
	}
}

func TestClearFixedPricesNoopWhenEmpty(t *testing.T) {
	var deletes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deletes++
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := buildClient(srv)
	if err := c.ClearFixedPrices(context.Background(), 541); err != nil {
		t.Fatalf("ClearFixedPrices: %v", err)
	}
	if deletes != 0 {
		t.Fatalf("no overrides should mean no delete, got %d", deletes)
	}
}
