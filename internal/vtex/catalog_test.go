package vtex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func buildClient(srv *httptest.Server) *Client {
	return NewClient(Options{
		BaseURL:  srv.URL,
		AppKey:   "key",
		AppToken: "token",
		Timeout:  time.Second,
	}, zerolog.Nop())
}

func TestSKUListAcceptsArrayAndScalar(t *testing.T) {
	var fromArray SKUList
	if err := json.Unmarshal([]byte(`[541, 547]`), &fromArray); err != nil {
		t.Fatalf("array shape: %v", err)
	}
	if sku, ok := fromArray.Canonical(); !ok || sku != 541 {
		t.Fatalf("canonical of [541, 547] should be 541, got %d", sku)
	}

	var fromScalar SKUList
	if err := json.Unmarshal([]byte(`547`), &fromScalar); err != nil {
		t.Fatalf("scalar shape: %v", err)
	}
	if sku, ok := fromScalar.Canonical(); !ok || sku != 547 {
		t.Fatalf("canonical of scalar 547 should be 547, got %d", sku)
	}

	var empty SKUList
	if _, ok := empty.Canonical(); ok {
		t.Fatal("empty sku list has no canonical sku")
	}
}

func TestFetchCatalogPaginationWindows(t *testing.T) {
	type window struct{ from, to int }
	var windows []window

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("_from") == "" {
			// total probe
			_ = json.NewEncoder(w).Encode(map[string]any{"range": map[string]int{"total": 600}})
			return
		}
		from, _ := strconv.Atoi(q.Get("_from"))
		to, _ := strconv.Atoi(q.Get("_to"))
		windows = append(windows, window{from, to})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{fmt.Sprint(1000 + from): []int{from + 1}},
		})
	}))
	defer srv.Close()

	c := buildClient(srv)

	catalog, err := c.FetchCatalog(context.Background(), 250)
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}

	want := []window{{0, 249}, {250, 499}, {500, 599}}
	if len(windows) != len(want) {
		t.Fatalf("expected %d pages, got %d: %v", len(want), len(windows), windows)
	}
	for i, w := range want {
		if windows[i] != w {
			t.Fatalf("window %d = %v, want %v", i, windows[i], w)
		}
	}
	if len(catalog) != 3 {
		t.Fatalf("expected 3 merged entries, got %d", len(catalog))
	}
}

func TestFetchCatalogSkipsMalformedPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("_from") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{"range": map[string]int{"total": 500}})
			return
		}
		if q.Get("_from") == "0" {
			// data is not a mapping
			_, _ = w.Write([]byte(`{"data": "oops"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"77": []int{541, 547}},
		})
	}))
	defer srv.Close()

	c := buildClient(srv)

	catalog, err := c.FetchCatalog(context.Background(), 250)
	if err != nil {
		t.Fatalf("a malformed page must not be fatal: %v", err)
	}
	if len(catalog) != 1 {
		t.Fatalf("expected the healthy page only, got %d entries", len(catalog))
	}
	if sku, ok := catalog[77].Canonical(); !ok || sku != 541 {
		t.Fatalf("entry 77 canonical sku = %d", sku)
	}
}

func TestFetchCatalogTotalFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := buildClient(srv)

	if _, err := c.FetchCatalog(context.Background(), 250); err == nil {
		t.Fatal("failing to obtain the catalog total must propagate")
	}
}

func TestFetchCatalogTotalMissingField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"range": {}}`))
	}))
	defer srv.Close()

	c := buildClient(srv)

	if _, err := c.FetchCatalogTotal(context.Background()); err == nil {
		t.Fatal("absent total field should be an error")
	}
}
