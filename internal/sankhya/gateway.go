package sankhya

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"vtex-sync/internal/alerting"
)

const (
	stockAttempts    = 3
	priceAttempts    = 5
	metadataAttempts = 3
)

// metadataFieldList is the ordered field list of the product metadata query.
// Extraction is positional (f0..f4) per this declared order; the count is
// validated before any field is assigned.
const metadataFieldList = "AD_DESCLONGALV, AD_DESCTECNICALV, AD_URLIMGLV, AD_DIFERENCIAISLV, AD_URLDEMATERIAIS"

const metadataFieldCount = 5

// wireField is the `{"$": "value"}` leaf the gateway returns for every field.
type wireField struct {
	Value string `json:"$"`
}

// Gateway issues typed queries against the backoffice through an
// authenticated session.
type Gateway struct {
	session  *Session
	notifier alerting.Notifier
	logger   zerolog.Logger
}

// NewGateway wires a session into a query gateway.
func NewGateway(session *Session, notifier alerting.Notifier, logger zerolog.Logger) *Gateway {
	return &Gateway{
		session:  session,
		notifier: notifier,
		logger:   logger.With().Str("component", "sankhya_gateway").Logger(),
	}
}

func stockPayload(productCode string, companyCode, locationCode int) Payload {
	return Payload{
		ServiceName: "CRUDServiceProvider.loadRecords",
		RequestBody: map[string]any{
			"dataSet": map[string]any{
				"rootEntity":                "Estoque",
				"includePresentationFields": "S",
				"offsetPage":                "0",
				"criteria": map[string]any{
					"expression": map[string]any{
						"$": fmt.Sprintf("this.CODPROD = %s AND this.CODEMP = %d AND this.CODLOCAL = %d",
							productCode, companyCode, locationCode),
					},
					"parameter": []map[string]any{
						{"$": "24", "type": "I"},
					},
				},
				"entity": map[string]any{
					"fieldset": map[string]any{
						"list": "CODPROD, ESTOQUE",
					},
				},
			},
		},
	}
}

// FetchStock queries the stock of one product at one (company, location)
// pair. A total of zero records is a valid zero-stock answer. After three
// failed attempts the result is StockUnavailable plus an error.
func (g *Gateway) FetchStock(ctx context.Context, productCode string, companyCode, locationCode int) (StockLevel, error) {
	payload := stockPayload(productCode, companyCode, locationCode)

	var lastErr error
	for attempt := 1; attempt <= stockAttempts; attempt++ {
		raw, err := g.session.Post(ctx, payload)
		if err != nil {
			lastErr = err
		} else {
			level, err := parseStockResponse(raw)
			if err == nil {
				g.logger.Info().
					Str("product", productCode).
					Int("quantity", level.Quantity).
					Msg("backoffice stock fetched")
				return level, nil
			}
			lastErr = err
		}
		g.logger.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", stockAttempts).
			Str("product", productCode).
			Msg("stock lookup attempt failed")
	}

	g.logger.Error().Str("product", productCode).Msg("all stock lookup attempts failed")
	alerting.Sendf(ctx, g.notifier, g.logger,
		"All attempts to fetch backoffice stock for product %s failed", productCode)
	return StockLevel{Status: StockUnavailable},
		fmt.Errorf("fetch stock for %s: %w", productCode, lastErr)
}

func parseStockResponse(raw json.RawMessage) (StockLevel, error) {
	var resp struct {
		ResponseBody struct {
			Entities struct {
				Total  json.Number          `json:"total"`
				Entity map[string]wireField `json:"entity"`
			} `json:"entities"`
		} `json:"responseBody"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return StockLevel{Status: StockUnavailable}, fmt.Errorf("decode stock response: %w", err)
	}

	total, err := strconv.Atoi(string(resp.ResponseBody.Entities.Total))
	if err != nil {
		total = 0
	}
	if total == 0 {
		return StockLevel{Status: StockZero, Quantity: 0}, nil
	}

	field, ok := resp.ResponseBody.Entities.Entity["f1"]
	if !ok {
		return StockLevel{Status: StockUnavailable}, fmt.Errorf("stock response missing field f1")
	}
	quantity, err := strconv.ParseFloat(field.Value, 64)
	if err != nil {
		return StockLevel{Status: StockUnavailable}, fmt.Errorf("parse stock quantity %q: %w", field.Value, err)
	}

	return StockLevel{Status: StockFound, Quantity: int(quantity)}, nil
}

func pricePayload(productCode string) Payload {
	return Payload{
		ServiceName: "ConsultaProdutosSP.consultaProdutos",
		RequestBody: map[string]any{
			"filtros": map[string]any{
				"criterio": map[string]any{
					"resourceID": "br.com.sankhya.com.cons.consultaProdutos",
					"PERCDESC":   "0",
					"CODPROD":    map[string]any{"$": productCode},
				},
				"isPromocao":   map[string]any{"$": "false"},
				"isLiquidacao": map[string]any{"$": "false"},
			},
		},
	}
}

// FetchBasePrice queries the sale price of one product. Every nesting level
// of the response is validated; a missing level is retryable, up to five
// attempts. The price stays textual for the caller to normalise.
func (g *Gateway) FetchBasePrice(ctx context.Context, productCode string) (PriceQuote, error) {
	payload := pricePayload(productCode)

	for attempt := 1; attempt <= priceAttempts; attempt++ {
		raw, err := g.session.Post(ctx, payload)
		if err != nil {
			g.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", priceAttempts).
				Str("product", productCode).
				Msg("price lookup attempt failed")
			continue
		}

		quote, err := g.parsePriceResponse(ctx, raw, productCode)
		if err != nil {
			g.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", priceAttempts).
				Str("product", productCode).
				Msg("price response malformed")
			continue
		}

		g.logger.Debug().Str("product", productCode).Str("price", quote.Base).Msg("backoffice price fetched")
		return quote, nil
	}

	g.logger.Error().Str("product", productCode).Msg("could not obtain sale price")
	alerting.Sendf(ctx, g.notifier, g.logger,
		"Could not obtain sale price for product %s after %d attempts", productCode, priceAttempts)
	return PriceQuote{}, fmt.Errorf("fetch base price for %s: attempts exhausted", productCode)
}

// parsePriceResponse walks responseBody → produtos → produto → PRECOBASE,
// reporting the first missing level.
func (g *Gateway) parsePriceResponse(ctx context.Context, raw json.RawMessage, productCode string) (PriceQuote, error) {
	respBody, err := rawObjectField(raw, "responseBody")
	if err != nil {
		alerting.Sendf(ctx, g.notifier, g.logger, "Price response for %s has no valid responseBody", productCode)
		return PriceQuote{}, err
	}
	produtos, err := rawObjectField(respBody, "produtos")
	if err != nil {
		alerting.Sendf(ctx, g.notifier, g.logger, "Price response for %s has no valid produtos", productCode)
		return PriceQuote{}, err
	}
	produto, err := rawObjectField(produtos, "produto")
	if err != nil {
		alerting.Sendf(ctx, g.notifier, g.logger, "Price response for %s has no valid produto", productCode)
		return PriceQuote{}, err
	}

	var record map[string]wireField
	if err := json.Unmarshal(produto, &record); err != nil {
		return PriceQuote{}, fmt.Errorf("decode produto record: %w", err)
	}

	base, ok := record["PRECOBASE"]
	if !ok || base.Value == "" {
		alerting.Sendf(ctx, g.notifier, g.logger, "Field PRECOBASE missing for product %s", productCode)
		return PriceQuote{}, fmt.Errorf("field PRECOBASE missing")
	}

	quote := PriceQuote{Base: base.Value}
	if promo, ok := record["PRECOPROMOCAO"]; ok {
		quote.Promo = promo.Value
	}
	return quote, nil
}

func rawObjectField(raw json.RawMessage, key string) (json.RawMessage, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, fmt.Errorf("expected a JSON object around %q: %w", key, err)
	}
	inner, ok := outer[key]
	if !ok {
		return nil, fmt.Errorf("no valid %q level in response", key)
	}
	// must itself be an object, not a scalar or array
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(inner, &probe); err != nil {
		return nil, fmt.Errorf("%q level is not an object: %w", key, err)
	}
	return inner, nil
}

func metadataPayload(productCode string) Payload {
	return Payload{
		ServiceName: "CRUDServiceProvider.loadRecords",
		RequestBody: map[string]any{
			"dataSet": map[string]any{
				"rootEntity":                "Produto",
				"includePresentationFields": "N",
				"offsetPage":                "0",
				"criteria": map[string]any{
					"expression": map[string]any{
						"$": fmt.Sprintf("this.CODPROD = %s", productCode),
					},
				},
				"entity": map[string]any{
					"fieldset": map[string]any{
						"list": metadataFieldList,
					},
				},
			},
		},
	}
}

// FetchProductInfo fetches the five descriptive metadata fields of one
// product. The wire contract is positional: f0..f4 follow the declared field
// list order, and all five must be present.
func (g *Gateway) FetchProductInfo(ctx context.Context, productCode string) (ProductInfo, error) {
	payload := metadataPayload(productCode)

	var lastErr error
	for attempt := 1; attempt <= metadataAttempts; attempt++ {
		raw, err := g.session.Post(ctx, payload)
		if err != nil {
			lastErr = err
		} else {
			info, err := parseProductInfo(raw)
			if err == nil {
				return info, nil
			}
			lastErr = err
		}
		g.logger.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", metadataAttempts).
			Str("product", productCode).
			Msg("metadata lookup attempt failed")
	}

	g.logger.Error().Str("product", productCode).Msg("all metadata lookup attempts failed")
	alerting.Sendf(ctx, g.notifier, g.logger,
		"All attempts to fetch metadata for product %s failed", productCode)
	return ProductInfo{}, fmt.Errorf("fetch product info for %s: %w", productCode, lastErr)
}

func parseProductInfo(raw json.RawMessage) (ProductInfo, error) {
	var resp struct {
		ResponseBody struct {
			Entities struct {
				Entity map[string]wireField `json:"entity"`
			} `json:"entities"`
		} `json:"responseBody"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ProductInfo{}, fmt.Errorf("decode metadata response: %w", err)
	}

	entity := resp.ResponseBody.Entities.Entity
	fields := make([]string, metadataFieldCount)
	for i := range fields {
		key := fmt.Sprintf("f%d", i)
		field, ok := entity[key]
		if !ok {
			return ProductInfo{}, fmt.Errorf("metadata response missing field %s: shape drift against declared field list", key)
		}
		fields[i] = field.Value
	}

	return ProductInfo{
		LongDescription:      fields[0],
		TechnicalDescription: fields[1],
		ImageURL:             fields[2],
		Differentiators:      fields[3],
		MaterialsURL:         fields[4],
	}, nil
}

// ExecuteQuery runs an arbitrary SQL-like query through the DbExplorer
// service and returns the raw rows.
func (g *Gateway) ExecuteQuery(ctx context.Context, sql string) (json.RawMessage, error) {
	payload := Payload{
		ServiceName: "DbExplorerSP.executeQuery",
		RequestBody: map[string]any{"sql": sql},
	}

	raw, err := g.session.Get(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}

	respBody, err := rawObjectField(raw, "responseBody")
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}

	var body struct {
		Rows json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal(respBody, &body); err != nil {
		return nil, fmt.Errorf("execute query: decode rows: %w", err)
	}
	if body.Rows == nil {
		return nil, fmt.Errorf("execute query: no rows in response")
	}

	return body.Rows, nil
}
