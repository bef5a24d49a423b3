package sankhya

// StockStatus tags a stock lookup outcome so a legitimate zero can never be
// confused with a failed lookup.
type StockStatus int

const (
	// StockFound means the warehouse reported a positive quantity.
	StockFound StockStatus = iota
	// StockZero means the query succeeded and the stock is genuinely zero.
	StockZero
	// StockUnavailable means every attempt failed; the quantity is unknown.
	StockUnavailable
)

// StockLevel is the result of a backoffice stock lookup.
type StockLevel struct {
	Status   StockStatus
	Quantity int
}

// Known reports whether the quantity carries meaning.
func (s StockLevel) Known() bool {
	return s.Status != StockUnavailable
}

// PriceQuote carries the backoffice sale price as wire text. The base price
// stays textual until the comparison step normalises and parses it exactly.
type PriceQuote struct {
	Base string
	// Promo is the optional promotional price; empty when the product has
	// no active promotion.
	Promo string
}

// ProductInfo is the five-field descriptive metadata group, in declared
// field-list order.
type ProductInfo struct {
	LongDescription      string
	TechnicalDescription string
	ImageURL             string
	Differentiators      string
	MaterialsURL         string
}
