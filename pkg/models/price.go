// Package models defines the core data structures used throughout GoldPulse.
package models

import "time"

// DealerQuote is the normalized record produced from one bullion dealer
// broadcast line. Numeric fields are always fully populated: a line that
// cannot be parsed completely is dropped by the feed parser, never emitted
// with zeroed or partial prices.
type DealerQuote struct {
	Source  string  `json:"source"`  // e.g., "Arihant"
	Product string  `json:"product"` // e.g., "GOLD 999 IMP AMD"
	Buy     float64 `json:"buy"`
	Sell    float64 `json:"sell"`
	High    float64 `json:"high"`
	Low     float64 `json:"low"`
	Status  string  `json:"status,omitempty"` // trailing flag some vendors emit
}

// SilverCosting is a premium-costing quote for silver feeds. Prices are kept
// as strings because the upstream feeds publish untyped numeric text and
// occasionally omit fields.
type SilverCosting struct {
	Source  string `json:"source"`
	Product string `json:"product"` // e.g., "SILVER (PREMIUM)"
	Costing string `json:"costing"`
	Buy     string `json:"buy"`
	Sell    string `json:"sell"`
	High    string `json:"high,omitempty"`
	Low     string `json:"low,omitempty"`
}

// CompositeQuote is a single reconstructed quote from a feed whose column
// order is not stable. Values are recovered by ranking the numeric tokens of
// the line, so they are carried as strings like the source publishes them.
type CompositeQuote struct {
	Source  string `json:"source"`
	Product string `json:"product"`
	Buy     string `json:"buy"`
	Sell    string `json:"sell"`
	High    string `json:"high"`
	Low     string `json:"low"`
}

// MarketPriceBook is the unified result of one aggregation pass over every
// configured vendor feed. Keys are the feed names from configuration.
type MarketPriceBook struct {
	Dealers   map[string][]DealerQuote   `json:"dealers"`
	Costings  map[string][]SilverCosting `json:"costings"`
	Composite map[string]*CompositeQuote `json:"composite"`
	FetchedAt time.Time                  `json:"fetched_at"`
}

// NewMarketPriceBook returns an empty book with all maps allocated.
func NewMarketPriceBook() *MarketPriceBook {
	return &MarketPriceBook{
		Dealers:   make(map[string][]DealerQuote),
		Costings:  make(map[string][]SilverCosting),
		Composite: make(map[string]*CompositeQuote),
	}
}

// LivePrice is one MCX last-traded-price cycle result for the two tracked
// metals. An instrument omitted by the broker response defaults to 0.0.
type LivePrice struct {
	Gold   float64 `json:"gold"`
	Silver float64 `json:"silver"`
}

// RetailPrices are the derived retail values computed from a LivePrice using
// the configured purity ratios and GST markup.
type RetailPrices struct {
	Gold24Carat      float64 `json:"gold_price_24_carat"`
	Gold22Carat      float64 `json:"gold_price_22_carat"`
	Gold18Carat      float64 `json:"gold_price_18_carat"`
	SilverPerKG      float64 `json:"silver_price_per_kg"`
	GoldWithoutGST   float64 `json:"gold_without_gst"`
	SilverWithoutGST float64 `json:"silver_without_gst"`
}
