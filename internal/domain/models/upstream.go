package models

import "time"

// UpstreamQuote is what an external quote source reports for a symbol.
// MarketTime is nil when the source does not say when the price was set.
type UpstreamQuote struct {
	Price      float64
	Currency   string
	MarketTime *time.Time
}
