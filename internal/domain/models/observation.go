package models

import "time"

// PriceObservation is one stored fact: Symbol traded at Price (in Currency)
// at FetchedAt.
//
// Fields:
//   - ID: assigned by the store, strictly increasing in insertion order.
//   - Symbol: canonical ticker (trimmed, uppercase).
//   - Price: finite price as observed; no rounding is applied.
//   - Currency: uppercase code or nil when unknown.
//   - FetchedAt: observation time in UTC.
//
// Observations are never updated or deleted once stored.
type PriceObservation struct {
	ID        int64
	Symbol    string
	Price     float64
	Currency  *string
	FetchedAt time.Time
}

// NewObservation is an already-validated observation waiting for an ID.
// A nil FetchedAt lets the store stamp the insertion time.
type NewObservation struct {
	Symbol    string
	Price     float64
	Currency  *string
	FetchedAt *time.Time
}

// Quote is the latest observation for a symbol plus its recent history,
// newest first. History[0] is Latest.
type Quote struct {
	Latest  PriceObservation
	History []PriceObservation
}

// History is a newest-first run of observations for Symbol. It may be empty.
type History struct {
	Symbol       string
	Observations []PriceObservation
}
