package dto

import (
	"time"

	"github.com/guttosm/pricebook/internal/domain/models"
)

// RecordPriceRequest is the body of POST /api/prices.
//
// Fields are untyped on purpose: the quote service owns coercion and
// validation, so a string price like "12.5" or an epoch-millis fetchedAt
// reach it unchanged.
type RecordPriceRequest struct {
	Symbol    any `json:"symbol" swaggertype:"string" example:"AAPL"`
	Price     any `json:"price" swaggertype:"number" example:"189.91"`
	Currency  any `json:"currency,omitempty" swaggertype:"string" example:"USD"`
	FetchedAt any `json:"fetchedAt,omitempty" swaggertype:"string" example:"2024-05-02T15:30:00Z"`
}

// PriceEntry is a stored observation including its ID.
type PriceEntry struct {
	ID        int64     `json:"id" example:"42"`
	Symbol    string    `json:"symbol" example:"AAPL"`
	Price     float64   `json:"price" example:"189.91"`
	Currency  *string   `json:"currency" example:"USD"`
	FetchedAt time.Time `json:"fetchedAt" example:"2024-05-02T15:30:00Z"`
}

// HistoryEntry is one history row as exposed by the quote and history endpoints.
type HistoryEntry struct {
	Symbol    string    `json:"symbol" example:"AAPL"`
	Price     float64   `json:"price" example:"189.91"`
	Currency  *string   `json:"currency" example:"USD"`
	FetchedAt time.Time `json:"fetchedAt" example:"2024-05-02T15:30:00Z"`
}

// RecordPriceResponse is returned with 201 by POST /api/prices and POST /api/quote/fetch.
type RecordPriceResponse struct {
	Message string     `json:"message" example:"price stored"`
	Entry   PriceEntry `json:"entry"`
}

// QuoteResponse is returned by GET /api/quote.
type QuoteResponse struct {
	Symbol    string         `json:"symbol" example:"AAPL"`
	Price     float64        `json:"price" example:"189.91"`
	Currency  *string        `json:"currency" example:"USD"`
	FetchedAt time.Time      `json:"fetchedAt" example:"2024-05-02T15:30:00Z"`
	History   []HistoryEntry `json:"history"`
}

// HistoryResponse is returned by GET /api/history. History is never null.
type HistoryResponse struct {
	Symbol  string         `json:"symbol" example:"AAPL"`
	History []HistoryEntry `json:"history"`
}

func NewPriceEntry(o models.PriceObservation) PriceEntry {
	return PriceEntry{
		ID:        o.ID,
		Symbol:    o.Symbol,
		Price:     o.Price,
		Currency:  o.Currency,
		FetchedAt: o.FetchedAt,
	}
}

func NewHistoryEntries(rows []models.PriceObservation) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, HistoryEntry{
			Symbol:    r.Symbol,
			Price:     r.Price,
			Currency:  r.Currency,
			FetchedAt: r.FetchedAt,
		})
	}
	return out
}

func NewQuoteResponse(q models.Quote) QuoteResponse {
	return QuoteResponse{
		Symbol:    q.Latest.Symbol,
		Price:     q.Latest.Price,
		Currency:  q.Latest.Currency,
		FetchedAt: q.Latest.FetchedAt,
		History:   NewHistoryEntries(q.History),
	}
}

func NewHistoryResponse(h models.History) HistoryResponse {
	return HistoryResponse{
		Symbol:  h.Symbol,
		History: NewHistoryEntries(h.Observations),
	}
}
