package service

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/guttosm/pricebook/internal/apperror"
	"github.com/guttosm/pricebook/internal/domain/models"
	"github.com/guttosm/pricebook/internal/logger"
	"github.com/guttosm/pricebook/internal/storage"
)

const (
	// DefaultQuoteHistoryLimit bounds the history returned with the latest quote.
	DefaultQuoteHistoryLimit = 20
	// DefaultHistoryLimit bounds the history endpoint.
	DefaultHistoryLimit = 100
)

// RawObservation is caller input exactly as decoded from the request body.
type RawObservation struct {
	Symbol    any
	Price     any
	Currency  any
	FetchedAt any
}

// QuoteSource is an optional external price feed.
type QuoteSource interface {
	FetchQuote(ctx context.Context, symbol string) (models.UpstreamQuote, error)
}

// QuoteService validates price observations, writes them through the
// repository and answers latest/history queries.
//
// Errors are *apperror.AppError values: Validation, NotFound, Storage or
// Upstream. Validation always happens before any I/O.
type QuoteService interface {
	RecordPrice(ctx context.Context, raw RawObservation) (*models.PriceObservation, error)
	GetLatestWithHistory(ctx context.Context, rawSymbol string, historyLimit int) (*models.Quote, error)
	GetHistory(ctx context.Context, rawSymbol string, limit int) (*models.History, error)
	FetchAndRecord(ctx context.Context, rawSymbol string) (*models.PriceObservation, error)
}

type quoteService struct {
	repo   storage.PriceRepository
	source QuoteSource
	log    zerolog.Logger
}

// Option configures the quote service.
type Option func(*quoteService)

// WithQuoteSource enables FetchAndRecord.
func WithQuoteSource(src QuoteSource) Option {
	return func(s *quoteService) { s.source = src }
}

func NewQuoteService(repo storage.PriceRepository, opts ...Option) QuoteService {
	s := &quoteService{repo: repo, log: logger.With("quote_service")}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RecordPrice validates in order symbol, price, fetchedAt (first failure
// wins), normalizes symbol and currency, then inserts.
func (s *quoteService) RecordPrice(ctx context.Context, raw RawObservation) (*models.PriceObservation, error) {
	const op = "record_price"

	symbol, err := NormalizeSymbol(raw.Symbol)
	if err != nil {
		return nil, s.fail(op, "", err)
	}
	price, err := coercePrice(raw.Price)
	if err != nil {
		return nil, s.fail(op, symbol, err)
	}
	fetchedAt, err := coerceFetchedAt(raw.FetchedAt)
	if err != nil {
		return nil, s.fail(op, symbol, err)
	}

	return s.insert(ctx, op, models.NewObservation{
		Symbol:    symbol,
		Price:     price,
		Currency:  normalizeCurrency(raw.Currency),
		FetchedAt: fetchedAt,
	})
}

// GetLatestWithHistory returns the newest observation plus up to
// historyLimit rows. A symbol with no rows is NotFound.
func (s *quoteService) GetLatestWithHistory(ctx context.Context, rawSymbol string, historyLimit int) (*models.Quote, error) {
	const op = "get_latest"

	symbol, err := NormalizeSymbol(rawSymbol)
	if err != nil {
		return nil, s.fail(op, "", err)
	}
	if historyLimit <= 0 {
		historyLimit = DefaultQuoteHistoryLimit
	}

	rows, err := s.repo.QueryRecent(ctx, symbol, historyLimit)
	if err != nil {
		return nil, s.fail(op, symbol, err)
	}
	if len(rows) == 0 {
		return nil, s.fail(op, symbol, apperror.NewNotFound("no prices stored for "+symbol+" yet"))
	}

	return &models.Quote{Latest: rows[0], History: rows}, nil
}

// GetHistory returns up to limit rows, newest first. Unlike
// GetLatestWithHistory, an unknown symbol yields an empty history.
func (s *quoteService) GetHistory(ctx context.Context, rawSymbol string, limit int) (*models.History, error) {
	const op = "get_history"

	symbol, err := NormalizeSymbol(rawSymbol)
	if err != nil {
		return nil, s.fail(op, "", err)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.repo.QueryRecent(ctx, symbol, limit)
	if err != nil {
		return nil, s.fail(op, symbol, err)
	}
	if rows == nil {
		rows = []models.PriceObservation{}
	}

	return &models.History{Symbol: symbol, Observations: rows}, nil
}

// FetchAndRecord asks the configured QuoteSource for the current price and
// stores it. Any unusable upstream answer is an Upstream error and nothing
// is written.
func (s *quoteService) FetchAndRecord(ctx context.Context, rawSymbol string) (*models.PriceObservation, error) {
	const op = "fetch_and_record"

	symbol, err := NormalizeSymbol(rawSymbol)
	if err != nil {
		return nil, s.fail(op, "", err)
	}
	if s.source == nil {
		return nil, s.fail(op, symbol, apperror.NewUpstream("upstream quote source not configured", nil))
	}

	q, err := s.source.FetchQuote(ctx, symbol)
	if err != nil {
		if !apperror.Is(err, apperror.Upstream) {
			err = apperror.NewUpstream("upstream quote unavailable", err)
		}
		return nil, s.fail(op, symbol, err)
	}
	if math.IsNaN(q.Price) || math.IsInf(q.Price, 0) || q.Price <= 0 {
		return nil, s.fail(op, symbol, apperror.NewUpstream("upstream returned no usable price", nil))
	}

	obs := models.NewObservation{
		Symbol:   symbol,
		Price:    q.Price,
		Currency: normalizeCurrency(q.Currency),
	}
	if q.MarketTime != nil && !q.MarketTime.IsZero() {
		if storableTime(*q.MarketTime) {
			t := q.MarketTime.UTC()
			obs.FetchedAt = &t
		} else {
			s.log.Warn().
				Str("op", op).
				Str("symbol", symbol).
				Time("market_time", *q.MarketTime).
				Msg("upstream market time out of range, stamping now")
		}
	}

	return s.insert(ctx, op, obs)
}

func (s *quoteService) insert(ctx context.Context, op string, obs models.NewObservation) (*models.PriceObservation, error) {
	stored, err := s.repo.Insert(ctx, obs)
	if err != nil {
		return nil, s.fail(op, obs.Symbol, err)
	}
	s.log.Info().
		Str("op", op).
		Str("symbol", stored.Symbol).
		Int64("id", stored.ID).
		Float64("price", stored.Price).
		Msg("price recorded")
	return &stored, nil
}

// fail classifies err, logs it with op/symbol context and returns an
// *apperror.AppError safe to hand to the transport layer.
func (s *quoteService) fail(op, symbol string, err error) error {
	ae, ok := apperror.As(err)
	if !ok {
		ae = apperror.NewStorage("storage failure", err)
	}

	var ev *zerolog.Event
	switch ae.Kind() {
	case apperror.Validation, apperror.NotFound:
		ev = s.log.Info()
	default:
		ev = s.log.Error().Err(ae)
	}
	ev.Str("op", op).
		Str("symbol", symbol).
		Str("kind", string(ae.Kind())).
		Msg(ae.Message())

	return ae
}
