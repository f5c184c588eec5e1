package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guttosm/pricebook/internal/apperror"
	"github.com/guttosm/pricebook/internal/domain/models"
)

// sqliteTimeLayout is fixed-width so that TEXT comparison matches time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

// PriceRepository is the append-only price log.
//
// Insert never validates its input; callers hand it normalized observations.
// Every failure is returned as an apperror Storage error.
type PriceRepository interface {
	Insert(ctx context.Context, obs models.NewObservation) (models.PriceObservation, error)
	QueryRecent(ctx context.Context, symbol string, limit int) ([]models.PriceObservation, error)
}

type priceRepository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// RepositoryOption configures a PriceRepository.
type RepositoryOption func(*priceRepository)

// WithClock overrides the clock used to stamp observations without FetchedAt.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *priceRepository) { r.now = now }
}

func NewPriceRepository(db *DB, opts ...RepositoryOption) PriceRepository {
	r := &priceRepository{db: db.DB, dialect: db.dialect, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Insert stores one observation and returns it with its assigned ID.
//
// The stored timestamp is UTC truncated to microseconds (Postgres precision)
// and the returned value carries exactly what was persisted.
func (r *priceRepository) Insert(ctx context.Context, obs models.NewObservation) (models.PriceObservation, error) {
	ts := r.now()
	if obs.FetchedAt != nil {
		ts = *obs.FetchedAt
	}
	ts = ts.UTC().Truncate(time.Microsecond)

	query := r.dialect.rebind(`INSERT INTO prices (symbol, price, currency, fetched_at) VALUES (?, ?, ?, ?) RETURNING id`)

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		obs.Symbol,
		obs.Price,
		nullString(obs.Currency),
		r.encodeTime(ts),
	).Scan(&id)
	if err != nil {
		return models.PriceObservation{}, apperror.NewStorage("insert price", err)
	}

	return models.PriceObservation{
		ID:        id,
		Symbol:    obs.Symbol,
		Price:     obs.Price,
		Currency:  obs.Currency,
		FetchedAt: ts,
	}, nil
}

// QueryRecent returns up to limit observations for symbol, newest fetched_at
// first, ties broken by the higher id. No rows yields an empty slice.
func (r *priceRepository) QueryRecent(ctx context.Context, symbol string, limit int) ([]models.PriceObservation, error) {
	out := make([]models.PriceObservation, 0)
	if limit <= 0 {
		return out, nil
	}

	query := r.dialect.rebind(`
		SELECT id, symbol, price, currency, fetched_at
		FROM prices
		WHERE symbol = ?
		ORDER BY fetched_at DESC, id DESC
		LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, apperror.NewStorage("query prices", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			o        models.PriceObservation
			currency sql.NullString
			rawTime  any
		)
		if err := rows.Scan(&o.ID, &o.Symbol, &o.Price, &currency, &rawTime); err != nil {
			return nil, apperror.NewStorage("scan price", err)
		}
		if currency.Valid {
			c := currency.String
			o.Currency = &c
		}
		ts, err := decodeTime(rawTime)
		if err != nil {
			return nil, apperror.NewStorage("decode fetched_at", err)
		}
		o.FetchedAt = ts
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewStorage("iterate prices", err)
	}

	return out, nil
}

func (r *priceRepository) encodeTime(t time.Time) any {
	if r.dialect == SQLite {
		return t.Format(sqliteTimeLayout)
	}
	return t
}

func decodeTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseStoredTime(t)
	case []byte:
		return parseStoredTime(string(t))
	default:
		return time.Time{}, fmt.Errorf("unexpected fetched_at type %T", v)
	}
}

func parseStoredTime(s string) (time.Time, error) {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable fetched_at %q", s)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
