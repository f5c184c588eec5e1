package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/guttosm/pricebook/internal/apperror"
)

const (
	msgSymbolRequired   = "symbol required"
	msgPriceNotNumber   = "price must be a number"
	msgInvalidFetchedAt = "invalid fetchedAt"
)

// maxEpochMillis keeps the int64 conversion of numeric timestamps in range.
const maxEpochMillis = 8.64e15

// Stored and rendered timestamps use four-digit years.
var (
	minFetchedAt = time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)
	maxFetchedAt = time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC)
)

// fetchedAtLayouts are tried in order. Zone-less layouts are read as UTC.
var fetchedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// NormalizeSymbol trims and uppercases a ticker. Non-string input is treated
// as missing.
func NormalizeSymbol(raw any) (string, error) {
	s, _ := raw.(string)
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", apperror.NewValidation(msgSymbolRequired)
	}
	return s, nil
}

// normalizeCurrency returns nil for absent, non-string or blank input.
func normalizeCurrency(raw any) *string {
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return &s
}

// coercePrice accepts JSON numbers and numeric strings; the result must be finite.
func coercePrice(raw any) (float64, error) {
	var v float64
	switch p := raw.(type) {
	case float64:
		v = p
	case float32:
		v = float64(p)
	case int:
		v = float64(p)
	case int64:
		v = float64(p)
	case json.Number:
		f, err := p.Float64()
		if err != nil {
			return 0, apperror.NewValidation(msgPriceNotNumber)
		}
		v = f
	case string:
		s := strings.TrimSpace(p)
		if s == "" {
			return 0, apperror.NewValidation(msgPriceNotNumber)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, apperror.NewValidation(msgPriceNotNumber)
		}
		v = f
	default:
		return 0, apperror.NewValidation(msgPriceNotNumber)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperror.NewValidation(msgPriceNotNumber)
	}
	return v, nil
}

// coerceFetchedAt returns nil when no timestamp was supplied.
//
// Strings are parsed with fetchedAtLayouts; numbers are epoch milliseconds
// (zero counts as absent) and false is absent. Everything else, and any
// time outside years 0000..9999 UTC, is invalid.
func coerceFetchedAt(raw any) (*time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		for _, layout := range fetchedAtLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return checkedTime(t)
			}
		}
		return nil, apperror.NewValidation(msgInvalidFetchedAt)
	case bool:
		if !v {
			return nil, nil
		}
		return nil, apperror.NewValidation(msgInvalidFetchedAt)
	case float64:
		return fromEpochMillis(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, apperror.NewValidation(msgInvalidFetchedAt)
		}
		return fromEpochMillis(f)
	case int64:
		return fromEpochMillis(float64(v))
	case int:
		return fromEpochMillis(float64(v))
	default:
		return nil, apperror.NewValidation(msgInvalidFetchedAt)
	}
}

func fromEpochMillis(ms float64) (*time.Time, error) {
	if ms == 0 {
		return nil, nil
	}
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxEpochMillis {
		return nil, apperror.NewValidation(msgInvalidFetchedAt)
	}
	return checkedTime(time.UnixMilli(int64(math.Trunc(ms))))
}

func checkedTime(t time.Time) (*time.Time, error) {
	t = t.UTC()
	if !storableTime(t) {
		return nil, apperror.NewValidation(msgInvalidFetchedAt)
	}
	return &t, nil
}

// storableTime reports whether t has a four-digit UTC year.
func storableTime(t time.Time) bool {
	t = t.UTC()
	return !t.Before(minFetchedAt) && !t.After(maxFetchedAt)
}
