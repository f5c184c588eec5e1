package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/guttosm/pricebook/internal/logger"
)

// csvHeaders is the accepted column layout for ';'-separated files.
// currency and fetchedAt may be left empty on any row.
var csvHeaders = []string{"symbol", "price", "currency", "fetchedAt"}

// Entry is one price ready to be posted to /api/prices.
//
// Index is the 1-based position in the source file, kept for log lines.
type Entry struct {
	Index     int
	Symbol    string
	Price     float64
	Currency  string
	FetchedAt any
}

// payload builds the request body. Empty optional fields are omitted so the
// server applies its own defaults.
func (e Entry) payload() map[string]any {
	p := map[string]any{"symbol": e.Symbol, "price": e.Price}
	if e.Currency != "" {
		p["currency"] = e.Currency
	}
	if e.FetchedAt != nil {
		p["fetchedAt"] = e.FetchedAt
	}
	return p
}

// ParseFile reads entries from path. Files ending in .csv are read as
// ';'-separated CSV; anything else must hold a JSON array.
//
// Malformed entries are skipped with a warning and do not fail the parse.
// Structural problems (unreadable file, not an array, bad CSV header) do.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return parseCSV(f)
	}
	return parseJSON(f)
}

func parseJSON(r io.Reader) ([]Entry, error) {
	var raw []any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("decode json: empty file")
		}
		return nil, fmt.Errorf("decode json: expected an array of price objects: %w", err)
	}

	out := make([]Entry, 0, len(raw))
	for i, item := range raw {
		idx := i + 1
		obj, ok := item.(map[string]any)
		if !ok {
			skip(idx, "not an object")
			continue
		}
		symbol, _ := obj["symbol"].(string)
		if strings.TrimSpace(symbol) == "" {
			skip(idx, "symbol missing")
			continue
		}
		price, ok := obj["price"].(float64)
		if !ok || math.IsNaN(price) || math.IsInf(price, 0) {
			skip(idx, "price is not a finite number")
			continue
		}

		e := Entry{Index: idx, Symbol: symbol, Price: price}
		if c, ok := obj["currency"].(string); ok {
			e.Currency = c
		}
		if truthy(obj["fetchedAt"]) {
			e.FetchedAt = obj["fetchedAt"]
		}
		out = append(out, e)
	}
	return out, nil
}

func parseCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 || len(header) > len(csvHeaders) {
		return nil, fmt.Errorf("invalid header length: expected 2 to %d columns, got %d", len(csvHeaders), len(header))
	}
	for i, h := range header {
		if strings.TrimSpace(h) != csvHeaders[i] {
			return nil, fmt.Errorf("invalid header at col %d: expected %q, got %q", i+1, csvHeaders[i], h)
		}
	}

	var out []Entry
	idx := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read line after entry %d: %w", idx, err)
		}
		idx++

		if len(rec) < 2 {
			skip(idx, "too few columns")
			continue
		}
		symbol := strings.TrimSpace(rec[0])
		if symbol == "" {
			skip(idx, "symbol missing")
			continue
		}
		// Decimal comma is accepted, as in European exports.
		price, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(rec[1]), ",", "."), 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			skip(idx, "price is not a finite number")
			continue
		}

		e := Entry{Index: idx, Symbol: symbol, Price: price}
		if len(rec) > 2 {
			e.Currency = strings.TrimSpace(rec[2])
		}
		if len(rec) > 3 {
			if s := strings.TrimSpace(rec[3]); s != "" {
				e.FetchedAt = s
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// truthy treats null, false, 0 and "" as absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}

func skip(idx int, reason string) {
	logger.L().Warn().Int("entry", idx).Str("reason", reason).Msg("entry skipped")
}
