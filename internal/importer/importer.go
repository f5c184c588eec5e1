package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/pricebook/internal/domain/dto"
	"github.com/guttosm/pricebook/internal/logger"
)

const (
	pricesPath     = "/api/prices"
	maxParallel    = 16
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

// Importer posts parsed entries to a running price server.
type Importer struct {
	baseURL  string
	parallel int
	http     *http.Client
}

// Option configures an Importer.
type Option func(*Importer)

// WithParallel sets how many requests may be in flight. Values are clamped
// to 1..16; 1 keeps file order.
func WithParallel(n int) Option {
	return func(im *Importer) {
		if n < 1 {
			n = 1
		}
		if n > maxParallel {
			n = maxParallel
		}
		im.parallel = n
	}
}

// WithHTTPClient replaces the default client (tests, custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(im *Importer) { im.http = hc }
}

// New returns an Importer targeting baseURL (e.g. http://localhost:8080).
func New(baseURL string, opts ...Option) *Importer {
	im := &Importer{
		baseURL:  strings.TrimRight(baseURL, "/"),
		parallel: 1,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(im)
	}
	return im
}

// Run posts every entry and returns how many were stored.
//
// Behavior:
//   - No entries: logs "nothing to import" and returns 0, nil.
//   - The first failed POST cancels the remaining requests and is returned.
func (im *Importer) Run(ctx context.Context, entries []Entry) (int, error) {
	if len(entries) == 0 {
		logger.L().Info().Msg("nothing to import")
		return 0, nil
	}

	logger.L().Info().Int("entries", len(entries)).Int("parallel", im.parallel).Str("server", im.baseURL).Msg("import start")
	start := time.Now()

	var stored atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.parallel)

	for _, entry := range entries {
		e := entry
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := im.post(gctx, e); err != nil {
				return err
			}
			stored.Add(1)
			return nil
		})
		if gctx.Err() != nil {
			break
		}
	}

	if err := g.Wait(); err != nil {
		logger.L().Error().Err(err).Int64("stored", stored.Load()).Msg("import aborted")
		return int(stored.Load()), err
	}
	if err := ctx.Err(); err != nil {
		return int(stored.Load()), err
	}

	logger.L().Info().Int64("stored", stored.Load()).Dur("elapsed", time.Since(start)).Msg("import finished")
	return int(stored.Load()), nil
}

func (im *Importer) post(ctx context.Context, e Entry) error {
	body, err := json.Marshal(e.payload())
	if err != nil {
		return fmt.Errorf("entry %d (%s): encode: %w", e.Index, e.Symbol, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, im.baseURL+pricesPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("entry %d (%s): build request: %w", e.Index, e.Symbol, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	res, err := im.http.Do(req)
	if err != nil {
		return fmt.Errorf("entry %d (%s): %w", e.Index, e.Symbol, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusCreated {
		text, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return fmt.Errorf("entry %d (%s): %s: %s", e.Index, e.Symbol, res.Status, strings.TrimSpace(string(text)))
	}

	var out dto.RecordPriceResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return fmt.Errorf("entry %d (%s): decode response: %w", e.Index, e.Symbol, err)
	}

	ev := logger.L().Info().
		Int("entry", e.Index).
		Int64("id", out.Entry.ID).
		Str("symbol", out.Entry.Symbol).
		Float64("price", out.Entry.Price).
		Time("fetched_at", out.Entry.FetchedAt)
	if out.Entry.Currency != nil {
		ev = ev.Str("currency", *out.Entry.Currency)
	}
	ev.Msg("price imported")
	return nil
}

// ImportFile parses path and posts its entries to serverURL.
func ImportFile(ctx context.Context, path, serverURL string, parallel int) (int, error) {
	entries, err := ParseFile(path)
	if err != nil {
		return 0, fmt.Errorf("file %s: %w", path, err)
	}
	return New(serverURL, WithParallel(parallel)).Run(ctx, entries)
}
