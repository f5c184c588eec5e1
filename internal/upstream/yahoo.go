// Package upstream fetches current quotes from an external source so they
// can be recorded like any other observation. It speaks the Yahoo Finance
// v7 quote format.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guttosm/pricebook/internal/apperror"
	"github.com/guttosm/pricebook/internal/domain/models"
)

const (
	DefaultEndpoint = "https://query1.finance.yahoo.com/v7/finance/quote"
	defaultTimeout  = 5 * time.Second
	maxBodyBytes    = 1 << 20
	userAgent       = "pricebook/1.0"
)

// Client fetches quotes over HTTP. Every call is bounded by the configured
// timeout regardless of the caller's context.
type Client struct {
	endpoint  string
	timeout   time.Duration
	http      *http.Client
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each FetchQuote call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a Client for the given endpoint (DefaultEndpoint when empty).
func New(endpoint string, opts ...Option) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint:  endpoint,
		timeout:   defaultTimeout,
		userAgent: userAgent,
	}
	for _, o := range opts {
		o(c)
	}
	if c.http == nil {
		c.http = newHTTPClient(c.timeout)
	}
	return c
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string   `json:"symbol"`
			RegularMarketPrice *float64 `json:"regularMarketPrice"`
			Currency           string   `json:"currency"`
			RegularMarketTime  int64    `json:"regularMarketTime"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// FetchQuote returns the regular market price for symbol.
//
// Network failures, timeouts, non-2xx statuses, malformed bodies and
// results without a price are all reported as apperror Upstream errors.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (models.UpstreamQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return models.UpstreamQuote{}, apperror.NewUpstream("invalid upstream endpoint", err)
	}
	q := u.Query()
	q.Set("symbols", symbol)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.UpstreamQuote{}, apperror.NewUpstream("build upstream request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.http.Do(req) //nolint:gosec // endpoint comes from config
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return models.UpstreamQuote{}, apperror.NewUpstream("upstream timed out", err)
		}
		return models.UpstreamQuote{}, apperror.NewUpstream("upstream request failed", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxBodyBytes))
		return models.UpstreamQuote{}, apperror.NewUpstream(fmt.Sprintf("upstream status %d", res.StatusCode), nil)
	}

	var body quoteResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, maxBodyBytes)).Decode(&body); err != nil {
		return models.UpstreamQuote{}, apperror.NewUpstream("decode upstream response", err)
	}
	if e := body.QuoteResponse.Error; e != nil {
		return models.UpstreamQuote{}, apperror.NewUpstream("upstream error "+e.Code, errors.New(e.Description))
	}

	for _, r := range body.QuoteResponse.Result {
		if r.Symbol != "" && !strings.EqualFold(r.Symbol, symbol) {
			continue
		}
		if r.RegularMarketPrice == nil {
			return models.UpstreamQuote{}, apperror.NewUpstream("upstream quote has no price", nil)
		}
		out := models.UpstreamQuote{Price: *r.RegularMarketPrice, Currency: r.Currency}
		if r.RegularMarketTime > 0 {
			t := time.Unix(r.RegularMarketTime, 0).UTC()
			out.MarketTime = &t
		}
		return out, nil
	}

	return models.UpstreamQuote{}, apperror.NewUpstream("no upstream result for "+symbol, nil)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
