package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/guttosm/pricebook/internal/apperror"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts, New(ts.URL+"/v7/finance/quote", WithHTTPClient(ts.Client()), WithTimeout(500*time.Millisecond))
}

func TestFetchQuote_Success(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbols"); got != "AAPL" {
			t.Errorf("expected symbols=AAPL, got %q", got)
		}
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"AAPL","regularMarketPrice":189.91,"currency":"USD","regularMarketTime":1714680000}],"error":null}}`))
	})

	q, err := c.FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchQuote: %v", err)
	}
	if q.Price != 189.91 || q.Currency != "USD" {
		t.Fatalf("unexpected quote %+v", q)
	}
	if q.MarketTime == nil || !q.MarketTime.Equal(time.Unix(1714680000, 0)) {
		t.Fatalf("unexpected market time %v", q.MarketTime)
	}
}

func TestFetchQuote_Failures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		msg     string
	}{
		{
			name:    "bad status",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
			msg:     "upstream status 503",
		},
		{
			name:    "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"quoteResponse":`)) },
			msg:     "decode upstream response",
		},
		{
			name: "missing price",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"AAPL","currency":"USD"}]}}`))
			},
			msg: "upstream quote has no price",
		},
		{
			name: "empty result",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"quoteResponse":{"result":[]}}`))
			},
			msg: "no upstream result for AAPL",
		},
		{
			name: "upstream error object",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"quoteResponse":{"result":null,"error":{"code":"Not Found","description":"no such symbol"}}}`))
			},
			msg: "upstream error Not Found",
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			msg: "upstream timed out",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, c := newTestServer(t, tc.handler)
			_, err := c.FetchQuote(context.Background(), "AAPL")
			ae, ok := apperror.As(err)
			if !ok || ae.Kind() != apperror.Upstream {
				t.Fatalf("expected upstream error, got %v", err)
			}
			if ae.Message() != tc.msg {
				t.Fatalf("message=%q, want %q", ae.Message(), tc.msg)
			}
		})
	}
}

func TestFetchQuote_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	endpoint := ts.URL
	ts.Close()

	_, err := New(endpoint, WithTimeout(time.Second)).FetchQuote(context.Background(), "AAPL")
	if !apperror.Is(err, apperror.Upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New("  ")
	if c.endpoint != DefaultEndpoint || c.timeout != defaultTimeout || c.http == nil {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if !strings.HasPrefix(c.userAgent, "pricebook/") {
		t.Fatalf("unexpected user agent %q", c.userAgent)
	}
	c = New("http://x", WithTimeout(0), WithUserAgent("ua"))
	if c.timeout != defaultTimeout || c.userAgent != "ua" {
		t.Fatalf("options not applied: %+v", c)
	}
}
