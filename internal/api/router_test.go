package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/pricebook/internal/domain/models"
)

func TestNewRouter_WiringAndMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &mockQuoteService{history: &models.History{Symbol: "AAPL", Observations: []models.PriceObservation{}}}
	r := NewRouter(NewHandler(svc), RouterOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/history?symbol=AAPL", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
}

func TestNewRouter_FetchRouteIsOptional(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stored := obs(1, 10)
	svc := &mockQuoteService{stored: &stored}

	cases := []struct {
		name   string
		enable bool
		want   int
	}{
		{name: "disabled", enable: false, want: http.StatusNotFound},
		{name: "enabled", enable: true, want: http.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRouter(NewHandler(svc), RouterOptions{EnableFetch: tc.enable})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/quote/fetch?symbol=AAPL", nil))
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestNewRouter_RateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &mockQuoteService{history: &models.History{Symbol: "AAPL", Observations: []models.PriceObservation{}}}
	r := NewRouter(NewHandler(svc), RouterOptions{RateLimitPerMinute: 1})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/history?symbol=AAPL", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}
