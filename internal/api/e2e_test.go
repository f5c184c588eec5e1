package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/pricebook/internal/api"
	"github.com/guttosm/pricebook/internal/service"
	"github.com/guttosm/pricebook/internal/storage"
)

func newSQLiteRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := storage.Open(ctx, storage.SQLite, filepath.Join(t.TempDir(), "prices.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	svc := service.NewQuoteService(storage.NewPriceRepository(db))
	return api.NewRouter(api.NewHandler(svc), api.RouterOptions{})
}

func do(t *testing.T, r http.Handler, method, target, body string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestAPI_E2E_RecordThenQuery(t *testing.T) {
	r := newSQLiteRouter(t)

	code, body := do(t, r, http.MethodPost, "/api/prices", `{"symbol":"MSFT","price":123.45}`)
	require.Equal(t, http.StatusCreated, code)
	entry := body["entry"].(map[string]any)
	assert.Greater(t, entry["id"].(float64), 0.0)
	assert.Equal(t, "MSFT", entry["symbol"])
	assert.Nil(t, entry["currency"])

	code, body = do(t, r, http.MethodGet, "/api/quote?symbol=msft", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 123.45, body["price"])
	assert.Len(t, body["history"], 1)

	code, _ = do(t, r, http.MethodGet, "/api/quote?symbol=UNKNOWN", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = do(t, r, http.MethodGet, "/api/history?symbol=UNKNOWN", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, body["history"])
}

func TestAPI_E2E_ValidationAndOrdering(t *testing.T) {
	r := newSQLiteRouter(t)

	code, body := do(t, r, http.MethodPost, "/api/prices", `{"symbol":"   ","price":1}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "symbol required", body["error"])

	code, body = do(t, r, http.MethodPost, "/api/prices", `{"symbol":"AAPL","price":"abc"}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "price must be a number", body["error"])

	code, body = do(t, r, http.MethodPost, "/api/prices", `{"symbol":"AAPL","price":1,"fetchedAt":"yesterday"}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid fetchedAt", body["error"])

	code, _ = do(t, r, http.MethodGet, "/api/history?symbol=AAPL", "")
	require.Equal(t, http.StatusOK, code)

	for _, b := range []string{
		`{"symbol":"aapl","price":"10","fetchedAt":"2024-01-02T00:00:00Z"}`,
		`{"symbol":"AAPL","price":12,"currency":"usd","fetchedAt":"2024-01-03T00:00:00Z"}`,
		`{"symbol":"AAPL","price":11,"fetchedAt":"2024-01-01T00:00:00Z"}`,
	} {
		code, _ = do(t, r, http.MethodPost, "/api/prices", b)
		require.Equal(t, http.StatusCreated, code)
	}

	code, body = do(t, r, http.MethodGet, "/api/quote?symbol=AAPL", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 12.0, body["price"])
	assert.Equal(t, "USD", body["currency"])
	assert.Equal(t, "2024-01-03T00:00:00Z", body["fetchedAt"])

	code, body = do(t, r, http.MethodGet, "/api/history?symbol=aapl", "")
	require.Equal(t, http.StatusOK, code)
	hist := body["history"].([]any)
	require.Len(t, hist, 3)
	prices := []float64{}
	for _, h := range hist {
		prices = append(prices, h.(map[string]any)["price"].(float64))
	}
	assert.Equal(t, []float64{12, 10, 11}, prices)
}

func TestAPI_E2E_RejectedTimestampLeavesSymbolReadable(t *testing.T) {
	r := newSQLiteRouter(t)

	code, _ := do(t, r, http.MethodPost, "/api/prices", `{"symbol":"AAPL","price":1}`)
	require.Equal(t, http.StatusCreated, code)

	for _, b := range []string{
		`{"symbol":"AAPL","price":2,"fetchedAt":300000000000000}`,
		`{"symbol":"AAPL","price":2,"fetchedAt":-100000000000000}`,
	} {
		code, body := do(t, r, http.MethodPost, "/api/prices", b)
		require.Equal(t, http.StatusBadRequest, code, b)
		assert.Equal(t, "invalid fetchedAt", body["error"])
	}

	code, body := do(t, r, http.MethodPost, "/api/prices", `{"symbol":"AAPL","price":1e400}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "price must be a number", body["error"])

	code, body = do(t, r, http.MethodPost, "/api/prices", `{"symbol":"AAPL","price":3,"fetchedAt":253402300799999}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "9999-12-31T23:59:59.999Z", body["entry"].(map[string]any)["fetchedAt"])

	code, body = do(t, r, http.MethodGet, "/api/quote?symbol=AAPL", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3.0, body["price"])
	assert.Len(t, body["history"], 2)

	code, body = do(t, r, http.MethodGet, "/api/history?symbol=AAPL", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["history"], 2)
}
