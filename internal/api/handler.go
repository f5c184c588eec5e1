package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/guttosm/pricebook/internal/apperror"
	"github.com/guttosm/pricebook/internal/domain/dto"
	"github.com/guttosm/pricebook/internal/middleware"
	"github.com/guttosm/pricebook/internal/service"
)

const msgPriceStored = "price stored"

// Numbers reach the quote service as json.Number, so values that overflow
// float64 are reported as a bad price instead of a bad body.
func init() {
	binding.EnableDecoderUseNumber = true
}

// Handler provides HTTP handlers for the price endpoints.
//
// Responsibilities:
//   - Decode request bodies and query parameters
//   - Delegate validation and persistence to the quote service
//   - Translate results into response DTOs
//   - Hand errors to middleware.AbortWithError, which owns the status mapping
type Handler struct {
	svc service.QuoteService
}

// NewHandler constructs a new Handler instance.
//
// Parameters:
//   - svc (service.QuoteService): business logic behind every route.
//
// Returns:
//   - *Handler: A handler ready to be registered with the router.
func NewHandler(svc service.QuoteService) *Handler {
	return &Handler{svc: svc}
}

// RecordPrice handles POST /api/prices.
//
// RecordPrice godoc
// @Summary      Record a price observation
// @Description  Stores one price for a symbol. Symbol is upper-cased, currency is optional and fetchedAt defaults to now.
// @Tags         prices
// @Accept       json
// @Produce      json
// @Param        body  body      dto.RecordPriceRequest   true  "Price observation"
// @Success      201   {object}  dto.RecordPriceResponse  "Created"
// @Failure      400   {object}  dto.ErrorResponse        "Bad Request"
// @Failure      500   {object}  dto.ErrorResponse        "Internal Error"
// @Router       /api/prices [post]
func (h *Handler) RecordPrice(c *gin.Context) {
	var req dto.RecordPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperror.NewValidation("invalid JSON body"))
		return
	}

	stored, err := h.svc.RecordPrice(c.Request.Context(), service.RawObservation{
		Symbol:    req.Symbol,
		Price:     req.Price,
		Currency:  req.Currency,
		FetchedAt: req.FetchedAt,
	})
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.RecordPriceResponse{
		Message: msgPriceStored,
		Entry:   dto.NewPriceEntry(*stored),
	})
}

// GetQuote handles GET /api/quote.
//
// GetQuote godoc
// @Summary      Latest quote with recent history
// @Description  Returns the newest stored price for a symbol plus up to 20 history entries, newest first
// @Tags         prices
// @Produce      json
// @Param        symbol  query     string  true  "Ticker symbol (case-insensitive)" example(AAPL)
// @Success      200     {object}  dto.QuoteResponse  "Success"
// @Failure      400     {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404     {object}  dto.ErrorResponse  "Not Found"
// @Failure      500     {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/quote [get]
func (h *Handler) GetQuote(c *gin.Context) {
	q, err := h.svc.GetLatestWithHistory(c.Request.Context(), c.Query("symbol"), service.DefaultQuoteHistoryLimit)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuoteResponse(*q))
}

// GetHistory handles GET /api/history. An unknown symbol is not an error.
//
// GetHistory godoc
// @Summary      Price history
// @Description  Returns up to 100 stored prices for a symbol, newest first. Empty when nothing is stored.
// @Tags         prices
// @Produce      json
// @Param        symbol  query     string  true  "Ticker symbol (case-insensitive)" example(AAPL)
// @Success      200     {object}  dto.HistoryResponse  "Success"
// @Failure      400     {object}  dto.ErrorResponse    "Bad Request"
// @Failure      500     {object}  dto.ErrorResponse    "Internal Error"
// @Router       /api/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	hist, err := h.svc.GetHistory(c.Request.Context(), c.Query("symbol"), service.DefaultHistoryLimit)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewHistoryResponse(*hist))
}

// FetchQuote handles POST /api/quote/fetch.
//
// FetchQuote godoc
// @Summary      Fetch and store a live quote
// @Description  Asks the upstream quote source for the current price and records it. Only mounted when an upstream is configured.
// @Tags         prices
// @Produce      json
// @Param        symbol  query     string  true  "Ticker symbol (case-insensitive)" example(AAPL)
// @Success      201     {object}  dto.RecordPriceResponse  "Created"
// @Failure      400     {object}  dto.ErrorResponse        "Bad Request"
// @Failure      500     {object}  dto.ErrorResponse        "Internal Error"
// @Failure      502     {object}  dto.ErrorResponse        "Upstream unavailable"
// @Router       /api/quote/fetch [post]
func (h *Handler) FetchQuote(c *gin.Context) {
	stored, err := h.svc.FetchAndRecord(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.RecordPriceResponse{
		Message: msgPriceStored,
		Entry:   dto.NewPriceEntry(*stored),
	})
}
