package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/pricebook/internal/apperror"
	"github.com/guttosm/pricebook/internal/domain/dto"
	"github.com/guttosm/pricebook/internal/logger"
)

// Messages returned instead of internal detail.
const (
	msgStorageFailure  = "storage failure, please try again"
	msgUpstreamFailure = "upstream quote source unavailable"
	retryHint          = "retry later"
)

// ErrorHandler renders the last error attached with c.Error when the
// handler did not write a response itself.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	status, body := render(c.Errors.Last().Err)
	c.JSON(status, body)
}

// AbortWithError maps err onto the error taxonomy, logs it and aborts the
// request with the matching status.
//
//   - Validation / NotFound: message shown as-is.
//   - Storage (and unclassified errors): generic message, 500.
//   - Upstream: generic message with a retry hint, 502.
func AbortWithError(c *gin.Context, err error) {
	status, body := render(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error().
			Err(err).
			Str("request_id", c.GetString(RequestIDKey)).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}

func render(err error) (int, dto.ErrorResponse) {
	ae, ok := apperror.As(err)
	if !ok {
		return http.StatusInternalServerError, dto.NewErrorResponse(msgStorageFailure)
	}

	switch ae.Kind() {
	case apperror.Validation, apperror.NotFound:
		return ae.HTTPStatus(), dto.NewErrorResponse(ae.Message())
	case apperror.Upstream:
		return ae.HTTPStatus(), dto.NewErrorResponse(msgUpstreamFailure).WithHint(retryHint)
	default:
		return http.StatusInternalServerError, dto.NewErrorResponse(msgStorageFailure)
	}
}
