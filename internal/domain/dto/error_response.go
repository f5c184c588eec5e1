package dto

import "time"

// ErrorResponse is the JSON body of every non-2xx API response.
//
// Message is always safe for clients; internal detail is logged, never
// serialized. Hint is set for failures worth retrying (upstream outages).
type ErrorResponse struct {
	Message   string    `json:"error" example:"symbol required"`
	Hint      string    `json:"hint,omitempty" example:"retry later"`
	Timestamp time.Time `json:"timestamp" example:"2024-05-02T15:30:00Z"`
}

// Error implements the error interface.
func (e ErrorResponse) Error() string {
	if e.Hint != "" {
		return e.Message + " (" + e.Hint + ")"
	}
	return e.Message
}

// NewErrorResponse builds an ErrorResponse stamped with the current UTC time.
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Message: message, Timestamp: time.Now().UTC()}
}

// WithHint returns a copy carrying a retry hint.
func (e ErrorResponse) WithHint(hint string) ErrorResponse {
	e.Hint = hint
	return e
}
