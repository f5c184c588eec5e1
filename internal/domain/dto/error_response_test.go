package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestErrorResponse_Error(t *testing.T) {
	e := ErrorResponse{Message: "oops"}
	if e.Error() != "oops" {
		t.Fatalf("want 'oops' got %q", e.Error())
	}
	e2 := e.WithHint("retry later")
	if e2.Error() != "oops (retry later)" {
		t.Fatalf("want 'oops (retry later)' got %q", e2.Error())
	}
	if e.Hint != "" {
		t.Fatalf("WithHint must not mutate the receiver")
	}
}

func TestNewErrorResponse(t *testing.T) {
	e := NewErrorResponse("msg")
	if e.Message != "msg" || e.Hint != "" {
		t.Fatalf("unexpected %+v", e)
	}
	if e.Timestamp.IsZero() || time.Since(e.Timestamp) > time.Second {
		t.Fatalf("timestamp not set")
	}

	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"error":"msg"`) || strings.Contains(string(b), "hint") {
		t.Fatalf("unexpected json %s", b)
	}
}
