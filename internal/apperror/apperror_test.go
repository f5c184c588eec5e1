package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  *AppError
		want int
	}{
		{NewValidation("symbol required"), http.StatusBadRequest},
		{NewNotFound("no prices"), http.StatusNotFound},
		{NewStorage("db", errors.New("disk full")), http.StatusInternalServerError},
		{NewUpstream("upstream", errors.New("timeout")), http.StatusBadGateway},
		{New(Kind("OTHER"), "x", nil), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := c.err.HTTPStatus(); got != c.want {
			t.Fatalf("%s: status=%d, want %d", c.err.Kind(), got, c.want)
		}
	}
}

func TestErrorAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorage("could not save price", cause)
	if err.Error() != "could not save price: disk full" {
		t.Fatalf("unexpected Error(): %q", err.Error())
	}
	if err.Message() != "could not save price" {
		t.Fatalf("unexpected Message(): %q", err.Message())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should be reachable through Unwrap")
	}
	if NewValidation("symbol required").Error() != "symbol required" {
		t.Fatalf("validation error should not carry a suffix")
	}
}

func TestKindOfAndIs(t *testing.T) {
	wrapped := fmt.Errorf("record: %w", NewNotFound("none"))
	if KindOf(wrapped) != NotFound || !Is(wrapped, NotFound) {
		t.Fatalf("wrapped kind not detected")
	}
	if KindOf(errors.New("raw")) != Storage {
		t.Fatalf("raw errors should classify as storage")
	}
	if Is(errors.New("raw"), Validation) {
		t.Fatalf("raw error must not be validation")
	}
	if _, ok := As(nil); ok {
		t.Fatalf("nil error has no AppError")
	}
}
