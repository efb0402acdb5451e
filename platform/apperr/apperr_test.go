package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *Error
		status     int
		serverSide bool
	}{
		{"not found", NotFound("lead not found"), http.StatusNotFound, false},
		{"validation", Validation("text is required"), http.StatusBadRequest, false},
		{"bad request", BadRequest("invalid id"), http.StatusBadRequest, false},
		{"unauthorized", Unauthorized("missing token"), http.StatusUnauthorized, false},
		{"forbidden", Forbidden("forbidden"), http.StatusForbidden, false},
		{"rate limited", RateLimited("slow down"), http.StatusTooManyRequests, false},
		{"upstream", New(KindUpstreamUnavailable, "model down"), http.StatusBadGateway, true},
		{"timeout", New(KindTimeout, "model slow"), http.StatusGatewayTimeout, true},
		{"internal", Wrap(KindInternal, "internal server error", errors.New("boom")), http.StatusInternalServerError, true},
		{"unknown", New(KindUnknown, "odd"), http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatus(); got != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, got)
			}
			if got := IsServerSide(fmt.Errorf("op: %w", tt.err)); got != tt.serverSide {
				t.Fatalf("expected server side %v, got %v", tt.serverSide, got)
			}
		})
	}

	if !IsServerSide(errors.New("untyped")) {
		t.Fatal("untyped errors are server side")
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindUpstreamUnavailable, "generative-text service unavailable", cause).WithOp("inference.Infer")

	if err.Error() != "inference.Infer: generative-text service unavailable" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if !Is(err, KindUpstreamUnavailable) {
		t.Fatal("expected upstream kind")
	}
}
