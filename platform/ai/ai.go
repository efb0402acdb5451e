// Package ai holds provider-neutral error values shared by the model adapters.
// This is part of the platform layer and contains no business logic.
package ai

import (
	"errors"
	"fmt"
)

// ErrRateLimited is returned (wrapped) by adapters when the provider answers HTTP 429.
var ErrRateLimited = errors.New("model provider rate limited the request")

// StatusError describes a non-success HTTP answer from a model provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s api returned %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrRateLimited) match 429 answers.
func (e *StatusError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == 429
}
