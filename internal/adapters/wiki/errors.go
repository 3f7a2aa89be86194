package wiki

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds for wiki adapter errors.
var (
	ErrNotFound    = errors.New("page not found")
	ErrUnavailable = errors.New("source unavailable after retries")
	ErrBadResponse = errors.New("undecodable response")
)

// StatusError is a non-success HTTP answer.
type StatusError struct {
	Status    int
	Retryable bool
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Status, http.StatusText(e.Status))
}

func statusError(code int) *StatusError {
	return &StatusError{
		Status:    code,
		Retryable: code == http.StatusTooManyRequests || code >= http.StatusInternalServerError,
	}
}
