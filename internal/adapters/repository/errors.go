package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrReadFailed  = errors.New("registry read failed")
	ErrWriteFailed = errors.New("registry write failed")
)
