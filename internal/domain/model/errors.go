package model

import "errors"

// Resolution outcome kinds. NotFound, StillAlive and Unverifiable are
// recovered with a sentinel record, Duplicate with a silent no-op. Only
// SourceUnavailable surfaces to the process exit code.
var (
	ErrNotFound          = errors.New("no qualifying candidate")
	ErrStillAlive        = errors.New("subject is still alive")
	ErrDuplicate         = errors.New("record already present")
	ErrUnverifiable      = errors.New("death could not be verified")
	ErrSourceUnavailable = errors.New("discovery source unavailable")

	ErrInvalidRecord = errors.New("invalid person record")
)
