package repository

import (
	"os"

	"github.com/okian/obituary/pkg/logger"
)

// Option applies a configuration option to a file-backed store.
type Option func(*fileOptions)

type fileOptions struct {
	logger logger.Logger
	perm   os.FileMode
}

func defaultFileOptions(name string) fileOptions {
	return fileOptions{
		logger: logger.Get().Named(name),
		perm:   0o644,
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(o *fileOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFileMode sets the permission bits used when the file is created.
func WithFileMode(perm os.FileMode) Option {
	return func(o *fileOptions) {
		if perm != 0 {
			o.perm = perm
		}
	}
}
