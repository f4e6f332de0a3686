package storage

import (
	"github.com/infinivision/buildlocks/pkg/event"
)

const (
	defaultCacheSize = 300
)

// Option option funcation
type Option func(*options)

type options struct {
	cacheSize int
	path      string
	hub       *event.Hub
}

func (opts *options) adjust() {
	if opts.cacheSize <= 0 {
		opts.cacheSize = defaultCacheSize
	}

	if opts.path == "" {
		opts.path = LocksFile
	}
}

// WithCacheSize set max number of the cached records
func WithCacheSize(value int) Option {
	return func(opts *options) {
		opts.cacheSize = value
	}
}

// WithPath set the record path in the build artifacts
func WithPath(value string) Option {
	return func(opts *options) {
		opts.path = value
	}
}

// WithEvents set the build events source, records are evicted
// from the cache when the build is finished and removed when
// the build is removed from the queue
func WithEvents(value *event.Hub) Option {
	return func(opts *options) {
		opts.hub = value
	}
}
