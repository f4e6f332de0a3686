package core

import (
	"time"

	"github.com/infinivision/buildlocks/pkg/event"
	"github.com/infinivision/buildlocks/pkg/feature"
)

// Option option
type Option func(*options)

type options struct {
	extractor         feature.Extractor
	hub               *event.Hub
	resourcesInChains bool
	autoStart         bool
	dispatchInterval  time.Duration
	dispatchDelay     time.Duration
}

func newOptions() *options {
	return &options{
		resourcesInChains: true,
	}
}

func (opts *options) adjust() {
	if opts.extractor == nil {
		opts.extractor = feature.NewExtractor()
	}

	if opts.dispatchInterval == 0 {
		opts.dispatchInterval = time.Second * 5
	}
}

// WithExtractor set lock declarations extractor
func WithExtractor(value feature.Extractor) Option {
	return func(opts *options) {
		opts.extractor = value
	}
}

// WithEvents set build events hub
func WithEvents(value *event.Hub) Option {
	return func(opts *options) {
		opts.hub = value
	}
}

// WithResourcesInChains set whether custom values are resolved for the composite chain
// of the starting build, default is true
func WithResourcesInChains(value bool) Option {
	return func(opts *options) {
		opts.resourcesInChains = value
	}
}

// WithAutoStart set whether builds admitted by dispatch are started
func WithAutoStart(value bool) Option {
	return func(opts *options) {
		opts.autoStart = value
	}
}

// WithDispatchInterval set dispatch interval of the background dispatch loop
func WithDispatchInterval(value time.Duration) Option {
	return func(opts *options) {
		opts.dispatchInterval = value
	}
}

// WithDispatchOnEvents set the delay of the queue dispatch after a build is queued,
// finished or removed, zero disables dispatch on events
func WithDispatchOnEvents(delay time.Duration) Option {
	return func(opts *options) {
		opts.dispatchDelay = delay
	}
}
