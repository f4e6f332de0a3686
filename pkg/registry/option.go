package registry

import (
	"fmt"
	"time"
)

const (
	defaultPrefix = "/buildlocks/registry"
	defaultGroup  = "default"
)

// Option registry option
type Option func(*options)

type options struct {
	ttl           time.Duration
	group         string
	prefix        string
	retryInterval time.Duration
}

func (opts *options) adjust() {
	if opts.ttl < time.Second {
		opts.ttl = time.Second * 10
	}

	if opts.group == "" {
		opts.group = defaultGroup
	}

	if opts.prefix == "" {
		opts.prefix = defaultPrefix
	}

	if opts.retryInterval <= 0 {
		opts.retryInterval = time.Second * 10
	}
}

// leaseSeconds returns the etcd lease ttl, etcd leases are granted in seconds
func (opts *options) leaseSeconds() int64 {
	return int64(opts.ttl / time.Second)
}

// key returns the key the address is registered with
func (opts *options) key(addr string) string {
	return fmt.Sprintf("%s/%s/%s", opts.prefix, opts.group, addr)
}

// WithTTL set the ttl of the registered address, it is rounded down to seconds,
// values below one second use the default
func WithTTL(value time.Duration) Option {
	return func(opts *options) {
		opts.ttl = value
	}
}

// WithGroup set the group of the coordinators sharing the registry
func WithGroup(value string) Option {
	return func(opts *options) {
		opts.group = value
	}
}

// WithPrefix set the key prefix of the registered addresses
func WithPrefix(value string) Option {
	return func(opts *options) {
		opts.prefix = value
	}
}

// WithRetryInterval set the interval to register again after the lease is lost
func WithRetryInterval(value time.Duration) Option {
	return func(opts *options) {
		opts.retryInterval = value
	}
}
