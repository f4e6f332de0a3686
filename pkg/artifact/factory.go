package artifact

import (
	"net/url"
	"time"

	"github.com/fagongzi/util/format"
	"github.com/pkg/errors"
)

const (
	protocolFile   = "file"
	protocolBadger = "badger"
	protocolCell   = "cell"
)

const (
	paramProxies      = "proxy"
	paramMaxActive    = "maxActive"
	paramMaxIdle      = "maxIdle"
	paramIdleTimeout  = "idleTimeout"
	paramDialTimeout  = "dialTimeout"
	paramReadTimeout  = "readTimeout"
	paramWriteTimeout = "writeTimeout"
	paramMaxRetry     = "retry"
)

// CreateStorage returns the artifact storage by the url, supported schemes:
//   file:///var/lib/buildlocks/artifacts
//   badger:///var/lib/buildlocks/badger
//   cell://ip:port?retry=3&maxActive=100&maxIdle=10&idleTimeout=30&dialTimeout=10&readTimeout=30&writeTimeout=10
func CreateStorage(protocolAddr string) (Storage, error) {
	u, err := url.Parse(protocolAddr)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case protocolFile:
		return NewFSStorage(u.Path)
	case protocolBadger:
		return NewBadgerStorage(u.Path)
	case protocolCell:
		return createCellStorage(u)
	}

	return nil, errors.Errorf("the schema %s is not support", u.Scheme)
}

func createCellStorage(u *url.URL) (Storage, error) {
	var opts []Option

	var proxies []string
	proxies = append(proxies, u.Host)
	if values, ok := u.Query()[paramProxies]; ok {
		proxies = append(proxies, values...)
	}
	opts = append(opts, WithProxies(proxies...))

	ints := []struct {
		name string
		with func(int) Option
	}{
		{paramMaxActive, WithMaxActive},
		{paramMaxIdle, WithMaxIdle},
		{paramMaxRetry, WithRetry},
	}
	for _, p := range ints {
		value := u.Query().Get(p.name)
		if value == "" {
			continue
		}

		n, err := format.ParseStrInt(value)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", p.name)
		}
		opts = append(opts, p.with(n))
	}

	durations := []struct {
		name string
		with func(time.Duration) Option
	}{
		{paramIdleTimeout, WithIdleTimeout},
		{paramDialTimeout, WithDialTimeout},
		{paramReadTimeout, WithReadTimeout},
		{paramWriteTimeout, WithWriteTimeout},
	}
	for _, p := range durations {
		value := u.Query().Get(p.name)
		if value == "" {
			continue
		}

		n, err := format.ParseStrInt64(value)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", p.name)
		}
		opts = append(opts, p.with(time.Second*time.Duration(n)))
	}

	return NewCellStorage(opts...), nil
}
