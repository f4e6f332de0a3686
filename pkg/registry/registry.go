package registry

import (
	"fmt"
	"net/url"
	"time"

	"github.com/coreos/etcd/clientv3"
	"github.com/fagongzi/util/format"
	"github.com/pkg/errors"
)

const (
	protocolEtcd = "etcd"

	paramServers  = "servers"
	paramUsername = "user"
	paramPassword = "password"
	paramLease    = "lease"
	paramGroup    = "group"
	paramPrefix   = "prefix"
	paramRetry    = "retry"
)

// Registry is used to register the buildlocks api address to the registry center,
// so the build agents can discover the coordinator
type Registry interface {
	// Register registers the address and keeps it alive until Stop
	Register(addr string) error
	// Stop removes the registered address
	Stop()
}

// NewRegistry returns a registry by url:
//   etcd://ip:port?servers=ip2:port2&user=u&password=p&lease=10&group=default&prefix=/buildlocks/registry&retry=10
// lease and retry are in seconds
func NewRegistry(addr string) (Registry, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case protocolEtcd:
		return newEtcdRegistry(u)
	}

	return nil, errors.Errorf("the schema %s is not support", u.Scheme)
}

func parseEtcdURL(u *url.URL) (clientv3.Config, []Option, error) {
	cfg := clientv3.Config{
		DialTimeout: time.Second * 5,
	}

	servers := []string{fmt.Sprintf("http://%s", u.Host)}
	for _, value := range u.Query()[paramServers] {
		servers = append(servers, fmt.Sprintf("http://%s", value))
	}
	cfg.Endpoints = servers
	cfg.Username = u.Query().Get(paramUsername)
	cfg.Password = u.Query().Get(paramPassword)

	var opts []Option
	if lease := u.Query().Get(paramLease); lease != "" {
		value, err := format.ParseStrInt64(lease)
		if err != nil {
			return cfg, nil, errors.Wrapf(err, "parse %s", paramLease)
		}
		opts = append(opts, WithTTL(time.Second*time.Duration(value)))
	}

	if retry := u.Query().Get(paramRetry); retry != "" {
		value, err := format.ParseStrInt64(retry)
		if err != nil {
			return cfg, nil, errors.Wrapf(err, "parse %s", paramRetry)
		}
		opts = append(opts, WithRetryInterval(time.Second*time.Duration(value)))
	}

	if group := u.Query().Get(paramGroup); group != "" {
		opts = append(opts, WithGroup(group))
	}

	if prefix := u.Query().Get(paramPrefix); prefix != "" {
		opts = append(opts, WithPrefix(prefix))
	}

	return cfg, opts, nil
}

func newEtcdRegistry(u *url.URL) (Registry, error) {
	cfg, opts, err := parseEtcdURL(u)
	if err != nil {
		return nil, err
	}

	client, err := clientv3.New(cfg)
	if err != nil {
		return nil, err
	}

	return NewEtcdRegistry(client, opts...), nil
}
