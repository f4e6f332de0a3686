package registry

import (
	"context"
	"time"

	"github.com/coreos/etcd/clientv3"
	"github.com/fagongzi/log"
)

type etcdRegistry struct {
	opts   options
	client *clientv3.Client
	ctx    context.Context
	cancel context.CancelFunc
}

// NewEtcdRegistry returns a etcd registry, the address is kept with a lease
func NewEtcdRegistry(client *clientv3.Client, opts ...Option) Registry {
	r := &etcdRegistry{client: client}
	for _, opt := range opts {
		opt(&r.opts)
	}
	r.opts.adjust()

	r.ctx, r.cancel = context.WithCancel(context.Background())
	return r
}

func (r *etcdRegistry) Register(addr string) error {
	ch, err := r.doRegister(addr)
	if err != nil {
		return err
	}

	go func() {
		for {
			if ch == nil {
				ch, err = r.doRegister(addr)
				if err != nil {
					log.Errorf("[registry-etcd]: retry failed with %+v, retry after %s",
						err,
						r.opts.retryInterval)
					select {
					case <-r.ctx.Done():
						return
					case <-time.After(r.opts.retryInterval):
					}
					continue
				}

				log.Infof("[registry-etcd]: retry register succeed")
			}

			select {
			case <-r.ctx.Done():
				return
			case _, ok := <-ch:
				if ok {
					continue
				}
				log.Errorf("[registry-etcd]: lease keepalive failed, retry")
			}

			ch = nil
		}
	}()

	log.Infof("[registry-etcd]: %s registered with key %s",
		addr,
		r.opts.key(addr))
	return nil
}

func (r *etcdRegistry) Stop() {
	r.cancel()
	r.client.Close()
}

func (r *etcdRegistry) doRegister(addr string) (<-chan *clientv3.LeaseKeepAliveResponse, error) {
	resp, err := r.client.Grant(r.ctx, r.opts.leaseSeconds())
	if err != nil {
		return nil, err
	}

	_, err = r.client.Put(r.ctx, r.opts.key(addr), addr, clientv3.WithLease(resp.ID))
	if err != nil {
		return nil, err
	}

	return r.client.KeepAlive(r.ctx, resp.ID)
}
