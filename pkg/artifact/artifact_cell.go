package artifact

import (
	"fmt"
	"sync/atomic"

	"github.com/garyburd/redigo/redis"
	"github.com/infinivision/buildlocks/pkg/meta"
)

type cellStorage struct {
	ops   uint64
	opts  options
	pools []*redis.Pool
}

// NewCellStorage returns a artifact storage on redis, every build is one hash
func NewCellStorage(opts ...Option) Storage {
	s := &cellStorage{}
	for _, opt := range opts {
		opt(&s.opts)
	}
	s.opts.adjust()

	for _, proxy := range s.opts.proxies {
		addr := proxy
		s.pools = append(s.pools, &redis.Pool{
			MaxActive:   s.opts.maxActive,
			MaxIdle:     s.opts.maxIdle,
			IdleTimeout: s.opts.idleTimeout,
			Wait:        true,
			Dial: func() (redis.Conn, error) {
				return redis.Dial("tcp",
					addr,
					redis.DialWriteTimeout(s.opts.writeTimeout),
					redis.DialConnectTimeout(s.opts.dialTimeout),
					redis.DialReadTimeout(s.opts.readTimeout))
			},
		})
	}

	return s
}

func buildCellKey(buildID uint64) string {
	return fmt.Sprintf("__buildlocks_%d_artifacts__", buildID)
}

func (s *cellStorage) get() redis.Conn {
	return s.pools[int(atomic.AddUint64(&s.ops, 1)%uint64(len(s.pools)))].Get()
}

func (s *cellStorage) Read(buildID uint64, path string) ([]byte, error) {
	var value []byte
	found := false
	err := s.doWithRetry(func(conn redis.Conn) error {
		ret, err := conn.Do("HGET", buildCellKey(buildID), path)
		if err != nil {
			return err
		}

		if ret == nil {
			found = false
			return nil
		}

		value, err = redis.Bytes(ret, err)
		if err != nil {
			return err
		}

		found = true
		return nil
	})

	if err != nil {
		return nil, err
	}

	if !found {
		return nil, meta.ErrArtifactNotFound
	}

	return value, nil
}

func (s *cellStorage) Write(buildID uint64, path string, data []byte) error {
	return s.doWithRetry(func(conn redis.Conn) error {
		_, err := conn.Do("HSET", buildCellKey(buildID), path, data)
		return err
	})
}

func (s *cellStorage) Remove(buildID uint64, path string) error {
	return s.doWithRetry(func(conn redis.Conn) error {
		_, err := conn.Do("HDEL", buildCellKey(buildID), path)
		return err
	})
}

func (s *cellStorage) Close() error {
	var last error
	for _, p := range s.pools {
		if err := p.Close(); err != nil {
			last = err
		}
	}
	return last
}

func (s *cellStorage) doWithRetry(doFunc func(conn redis.Conn) error) error {
	times := 0

	for {
		conn := s.get()
		err := doFunc(conn)
		conn.Close()

		if err == nil {
			break
		}

		if times >= s.opts.maxRetryTimes {
			return err
		}
		times++
	}

	return nil
}
