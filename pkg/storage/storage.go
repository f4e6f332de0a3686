package storage

import (
	"sync"

	"github.com/fagongzi/log"
	"github.com/im7mortal/kmutex"
	"github.com/infinivision/buildlocks/pkg/artifact"
	"github.com/infinivision/buildlocks/pkg/event"
	"github.com/infinivision/buildlocks/pkg/meta"
	"github.com/infinivision/buildlocks/pkg/metrics"
	"github.com/pkg/errors"
)

const (
	// LocksFile path of the taken locks record in the build artifacts
	LocksFile = ".teamcity/sharedResources/taken_locks.txt"
)

// LocksStorage taken locks records of the builds
type LocksStorage interface {
	// Store stores the locks taken by the build with the taken values.
	// Empty input is ignored, so a build without locks leaves no record.
	Store(buildID uint64, taken map[meta.Lock]string) error
	// Load returns the stored locks by name, empty map if there is no record
	Load(buildID uint64) map[string]meta.Lock
	// LocksStored returns true if the record was stored and the build is not finished
	LocksStored(buildID uint64) bool
	// Close stops listening build events
	Close()
}

type locksStorage struct {
	sync.RWMutex

	opts        *options
	artifacts   artifact.Storage
	cache       *locksCache
	keys        *kmutex.Kmutex
	stored      map[uint64]struct{}
	unsubscribe []func()
}

// NewLocksStorage returns a locks storage over the build artifacts
func NewLocksStorage(artifacts artifact.Storage, opts ...Option) (LocksStorage, error) {
	value := &options{}
	for _, opt := range opts {
		opt(value)
	}
	value.adjust()

	cache, err := newLocksCache(value.cacheSize)
	if err != nil {
		return nil, errors.Wrapf(err, "create locks cache with size %d", value.cacheSize)
	}

	s := &locksStorage{
		opts:      value,
		artifacts: artifacts,
		cache:     cache,
		keys:      kmutex.New(),
		stored:    make(map[uint64]struct{}),
	}

	if value.hub != nil {
		s.unsubscribe = append(s.unsubscribe,
			value.hub.Subscribe(event.BuildFinished, func(topic string, b event.Build) {
				s.evict(b.ID)
			}),
			value.hub.Subscribe(event.BuildRemoved, func(topic string, b event.Build) {
				s.discard(b.ID)
			}))
	}

	return s, nil
}

func (s *locksStorage) Store(buildID uint64, taken map[meta.Lock]string) error {
	if len(taken) == 0 {
		metrics.StoreCounter.WithLabelValues(metrics.StatusSkipped).Inc()
		return nil
	}

	s.keys.Lock(buildID)
	defer s.keys.Unlock(buildID)

	locks := make(map[string]meta.Lock, len(taken))
	for lock, value := range taken {
		locks[lock.Name] = lock.WithValue(value)
	}

	err := s.artifacts.Write(buildID, s.opts.path, encodeLocks(taken))
	if err != nil {
		metrics.StoreCounter.WithLabelValues(metrics.StatusFailed).Inc()
		log.Warnf("[build-%d]: store taken locks failed with %+v",
			buildID,
			err)
		return err
	}

	s.cache.put(buildID, locks)
	s.Lock()
	s.stored[buildID] = struct{}{}
	s.Unlock()

	metrics.StoreCounter.WithLabelValues(metrics.StatusSucceed).Inc()
	log.Debugf("[build-%d]: %d taken locks stored",
		buildID,
		len(locks))
	return nil
}

func (s *locksStorage) Load(buildID uint64) map[string]meta.Lock {
	s.keys.Lock(buildID)
	defer s.keys.Unlock(buildID)

	locks, err := s.cache.get(buildID, func() (map[string]meta.Lock, error) {
		return s.read(buildID)
	})
	if err != nil {
		log.Warnf("[build-%d]: load taken locks failed with %+v",
			buildID,
			err)
		return make(map[string]meta.Lock)
	}

	result := make(map[string]meta.Lock, len(locks))
	for name, lock := range locks {
		result[name] = lock
	}
	return result
}

func (s *locksStorage) LocksStored(buildID uint64) bool {
	s.keys.Lock(buildID)
	defer s.keys.Unlock(buildID)

	s.RLock()
	_, ok := s.stored[buildID]
	s.RUnlock()
	return ok
}

func (s *locksStorage) Close() {
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
}

func (s *locksStorage) read(buildID uint64) (map[string]meta.Lock, error) {
	data, err := s.artifacts.Read(buildID, s.opts.path)
	if err != nil {
		if errors.Cause(err) == meta.ErrArtifactNotFound {
			return make(map[string]meta.Lock), nil
		}
		return nil, err
	}

	return decodeLocks(buildID, data), nil
}

func (s *locksStorage) evict(buildID uint64) {
	s.keys.Lock(buildID)
	defer s.keys.Unlock(buildID)

	s.cache.invalidate(buildID)
	s.Lock()
	delete(s.stored, buildID)
	s.Unlock()

	metrics.EvictCounter.Inc()
	log.Debugf("[build-%d]: taken locks evicted", buildID)
}

// discard drops the record of a build removed from the queue, composite builds
// of a chain are stored before they run
func (s *locksStorage) discard(buildID uint64) {
	s.keys.Lock(buildID)
	defer s.keys.Unlock(buildID)

	s.cache.invalidate(buildID)
	s.Lock()
	delete(s.stored, buildID)
	s.Unlock()

	if err := s.artifacts.Remove(buildID, s.opts.path); err != nil {
		log.Warnf("[build-%d]: remove taken locks failed with %+v",
			buildID,
			err)
		return
	}

	metrics.EvictCounter.Inc()
	log.Debugf("[build-%d]: taken locks removed", buildID)
}
