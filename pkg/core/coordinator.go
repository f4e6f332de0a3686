package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fagongzi/log"
	"github.com/infinivision/buildlocks/pkg/feature"
	"github.com/infinivision/buildlocks/pkg/lock"
	"github.com/infinivision/buildlocks/pkg/meta"
	"github.com/infinivision/buildlocks/pkg/metrics"
	"github.com/infinivision/buildlocks/pkg/resource"
	"github.com/infinivision/buildlocks/pkg/storage"
	"github.com/pkg/errors"
)

// DispatchResult result of the queue dispatch
type DispatchResult struct {
	// Admitted builds that can be started, in the queue order
	Admitted []uint64 `json:"admitted"`
	// Waiting unavailable locks of the builds that can not be started
	Waiting map[uint64][]meta.Lock `json:"waiting"`
	// Started runtime parameters of the started builds
	Started map[uint64]map[string]string `json:"started,omitempty"`
}

// BuildQueue queue and lifecycle of the builds
type BuildQueue interface {
	BuildServer

	// Queue adds the build to the queue
	Queue(b *meta.Build) error
	// Start marks the queued build as running with the runtime parameters
	Start(id uint64, params map[string]string) (*meta.Build, error)
	// Finish finishes the running build
	Finish(id uint64) error
	// Remove removes the queued build
	Remove(id uint64) error
	// Build returns the build
	Build(id uint64) (*meta.Build, error)
	// SetAttribute sets the attribute of the build
	SetAttribute(id uint64, key, value string) error
}

// Coordinator shared resources coordinator of the build server
type Coordinator struct {
	sync.Mutex

	opts      *options
	registry  BuildQueue
	catalog   resource.Catalog
	storage   storage.LocksStorage
	locks     lock.TakenLocks
	processor *Processor
	listeners []func()
}

// NewCoordinator returns a coordinator
func NewCoordinator(registry BuildQueue, catalog resource.Catalog, storage storage.LocksStorage, opts ...Option) *Coordinator {
	value := newOptions()
	for _, opt := range opts {
		opt(value)
	}
	value.adjust()

	c := &Coordinator{
		opts:      value,
		registry:  registry,
		catalog:   catalog,
		storage:   storage,
		locks:     lock.NewTakenLocks(value.extractor, storage, catalog),
		processor: NewProcessor(value.extractor, storage, catalog, registry, value.resourcesInChains),
	}
	c.initEvents()
	return c
}

// Stop stops listening build events
func (c *Coordinator) Stop() {
	for _, unsubscribe := range c.listeners {
		unsubscribe()
	}
}

// Queue adds the build to the queue, declared locks are added to the build parameters
func (c *Coordinator) Queue(b *meta.Build) error {
	value := b.Clone()
	if value.Parameters == nil {
		value.Parameters = make(map[string]string)
	}

	declared := c.opts.extractor.FromFeaturesAsMap(value.Features)
	for name, v := range feature.BuildParameters(c.opts.extractor, declared) {
		if _, ok := value.Parameters[name]; !ok {
			value.Parameters[name] = v
		}
	}

	return c.registry.Queue(value)
}

// Start resolves the locks of the queued build and starts it, returns the runtime parameters
func (c *Coordinator) Start(id uint64) (map[string]string, error) {
	c.Lock()
	defer c.Unlock()

	return c.doStart(id)
}

func (c *Coordinator) doStart(id uint64) (map[string]string, error) {
	b, err := c.registry.Build(id)
	if err != nil {
		return nil, err
	}
	if b.State != meta.BuildQueued {
		return nil, errors.Wrapf(meta.ErrBuildState, "build %d is %s", id, b.State.Name())
	}

	ctx := NewStartContext(b)
	c.processor.UpdateParameters(ctx)

	params := ctx.SharedParameters()
	if _, err := c.registry.Start(id, params); err != nil {
		return nil, err
	}
	return params, nil
}

// Finish finishes the running build
func (c *Coordinator) Finish(id uint64) error {
	return c.registry.Finish(id)
}

// Remove removes the queued build
func (c *Coordinator) Remove(id uint64) error {
	return c.registry.Remove(id)
}

// Build returns the build
func (c *Coordinator) Build(id uint64) (*meta.Build, error) {
	return c.registry.Build(id)
}

// Locks returns the stored locks of the build
func (c *Coordinator) Locks(id uint64) map[string]meta.Lock {
	return c.storage.Load(id)
}

// TakenLocks returns holders of the locks in the project by the lock name
func (c *Coordinator) TakenLocks(projectID string) map[string]*meta.TakenLock {
	return c.locks.CollectTakenLocks(projectID, c.registry.RunningBuilds(), c.registry.QueuedBuilds())
}

// UnavailableLocks returns declared locks of the queued build that can not be
// granted against the running builds
func (c *Coordinator) UnavailableLocks(id uint64) ([]meta.Lock, error) {
	b, err := c.registry.Build(id)
	if err != nil {
		return nil, err
	}

	chain := c.chainComposites(b)
	taken := c.locks.CollectTakenLocks(b.ProjectID, excludeBuilds(c.registry.RunningBuilds(), chain), nil)
	return c.locks.GetUnavailableLocks(c.wantedLocks(b), taken, b.ProjectID), nil
}

// Dispatch walks the queue in order, a build is admitted if all its locks can be
// granted against the running builds and the builds admitted before it. Composite
// builds of the build's own chain are not holders of its locks. Admitted builds,
// except composite ones, get the values of the custom resources reserved for the
// read locks without value.
//
// With auto start the admitted builds are started, a failed start is logged and
// the build is left out of the started builds.
func (c *Coordinator) Dispatch() (*DispatchResult, error) {
	c.Lock()
	defer c.Unlock()

	result := &DispatchResult{
		Waiting: make(map[uint64][]meta.Lock),
	}

	running := c.registry.RunningBuilds()
	var admitted []*meta.Build
	for _, b := range c.registry.QueuedBuilds() {
		chain := c.chainComposites(b)
		taken := c.locks.CollectTakenLocks(b.ProjectID,
			excludeBuilds(running, chain),
			excludeBuilds(admitted, chain))
		unavailable := c.locks.GetUnavailableLocks(c.wantedLocks(b), taken, b.ProjectID)
		if len(unavailable) > 0 {
			metrics.AdmittedCounter.WithLabelValues(metrics.StatusWaiting).Inc()
			result.Waiting[b.ID] = unavailable
			log.Debugf("[build-%d]: waiting for locks %+v",
				b.ID,
				unavailable)
			continue
		}

		if !b.Composite {
			if err := c.reserveValues(b, taken); err != nil {
				return nil, err
			}
		}

		metrics.AdmittedCounter.WithLabelValues(metrics.StatusAdmitted).Inc()
		admitted = append(admitted, b)
		result.Admitted = append(result.Admitted, b.ID)
	}

	if c.opts.autoStart {
		result.Started = make(map[uint64]map[string]string)
		for _, id := range result.Admitted {
			params, err := c.doStart(id)
			if err != nil {
				metrics.AdmittedCounter.WithLabelValues(metrics.StatusFailed).Inc()
				log.Errorf("[build-%d]: start admitted build failed with %+v",
					id,
					err)
				continue
			}
			result.Started[id] = params
		}
	}

	return result, nil
}

// reserveValues reserves free values of the custom resources for the read locks
// without value, the admitted copy of the build exposes the reserved values
func (c *Coordinator) reserveValues(b *meta.Build, taken map[string]*meta.TakenLock) error {
	resources := c.catalog.ResourcesMap(b.ProjectID)
	for _, lock := range c.wantedLocks(b) {
		if lock.Type != meta.ReadLock || lock.Value != "" {
			continue
		}

		res, ok := resources[lock.Name]
		if !ok || res.Type != meta.CustomResource || !res.Enabled {
			continue
		}

		key := ReservedAttribute(res.ID)
		value, ok := b.Attribute(key)
		if !ok || value == "" {
			var used []string
			if holders, ok := taken[lock.Name]; ok {
				used = holders.ReadValues()
			}

			free := subtract(res.Values, used)
			if len(free) == 0 {
				continue
			}
			value = free[0]

			if err := c.registry.SetAttribute(b.ID, key, value); err != nil {
				return err
			}
			b.SetAttribute(key, value)
			log.Infof("[build-%d]: value %q of resource %s reserved",
				b.ID,
				value,
				res.ID)
		}

		if b.Parameters == nil {
			b.Parameters = make(map[string]string)
		}
		b.Parameters[c.opts.extractor.AsBuildParameter(lock)] = value
	}
	return nil
}

// chainComposites returns ids of the composite builds of the chain depending on the build
func (c *Coordinator) chainComposites(b *meta.Build) map[uint64]struct{} {
	if !c.opts.resourcesInChains || !c.registry.PartOfChain(b.ID) {
		return nil
	}

	ids := make(map[uint64]struct{})
	for _, dep := range c.registry.DependentCompositeBuilds(b.ID) {
		ids[dep.ID] = struct{}{}
	}
	return ids
}

func excludeBuilds(values []*meta.Build, ids map[uint64]struct{}) []*meta.Build {
	if len(ids) == 0 {
		return values
	}

	result := make([]*meta.Build, 0, len(values))
	for _, b := range values {
		if _, ok := ids[b.ID]; !ok {
			result = append(result, b)
		}
	}
	return result
}

func (c *Coordinator) wantedLocks(b *meta.Build) []meta.Lock {
	declared := c.opts.extractor.FromFeaturesAsMap(b.Features)
	result := make([]meta.Lock, 0, len(declared))
	for _, lock := range declared {
		result = append(result, lock)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// RunDispatch dispatches the queue with the interval until the context is done
func (c *Coordinator) RunDispatch(ctx context.Context) {
	ticker := time.NewTicker(c.opts.dispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Infof("dispatch loop stopped")
			return
		case <-ticker.C:
			if _, err := c.Dispatch(); err != nil {
				log.Errorf("dispatch queue failed with %+v", err)
			}
		}
	}
}
