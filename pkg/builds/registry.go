package builds

import (
	"sort"
	"sync"

	"github.com/fagongzi/log"
	"github.com/infinivision/buildlocks/pkg/event"
	"github.com/infinivision/buildlocks/pkg/meta"
	"github.com/infinivision/buildlocks/pkg/metrics"
	"github.com/pkg/errors"
)

// Registry queued and running builds of the server. Builds are removed
// when they finish. All returned builds are copies.
type Registry struct {
	sync.RWMutex

	hub    *event.Hub
	builds map[uint64]*meta.Build
	queue  []uint64
}

// NewRegistry returns an empty registry publishing the build lifecycle to the hub
func NewRegistry(hub *event.Hub) *Registry {
	return &Registry{
		hub:    hub,
		builds: make(map[uint64]*meta.Build),
	}
}

// Queue adds the build to the end of the queue
func (r *Registry) Queue(b *meta.Build) error {
	r.Lock()
	if _, ok := r.builds[b.ID]; ok {
		r.Unlock()
		return errors.Wrapf(meta.ErrBuildExists, "build %d", b.ID)
	}

	value := b.Clone()
	value.State = meta.BuildQueued
	r.builds[value.ID] = value
	r.queue = append(r.queue, value.ID)
	r.updateGauges()
	r.Unlock()

	log.Infof("[build-%d]: queued, project %s, composite %t",
		b.ID,
		b.ProjectID,
		b.Composite)
	r.publish(event.BuildQueued, value)
	return nil
}

// Start moves the queued build to the running builds, the parameters are
// added to the build parameters
func (r *Registry) Start(id uint64, params map[string]string) (*meta.Build, error) {
	r.Lock()
	b, err := r.mustState(id, meta.BuildQueued)
	if err != nil {
		r.Unlock()
		return nil, err
	}

	r.removeFromQueue(id)
	b.State = meta.BuildRunning
	if len(params) > 0 && b.Parameters == nil {
		b.Parameters = make(map[string]string, len(params))
	}
	for k, v := range params {
		b.Parameters[k] = v
	}
	value := b.Clone()
	r.updateGauges()
	r.Unlock()

	log.Infof("[build-%d]: started", id)
	r.publish(event.BuildStarted, value)
	return value, nil
}

// Finish removes the running build
func (r *Registry) Finish(id uint64) error {
	r.Lock()
	b, err := r.mustState(id, meta.BuildRunning)
	if err != nil {
		r.Unlock()
		return err
	}

	b.State = meta.BuildFinished
	delete(r.builds, id)
	r.updateGauges()
	r.Unlock()

	log.Infof("[build-%d]: finished", id)
	r.publish(event.BuildFinished, b)
	return nil
}

// Remove removes the queued build from the queue
func (r *Registry) Remove(id uint64) error {
	r.Lock()
	b, err := r.mustState(id, meta.BuildQueued)
	if err != nil {
		r.Unlock()
		return err
	}

	r.removeFromQueue(id)
	delete(r.builds, id)
	r.updateGauges()
	r.Unlock()

	log.Infof("[build-%d]: removed from queue", id)
	r.publish(event.BuildRemoved, b)
	return nil
}

// Build returns the build
func (r *Registry) Build(id uint64) (*meta.Build, error) {
	r.RLock()
	defer r.RUnlock()

	b, ok := r.builds[id]
	if !ok {
		return nil, errors.Wrapf(meta.ErrBuildNotFound, "build %d", id)
	}
	return b.Clone(), nil
}

// SetAttribute sets the build attribute
func (r *Registry) SetAttribute(id uint64, key, value string) error {
	r.Lock()
	defer r.Unlock()

	b, ok := r.builds[id]
	if !ok {
		return errors.Wrapf(meta.ErrBuildNotFound, "build %d", id)
	}
	b.SetAttribute(key, value)
	return nil
}

// RunningBuilds returns running builds ordered by id
func (r *Registry) RunningBuilds() []*meta.Build {
	r.RLock()
	defer r.RUnlock()

	var result []*meta.Build
	for _, b := range r.builds {
		if b.State == meta.BuildRunning {
			result = append(result, b.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// QueuedBuilds returns queued builds in the queue order
func (r *Registry) QueuedBuilds() []*meta.Build {
	r.RLock()
	defer r.RUnlock()

	result := make([]*meta.Build, 0, len(r.queue))
	for _, id := range r.queue {
		result = append(result, r.builds[id].Clone())
	}
	return result
}

// PartOfChain returns true if the build has dependencies or known dependents
func (r *Registry) PartOfChain(id uint64) bool {
	r.RLock()
	defer r.RUnlock()

	b, ok := r.builds[id]
	if !ok {
		return false
	}
	if len(b.Dependencies) > 0 {
		return true
	}
	return len(r.dependents(id)) > 0
}

// DependentCompositeBuilds returns known composite builds depending on the build
// directly or through other composite builds, from the top of the chain to the bottom
func (r *Registry) DependentCompositeBuilds(id uint64) []*meta.Build {
	r.RLock()
	defer r.RUnlock()

	// longest distance from the build, the top of the chain is the farthest
	depth := make(map[uint64]int)
	visiting := make(map[uint64]bool)
	var walk func(id uint64, d int)
	walk = func(id uint64, d int) {
		if visiting[id] {
			return
		}
		visiting[id] = true
		defer delete(visiting, id)

		for _, dep := range r.dependents(id) {
			if !dep.Composite {
				continue
			}
			if current, ok := depth[dep.ID]; ok && current >= d+1 {
				continue
			}
			depth[dep.ID] = d + 1
			walk(dep.ID, d+1)
		}
	}
	walk(id, 0)

	result := make([]*meta.Build, 0, len(depth))
	for depID := range depth {
		result = append(result, r.builds[depID].Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if depth[result[i].ID] != depth[result[j].ID] {
			return depth[result[i].ID] > depth[result[j].ID]
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (r *Registry) dependents(id uint64) []*meta.Build {
	var result []*meta.Build
	for _, b := range r.builds {
		for _, dep := range b.Dependencies {
			if dep == id {
				result = append(result, b)
				break
			}
		}
	}
	return result
}

func (r *Registry) mustState(id uint64, state meta.BuildState) (*meta.Build, error) {
	b, ok := r.builds[id]
	if !ok {
		return nil, errors.Wrapf(meta.ErrBuildNotFound, "build %d", id)
	}
	if b.State != state {
		return nil, errors.Wrapf(meta.ErrBuildState, "build %d is %s, expect %s",
			id,
			b.State.Name(),
			state.Name())
	}
	return b, nil
}

func (r *Registry) removeFromQueue(id uint64) {
	for i, value := range r.queue {
		if value == id {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			return
		}
	}
}

func (r *Registry) updateGauges() {
	metrics.BuildsGauge.WithLabelValues(metrics.StateQueued).Set(float64(len(r.queue)))
	metrics.BuildsGauge.WithLabelValues(metrics.StateRunning).Set(float64(len(r.builds) - len(r.queue)))
}

func (r *Registry) publish(topic string, b *meta.Build) {
	if r.hub != nil {
		r.hub.Publish(topic, event.FromBuild(b))
	}
}
