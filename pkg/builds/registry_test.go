package builds

import (
	"sync"
	"testing"
	"time"

	"github.com/infinivision/buildlocks/pkg/event"
	"github.com/infinivision/buildlocks/pkg/meta"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func ids(builds []*meta.Build) []uint64 {
	var result []uint64
	for _, b := range builds {
		result = append(result, b.ID)
	}
	return result
}

func TestLifecycle(t *testing.T) {
	hub := event.NewHub()
	var lock sync.Mutex
	var finished []uint64
	hub.Subscribe(event.BuildFinished, func(topic string, b event.Build) {
		lock.Lock()
		defer lock.Unlock()
		finished = append(finished, b.ID)
	})

	r := NewRegistry(hub)
	assert.Nil(t, r.Queue(&meta.Build{ID: 2, ProjectID: "p1"}), "check queue failed")
	assert.Nil(t, r.Queue(&meta.Build{ID: 1, ProjectID: "p1"}), "check queue failed")
	assert.Nil(t, r.Queue(&meta.Build{ID: 3, ProjectID: "p1"}), "check queue failed")

	err := r.Queue(&meta.Build{ID: 1})
	assert.Equal(t, meta.ErrBuildExists, errors.Cause(err), "check queue exists failed")
	assert.Equal(t, []uint64{2, 1, 3}, ids(r.QueuedBuilds()), "check queue order failed")

	b, err := r.Start(1, map[string]string{"teamcity.locks.readLock.r": "v1"})
	assert.Nilf(t, err, "check start failed with %+v", err)
	assert.Equal(t, meta.BuildRunning, b.State, "check start failed")
	assert.Equal(t, "v1", b.Parameters["teamcity.locks.readLock.r"], "check start parameters failed")
	assert.Equal(t, []uint64{2, 3}, ids(r.QueuedBuilds()), "check queue after start failed")
	assert.Equal(t, []uint64{1}, ids(r.RunningBuilds()), "check running failed")

	_, err = r.Start(1, nil)
	assert.Equal(t, meta.ErrBuildState, errors.Cause(err), "check start running failed")

	err = r.Finish(2)
	assert.Equal(t, meta.ErrBuildState, errors.Cause(err), "check finish queued failed")

	assert.Nil(t, r.Finish(1), "check finish failed")
	_, err = r.Build(1)
	assert.Equal(t, meta.ErrBuildNotFound, errors.Cause(err), "check finished build failed")

	assert.Nil(t, r.Remove(3), "check remove failed")
	assert.Equal(t, []uint64{2}, ids(r.QueuedBuilds()), "check remove failed")

	assert.Eventually(t, func() bool {
		lock.Lock()
		defer lock.Unlock()
		return len(finished) == 1 && finished[0] == 1
	}, time.Second, time.Millisecond*10, "check finished event failed")
}

func TestAttributes(t *testing.T) {
	r := NewRegistry(nil)
	assert.Nil(t, r.Queue(&meta.Build{ID: 1}), "check queue failed")
	assert.Nil(t, r.SetAttribute(1, "k", "v"), "check set attribute failed")

	b, err := r.Build(1)
	assert.Nilf(t, err, "check build failed with %+v", err)
	value, ok := b.Attribute("k")
	assert.True(t, ok, "check attribute failed")
	assert.Equal(t, "v", value, "check attribute failed")

	// copies are returned
	b.SetAttribute("k", "changed")
	b, _ = r.Build(1)
	value, _ = b.Attribute("k")
	assert.Equal(t, "v", value, "check build copy failed")

	err = r.SetAttribute(2, "k", "v")
	assert.Equal(t, meta.ErrBuildNotFound, errors.Cause(err), "check missing build failed")
}

func TestDependentCompositeBuilds(t *testing.T) {
	r := NewRegistry(nil)
	// top(5) -> mid(4) -> b(1), top(5) -> b(1), other(6) -> b(1) is not composite
	r.Queue(&meta.Build{ID: 1})
	r.Queue(&meta.Build{ID: 2})
	r.Queue(&meta.Build{ID: 4, Composite: true, Dependencies: []uint64{1}})
	r.Queue(&meta.Build{ID: 5, Composite: true, Dependencies: []uint64{4, 1}})
	r.Queue(&meta.Build{ID: 6, Dependencies: []uint64{1}})
	r.Queue(&meta.Build{ID: 7, Composite: true, Dependencies: []uint64{6}})

	assert.Equal(t, []uint64{5, 4}, ids(r.DependentCompositeBuilds(1)), "check chain order failed")
	assert.Equal(t, 0, len(r.DependentCompositeBuilds(2)), "check no chain failed")
	assert.Equal(t, []uint64{5}, ids(r.DependentCompositeBuilds(4)), "check chain failed")

	assert.True(t, r.PartOfChain(1), "check part of chain failed")
	assert.True(t, r.PartOfChain(5), "check part of chain failed")
	assert.False(t, r.PartOfChain(2), "check part of chain failed")
	assert.False(t, r.PartOfChain(100), "check part of chain failed")
}
