package event

import (
	"sync"
	"testing"
	"time"

	"github.com/infinivision/buildlocks/pkg/meta"
	"github.com/stretchr/testify/assert"
)

func TestPublishAndSubscribe(t *testing.T) {
	h := NewHub()

	var lock sync.Mutex
	var received []uint64
	unsubscribe := h.Subscribe(BuildFinished, func(topic string, b Build) {
		lock.Lock()
		defer lock.Unlock()
		received = append(received, b.ID)
	})

	h.Publish(BuildStarted, FromBuild(&meta.Build{ID: 1}))
	h.Publish(BuildFinished, FromBuild(&meta.Build{ID: 2, ProjectID: "p1"}))
	h.Publish(BuildFinished, FromBuild(&meta.Build{ID: 3, ProjectID: "p1"}))

	assert.Eventually(t, func() bool {
		lock.Lock()
		defer lock.Unlock()
		return len(received) == 2
	}, time.Second, time.Millisecond*10, "check subscribe failed")

	lock.Lock()
	assert.Equal(t, []uint64{2, 3}, received, "check publish order failed")
	lock.Unlock()

	unsubscribe()
	h.Publish(BuildFinished, FromBuild(&meta.Build{ID: 4}))
	time.Sleep(time.Millisecond * 50)

	lock.Lock()
	defer lock.Unlock()
	assert.Equal(t, 2, len(received), "check unsubscribe failed")
}
