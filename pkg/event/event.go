package event

import (
	"github.com/infinivision/buildlocks/pkg/meta"
	"github.com/juju/pubsub/v2"
)

const (
	// BuildQueued a build was added to the queue
	BuildQueued = "build.queued"
	// BuildStarted a build was started, its locks are resolved
	BuildStarted = "build.started"
	// BuildFinished a build reached the terminal state
	BuildFinished = "build.finished"
	// BuildRemoved a queued build was removed from the queue without start
	BuildRemoved = "build.removed"
)

// Build build lifecycle event payload
type Build struct {
	ID        uint64
	ProjectID string
	Composite bool
}

// FromBuild returns the event payload of the build
func FromBuild(b *meta.Build) Build {
	return Build{
		ID:        b.ID,
		ProjectID: b.ProjectID,
		Composite: b.Composite,
	}
}

// Hub build lifecycle event stream. Handlers are called asynchronously,
// each subscriber receives the events in the publish order.
type Hub struct {
	hub *pubsub.SimpleHub
}

// NewHub returns a hub
func NewHub() *Hub {
	return &Hub{
		hub: pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{}),
	}
}

// Publish publishes the build event to the topic
func (h *Hub) Publish(topic string, b Build) {
	h.hub.Publish(topic, b)
}

// Subscribe subscribes the handler to the topic, returns the unsubscribe func
func (h *Hub) Subscribe(topic string, handler func(topic string, b Build)) func() {
	return h.hub.Subscribe(topic, func(topic string, data interface{}) {
		if b, ok := data.(Build); ok {
			handler(topic, b)
		}
	})
}
