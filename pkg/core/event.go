package core

import (
	"github.com/fagongzi/log"
	"github.com/infinivision/buildlocks/pkg/event"
	"github.com/infinivision/buildlocks/pkg/metrics"
	"github.com/infinivision/buildlocks/pkg/util"
)

type eventListener interface {
	OnEvent(topic string, b event.Build)
}

type metricsListener struct{}

func (m *metricsListener) OnEvent(topic string, b event.Build) {
	metrics.EventCounter.WithLabelValues(topic).Inc()
}

type logListener struct{}

func (l *logListener) OnEvent(topic string, b event.Build) {
	log.Debugf("[build-%d]: event %s, project %s",
		b.ID,
		topic,
		b.ProjectID)
}

type dispatchListener struct {
	c *Coordinator
}

func (d *dispatchListener) OnEvent(topic string, b event.Build) {
	if topic == event.BuildStarted {
		return
	}

	err := util.After(d.c.opts.dispatchDelay, func() {
		if _, err := d.c.Dispatch(); err != nil {
			log.Errorf("[build-%d]: dispatch after %s failed with %+v",
				b.ID,
				topic,
				err)
		}
	})
	if err != nil {
		log.Errorf("[build-%d]: schedule dispatch failed with %+v",
			b.ID,
			err)
	}
}

func (c *Coordinator) initEvents() {
	if c.opts.hub == nil {
		return
	}

	listeners := []eventListener{&metricsListener{}, &logListener{}}
	if c.opts.dispatchDelay > 0 {
		listeners = append(listeners, &dispatchListener{c: c})
	}
	for _, topic := range []string{event.BuildQueued, event.BuildStarted, event.BuildFinished, event.BuildRemoved} {
		c.listeners = append(c.listeners, c.opts.hub.Subscribe(topic, func(topic string, b event.Build) {
			for _, l := range listeners {
				l.OnEvent(topic, b)
			}
		}))
	}
}
