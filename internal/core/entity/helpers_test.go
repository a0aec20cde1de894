package entity

import (
	"errors"

	"github.com/warwolfworks/wolfcore/internal/core/events/bus"
)

type recorder struct {
	BaseComponent
	label string
	log   *[]string
}

func (r *recorder) note(s string) {
	if r.log != nil {
		*r.log = append(*r.log, r.label+":"+s)
	}
}

func (r *recorder) OnAwake()         { r.note("awake") }
func (r *recorder) OnStart()         { r.note("start") }
func (r *recorder) OnEnabled()       { r.note("enable") }
func (r *recorder) OnUpdate(float64) { r.note("update") }
func (r *recorder) OnFixed(float64)  { r.note("fixed") }
func (r *recorder) OnDisabled()      { r.note("disable") }
func (r *recorder) OnDestroyed()     { r.note("destroy") }
func (r *recorder) CloneComponent() (Component, error) {
	return &recorder{label: r.label, log: r.log}, nil
}

type other struct {
	BaseComponent
}

type tagger interface {
	Tag() string
}

func (o *other) Tag() string { return "other" }

type broken struct {
	BaseComponent
}

func (b *broken) CloneComponent() (Component, error) {
	return nil, errors.New("asset missing")
}

type notAComponent struct{}

type fakeHost struct {
	unregistered []*Entity
	finished     []*Entity
	bus          bus.EventBus
}

func (h *fakeHost) Unregister(e *Entity) bool {
	h.unregistered = append(h.unregistered, e)
	return true
}

func (h *fakeHost) FinishDestroy(e *Entity) {
	h.finished = append(h.finished, e)
	e.Dispose()
}

func (h *fakeHost) Publish(events ...bus.Event) error {
	if h.bus == nil {
		return nil
	}
	return h.bus.PublishBatch(events...)
}
