package manager

import "github.com/warwolfworks/wolfcore/internal/core/entity"

// InstantiatedEvent is the payload of bus.EntityInstantiated.
type InstantiatedEvent struct {
	Entity *entity.Entity `json:"entity"`
}

// DestroyedEvent is the payload of bus.EntityDestroyed. Official is false
// for entities removed through DestroyUnofficially.
type DestroyedEvent struct {
	Entity   *entity.Entity `json:"entity"`
	Official bool           `json:"official"`
}
