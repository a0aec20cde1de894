package entity

import "errors"

var (
	ErrInvalidComponentType = errors.New("entity: type does not implement Component")
	ErrDuplicateComponent   = errors.New("entity: component already attached")
	ErrComponentBound       = errors.New("entity: component is bound to another entity")
	ErrNotCloneable         = errors.New("entity: component cannot be cloned")
	ErrEntityDisposed       = errors.New("entity: entity is disposed")
)
