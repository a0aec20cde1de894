package attack

import "errors"

var (
	ErrAlreadyInitiated  = errors.New("attack: already initiated")
	ErrNotInitiated      = errors.New("attack: not initiated")
	ErrNilOwner          = errors.New("attack: nil owner")
	ErrNilAttack         = errors.New("attack: slot has no attack")
	ErrSlotOutOfRange    = errors.New("attack: slot index out of range")
	ErrUnknownCondition  = errors.New("attack: unknown condition")
	ErrInvalidDefinition = errors.New("attack: invalid definition")
	ErrNoTargetFinder    = errors.New("attack: range condition has no target finder")
)
