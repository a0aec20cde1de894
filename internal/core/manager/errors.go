package manager

import "errors"

var (
	ErrNilTemplate      = errors.New("manager: nil template")
	ErrActivationFailed = errors.New("manager: entity activation failed")
)
