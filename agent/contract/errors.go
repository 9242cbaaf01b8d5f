package contract

import "errors"

var (
	ErrModelUnreachable = errors.New("chat model unreachable")
	ErrValidation       = errors.New("validation failed")
)
