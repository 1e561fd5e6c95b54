package errs

import (
	"errors"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidCursor     = errors.New("invalid cursor token")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrVersionConflict   = errors.New("booking was modified concurrently")
	ErrSlotTaken         = errors.New("room time slot already has an approved booking")
	ErrUpstream          = errors.New("upstream call failed")
)
