package services

import (
	"errors"
	"routeflow/internal/ports"
)

// Caller-level preconditions checked before the optimizer is invoked.
var (
	ErrNoStops            = errors.New("no stops to optimize")
	ErrStartRequired      = errors.New("start location is required")
	ErrInvalidCoordinates = errors.New("coordinates out of range")
	ErrInvalidStop        = errors.New("stop needs an address or coordinates")
	ErrInvalidRoute       = errors.New("route name is required")
	ErrDuplicateStop      = errors.New("duplicate stop id")
	ErrNotFound           = ports.ErrNotFound
	ErrAddressNotFound    = ports.ErrAddressNotFound
)
