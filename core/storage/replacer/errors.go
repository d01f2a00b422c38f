package replacer

import "errors"

var (
	// ErrOutOfRange is returned when a frame id falls outside [0, poolSize).
	ErrOutOfRange = errors.New("replacer: frame id out of range")
	// ErrNotTracked is returned by SetEvictable on a frame with no recorded access.
	ErrNotTracked = errors.New("replacer: frame has no recorded access")
)
