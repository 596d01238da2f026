package gc

import "errors"

var (
	// ErrStaleRoot indicates a root that is not a live allocation of this heap.
	ErrStaleRoot = errors.New("gc: root is not a live allocation")

	// ErrReentrant indicates a collection started while another was running.
	ErrReentrant = errors.New("gc: collection already in progress")
)
