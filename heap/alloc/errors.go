package alloc

import "errors"

var (
	// ErrNoSpace indicates that no gap was found even after growing the heap.
	ErrNoSpace = errors.New("alloc: no free space after grow")

	// ErrNeedSmall indicates a request for fewer than one word.
	ErrNeedSmall = errors.New("alloc: size must be at least one word")

	// ErrNotLive indicates an allocation that is not in the live set
	// (already freed, swept, or owned by another heap).
	ErrNotLive = errors.New("alloc: allocation is not live")

	// ErrGrowFail indicates that growing the heap failed.
	ErrGrowFail = errors.New("alloc: grow failed")

	// ErrUnknownStrategy indicates an unrecognized allocation strategy name.
	ErrUnknownStrategy = errors.New("alloc: unknown strategy")
)
