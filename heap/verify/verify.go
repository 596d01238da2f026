// Package verify provides validation functions for heap and allocation-table
// invariants. These helpers are used in tests and by heapctl to ensure the
// allocator and collector keep the heap consistent.
package verify

import (
	"fmt"

	"github.com/joshuapare/marksweep/heap"
	"github.com/joshuapare/marksweep/heap/alloc"
	"github.com/joshuapare/marksweep/internal/buf"
)

// ValidationError describes the first invariant violation found.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset %d: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AllInvariants validates all heap invariants in one call.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(h *heap.Heap, t *alloc.Table) error {
	if err := Layout(h, t); err != nil {
		return err
	}
	if err := Index(t); err != nil {
		return err
	}
	if err := Usage(t); err != nil {
		return err
	}
	return nil
}

// Layout validates that live allocations are non-empty, in bounds, sorted by
// start and non-overlapping.
func Layout(h *heap.Heap, t *alloc.Table) error {
	prevEnd := 0
	for i, a := range t.Live() {
		if a.Length <= 0 {
			return &ValidationError{
				Type:    "Layout",
				Message: fmt.Sprintf("allocation %d has length %d", i, a.Length),
				Offset:  a.Start,
			}
		}
		if a.Start < prevEnd {
			return &ValidationError{
				Type:    "Layout",
				Message: fmt.Sprintf("allocation %d %v overlaps or precedes previous end %d", i, a, prevEnd),
				Offset:  a.Start,
			}
		}
		if _, err := buf.CheckRange(h.Size(), a.Start, a.Length); err != nil {
			return &ValidationError{
				Type:    "Layout",
				Message: fmt.Sprintf("allocation %d %v: %v", i, a, err),
				Offset:  a.Start,
			}
		}
		prevEnd = a.End()
	}
	return nil
}

// Index validates that every live allocation resolves through its tagged
// start to itself.
func Index(t *alloc.Table) error {
	if t.IndexLen() != t.Len() {
		return &ValidationError{
			Type:    "Index",
			Message: fmt.Sprintf("index has %d entries for %d live allocations", t.IndexLen(), t.Len()),
			Offset:  -1,
		}
	}
	for i, a := range t.Live() {
		got, ok := t.Lookup(a.Tag())
		if !ok {
			return &ValidationError{
				Type:    "Index",
				Message: fmt.Sprintf("allocation %d %v missing from index", i, a),
				Offset:  a.Start,
			}
		}
		if got != a {
			return &ValidationError{
				Type:    "Index",
				Message: fmt.Sprintf("allocation %d %v indexed as %v", i, a, got),
				Offset:  a.Start,
			}
		}
	}
	return nil
}

// Usage validates that the table's usage counter equals the sum of live lengths.
func Usage(t *alloc.Table) error {
	sum := 0
	for _, a := range t.Live() {
		sum += a.Length
	}
	if sum != t.Usage() {
		return &ValidationError{
			Type:    "Usage",
			Message: fmt.Sprintf("usage %d, live lengths sum to %d", t.Usage(), sum),
			Offset:  -1,
		}
	}
	return nil
}
