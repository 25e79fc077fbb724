package atomstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a frame does not resolve to a stored
	// structure or an array name is not registered.
	//
	// Implementations wrap it with context; check with errors.Is.
	ErrNotFound = errors.New("atomstore: not found")

	// ErrBadFormat is returned by FromHDF when the persisted group is missing
	// required counters or array metadata.
	ErrBadFormat = errors.New("atomstore: bad persisted format")

	// ErrAllocation is returned when capacity growth would exceed the
	// configured memory budget. The container is left untouched, but callers
	// should treat the error as unrecoverable for the intended ingestion.
	ErrAllocation = errors.New("atomstore: allocation budget exceeded")
)

// ShapeError indicates that a value is incompatible with an array's declared
// element shape or kind.
type ShapeError struct {
	Name     string
	Want     []int
	Got      []int
	WantKind Kind
	GotKind  Kind
}

func (e *ShapeError) Error() string {
	if e.WantKind != e.GotKind {
		return fmt.Sprintf("array %q holds %s values, got %s", e.Name, e.WantKind, e.GotKind)
	}
	return fmt.Sprintf("shape mismatch for array %q: want %v, got %v", e.Name, e.Want, e.Got)
}
