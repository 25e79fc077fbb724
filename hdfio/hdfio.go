// Package hdfio abstracts the hierarchical group storage that atomstore
// containers persist into.
//
// A Group is a node in a tree of named subgroups and named typed datasets,
// mirroring the HDF5 data model. The package ships three backends: MemGroup,
// a plain in-memory tree; Snapshot, a compressed single-blob encoding of a
// MemGroup tree; and H5File, an adapter over a real HDF5 file.
package hdfio

import "errors"

var (
	// ErrNotFound is returned when a named group or dataset does not exist.
	ErrNotFound = errors.New("hdfio: not found")

	// ErrReadOnly is returned when writing through a read-only handle.
	ErrReadOnly = errors.New("hdfio: read-only")

	// ErrBadSnapshot is returned when snapshot bytes are corrupt or
	// truncated.
	ErrBadSnapshot = errors.New("hdfio: bad snapshot")
)

// Group is one node of a hierarchical store. Dataset names and subgroup
// names share one namespace within a group.
//
// Put methods replace an existing dataset of the same name. CreateGroup
// returns the existing subgroup when the name is already taken by one.
type Group interface {
	// CreateGroup returns the named subgroup, creating it if needed.
	CreateGroup(name string) (Group, error)
	// OpenGroup returns the named subgroup or ErrNotFound.
	OpenGroup(name string) (Group, error)
	// Groups returns the subgroup names in lexical order.
	Groups() ([]string, error)
	// Datasets returns the dataset names in lexical order.
	Datasets() ([]string, error)

	PutFloats(name string, data []float64) error
	PutInts(name string, data []int64) error
	PutStrings(name string, data []string) error
	PutBools(name string, data []bool) error

	// Floats returns the named float64 dataset or ErrNotFound.
	Floats(name string) ([]float64, error)
	// Ints returns the named int64 dataset or ErrNotFound.
	Ints(name string) ([]int64, error)
	// Strings returns the named string dataset or ErrNotFound.
	Strings(name string) ([]string, error)
	// Bools returns the named boolean dataset or ErrNotFound.
	Bools(name string) ([]bool, error)
}
