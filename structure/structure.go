// Package structure defines the atomic-structure payload object consumed and
// produced by atomstore containers.
package structure

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Structure is a single atomic configuration: ordered per-atom chemical
// species and positions, a periodic cell and boundary-condition flags, plus
// optional per-atom magnetic moments.
//
// Positions is an n×3 matrix of cartesian coordinates. Cell holds the three
// lattice vectors as rows of a 3×3 matrix. Spins is nil when the structure
// carries no magnetic moments, n×1 for collinear (scalar) moments or n×3 for
// non-collinear (vector) moments.
//
// A Structure handed to a container is never mutated by it.
type Structure struct {
	Symbols   []string
	Positions *mat.Dense
	Cell      *mat.Dense
	PBC       [3]bool
	Spins     *mat.Dense
}

// New creates a structure from per-atom symbols and positions. A nil cell is
// treated as a zero cell.
func New(symbols []string, positions *mat.Dense, cell *mat.Dense, pbc [3]bool) (*Structure, error) {
	if positions == nil {
		return nil, fmt.Errorf("structure: nil positions")
	}
	r, c := positions.Dims()
	if c != 3 {
		return nil, fmt.Errorf("structure: positions must have 3 columns, got %d", c)
	}
	if r != len(symbols) {
		return nil, fmt.Errorf("structure: %d symbols for %d positions", len(symbols), r)
	}
	if cell == nil {
		cell = mat.NewDense(3, 3, nil)
	} else if cr, cc := cell.Dims(); cr != 3 || cc != 3 {
		return nil, fmt.Errorf("structure: cell must be 3x3, got %dx%d", cr, cc)
	}
	return &Structure{
		Symbols:   symbols,
		Positions: positions,
		Cell:      cell,
		PBC:       pbc,
	}, nil
}

// Len returns the number of atoms.
func (s *Structure) Len() int {
	return len(s.Symbols)
}

// SetSpins attaches per-atom magnetic moments: an n×1 matrix for scalar
// moments or n×3 for vector moments. Passing nil clears them.
func (s *Structure) SetSpins(spins *mat.Dense) error {
	if spins == nil {
		s.Spins = nil
		return nil
	}
	r, c := spins.Dims()
	if r != s.Len() {
		return fmt.Errorf("structure: %d spins for %d atoms", r, s.Len())
	}
	if c != 1 && c != 3 {
		return fmt.Errorf("structure: spins must have 1 or 3 columns, got %d", c)
	}
	s.Spins = spins
	return nil
}

// SpinDim returns 0 when the structure carries no magnetic moments, 1 for
// scalar moments and 3 for vector moments.
func (s *Structure) SpinDim() int {
	if s.Spins == nil {
		return 0
	}
	_, c := s.Spins.Dims()
	return c
}

// Volume returns the cell volume, the absolute determinant of the lattice
// vectors.
func (s *Structure) Volume() float64 {
	return math.Abs(mat.Det(s.Cell))
}

// Elements returns the sorted unique chemical species in the structure.
func (s *Structure) Elements() []string {
	out := slices.Clone(s.Symbols)
	slices.Sort(out)
	return slices.Compact(out)
}

// Copy returns a deep copy of the structure.
func (s *Structure) Copy() *Structure {
	out := &Structure{
		Symbols: slices.Clone(s.Symbols),
		PBC:     s.PBC,
	}
	out.Positions = mat.DenseCopyOf(s.Positions)
	out.Cell = mat.DenseCopyOf(s.Cell)
	if s.Spins != nil {
		out.Spins = mat.DenseCopyOf(s.Spins)
	}
	return out
}

// Equal reports exact field-by-field equality: species order, positions,
// cell, boundary flags and magnetic moments.
func (s *Structure) Equal(o *Structure) bool {
	if s == nil || o == nil {
		return s == o
	}
	if !slices.Equal(s.Symbols, o.Symbols) || s.PBC != o.PBC {
		return false
	}
	if !mat.Equal(s.Positions, o.Positions) || !mat.Equal(s.Cell, o.Cell) {
		return false
	}
	if (s.Spins == nil) != (o.Spins == nil) {
		return false
	}
	if s.Spins != nil && !mat.Equal(s.Spins, o.Spins) {
		return false
	}
	return true
}
