package atomstore

import (
	"fmt"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/atomstore/internal/column"
	"github.com/hupe1980/atomstore/structure"
)

// Storage is a growable columnar container for atomic structures.
//
// Two counters size the container independently: the number of stored
// structures and the total number of atoms across them. Every per-structure
// array has one row per structure, every per-atom array one row per atom;
// structure i owns the contiguous atom rows [start_i, start_i+length_i).
// Buffers grow geometrically and never shrink; rows beyond the live counts
// hold fill values.
//
// Storage is single-writer: AddStructure, SetArray and growth must not run
// concurrently with anything else. Read accessors are safe to call
// concurrently with each other once ingestion has finished.
type Storage struct {
	opts options
	log  *Logger

	numStructures int
	numAtoms      int
	capStructures int
	capAtoms      int

	perStructure map[string]*entry
	perAtom      map[string]*entry

	bytes int64 // approximate buffer footprint for the WithMaxBytes budget
}

// New creates an empty container. WithCapacity pre-sizes it for the expected
// number of structures and atoms; the container still grows past the hint.
func New(optFns ...Option) *Storage {
	o := applyOptions(optFns)
	s := &Storage{
		opts:          o,
		log:           o.logger,
		capStructures: o.capStructures,
		capAtoms:      o.capAtoms,
		perStructure:  make(map[string]*entry),
		perAtom:       make(map[string]*entry),
	}
	s.registerDefaults()
	return s
}

// registerDefaults installs the arrays every container carries. The spins
// array is registered lazily by the first structure that supplies magnetic
// moments, since its element shape depends on them.
func (s *Storage) registerDefaults() {
	defaults := []ArrayDef{
		{Name: ArrayIdentifier, Kind: KindString, Per: PerStructure},
		{Name: ArrayCell, Kind: KindFloat, Shape: []int{3, 3}, Per: PerStructure},
		{Name: ArrayPBC, Kind: KindBool, Shape: []int{3}, Per: PerStructure},
		{Name: ArrayStart, Kind: KindInt, Per: PerStructure},
		{Name: ArrayLength, Kind: KindInt, Per: PerStructure},
		{Name: ArraySymbols, Kind: KindString, Per: PerAtom},
		{Name: ArrayPositions, Kind: KindFloat, Shape: []int{3}, Per: PerAtom},
	}
	for _, def := range defaults {
		if err := s.addArray(def, false); err != nil {
			panic(err) // only reachable with a corrupted default table
		}
	}
}

// Len returns the number of stored structures.
func (s *Storage) Len() int { return s.numStructures }

// NumStructures returns the number of stored structures.
func (s *Storage) NumStructures() int { return s.numStructures }

// NumAtoms returns the total number of atoms across all stored structures.
func (s *Storage) NumAtoms() int { return s.numAtoms }

// CapStructures returns the allocated structure capacity.
func (s *Storage) CapStructures() int { return s.capStructures }

// CapAtoms returns the allocated atom capacity.
func (s *Storage) CapAtoms() int { return s.capAtoms }

// reserve ensures capacity for addStructures more structures and addAtoms
// more atoms, growing every registered buffer geometrically if needed.
// On error live contents and counters are unchanged; the structure dimension
// may already have grown when the atom growth fails, which only raises spare
// capacity.
func (s *Storage) reserve(addStructures, addAtoms int) error {
	if need := s.numStructures + addStructures; need > s.capStructures {
		if err := s.grow(s.perStructure, s.capStructures, column.NextCap(s.capStructures, need), "structures"); err != nil {
			return err
		}
		s.capStructures = column.NextCap(s.capStructures, need)
	}
	if need := s.numAtoms + addAtoms; need > s.capAtoms {
		if err := s.grow(s.perAtom, s.capAtoms, column.NextCap(s.capAtoms, need), "atoms"); err != nil {
			return err
		}
		s.capAtoms = column.NextCap(s.capAtoms, need)
	}
	return nil
}

func (s *Storage) grow(arrays map[string]*entry, oldCap, newCap int, dim string) error {
	var delta int64
	for _, e := range arrays {
		delta += e.col.BytesPerRow() * int64(newCap-oldCap)
	}
	if s.opts.maxBytes > 0 && s.bytes+delta > s.opts.maxBytes {
		return fmt.Errorf("%w: growing %s from %d to %d needs %d more bytes", ErrAllocation, dim, oldCap, newCap, delta)
	}
	for _, e := range arrays {
		e.col.Resize(newCap)
	}
	s.bytes += delta
	s.log.Debug("grew capacity", "dim", dim, "from", oldCap, "to", newCap)
	return nil
}

// AddStructure appends one structure to the container.
//
// An empty identifier defaults to the stringified structure index at
// insertion time. Identifiers are not required to be unique; lookups by
// identifier resolve to the first match in insertion order.
//
// Extra per-structure or per-atom data is passed in extra. A value tagged
// PerAuto is treated as per-atom when its leading dimension equals the
// structure's atom count; otherwise as per-structure, with a unit leading
// dimension stripped. Unrecognized names are registered lazily with shape
// and kind inferred from the value; registration is idempotent, so the first
// definition wins.
func (s *Storage) AddStructure(st *structure.Structure, identifier string, extra map[string]Value) error {
	if st == nil {
		return fmt.Errorf("atomstore: nil structure")
	}
	n := st.Len()
	if identifier == "" {
		identifier = strconv.Itoa(s.numStructures)
	}

	if err := s.reserve(1, n); err != nil {
		return err
	}
	i, at := s.numStructures, s.numAtoms

	s.perStructure[ArrayIdentifier].col.SetStr(i, []string{identifier})
	s.perStructure[ArrayCell].col.SetF64(i, flattenDense(st.Cell))
	s.perStructure[ArrayPBC].col.SetB(i, st.PBC[:])
	s.perStructure[ArrayStart].col.SetI64(i, []int64{int64(at)})
	s.perStructure[ArrayLength].col.SetI64(i, []int64{int64(n)})
	s.perAtom[ArraySymbols].col.SetStr(at, st.Symbols)
	s.perAtom[ArrayPositions].col.SetF64(at, flattenDense(st.Positions))

	if st.Spins != nil {
		if err := s.writeSpins(st, i, at, n); err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(extra) {
		if err := s.writeExtra(name, extra[name], i, at, n); err != nil {
			return err
		}
	}

	s.numStructures++
	s.numAtoms += n
	s.log.Debug("added structure", "frame", i, "identifier", identifier, "atoms", n)
	return nil
}

// writeSpins lazily registers the spins array, with scalar or 3-vector
// element shape inferred from the first structure that supplies magnetic
// moments, and writes this structure's slice.
func (s *Storage) writeSpins(st *structure.Structure, i, at, n int) error {
	var shape []int
	if st.SpinDim() == 3 {
		shape = []int{3}
	}
	if err := s.AddArray(ArrayDef{Name: ArraySpins, Kind: KindFloat, Shape: shape, Per: PerAtom}); err != nil {
		return err
	}
	e := s.perAtom[ArraySpins]
	if e.def.Kind != KindFloat {
		return &ShapeError{Name: ArraySpins, Want: e.def.Shape, Got: shape, WantKind: e.def.Kind, GotKind: KindFloat}
	}
	if !slices.Equal(e.def.Shape, shape) {
		return &ShapeError{Name: ArraySpins, Want: e.def.Shape, Got: shape, WantKind: KindFloat, GotKind: KindFloat}
	}
	e.col.SetF64(at, flattenDense(st.Spins))
	return nil
}

// writeExtra registers (idempotently) and writes one extra value.
func (s *Storage) writeExtra(name string, v Value, i, at, n int) error {
	if !v.validate() {
		return fmt.Errorf("atomstore: invalid value for array %q", name)
	}

	per, elemShape := v.Per, v.Shape
	switch per {
	case PerAtom:
		if len(v.Shape) == 0 || v.Shape[0] != n {
			return &ShapeError{Name: name, Want: []int{n}, Got: v.Shape, WantKind: v.Kind, GotKind: v.Kind}
		}
		elemShape = v.Shape[1:]
	case PerStructure:
		// Shape is the element shape as given.
	default:
		if len(v.Shape) > 0 && v.Shape[0] == n {
			per, elemShape = PerAtom, v.Shape[1:]
		} else if len(v.Shape) > 0 && v.Shape[0] == 1 {
			per, elemShape = PerStructure, v.Shape[1:]
		} else {
			per = PerStructure
		}
	}

	if err := s.AddArray(ArrayDef{Name: name, Kind: v.Kind, Shape: elemShape, Per: per}); err != nil {
		return err
	}

	arrays := s.perStructure
	row, rows := i, 1
	if per == PerAtom {
		arrays, row, rows = s.perAtom, at, n
	}
	e := arrays[name]
	if e.def.Kind != v.Kind {
		return &ShapeError{Name: name, Want: e.def.Shape, Got: elemShape, WantKind: e.def.Kind, GotKind: v.Kind}
	}
	if !slices.Equal(e.def.Shape, elemShape) {
		return &ShapeError{Name: name, Want: e.def.Shape, Got: elemShape, WantKind: e.def.Kind, GotKind: v.Kind}
	}
	writeRows(e, row, rows, v)
	return nil
}

// writeRows copies the payload of v over rows [row, row+rows).
func writeRows(e *entry, row, rows int, v Value) {
	switch e.def.Kind {
	case KindFloat:
		e.col.SetF64(row, v.F64)
	case KindInt:
		e.col.SetI64(row, v.I64)
	case KindString:
		e.col.SetStr(row, v.S)
	case KindBool:
		e.col.SetB(row, v.B)
	}
}

// broadcastRows writes the scalar v into every element of rows [row, row+rows).
func broadcastRows(e *entry, row, rows int, v Value) {
	switch e.def.Kind {
	case KindFloat:
		dst := e.col.F64(row, rows)
		for i := range dst {
			dst[i] = v.F64[0]
		}
	case KindInt:
		dst := e.col.I64(row, rows)
		for i := range dst {
			dst[i] = v.I64[0]
		}
	case KindString:
		dst := e.col.Str(row, rows)
		for i := range dst {
			dst[i] = v.S[0]
		}
	case KindBool:
		dst := e.col.B(row, rows)
		for i := range dst {
			dst[i] = v.B[0]
		}
	}
}

// Frame addresses a stored structure either by insertion index or by
// identifier string.
type Frame struct {
	index int
	id    string
	byID  bool
}

// Index addresses a structure by insertion index.
func Index(i int) Frame { return Frame{index: i} }

// ID addresses a structure by identifier.
func ID(id string) Frame { return Frame{id: id, byID: true} }

// String returns the frame's address for error messages.
func (f Frame) String() string {
	if f.byID {
		return strconv.Quote(f.id)
	}
	return strconv.Itoa(f.index)
}

// Find returns the index of the first stored structure with the given
// identifier.
func (s *Storage) Find(identifier string) (int, error) {
	ids := s.perStructure[ArrayIdentifier].col.Str(0, s.numStructures)
	for i, id := range ids {
		if id == identifier {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: identifier %q", ErrNotFound, identifier)
}

// resolve maps a frame to a structure index.
func (s *Storage) resolve(f Frame) (int, error) {
	if f.byID {
		return s.Find(f.id)
	}
	if f.index < 0 || f.index >= s.numStructures {
		return 0, fmt.Errorf("%w: structure index %d of %d", ErrNotFound, f.index, s.numStructures)
	}
	return f.index, nil
}

// atomRange returns the atom rows owned by structure i.
func (s *Storage) atomRange(i int) (start, length int) {
	start = int(s.perStructure[ArrayStart].col.I64(i, 1)[0])
	length = int(s.perStructure[ArrayLength].col.I64(i, 1)[0])
	return start, length
}

// GetArray returns the data of the named array for one structure: the single
// row of a per-structure array, or the atom slice of a per-atom array. The
// returned payload aliases the container's buffers; treat it as read-only or
// Clone it.
//
// Per-atom arrays shadow per-structure arrays of the same name.
func (s *Storage) GetArray(name string, frame Frame) (Value, error) {
	i, err := s.resolve(frame)
	if err != nil {
		return Value{}, err
	}
	e, err := s.lookup(name)
	if err != nil {
		return Value{}, err
	}
	if e.def.Per == PerAtom {
		start, length := s.atomRange(i)
		return viewRows(e, start, length, true), nil
	}
	return viewRows(e, i, 1, false), nil
}

// RawArray returns the live rows of a whole array: all structures of a
// per-structure array, or all atoms of a per-atom array, with the live count
// as leading dimension. The payload aliases the container's buffers.
func (s *Storage) RawArray(name string) (Value, error) {
	e, err := s.lookup(name)
	if err != nil {
		return Value{}, err
	}
	rows := s.numStructures
	if e.def.Per == PerAtom {
		rows = s.numAtoms
	}
	return viewRows(e, 0, rows, true), nil
}

// viewRows wraps rows [start, start+rows) of e's column in a Value without
// copying. With leading set, the row count becomes the leading dimension of
// the value's shape.
func viewRows(e *entry, start, rows int, leading bool) Value {
	v := Value{Kind: e.def.Kind, Per: e.def.Per}
	if leading {
		v.Shape = append([]int{rows}, e.def.Shape...)
	} else {
		v.Shape = slices.Clone(e.def.Shape)
	}
	switch e.def.Kind {
	case KindFloat:
		v.F64 = e.col.F64(start, rows)
	case KindInt:
		v.I64 = e.col.I64(start, rows)
	case KindString:
		v.S = e.col.Str(start, rows)
	case KindBool:
		v.B = e.col.B(start, rows)
	}
	return v
}

// SetArray overwrites the named array's data for one structure: the single
// row of a per-structure array, or the whole atom slice of a per-atom array.
// The value's shape must match the target exactly, except that a scalar is
// broadcast over every element. Writing to one structure never touches
// another's data.
func (s *Storage) SetArray(name string, frame Frame, v Value) error {
	i, err := s.resolve(frame)
	if err != nil {
		return err
	}
	e, err := s.lookup(name)
	if err != nil {
		return err
	}
	if !v.validate() {
		return fmt.Errorf("atomstore: invalid value for array %q", name)
	}
	if v.Kind != e.def.Kind {
		return &ShapeError{Name: name, Want: e.def.Shape, Got: v.Shape, WantKind: e.def.Kind, GotKind: v.Kind}
	}

	row, rows := i, 1
	want := e.def.Shape
	if e.def.Per == PerAtom {
		start, length := s.atomRange(i)
		row, rows = start, length
		want = append([]int{length}, e.def.Shape...)
	}
	switch {
	case slices.Equal(v.Shape, want):
		writeRows(e, row, rows, v)
	case v.IsScalar():
		broadcastRows(e, row, rows, v)
	default:
		return &ShapeError{Name: name, Want: want, Got: v.Shape, WantKind: e.def.Kind, GotKind: v.Kind}
	}
	return nil
}

// GetStructure rebuilds the structure stored at the given frame. The result
// is a deep copy: it shares no memory with the container.
//
// If a spins array is registered, the corresponding slice is attached to
// every reconstructed structure, including ones that were added without
// magnetic moments (their rows hold the fill value).
func (s *Storage) GetStructure(frame Frame) (*structure.Structure, error) {
	i, err := s.resolve(frame)
	if err != nil {
		return nil, err
	}
	return s.buildStructure(i), nil
}

// buildStructure reconstructs structure i. The index must be live.
func (s *Storage) buildStructure(i int) *structure.Structure {
	start, length := s.atomRange(i)

	symbols := slices.Clone(s.perAtom[ArraySymbols].col.Str(start, length))
	positions := mat.NewDense(length, 3, slices.Clone(s.perAtom[ArrayPositions].col.F64(start, length)))
	cell := mat.NewDense(3, 3, slices.Clone(s.perStructure[ArrayCell].col.F64(i, 1)))
	var pbc [3]bool
	copy(pbc[:], s.perStructure[ArrayPBC].col.B(i, 1))

	st, err := structure.New(symbols, positions, cell, pbc)
	if err != nil {
		panic(err) // stored slices are consistent by construction
	}
	if e, ok := s.perAtom[ArraySpins]; ok && e.def.Kind == KindFloat {
		spins := mat.NewDense(length, e.def.elems(), slices.Clone(e.col.F64(start, length)))
		if err := st.SetSpins(spins); err != nil {
			panic(err)
		}
	}
	return st
}

// IterStructures calls fn for each stored structure in insertion order.
// Return false from fn to stop. The iteration is restartable: each call
// starts from the first structure.
func (s *Storage) IterStructures(fn func(i int, st *structure.Structure) bool) {
	for i := 0; i < s.numStructures; i++ {
		if !fn(i, s.buildStructure(i)) {
			return
		}
	}
}

// GetElements returns the sorted unique chemical species across all stored
// structures.
func (s *Storage) GetElements() []string {
	symbols := s.perAtom[ArraySymbols].col.Str(0, s.numAtoms)
	out := slices.Clone(symbols)
	slices.Sort(out)
	return slices.Compact(out)
}

// flattenDense returns the row-major elements of m. The result may alias m's
// backing data; callers must copy before retaining it.
func flattenDense(m *mat.Dense) []float64 {
	r, c := m.Dims()
	raw := m.RawMatrix()
	if raw.Stride == c {
		return raw.Data[:r*c]
	}
	out := make([]float64, r*c)
	for i := 0; i < r; i++ {
		copy(out[i*c:(i+1)*c], raw.Data[i*raw.Stride:i*raw.Stride+c])
	}
	return out
}

// sortedKeys returns the keys of extra in lexical order, for deterministic
// registration.
func sortedKeys(extra map[string]Value) []string {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
