package atomstore

import (
	"fmt"
	"slices"

	"github.com/hupe1980/atomstore/internal/column"
)

// Names of the default arrays every container carries.
const (
	ArrayIdentifier = "identifier"
	ArrayCell       = "cell"
	ArrayPBC        = "pbc"
	ArrayStart      = "start"
	ArrayLength     = "length"
	ArraySymbols    = "symbols"
	ArrayPositions  = "positions"
	ArraySpins      = "spins"
)

// ArrayDef describes a registered array: its element kind, element shape
// (excluding the leading structure/atom dimension, nil for scalar elements),
// per kind and fill value.
//
// Fill is a scalar Value of the same kind; the zero Value means zero/empty
// fill.
type ArrayDef struct {
	Name  string
	Kind  Kind
	Shape []int
	Per   Per
	Fill  Value
}

// elems returns the number of elements per row.
func (d ArrayDef) elems() int { return numElems(d.Shape) }

func (d ArrayDef) validate() error {
	if d.Name == "" {
		return fmt.Errorf("atomstore: empty array name")
	}
	if d.Kind == KindInvalid || d.Kind > KindBool {
		return fmt.Errorf("atomstore: array %q has invalid kind", d.Name)
	}
	if d.Per != PerStructure && d.Per != PerAtom {
		return fmt.Errorf("atomstore: array %q must be per structure or per atom", d.Name)
	}
	for _, dim := range d.Shape {
		if dim < 1 {
			return fmt.Errorf("atomstore: array %q has invalid shape %v", d.Name, d.Shape)
		}
	}
	if d.Fill.Kind != KindInvalid {
		if d.Fill.Kind != d.Kind {
			return fmt.Errorf("atomstore: array %q fill kind %s does not match %s", d.Name, d.Fill.Kind, d.Kind)
		}
		if !d.Fill.IsScalar() || !d.Fill.validate() {
			return fmt.Errorf("atomstore: array %q fill must be scalar", d.Name)
		}
	}
	return nil
}

// defaultArray reports whether name is one of the arrays every container
// carries for the given per kind. Defaults are exempt from the memory
// budget, on construction and when restoring a persisted container alike.
func defaultArray(name string, per Per) bool {
	if per == PerAtom {
		return name == ArraySymbols || name == ArrayPositions
	}
	switch name {
	case ArrayIdentifier, ArrayCell, ArrayPBC, ArrayStart, ArrayLength:
		return true
	}
	return false
}

// entry binds an array definition to its backing column.
type entry struct {
	def ArrayDef
	col *column.Column
}

// newColumn allocates the backing column for def with the given row count.
func newColumn(def ArrayDef, rows int) *column.Column {
	elem := def.elems()
	switch def.Kind {
	case KindFloat:
		fill, _ := def.Fill.AsFloat64()
		return column.NewFloat64(elem, rows, fill)
	case KindInt:
		fill, _ := def.Fill.AsInt64()
		return column.NewInt64(elem, rows, fill)
	case KindString:
		fill, _ := def.Fill.AsString()
		return column.NewString(elem, rows, fill)
	case KindBool:
		fill, _ := def.Fill.AsBool()
		return column.NewBool(elem, rows, fill)
	default:
		panic(fmt.Sprintf("atomstore: invalid kind %d", def.Kind))
	}
}

// AddArray registers a custom array. The backing buffer is sized to the
// current capacity for the array's per kind and filled with the fill value.
//
// Registering a name that already exists for the same per kind is a silent
// no-op regardless of the new arguments; the original definition wins. This
// is intentional so ingestion can register defensively on every insert.
func (s *Storage) AddArray(def ArrayDef) error {
	return s.addArray(def, true)
}

// addArray implements AddArray. The built-in defaults registered by New are
// exempt from the memory budget so a small budget cannot fail construction.
func (s *Storage) addArray(def ArrayDef, budgeted bool) error {
	if err := def.validate(); err != nil {
		return err
	}
	def.Shape = slices.Clone(def.Shape)

	arrays, rows := s.perStructure, s.capStructures
	if def.Per == PerAtom {
		arrays, rows = s.perAtom, s.capAtoms
	}
	if _, ok := arrays[def.Name]; ok {
		return nil
	}

	col := newColumn(def, rows)
	grown := col.BytesPerRow() * int64(rows)
	if budgeted && s.opts.maxBytes > 0 && s.bytes+grown > s.opts.maxBytes {
		return fmt.Errorf("%w: array %q needs %d bytes", ErrAllocation, def.Name, grown)
	}
	arrays[def.Name] = &entry{def: def, col: col}
	s.bytes += grown
	s.log.Debug("registered array", "array", def.Name, "per", def.Per.String(), "kind", def.Kind.String(), "shape", def.Shape)
	return nil
}

// HasArray returns the definition of a registered array. Per-atom arrays
// shadow per-structure arrays of the same name, mirroring GetArray. The
// lookup never allocates.
func (s *Storage) HasArray(name string) (ArrayDef, bool) {
	if e, ok := s.perAtom[name]; ok {
		return e.def, true
	}
	if e, ok := s.perStructure[name]; ok {
		return e.def, true
	}
	return ArrayDef{}, false
}

// lookup resolves an array name, preferring the per-atom registry.
func (s *Storage) lookup(name string) (*entry, error) {
	if e, ok := s.perAtom[name]; ok {
		return e, nil
	}
	if e, ok := s.perStructure[name]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: array %q", ErrNotFound, name)
}

// sortedNames returns the registered names of one per kind in lexical order,
// for deterministic iteration.
func sortedNames(arrays map[string]*entry) []string {
	names := make([]string, 0, len(arrays))
	for name := range arrays {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
