package atomstore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/atomstore/hdfio"
)

// DefaultHDFGroup is the group name ToHDF and FromHDF use when none is
// given.
const DefaultHDFGroup = "structures"

// Persisted layout, under one named subgroup of the target:
//
//	<name>/
//	    num_structures, num_atoms             live counts
//	    num_structures_alloc, num_atoms_alloc capacities, read back as hints
//	    per_structure_arrays/<array>/         kind, shape, data, fill
//	    per_atom_arrays/<array>/              kind, shape, data, fill
//
// Each array subgroup carries its registry metadata alongside the live rows,
// so a round trip restores custom arrays without re-registration. The
// per-kind split encodes which dimension an array follows.

// ToHDF writes the container into a subgroup of g. An empty name selects
// DefaultHDFGroup. Only live rows are written; the allocated tails are not.
func (s *Storage) ToHDF(g hdfio.Group, name string) error {
	if name == "" {
		name = DefaultHDFGroup
	}
	sub, err := g.CreateGroup(name)
	if err != nil {
		return err
	}

	if err := sub.PutInts("num_structures", []int64{int64(s.numStructures)}); err != nil {
		return err
	}
	if err := sub.PutInts("num_atoms", []int64{int64(s.numAtoms)}); err != nil {
		return err
	}
	if err := sub.PutInts("num_structures_alloc", []int64{int64(s.capStructures)}); err != nil {
		return err
	}
	if err := sub.PutInts("num_atoms_alloc", []int64{int64(s.capAtoms)}); err != nil {
		return err
	}

	if err := writeArrays(sub, "per_structure_arrays", s.perStructure, s.numStructures); err != nil {
		return err
	}
	if err := writeArrays(sub, "per_atom_arrays", s.perAtom, s.numAtoms); err != nil {
		return err
	}
	s.log.Debug("wrote container", "group", name, "structures", s.numStructures, "atoms", s.numAtoms)
	return nil
}

func writeArrays(parent hdfio.Group, groupName string, arrays map[string]*entry, rows int) error {
	g, err := parent.CreateGroup(groupName)
	if err != nil {
		return err
	}
	for _, name := range sortedNames(arrays) {
		e := arrays[name]
		ag, err := g.CreateGroup(name)
		if err != nil {
			return err
		}
		if err := ag.PutStrings("kind", []string{e.def.Kind.String()}); err != nil {
			return err
		}
		shape := make([]int64, len(e.def.Shape))
		for i, d := range e.def.Shape {
			shape[i] = int64(d)
		}
		if err := ag.PutInts("shape", shape); err != nil {
			return err
		}
		if err := writeFill(ag, e.def.Fill); err != nil {
			return err
		}
		if err := writeData(ag, e, rows); err != nil {
			return err
		}
	}
	return nil
}

func writeFill(g hdfio.Group, fill Value) error {
	switch fill.Kind {
	case KindInvalid:
		return nil // default fill, nothing to persist
	case KindFloat:
		return g.PutFloats("fill", fill.F64)
	case KindInt:
		return g.PutInts("fill", fill.I64)
	case KindString:
		return g.PutStrings("fill", fill.S)
	case KindBool:
		return g.PutBools("fill", fill.B)
	default:
		return fmt.Errorf("atomstore: invalid fill kind %d", fill.Kind)
	}
}

func writeData(g hdfio.Group, e *entry, rows int) error {
	switch e.def.Kind {
	case KindFloat:
		return g.PutFloats("data", e.col.F64(0, rows))
	case KindInt:
		return g.PutInts("data", e.col.I64(0, rows))
	case KindString:
		return g.PutStrings("data", e.col.Str(0, rows))
	case KindBool:
		return g.PutBools("data", e.col.B(0, rows))
	default:
		return fmt.Errorf("atomstore: invalid kind %d", e.def.Kind)
	}
}

// FromHDF replaces the container's entire contents with the data persisted
// under a subgroup of g. An empty name selects DefaultHDFGroup. The
// persisted capacities are treated as allocation hints; the restored
// container is never smaller than its live counts.
func (s *Storage) FromHDF(g hdfio.Group, name string) error {
	if name == "" {
		name = DefaultHDFGroup
	}
	sub, err := g.OpenGroup(name)
	if err != nil {
		return badFormat(err, "group %q", name)
	}

	numStructures, err := readCounter(sub, "num_structures")
	if err != nil {
		return err
	}
	numAtoms, err := readCounter(sub, "num_atoms")
	if err != nil {
		return err
	}
	capStructures, err := readCounter(sub, "num_structures_alloc")
	if err != nil {
		return err
	}
	capAtoms, err := readCounter(sub, "num_atoms_alloc")
	if err != nil {
		return err
	}
	capStructures = max(capStructures, numStructures, 1)
	capAtoms = max(capAtoms, numAtoms, 1)

	restored := &Storage{
		opts:          s.opts,
		log:           s.log,
		numStructures: numStructures,
		numAtoms:      numAtoms,
		capStructures: capStructures,
		capAtoms:      capAtoms,
		perStructure:  make(map[string]*entry),
		perAtom:       make(map[string]*entry),
	}
	if err := restored.readArrays(sub, "per_structure_arrays", PerStructure, numStructures, capStructures); err != nil {
		return err
	}
	if err := restored.readArrays(sub, "per_atom_arrays", PerAtom, numAtoms, capAtoms); err != nil {
		return err
	}

	for _, required := range []string{ArrayIdentifier, ArrayCell, ArrayPBC, ArrayStart, ArrayLength} {
		if _, ok := restored.perStructure[required]; !ok {
			return fmt.Errorf("%w: missing array %q", ErrBadFormat, required)
		}
	}
	for _, required := range []string{ArraySymbols, ArrayPositions} {
		if _, ok := restored.perAtom[required]; !ok {
			return fmt.Errorf("%w: missing array %q", ErrBadFormat, required)
		}
	}

	*s = *restored
	s.log.Debug("read container", "group", name, "structures", numStructures, "atoms", numAtoms)
	return nil
}

func (s *Storage) readArrays(parent hdfio.Group, groupName string, per Per, rows, capRows int) error {
	g, err := parent.OpenGroup(groupName)
	if err != nil {
		return badFormat(err, "group %q", groupName)
	}
	names, err := g.Groups()
	if err != nil {
		return err
	}
	for _, name := range names {
		ag, err := g.OpenGroup(name)
		if err != nil {
			return err
		}
		def, err := readDef(ag, name, per)
		if err != nil {
			return err
		}
		e := &entry{def: def, col: newColumn(def, capRows)}
		if err := readData(ag, e, rows); err != nil {
			return err
		}
		grown := e.col.BytesPerRow() * int64(capRows)
		if s.opts.maxBytes > 0 && !defaultArray(name, per) && s.bytes+grown > s.opts.maxBytes {
			return fmt.Errorf("%w: array %q needs %d bytes", ErrAllocation, name, grown)
		}
		s.bytes += grown
		if per == PerAtom {
			s.perAtom[name] = e
		} else {
			s.perStructure[name] = e
		}
	}
	return nil
}

func readDef(g hdfio.Group, name string, per Per) (ArrayDef, error) {
	kindNames, err := g.Strings("kind")
	if err != nil {
		return ArrayDef{}, badFormat(err, "array %q kind", name)
	}
	if len(kindNames) != 1 {
		return ArrayDef{}, fmt.Errorf("%w: array %q has %d kinds", ErrBadFormat, name, len(kindNames))
	}
	kind, ok := kindByName(kindNames[0])
	if !ok {
		return ArrayDef{}, fmt.Errorf("%w: array %q has unknown kind %q", ErrBadFormat, name, kindNames[0])
	}

	def := ArrayDef{Name: name, Kind: kind, Per: per}
	rawShape, err := g.Ints("shape")
	if err != nil && !errors.Is(err, hdfio.ErrNotFound) {
		return ArrayDef{}, err
	}
	for _, d := range rawShape {
		def.Shape = append(def.Shape, int(d))
	}

	fill, err := readFill(g, kind)
	if err != nil {
		return ArrayDef{}, badFormat(err, "array %q fill", name)
	}
	def.Fill = fill

	if err := def.validate(); err != nil {
		return ArrayDef{}, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	return def, nil
}

func readFill(g hdfio.Group, kind Kind) (Value, error) {
	var fill Value
	var err error
	var n int
	switch kind {
	case KindFloat:
		var data []float64
		if data, err = g.Floats("fill"); err == nil && len(data) == 1 {
			fill, n = Float(data[0]), 1
		}
	case KindInt:
		var data []int64
		if data, err = g.Ints("fill"); err == nil && len(data) == 1 {
			fill, n = Int(data[0]), 1
		}
	case KindString:
		var data []string
		if data, err = g.Strings("fill"); err == nil && len(data) == 1 {
			fill, n = String(data[0]), 1
		}
	case KindBool:
		var data []bool
		if data, err = g.Bools("fill"); err == nil && len(data) == 1 {
			fill, n = Bool(data[0]), 1
		}
	}
	switch {
	case errors.Is(err, hdfio.ErrNotFound):
		return Value{}, nil // default fill
	case err != nil:
		return Value{}, err
	case n != 1:
		return Value{}, fmt.Errorf("%w: fill is not scalar", ErrBadFormat)
	}
	return fill, nil
}

func readData(g hdfio.Group, e *entry, rows int) error {
	want := rows * e.def.elems()
	check := func(got int) error {
		if got != want {
			return fmt.Errorf("%w: array %q has %d elements, want %d", ErrBadFormat, e.def.Name, got, want)
		}
		return nil
	}
	switch e.def.Kind {
	case KindFloat:
		data, err := g.Floats("data")
		if err != nil {
			return badFormat(err, "array %q data", e.def.Name)
		}
		if err := check(len(data)); err != nil {
			return err
		}
		e.col.SetF64(0, data)
	case KindInt:
		data, err := g.Ints("data")
		if err != nil {
			return badFormat(err, "array %q data", e.def.Name)
		}
		if err := check(len(data)); err != nil {
			return err
		}
		e.col.SetI64(0, data)
	case KindString:
		data, err := g.Strings("data")
		if err != nil {
			return badFormat(err, "array %q data", e.def.Name)
		}
		if err := check(len(data)); err != nil {
			return err
		}
		e.col.SetStr(0, data)
	case KindBool:
		data, err := g.Bools("data")
		if err != nil {
			return badFormat(err, "array %q data", e.def.Name)
		}
		if err := check(len(data)); err != nil {
			return err
		}
		e.col.SetB(0, data)
	}
	return nil
}

func readCounter(g hdfio.Group, name string) (int, error) {
	data, err := g.Ints(name)
	if err != nil {
		return 0, badFormat(err, "counter %q", name)
	}
	if len(data) != 1 || data[0] < 0 {
		return 0, fmt.Errorf("%w: counter %q = %v", ErrBadFormat, name, data)
	}
	return int(data[0]), nil
}

// badFormat wraps missing pieces of a persisted layout as ErrBadFormat and
// passes backend failures through.
func badFormat(err error, format string, args ...any) error {
	if errors.Is(err, hdfio.ErrNotFound) {
		return fmt.Errorf("%w: %s: %v", ErrBadFormat, fmt.Sprintf(format, args...), err)
	}
	return err
}
