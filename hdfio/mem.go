package hdfio

import (
	"fmt"
	"slices"
)

type dsKind uint8

const (
	dsFloat dsKind = iota
	dsInt
	dsString
	dsBool
)

// memDataset holds one typed dataset; exactly one payload slice is populated.
type memDataset struct {
	kind dsKind
	f64  []float64
	i64  []int64
	str  []string
	b    []bool
}

// MemGroup is an in-memory Group tree. It is the natural write target for
// snapshots and the simplest backend for tests.
//
// The zero value is not usable; call NewMemGroup.
type MemGroup struct {
	groups map[string]*MemGroup
	data   map[string]*memDataset
}

var _ Group = (*MemGroup)(nil)

// NewMemGroup creates an empty in-memory group.
func NewMemGroup() *MemGroup {
	return &MemGroup{
		groups: make(map[string]*MemGroup),
		data:   make(map[string]*memDataset),
	}
}

// CreateGroup returns the named subgroup, creating it if needed. An existing
// dataset of the same name is an error.
func (g *MemGroup) CreateGroup(name string) (Group, error) {
	if name == "" {
		return nil, fmt.Errorf("hdfio: empty group name")
	}
	if _, ok := g.data[name]; ok {
		return nil, fmt.Errorf("hdfio: %q is a dataset, not a group", name)
	}
	if sub, ok := g.groups[name]; ok {
		return sub, nil
	}
	sub := NewMemGroup()
	g.groups[name] = sub
	return sub, nil
}

// OpenGroup returns the named subgroup.
func (g *MemGroup) OpenGroup(name string) (Group, error) {
	sub, ok := g.groups[name]
	if !ok {
		return nil, fmt.Errorf("%w: group %q", ErrNotFound, name)
	}
	return sub, nil
}

// Groups returns the subgroup names in lexical order.
func (g *MemGroup) Groups() ([]string, error) {
	names := make([]string, 0, len(g.groups))
	for name := range g.groups {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Datasets returns the dataset names in lexical order.
func (g *MemGroup) Datasets() ([]string, error) {
	names := make([]string, 0, len(g.data))
	for name := range g.data {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (g *MemGroup) put(name string, ds *memDataset) error {
	if name == "" {
		return fmt.Errorf("hdfio: empty dataset name")
	}
	if _, ok := g.groups[name]; ok {
		return fmt.Errorf("hdfio: %q is a group, not a dataset", name)
	}
	g.data[name] = ds
	return nil
}

// PutFloats stores a float64 dataset, replacing any previous one.
func (g *MemGroup) PutFloats(name string, data []float64) error {
	return g.put(name, &memDataset{kind: dsFloat, f64: slices.Clone(data)})
}

// PutInts stores an int64 dataset.
func (g *MemGroup) PutInts(name string, data []int64) error {
	return g.put(name, &memDataset{kind: dsInt, i64: slices.Clone(data)})
}

// PutStrings stores a string dataset.
func (g *MemGroup) PutStrings(name string, data []string) error {
	return g.put(name, &memDataset{kind: dsString, str: slices.Clone(data)})
}

// PutBools stores a boolean dataset.
func (g *MemGroup) PutBools(name string, data []bool) error {
	return g.put(name, &memDataset{kind: dsBool, b: slices.Clone(data)})
}

func (g *MemGroup) dataset(name string, kind dsKind) (*memDataset, error) {
	ds, ok := g.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: dataset %q", ErrNotFound, name)
	}
	if ds.kind != kind {
		return nil, fmt.Errorf("hdfio: dataset %q has kind %d, want %d", name, ds.kind, kind)
	}
	return ds, nil
}

// Floats returns the named float64 dataset.
func (g *MemGroup) Floats(name string) ([]float64, error) {
	ds, err := g.dataset(name, dsFloat)
	if err != nil {
		return nil, err
	}
	return slices.Clone(ds.f64), nil
}

// Ints returns the named int64 dataset.
func (g *MemGroup) Ints(name string) ([]int64, error) {
	ds, err := g.dataset(name, dsInt)
	if err != nil {
		return nil, err
	}
	return slices.Clone(ds.i64), nil
}

// Strings returns the named string dataset.
func (g *MemGroup) Strings(name string) ([]string, error) {
	ds, err := g.dataset(name, dsString)
	if err != nil {
		return nil, err
	}
	return slices.Clone(ds.str), nil
}

// Bools returns the named boolean dataset.
func (g *MemGroup) Bools(name string) ([]bool, error) {
	ds, err := g.dataset(name, dsBool)
	if err != nil {
		return nil, err
	}
	return slices.Clone(ds.b), nil
}
