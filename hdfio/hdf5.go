package hdfio

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/robert-malhotra/go-hdf5/hdf5"
)

// H5File exposes an HDF5 file as a Group tree. Create gives a write-only
// handle, Open a read-only one; a written file must be closed before it can
// be opened for reading.
//
// Group nesting is flattened onto the file: a subgroup at tree path a/b/c is
// stored as a single HDF5 group named "a.b.c" directly under the file root,
// with its datasets inside. Group names therefore must not contain a dot.
// The flattening is invisible through the Group interface and keeps the file
// readable by any HDF5 tool.
type H5File struct {
	f        *hdf5.File
	writable bool
	root     *h5Group
}

// CreateH5 creates a new HDF5 file and returns a write-only handle to it.
func CreateH5(path string) (*H5File, error) {
	f, err := hdf5.Create(path)
	if err != nil {
		return nil, fmt.Errorf("hdfio: creating %s: %w", path, err)
	}
	h := &H5File{f: f, writable: true}
	h.root = &h5Group{
		file: h,
		g:    f.Root(),
		subs: make(map[string]*h5Group),
	}
	return h, nil
}

// OpenH5 opens an existing HDF5 file read-only.
func OpenH5(path string) (*H5File, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hdfio: opening %s: %w", path, err)
	}
	h := &H5File{f: f}
	h.root = &h5Group{file: h, g: f.Root()}
	return h, nil
}

// Root returns the file's root group.
func (h *H5File) Root() Group { return h.root }

// Close flushes (for write handles) and closes the file.
func (h *H5File) Close() error { return h.f.Close() }

// h5Group is one tree node. flat is the dotted storage name, empty for the
// root; g is the backing HDF5 group (the file root, or the flattened
// depth-1 group). subs tracks subgroups created through a write handle,
// since write handles cannot enumerate the file.
type h5Group struct {
	file *H5File
	flat string
	g    *hdf5.Group
	subs map[string]*h5Group
}

var _ Group = (*h5Group)(nil)

func (g *h5Group) flatChild(name string) string {
	if g.flat == "" {
		return name
	}
	return g.flat + "." + name
}

// CreateGroup returns the named subgroup, creating it if needed.
func (g *h5Group) CreateGroup(name string) (Group, error) {
	if !g.file.writable {
		return nil, ErrReadOnly
	}
	if name == "" || strings.Contains(name, ".") {
		return nil, fmt.Errorf("hdfio: invalid group name %q", name)
	}
	if sub, ok := g.subs[name]; ok {
		return sub, nil
	}

	grp, err := g.file.root.g.CreateGroup(g.flatChild(name))
	if err != nil {
		return nil, fmt.Errorf("hdfio: creating group %q: %w", g.flatChild(name), err)
	}
	sub := &h5Group{
		file: g.file,
		flat: g.flatChild(name),
		g:    grp,
		subs: make(map[string]*h5Group),
	}
	g.subs[name] = sub
	return sub, nil
}

// OpenGroup returns the named subgroup.
func (g *h5Group) OpenGroup(name string) (Group, error) {
	if g.file.writable {
		if sub, ok := g.subs[name]; ok {
			return sub, nil
		}
		return nil, fmt.Errorf("%w: group %q", ErrNotFound, name)
	}

	flat := g.flatChild(name)
	grp, err := g.file.f.OpenGroup(flat)
	if err != nil {
		if errors.Is(err, hdf5.ErrNotFound) {
			return nil, fmt.Errorf("%w: group %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("hdfio: opening group %q: %w", flat, err)
	}
	return &h5Group{file: g.file, flat: flat, g: grp}, nil
}

// Groups returns the subgroup names in lexical order.
func (g *h5Group) Groups() ([]string, error) {
	if g.file.writable {
		names := make([]string, 0, len(g.subs))
		for name := range g.subs {
			names = append(names, name)
		}
		slices.Sort(names)
		return names, nil
	}

	members, err := g.file.root.g.Members()
	if err != nil {
		return nil, fmt.Errorf("hdfio: listing members: %w", err)
	}
	prefix := ""
	if g.flat != "" {
		prefix = g.flat + "."
	}
	var names []string
	for _, m := range members {
		if !strings.HasPrefix(m, prefix) || m == g.flat {
			continue
		}
		if _, err := g.file.f.OpenDataset(m); err == nil {
			continue // dataset stored at the file root
		}
		child, _, _ := strings.Cut(m[len(prefix):], ".")
		if !slices.Contains(names, child) {
			names = append(names, child)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Datasets returns the dataset names in lexical order. All datasets of a
// flattened group are direct members of its backing HDF5 group.
func (g *h5Group) Datasets() ([]string, error) {
	if g.file.writable {
		return nil, fmt.Errorf("hdfio: cannot enumerate datasets through a write handle")
	}
	members, err := g.g.Members()
	if err != nil {
		return nil, fmt.Errorf("hdfio: listing members: %w", err)
	}
	var names []string
	for _, m := range members {
		if g.flat == "" && strings.Contains(m, ".") {
			continue // flattened subgroup
		}
		if _, err := g.g.OpenDataset(m); err == nil {
			names = append(names, m)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (g *h5Group) create(name string, data any) error {
	if !g.file.writable {
		return ErrReadOnly
	}
	if _, err := g.g.CreateDataset(name, data); err != nil {
		return fmt.Errorf("hdfio: creating dataset %q: %w", g.flatChild(name), err)
	}
	return nil
}

// PutFloats stores a float64 dataset.
func (g *h5Group) PutFloats(name string, data []float64) error {
	return g.create(name, data)
}

// PutInts stores an int64 dataset.
func (g *h5Group) PutInts(name string, data []int64) error {
	return g.create(name, data)
}

// PutStrings stores a string dataset.
func (g *h5Group) PutStrings(name string, data []string) error {
	return g.create(name, data)
}

// PutBools stores a boolean dataset. HDF5 has no native boolean type;
// booleans are stored as uint8 with 0 and 1.
func (g *h5Group) PutBools(name string, data []bool) error {
	raw := make([]uint8, len(data))
	for i, v := range data {
		if v {
			raw[i] = 1
		}
	}
	return g.create(name, raw)
}

func (g *h5Group) open(name string) (*hdf5.Dataset, error) {
	if g.file.writable {
		return nil, fmt.Errorf("hdfio: cannot read through a write handle")
	}
	d, err := g.g.OpenDataset(name)
	if err != nil {
		if errors.Is(err, hdf5.ErrNotFound) {
			return nil, fmt.Errorf("%w: dataset %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("hdfio: opening dataset %q: %w", g.flatChild(name), err)
	}
	return d, nil
}

// Floats returns the named float64 dataset.
func (g *h5Group) Floats(name string) ([]float64, error) {
	d, err := g.open(name)
	if err != nil {
		return nil, err
	}
	return d.ReadFloat64()
}

// Ints returns the named int64 dataset.
func (g *h5Group) Ints(name string) ([]int64, error) {
	d, err := g.open(name)
	if err != nil {
		return nil, err
	}
	return d.ReadInt64()
}

// Strings returns the named string dataset.
func (g *h5Group) Strings(name string) ([]string, error) {
	d, err := g.open(name)
	if err != nil {
		return nil, err
	}
	return d.ReadString()
}

// Bools returns the named boolean dataset.
func (g *h5Group) Bools(name string) ([]bool, error) {
	d, err := g.open(name)
	if err != nil {
		return nil, err
	}
	raw, err := d.ReadUint8()
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(raw))
	for i, v := range raw {
		out[i] = v != 0
	}
	return out, nil
}
