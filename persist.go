package atomstore

import (
	"io"

	"github.com/hupe1980/atomstore/hdfio"
)

// WriteHDF5File writes the container into a new HDF5 file at path, replacing
// any existing file. An empty group selects DefaultHDFGroup.
func (s *Storage) WriteHDF5File(path, group string) error {
	f, err := hdfio.CreateH5(path)
	if err != nil {
		return err
	}
	if err := s.ToHDF(f.Root(), group); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadHDF5File replaces the container's contents with the data persisted in
// the HDF5 file at path.
func (s *Storage) ReadHDF5File(path, group string) error {
	f, err := hdfio.OpenH5(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.FromHDF(f.Root(), group)
}

// WriteSnapshot writes the container as a compressed single-blob snapshot.
// Snapshots are the compact transfer format; HDF5 files are the interoperable
// one.
func (s *Storage) WriteSnapshot(w io.Writer, codec hdfio.Codec) error {
	root := hdfio.NewMemGroup()
	if err := s.ToHDF(root, ""); err != nil {
		return err
	}
	return hdfio.WriteSnapshot(w, root, codec)
}

// ReadSnapshot replaces the container's contents with a snapshot written by
// WriteSnapshot.
func (s *Storage) ReadSnapshot(r io.Reader) error {
	root, err := hdfio.ReadSnapshot(r)
	if err != nil {
		return err
	}
	return s.FromHDF(root, "")
}
