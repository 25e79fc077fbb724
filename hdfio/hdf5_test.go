package hdfio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeH5Fixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.h5")

	f, err := CreateH5(path)
	require.NoError(t, err)

	root := f.Root()
	outer, err := root.CreateGroup("outer")
	require.NoError(t, err)
	inner, err := outer.CreateGroup("inner")
	require.NoError(t, err)

	require.NoError(t, outer.PutFloats("coords", []float64{0, 1.5, -2.25}))
	require.NoError(t, inner.PutInts("counts", []int64{-7, 0, 9}))
	require.NoError(t, inner.PutStrings("species", []string{"Fe", "Cu"}))
	require.NoError(t, inner.PutBools("flags", []bool{true, false}))

	require.NoError(t, f.Close())
	return path
}

func TestH5RoundTrip(t *testing.T) {
	path := writeH5Fixture(t)

	f, err := OpenH5(path)
	require.NoError(t, err)
	defer f.Close()

	outer, err := f.Root().OpenGroup("outer")
	require.NoError(t, err)
	coords, err := outer.Floats("coords")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1.5, -2.25}, coords)

	inner, err := outer.OpenGroup("inner")
	require.NoError(t, err)

	counts, err := inner.Ints("counts")
	require.NoError(t, err)
	assert.Equal(t, []int64{-7, 0, 9}, counts)

	species, err := inner.Strings("species")
	require.NoError(t, err)
	assert.Equal(t, []string{"Fe", "Cu"}, species)

	flags, err := inner.Bools("flags")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, flags)
}

func TestH5Enumeration(t *testing.T) {
	path := writeH5Fixture(t)

	f, err := OpenH5(path)
	require.NoError(t, err)
	defer f.Close()

	groups, err := f.Root().Groups()
	require.NoError(t, err)
	assert.Equal(t, []string{"outer"}, groups, "nested groups are not direct children of the root")

	outer, err := f.Root().OpenGroup("outer")
	require.NoError(t, err)

	groups, err = outer.Groups()
	require.NoError(t, err)
	assert.Equal(t, []string{"inner"}, groups)

	datasets, err := outer.Datasets()
	require.NoError(t, err)
	assert.Equal(t, []string{"coords"}, datasets)

	inner, err := outer.OpenGroup("inner")
	require.NoError(t, err)
	datasets, err = inner.Datasets()
	require.NoError(t, err)
	assert.Equal(t, []string{"counts", "flags", "species"}, datasets)
}

func TestH5RootDatasets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rootset.h5")

	w, err := CreateH5(path)
	require.NoError(t, err)
	require.NoError(t, w.Root().PutFloats("loose", []float64{1, 2}))
	_, err = w.Root().CreateGroup("g")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := OpenH5(path)
	require.NoError(t, err)
	defer r.Close()

	groups, err := r.Root().Groups()
	require.NoError(t, err)
	assert.Equal(t, []string{"g"}, groups, "root datasets are not groups")

	datasets, err := r.Root().Datasets()
	require.NoError(t, err)
	assert.Equal(t, []string{"loose"}, datasets)

	loose, err := r.Root().Floats("loose")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, loose)
}

func TestH5NotFound(t *testing.T) {
	path := writeH5Fixture(t)

	f, err := OpenH5(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Root().OpenGroup("ghost")
	require.ErrorIs(t, err, ErrNotFound)

	outer, err := f.Root().OpenGroup("outer")
	require.NoError(t, err)
	_, err = outer.Floats("ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestH5HandleModes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modes.h5")

	w, err := CreateH5(path)
	require.NoError(t, err)
	g, err := w.Root().CreateGroup("g")
	require.NoError(t, err)
	require.NoError(t, g.PutFloats("x", []float64{1}))

	// Write handles track their own groups but cannot read data back.
	again, err := w.Root().CreateGroup("g")
	require.NoError(t, err)
	assert.Same(t, g, again)
	opened, err := w.Root().OpenGroup("g")
	require.NoError(t, err)
	assert.Same(t, g, opened)
	_, err = g.Floats("x")
	require.Error(t, err)
	require.NoError(t, w.Close())

	// Read handles reject writes.
	r, err := OpenH5(path)
	require.NoError(t, err)
	defer r.Close()
	rg, err := r.Root().OpenGroup("g")
	require.NoError(t, err)
	require.ErrorIs(t, rg.PutFloats("y", []float64{1}), ErrReadOnly)
	_, err = r.Root().CreateGroup("h")
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestH5GroupNameValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.h5")
	f, err := CreateH5(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Root().CreateGroup("a.b")
	require.Error(t, err, "dot is the flattening separator")
	_, err = f.Root().CreateGroup("")
	require.Error(t, err)
}
