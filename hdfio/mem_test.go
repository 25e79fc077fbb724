package hdfio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemGroupDatasets(t *testing.T) {
	g := NewMemGroup()
	require.NoError(t, g.PutFloats("f", []float64{1, 2}))
	require.NoError(t, g.PutInts("i", []int64{-1}))
	require.NoError(t, g.PutStrings("s", []string{"a", "b"}))
	require.NoError(t, g.PutBools("b", []bool{true, false}))

	names, err := g.Datasets()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "f", "i", "s"}, names)

	f, err := g.Floats("f")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, f)

	b, err := g.Bools("b")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, b)

	_, err = g.Floats("missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = g.Ints("f")
	require.Error(t, err, "kind mismatch")
}

func TestMemGroupPutReplacesAndDetaches(t *testing.T) {
	g := NewMemGroup()
	src := []float64{1, 2}
	require.NoError(t, g.PutFloats("f", src))
	src[0] = 99
	require.NoError(t, g.PutFloats("f", []float64{3}))

	f, err := g.Floats("f")
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, f)

	// Reads return copies.
	f[0] = 42
	f2, err := g.Floats("f")
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, f2)
}

func TestMemGroupHierarchy(t *testing.T) {
	root := NewMemGroup()
	a, err := root.CreateGroup("a")
	require.NoError(t, err)
	_, err = a.CreateGroup("nested")
	require.NoError(t, err)
	_, err = root.CreateGroup("b")
	require.NoError(t, err)

	// CreateGroup returns the existing group.
	again, err := root.CreateGroup("a")
	require.NoError(t, err)
	assert.Same(t, a, again)

	names, err := root.Groups()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	opened, err := root.OpenGroup("a")
	require.NoError(t, err)
	sub, err := opened.OpenGroup("nested")
	require.NoError(t, err)
	assert.NotNil(t, sub)

	_, err = root.OpenGroup("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemGroupNamespaceCollisions(t *testing.T) {
	g := NewMemGroup()
	require.NoError(t, g.PutFloats("x", nil))
	_, err := g.CreateGroup("x")
	require.Error(t, err, "dataset name taken")

	_, err = g.CreateGroup("y")
	require.NoError(t, err)
	require.Error(t, g.PutInts("y", nil), "group name taken")

	_, err = g.CreateGroup("")
	require.Error(t, err)
}
