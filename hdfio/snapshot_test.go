package hdfio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotTree(t *testing.T) *MemGroup {
	t.Helper()
	root := NewMemGroup()
	require.NoError(t, root.PutFloats("coords", []float64{0, 0.5, -1.25}))

	meta, err := root.CreateGroup("meta")
	require.NoError(t, err)
	require.NoError(t, meta.PutStrings("species", []string{"Fe", "", "Cu"}))
	require.NoError(t, meta.PutInts("counts", []int64{-9, 0, 1 << 40}))
	require.NoError(t, meta.PutBools("flags", []bool{true, false, true}))

	empty, err := meta.CreateGroup("empty")
	require.NoError(t, err)
	require.NoError(t, empty.PutFloats("none", nil))
	return root
}

func requireSameTree(t *testing.T, want, got Group) {
	t.Helper()
	wantData, err := want.Datasets()
	require.NoError(t, err)
	gotData, err := got.Datasets()
	require.NoError(t, err)
	require.Equal(t, wantData, gotData)

	for _, name := range wantData {
		if f, err := want.Floats(name); err == nil {
			g, err := got.Floats(name)
			require.NoError(t, err)
			assert.Equal(t, f, g, name)
			continue
		}
		if i, err := want.Ints(name); err == nil {
			g, err := got.Ints(name)
			require.NoError(t, err)
			assert.Equal(t, i, g, name)
			continue
		}
		if s, err := want.Strings(name); err == nil {
			g, err := got.Strings(name)
			require.NoError(t, err)
			assert.Equal(t, s, g, name)
			continue
		}
		b, err := want.Bools(name)
		require.NoError(t, err)
		g, err := got.Bools(name)
		require.NoError(t, err)
		assert.Equal(t, b, g, name)
	}

	wantSubs, err := want.Groups()
	require.NoError(t, err)
	gotSubs, err := got.Groups()
	require.NoError(t, err)
	require.Equal(t, wantSubs, gotSubs)
	for _, name := range wantSubs {
		w, err := want.OpenGroup(name)
		require.NoError(t, err)
		g, err := got.OpenGroup(name)
		require.NoError(t, err)
		requireSameTree(t, w, g)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	root := snapshotTree(t)
	for _, codec := range []Codec{CodecRaw, CodecZstd, CodecLZ4} {
		t.Run(codec.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteSnapshot(&buf, root, codec))

			got, err := ReadSnapshot(&buf)
			require.NoError(t, err)
			requireSameTree(t, root, got)
		})
	}
}

func TestSnapshotDeterministic(t *testing.T) {
	root := snapshotTree(t)
	var a, b bytes.Buffer
	require.NoError(t, WriteSnapshot(&a, root, CodecRaw))
	require.NoError(t, WriteSnapshot(&b, root, CodecRaw))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestSnapshotCorruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, snapshotTree(t), CodecZstd))
	raw := buf.Bytes()

	t.Run("truncated", func(t *testing.T) {
		_, err := ReadSnapshot(bytes.NewReader(raw[:5]))
		require.ErrorIs(t, err, ErrBadSnapshot)
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := bytes.Clone(raw)
		bad[0] ^= 0xff
		_, err := ReadSnapshot(bytes.NewReader(bad))
		require.ErrorIs(t, err, ErrBadSnapshot)
	})

	t.Run("bad version", func(t *testing.T) {
		bad := bytes.Clone(raw)
		bad[4] = 99
		_, err := ReadSnapshot(bytes.NewReader(bad))
		require.ErrorIs(t, err, ErrBadSnapshot)
	})

	t.Run("flipped payload bit fails the checksum", func(t *testing.T) {
		bad := bytes.Clone(raw)
		bad[len(bad)/2] ^= 0x01
		_, err := ReadSnapshot(bytes.NewReader(bad))
		require.ErrorIs(t, err, ErrBadSnapshot)
	})

	t.Run("unknown codec", func(t *testing.T) {
		bad := bytes.Clone(raw)
		bad[5] = 42
		_, err := ReadSnapshot(bytes.NewReader(bad))
		require.ErrorIs(t, err, ErrBadSnapshot)
	})
}

func TestSnapshotEmptyTree(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, NewMemGroup(), CodecRaw))
	got, err := ReadSnapshot(&buf)
	require.NoError(t, err)

	names, err := got.Datasets()
	require.NoError(t, err)
	assert.Empty(t, names)
	subs, err := got.Groups()
	require.NoError(t, err)
	assert.Empty(t, subs)
}
