package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnNew(t *testing.T) {
	t.Run("float fill", func(t *testing.T) {
		c := NewFloat64(3, 2, 1.5)
		require.Equal(t, Float64, c.Type())
		require.Equal(t, 3, c.Elem())
		require.Equal(t, 2, c.Rows())
		assert.Equal(t, []float64{1.5, 1.5, 1.5, 1.5, 1.5, 1.5}, c.F64(0, 2))
	})

	t.Run("string fill", func(t *testing.T) {
		c := NewString(1, 3, "H")
		assert.Equal(t, []string{"H", "H", "H"}, c.Str(0, 3))
	})

	t.Run("zero fill allocates zeroed", func(t *testing.T) {
		c := NewInt64(2, 2, 0)
		assert.Equal(t, []int64{0, 0, 0, 0}, c.I64(0, 2))
	})

	t.Run("bool fill", func(t *testing.T) {
		c := NewBool(3, 1, true)
		assert.Equal(t, []bool{true, true, true}, c.B(0, 1))
	})
}

func TestColumnSetAndView(t *testing.T) {
	c := NewFloat64(3, 4, 0)
	c.SetF64(1, []float64{1, 2, 3, 4, 5, 6})

	assert.Equal(t, []float64{0, 0, 0}, c.F64(0, 1))
	assert.Equal(t, []float64{1, 2, 3}, c.F64(1, 1))
	assert.Equal(t, []float64{4, 5, 6}, c.F64(2, 1))

	// Views alias the buffer.
	row := c.F64(3, 1)
	row[0] = 7
	assert.Equal(t, []float64{7, 0, 0}, c.F64(3, 1))
}

func TestColumnResize(t *testing.T) {
	c := NewInt64(2, 2, -1)
	c.SetI64(0, []int64{1, 2, 3, 4})

	c.Resize(5)
	require.Equal(t, 5, c.Rows())
	assert.Equal(t, []int64{1, 2, 3, 4}, c.I64(0, 2), "live rows survive growth at the same indices")
	assert.Equal(t, []int64{-1, -1, -1, -1, -1, -1}, c.I64(2, 3), "new tail holds the fill value")

	c.Resize(3)
	assert.Equal(t, 5, c.Rows(), "shrinking is a no-op")
}

func TestColumnResizeDetachesOldViews(t *testing.T) {
	c := NewString(1, 2, "")
	c.SetStr(0, []string{"a", "b"})
	old := c.Str(0, 2)

	c.Resize(8)
	c.SetStr(0, []string{"x", "y"})

	assert.Equal(t, []string{"a", "b"}, old, "pre-growth views keep the old buffer")
	assert.Equal(t, []string{"x", "y"}, c.Str(0, 2))
}

func TestColumnBytesPerRow(t *testing.T) {
	assert.Equal(t, int64(24), NewFloat64(3, 1, 0).BytesPerRow())
	assert.Equal(t, int64(8), NewInt64(1, 1, 0).BytesPerRow())
	assert.Equal(t, int64(16), NewString(1, 1, "").BytesPerRow())
	assert.Equal(t, int64(3), NewBool(3, 1, false).BytesPerRow())
}

func TestNextCap(t *testing.T) {
	tests := []struct {
		name      string
		cur, need int
		want      int
	}{
		{"doubling covers need", 4, 5, 8},
		{"need beyond double", 4, 100, 100},
		{"from one", 1, 2, 2},
		{"large jump from empty-ish", 1, 64, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextCap(tt.cur, tt.need))
		})
	}
}

func TestColumnMisusePanics(t *testing.T) {
	c := NewFloat64(3, 2, 0)
	assert.Panics(t, func() { c.I64(0, 1) }, "type mismatch")
	assert.Panics(t, func() { c.F64(1, 2) }, "range out of bounds")
	assert.Panics(t, func() { c.F64(-1, 1) }, "negative start")
}
