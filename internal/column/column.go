// Package column implements the contiguous typed buffers backing the
// atomstore container.
//
// A Column stores fixed-size rows contiguously in a single typed slice: row i
// occupies data[i*elem : (i+1)*elem]. Growth allocates a larger backing slice
// and copies live contents, preserving index alignment; columns never shrink.
// Rows beyond the live count hold the column's fill value.
package column

import "fmt"

// Type identifies the element type of a column.
type Type uint8

const (
	// Float64 holds float64 elements.
	Float64 Type = iota
	// Int64 holds int64 elements.
	Int64
	// String holds string elements.
	String
	// Bool holds boolean elements.
	Bool
)

// Column is a growable columnar buffer with a fixed number of elements per
// row. Exactly one backing slice is populated, determined by Type.
//
// Thread safety: concurrent reads are safe; writes and growth require
// external synchronization.
type Column struct {
	typ  Type
	elem int // elements per row
	rows int // allocated rows

	fillF float64
	fillI int64
	fillS string
	fillB bool

	f64 []float64
	i64 []int64
	str []string
	b   []bool
}

// NewFloat64 creates a float64 column with elem elements per row and the
// given allocated row count, filled with fill.
func NewFloat64(elem, rows int, fill float64) *Column {
	c := &Column{typ: Float64, elem: elem, rows: rows, fillF: fill}
	c.f64 = make([]float64, rows*elem)
	if fill != 0 {
		fillSlice(c.f64, fill)
	}
	return c
}

// NewInt64 creates an int64 column.
func NewInt64(elem, rows int, fill int64) *Column {
	c := &Column{typ: Int64, elem: elem, rows: rows, fillI: fill}
	c.i64 = make([]int64, rows*elem)
	if fill != 0 {
		fillSlice(c.i64, fill)
	}
	return c
}

// NewString creates a string column.
func NewString(elem, rows int, fill string) *Column {
	c := &Column{typ: String, elem: elem, rows: rows, fillS: fill}
	c.str = make([]string, rows*elem)
	if fill != "" {
		fillSlice(c.str, fill)
	}
	return c
}

// NewBool creates a boolean column.
func NewBool(elem, rows int, fill bool) *Column {
	c := &Column{typ: Bool, elem: elem, rows: rows, fillB: fill}
	c.b = make([]bool, rows*elem)
	if fill {
		fillSlice(c.b, fill)
	}
	return c
}

func fillSlice[T any](s []T, v T) {
	for i := range s {
		s[i] = v
	}
}

// Type returns the element type.
func (c *Column) Type() Type { return c.typ }

// Elem returns the number of elements per row.
func (c *Column) Elem() int { return c.elem }

// Rows returns the allocated row count.
func (c *Column) Rows() int { return c.rows }

// BytesPerRow returns the approximate memory cost of one row. String rows
// count only the slice headers, not the string contents.
func (c *Column) BytesPerRow() int64 {
	switch c.typ {
	case Float64, Int64:
		return int64(c.elem) * 8
	case String:
		return int64(c.elem) * 16
	case Bool:
		return int64(c.elem)
	default:
		return 0
	}
}

// Resize grows the column to the given allocated row count, copying live
// contents and filling the new tail with the fill value. Shrinking is a
// no-op.
func (c *Column) Resize(rows int) {
	if rows <= c.rows {
		return
	}
	n := rows * c.elem
	switch c.typ {
	case Float64:
		grown := make([]float64, n)
		copy(grown, c.f64)
		if c.fillF != 0 {
			fillSlice(grown[len(c.f64):], c.fillF)
		}
		c.f64 = grown
	case Int64:
		grown := make([]int64, n)
		copy(grown, c.i64)
		if c.fillI != 0 {
			fillSlice(grown[len(c.i64):], c.fillI)
		}
		c.i64 = grown
	case String:
		grown := make([]string, n)
		copy(grown, c.str)
		if c.fillS != "" {
			fillSlice(grown[len(c.str):], c.fillS)
		}
		c.str = grown
	case Bool:
		grown := make([]bool, n)
		copy(grown, c.b)
		if c.fillB {
			fillSlice(grown[len(c.b):], c.fillB)
		}
		c.b = grown
	}
	c.rows = rows
}

// NextCap returns the grown capacity for a buffer that currently holds cur
// rows and needs at least need: geometric doubling, never below need.
func NextCap(cur, need int) int {
	if cur*2 > need {
		return cur * 2
	}
	return need
}

func (c *Column) check(t Type, start, rows int) {
	if c.typ != t {
		panic(fmt.Sprintf("column: type mismatch: column is %d, accessed as %d", c.typ, t))
	}
	if start < 0 || rows < 0 || start+rows > c.rows {
		panic(fmt.Sprintf("column: row range [%d,%d) out of bounds (%d allocated)", start, start+rows, c.rows))
	}
}

// F64 returns an aliasing view of rows [start, start+rows).
func (c *Column) F64(start, rows int) []float64 {
	c.check(Float64, start, rows)
	return c.f64[start*c.elem : (start+rows)*c.elem : (start+rows)*c.elem]
}

// I64 returns an aliasing view of rows [start, start+rows).
func (c *Column) I64(start, rows int) []int64 {
	c.check(Int64, start, rows)
	return c.i64[start*c.elem : (start+rows)*c.elem : (start+rows)*c.elem]
}

// Str returns an aliasing view of rows [start, start+rows).
func (c *Column) Str(start, rows int) []string {
	c.check(String, start, rows)
	return c.str[start*c.elem : (start+rows)*c.elem : (start+rows)*c.elem]
}

// B returns an aliasing view of rows [start, start+rows).
func (c *Column) B(start, rows int) []bool {
	c.check(Bool, start, rows)
	return c.b[start*c.elem : (start+rows)*c.elem : (start+rows)*c.elem]
}

// SetF64 copies vals into the column starting at row start. len(vals) must
// cover whole rows.
func (c *Column) SetF64(start int, vals []float64) {
	c.check(Float64, start, len(vals)/c.elem)
	copy(c.f64[start*c.elem:], vals)
}

// SetI64 copies vals into the column starting at row start.
func (c *Column) SetI64(start int, vals []int64) {
	c.check(Int64, start, len(vals)/c.elem)
	copy(c.i64[start*c.elem:], vals)
}

// SetStr copies vals into the column starting at row start.
func (c *Column) SetStr(start int, vals []string) {
	c.check(String, start, len(vals)/c.elem)
	copy(c.str[start*c.elem:], vals)
}

// SetB copies vals into the column starting at row start.
func (c *Column) SetB(start int, vals []bool) {
	c.check(Bool, start, len(vals)/c.elem)
	copy(c.b[start*c.elem:], vals)
}
