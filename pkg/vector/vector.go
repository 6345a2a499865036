// Package vector holds the caller-owned, reusable output buffers that
// stripe decoding fills one batch at a time. Each column of a batch is a
// typed vector sharing the common null-mask and repeating-value state in
// [Column].
//
// Vectors are allocated and resized by the batch driver and written in
// place by the readers. They are reused across batches, so readers never
// assume prior contents are zeroed.
package vector

// DefaultBatchSize is the default row capacity of a batch.
const DefaultBatchSize = 1024

// Column is the state shared by every vector kind: the per-row null mask
// and the repeating-value optimization flags.
//
// If IsRepeating is true, only row 0 is meaningful and every row is
// semantically equal to it, including its null-ness. If NoNulls is true
// the IsNull slice may be ignored entirely.
type Column struct {
	IsNull      []bool
	NoNulls     bool
	IsRepeating bool
}

// Base returns the shared column state. It exists so that any [Vector] can
// hand its null mask to a decoder without the decoder knowing the concrete
// vector kind.
func (c *Column) Base() *Column { return c }

// Reset prepares the column state for reuse. The null mask is cleared only
// when it could have been dirtied.
func (c *Column) Reset() {
	if !c.NoNulls {
		for i := range c.IsNull {
			c.IsNull[i] = false
		}
	}
	c.NoNulls = true
	c.IsRepeating = false
}

// EnsureSize grows the null mask to hold rows entries. When preserve is
// set the previous null flags are carried over.
func (c *Column) EnsureSize(rows int, preserve bool) {
	if len(c.IsNull) >= rows {
		return
	}
	old := c.IsNull
	c.IsNull = make([]bool, rows)
	if preserve && !c.NoNulls {
		if c.IsRepeating {
			c.IsNull[0] = old[0]
		} else {
			copy(c.IsNull, old)
		}
	}
}

// A Vector is one column's worth of decoded output for one batch.
type Vector interface {
	// Base returns the shared null-mask and repeating state.
	Base() *Column

	// Reset prepares the vector for reuse by the next batch.
	Reset()

	// EnsureSize grows the vector to hold rows entries without shrinking.
	EnsureSize(rows int, preserve bool)
}

// A Batch is one vectorized row batch: a set of top-level column vectors
// filled together with a common row count.
type Batch struct {
	// Size is the number of valid rows in the batch after a read.
	Size int

	// Cols holds one vector per top-level column.
	Cols []Vector
}

// Reset clears the batch row count and resets every column for reuse.
func (b *Batch) Reset() {
	b.Size = 0
	for _, c := range b.Cols {
		c.Reset()
	}
}
