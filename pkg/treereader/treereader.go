// Package treereader builds and drives the per-column decoder tree for a
// striped columnar file. Each schema node gets one reader; composite
// readers fan row counts and null masks out to their children, and leaf
// readers decode value streams into vectors.
package treereader

import (
	"errors"
	"fmt"
	"time"

	"github.com/columnobj/columnobj/pkg/encoding"
	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/stripemd"
	"github.com/columnobj/columnobj/pkg/vector"
)

// Sentinel errors for unrecoverable construction and stripe binding
// failures. Wrapped errors add the column and encoding detail.
var (
	// ErrEncodingMismatch reports a stripe declaring an encoding the
	// column's reader cannot decode.
	ErrEncodingMismatch = errors.New("treereader: unexpected column encoding")

	// ErrUnsupportedType reports a schema category no reader exists for.
	ErrUnsupportedType = errors.New("treereader: unsupported column type")

	// ErrConversion reports a file/reader schema pair no conversion is
	// defined between.
	ErrConversion = errors.New("treereader: unsupported schema conversion")
)

// Context carries file-level settings shared by every reader in a tree.
type Context struct {
	// Include reports whether a column id should be decoded. Excluded
	// columns read as all-null. A nil Include decodes everything.
	Include func(column int) bool

	// SkipCorrupt tolerates recoverable corruption in integer runs
	// instead of failing the read.
	SkipCorrupt bool

	// UseUTCTimestamp disables writer-to-local timezone reconciliation
	// for timestamp columns.
	UseUTCTimestamp bool

	// Version is the file format version, which gates narrow decimal
	// decoding.
	Version stripemd.Version
}

func (c *Context) include(column int) bool {
	return c.Include == nil || c.Include(column)
}

// A StripePlanner resolves one stripe's metadata and streams. The tree is
// re-bound through a planner at every stripe transition.
type StripePlanner interface {
	// Encoding returns the stripe's declared encoding for a column.
	Encoding(column int) stripemd.ColumnEncoding

	// Stream opens the stripe's stream for a (column, kind) pair, or
	// returns nil when the stripe carries no such stream.
	Stream(name stripemd.StreamName) (streamio.Stream, error)

	// WriterTimezone returns the timezone the stripe was written in.
	WriterTimezone() *time.Location
}

// A TreeReader decodes one schema subtree.
//
// NextVector reads the next rows values into v. The ignore mask, when
// non-nil, marks rows a parent has already nulled; those rows consume no
// presence bits and no values. Seek repositions to a saved row point
// given each column's position provider, indexed by column id. SkipRows
// discards rows without materializing them.
type TreeReader interface {
	ColumnID() int
	StartStripe(planner StripePlanner) error
	NextVector(v vector.Vector, ignore []bool, rows int) error
	Seek(index []*streamio.PositionProvider) error
	SkipRows(rows int64) error
}

// baseReader holds the presence decoding shared by every column reader.
type baseReader struct {
	id      int
	present *encoding.BitFieldReader
	ctx     *Context
}

func newBaseReader(id int, ctx *Context) baseReader {
	return baseReader{id: id, ctx: ctx}
}

func (r *baseReader) ColumnID() int { return r.id }

// startPresent rebinds the presence stream for a new stripe. A stripe
// with no presence stream means the column has no nulls of its own.
func (r *baseReader) startPresent(planner StripePlanner) error {
	r.present = nil
	s, err := planner.Stream(stripemd.StreamName{Column: r.id, Kind: stripemd.StreamPresent})
	if err != nil {
		return err
	}
	if s != nil {
		r.present = encoding.NewBitFieldReader(s)
	}
	return nil
}

// readNulls fills col's null mask for rows rows: a row is null when the
// parent's ignore mask marks it or its own presence bit is clear.
// Presence bits are consumed only for rows the parent did not ignore.
func (r *baseReader) readNulls(col *vector.Column, ignore []bool, rows int) error {
	if r.present == nil && ignore == nil {
		col.NoNulls = true
		col.IsRepeating = false
		for i := 0; i < rows; i++ {
			col.IsNull[i] = false
		}
		return nil
	}
	col.NoNulls = true
	allNull := true
	for i := 0; i < rows; i++ {
		if ignore == nil || !ignore[i] {
			if r.present != nil {
				bit, err := r.present.Next()
				if err != nil {
					return fmt.Errorf("column %d: reading presence: %w", r.id, err)
				}
				if bit != 1 {
					col.NoNulls = false
					col.IsNull[i] = true
				} else {
					col.IsNull[i] = false
					allNull = false
				}
			} else {
				col.IsNull[i] = false
				allNull = false
			}
		} else {
			col.NoNulls = false
			col.IsNull[i] = true
		}
	}
	// An all-null batch is representable as a repeating null.
	col.IsRepeating = !col.NoNulls && allNull
	return nil
}

// countNonNulls consumes rows presence bits and returns how many were set.
// Without a presence stream every row counts.
func (r *baseReader) countNonNulls(rows int64) (int64, error) {
	if r.present == nil {
		return rows, nil
	}
	var result int64
	for i := int64(0); i < rows; i++ {
		bit, err := r.present.Next()
		if err != nil {
			return 0, fmt.Errorf("column %d: skipping presence: %w", r.id, err)
		}
		if bit == 1 {
			result++
		}
	}
	return result, nil
}

// seekPresent repositions the presence stream, when there is one.
func (r *baseReader) seekPresent(index []*streamio.PositionProvider) error {
	if r.present != nil {
		return r.present.Seek(index[r.id])
	}
	return nil
}

// checkEncoding rejects stripe encodings outside the allowed set for a
// column's reader.
func checkEncoding(column int, enc stripemd.ColumnEncoding, allowed ...stripemd.EncodingKind) error {
	for _, k := range allowed {
		if enc.Kind == k {
			return nil
		}
	}
	return fmt.Errorf("column %d: encoding %s: %w", column, enc.Kind, ErrEncodingMismatch)
}
