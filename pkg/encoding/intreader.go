package encoding

import (
	"fmt"

	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/stripemd"
	"github.com/columnobj/columnobj/pkg/vector"
)

// An IntReader decodes a run-length encoded integer stream. Both encoding
// versions satisfy it, so column readers stay agnostic of the stripe's
// encoding choice.
type IntReader interface {
	// Next returns the next integer.
	Next() (int64, error)

	// NextVector fills data for the non-null rows of col, writing the
	// placeholder 1 into null slots and maintaining repeat detection.
	NextVector(col *vector.Column, data []int64, rows int) error

	// Skip discards the next items integers.
	Skip(items int64) error

	// Seek repositions the reader; the extra position entry counts values
	// already consumed within the run starting at the saved offset.
	Seek(pos *streamio.PositionProvider) error
}

// NewIntReader returns the integer decoder matching a column encoding.
// Dictionary variants share the run-length format of their direct
// counterparts.
func NewIntReader(kind stripemd.EncodingKind, in streamio.Stream, signed, skipCorrupt bool) (IntReader, error) {
	switch kind {
	case stripemd.EncodingDirect, stripemd.EncodingDictionary:
		return NewIntReaderV1(in, signed), nil
	case stripemd.EncodingDirectV2, stripemd.EncodingDictionaryV2:
		return NewIntReaderV2(in, signed, skipCorrupt), nil
	}
	return nil, fmt.Errorf("encoding: unknown integer encoding %s", kind)
}
