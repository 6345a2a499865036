package encoding

import (
	"fmt"

	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/vector"
)

// BitFieldReader decodes one-bit values packed most-significant-bit first
// into a byte run-length stream. It backs both presence streams and
// boolean columns.
type BitFieldReader struct {
	input    *ByteRunReader
	current  int
	bitsLeft int
}

// NewBitFieldReader returns a reader over a bit-packed byte run stream.
func NewBitFieldReader(in streamio.Stream) *BitFieldReader {
	return &BitFieldReader{input: NewByteRunReader(in)}
}

func (r *BitFieldReader) readByte() error {
	b, err := r.input.Next()
	if err != nil {
		return err
	}
	r.current = int(b)
	r.bitsLeft = 8
	return nil
}

// Next returns the next bit, 0 or 1.
func (r *BitFieldReader) Next() (int, error) {
	if r.bitsLeft == 0 {
		if err := r.readByte(); err != nil {
			return 0, err
		}
	}
	r.bitsLeft--
	return (r.current >> uint(r.bitsLeft)) & 1, nil
}

// NextVector fills data for the non-null rows of col with 0/1 values,
// using the placeholder 1 for null slots, and maintains repeat detection.
func (r *BitFieldReader) NextVector(col *vector.Column, data []int64, rows int) error {
	col.IsRepeating = true
	for i := 0; i < rows; i++ {
		if col.NoNulls || !col.IsNull[i] {
			bit, err := r.Next()
			if err != nil {
				return err
			}
			data[i] = int64(bit)
		} else {
			data[i] = 1
		}
		if col.IsRepeating && i > 0 &&
			(data[0] != data[i] || col.IsNull[0] != col.IsNull[i]) {
			col.IsRepeating = false
		}
	}
	return nil
}

// Skip discards the next items bits.
func (r *BitFieldReader) Skip(items int64) error {
	if int64(r.bitsLeft) >= items {
		r.bitsLeft -= int(items)
		return nil
	}
	items -= int64(r.bitsLeft)
	if err := r.input.Skip(items / 8); err != nil {
		return err
	}
	rem := items % 8
	if rem == 0 {
		// Byte aligned: defer loading the next byte until a bit is read,
		// so a skip to the exact end of the stream succeeds.
		r.bitsLeft = 0
		return nil
	}
	if err := r.readByte(); err != nil {
		return err
	}
	r.bitsLeft = 8 - int(rem)
	return nil
}

// Seek repositions the reader; the extra position entry counts bits
// already consumed from the byte at the saved offset.
func (r *BitFieldReader) Seek(pos *streamio.PositionProvider) error {
	if err := r.input.Seek(pos); err != nil {
		return err
	}
	consumed := int(pos.Next())
	if consumed > 8 {
		return fmt.Errorf("encoding: bitfield seek past the end of a byte (%d bits)", consumed)
	}
	if consumed != 0 {
		if err := r.readByte(); err != nil {
			return err
		}
		r.bitsLeft = 8 - consumed
	} else {
		r.bitsLeft = 0
	}
	return nil
}
