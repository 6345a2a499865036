package encoding

import (
	"io"

	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/vector"
)

// minRepeatRun is the shortest run the byte and integer run-length
// encodings will emit; run lengths are stored biased by this amount.
const minRepeatRun = 3

const maxByteLiterals = 128

// ByteRunReader decodes the byte-oriented run-length encoding: a control
// byte below 0x80 introduces a run of control+3 copies of the following
// byte, and a control byte of 0x80 or above introduces 256-control
// literal bytes.
type ByteRunReader struct {
	input       streamio.Stream
	literals    [maxByteLiterals]byte
	numLiterals int
	used        int
	repeat      bool
}

// NewByteRunReader returns a reader over a byte run-length stream.
func NewByteRunReader(in streamio.Stream) *ByteRunReader {
	return &ByteRunReader{input: in}
}

func (r *ByteRunReader) readValues() error {
	control, err := r.input.ReadByte()
	if err != nil {
		return err
	}
	r.used = 0
	if control < 0x80 {
		r.repeat = true
		r.numLiterals = int(control) + minRepeatRun
		val, err := r.input.ReadByte()
		if err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		r.literals[0] = val
	} else {
		r.repeat = false
		r.numLiterals = 0x100 - int(control)
		if _, err := io.ReadFull(r.input, r.literals[:r.numLiterals]); err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
	return nil
}

// Next returns the next byte in the stream.
func (r *ByteRunReader) Next() (byte, error) {
	if r.used == r.numLiterals {
		if err := r.readValues(); err != nil {
			return 0, err
		}
	}
	if r.repeat {
		r.used++
		return r.literals[0], nil
	}
	v := r.literals[r.used]
	r.used++
	return v, nil
}

// NextVector fills data for the non-null rows of col, sign-extending
// each byte to int64: the values are signed tinyints on the wire. Null
// slots get the placeholder value 1 so repeat detection never trips on
// uninitialized memory.
func (r *ByteRunReader) NextVector(col *vector.Column, data []int64, rows int) error {
	col.IsRepeating = true
	for i := 0; i < rows; i++ {
		if col.NoNulls || !col.IsNull[i] {
			b, err := r.Next()
			if err != nil {
				return err
			}
			data[i] = int64(int8(b))
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

// NextTags fills tags for rows not marked in ignore, widening each byte
// to int. Ignored slots are left untouched. A nil ignore reads every row.
func (r *ByteRunReader) NextTags(ignore []bool, tags []int, rows int) error {
	for i := 0; i < rows; i++ {
		if ignore != nil && ignore[i] {
			continue
		}
		b, err := r.Next()
		if err != nil {
			return err
		}
		tags[i] = int(b)
	}
	return nil
}

// Skip discards the next items bytes.
func (r *ByteRunReader) Skip(items int64) error {
	for items > 0 {
		if r.used == r.numLiterals {
			if err := r.readValues(); err != nil {
				return err
			}
		}
		consume := int64(r.numLiterals - r.used)
		if consume > items {
			consume = items
		}
		r.used += int(consume)
		items -= consume
	}
	return nil
}

// Seek repositions the reader: the underlying stream seeks first, then
// one extra entry counts bytes already consumed within the run starting
// at that position.
func (r *ByteRunReader) Seek(pos *streamio.PositionProvider) error {
	if err := r.input.Seek(pos); err != nil {
		return err
	}
	consumed := int(pos.Next())
	r.numLiterals = 0
	r.used = 0
	for consumed > 0 {
		if err := r.readValues(); err != nil {
			return err
		}
		if consumed <= r.numLiterals {
			r.used = consumed
			break
		}
		consumed -= r.numLiterals
	}
	return nil
}
