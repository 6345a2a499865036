package encoding

import (
	"io"

	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/vector"
)

const maxIntLiteralsV1 = 128

// IntReaderV1 decodes the byte-oriented integer run-length encoding: a
// control byte below 0x80 introduces a run of control+3 values starting
// at a varint base and stepping by a signed one-byte delta, and a control
// byte of 0x80 or above introduces 256-control literal varints.
type IntReaderV1 struct {
	input       streamio.Stream
	signed      bool
	literals    [maxIntLiteralsV1]int64
	numLiterals int
	used        int
	repeat      bool
	delta       int64
}

// NewIntReaderV1 returns a version 1 integer decoder. Unsigned streams
// carry plain varints; signed streams carry zig-zag varints.
func NewIntReaderV1(in streamio.Stream, signed bool) *IntReaderV1 {
	return &IntReaderV1{input: in, signed: signed}
}

func (r *IntReaderV1) readVarint() (int64, error) {
	if r.signed {
		return ReadVslong(r.input)
	}
	u, err := ReadVulong(r.input)
	return int64(u), err
}

func (r *IntReaderV1) readValues() error {
	control, err := r.input.ReadByte()
	if err != nil {
		return err
	}
	r.used = 0
	if control < 0x80 {
		r.repeat = true
		r.numLiterals = int(control) + minRepeatRun
		d, err := r.input.ReadByte()
		if err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		r.delta = int64(int8(d))
		base, err := r.readVarint()
		if err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		r.literals[0] = base
	} else {
		r.repeat = false
		r.numLiterals = 0x100 - int(control)
		for i := 0; i < r.numLiterals; i++ {
			v, err := r.readVarint()
			if err != nil {
				if err == io.EOF {
					return io.ErrUnexpectedEOF
				}
				return err
			}
			r.literals[i] = v
		}
	}
	return nil
}

func (r *IntReaderV1) Next() (int64, error) {
	if r.used == r.numLiterals {
		if err := r.readValues(); err != nil {
			return 0, err
		}
	}
	var result int64
	if r.repeat {
		result = r.literals[0] + int64(r.used)*r.delta
	} else {
		result = r.literals[r.used]
	}
	r.used++
	return result, nil
}

func (r *IntReaderV1) NextVector(col *vector.Column, data []int64, rows int) error {
	col.IsRepeating = true
	for i := 0; i < rows; i++ {
		if col.NoNulls || !col.IsNull[i] {
			v, err := r.Next()
			if err != nil {
				return err
			}
			data[i] = v
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

func (r *IntReaderV1) Skip(items int64) error {
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

func (r *IntReaderV1) Seek(pos *streamio.PositionProvider) error {
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
