// Package encoding implements the bit and byte level primitive decoders
// that column readers are built from: packed bitfields, byte run-length
// runs, the two integer run-length encodings, and raw IEEE floating point
// streams.
package encoding

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/columnobj/columnobj/pkg/streamio"
)

// ReadVulong reads an unsigned base-128 varint.
func ReadVulong(in streamio.Stream) (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := in.ReadByte()
		if err != nil {
			if err == io.EOF && shift > 0 {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// ReadVslong reads a signed zig-zag base-128 varint.
func ReadVslong(in streamio.Stream) (int64, error) {
	u, err := ReadVulong(in)
	return ZigzagDecode(u), err
}

// ZigzagDecode maps an unsigned zig-zag value back to a signed integer.
func ZigzagDecode(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// ZigzagEncode maps a signed integer onto the unsigned zig-zag encoding.
func ZigzagEncode(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

// maxBigIntBytes bounds a serialized arbitrary-precision decimal. The
// widest supported precision (38 digits) zig-zag encodes in 19 bytes;
// anything past this is malformed rather than merely large.
const maxBigIntBytes = 32

// ErrBigIntTooLong reports a serialized big integer whose varint form
// exceeds the width any supported decimal can need. The stream is left
// positioned after the value, so callers may demote the row to null and
// continue.
var ErrBigIntTooLong = fmt.Errorf("encoding: serialized integer too long")

// ReadBigInt reads a zig-zag encoded arbitrary-precision integer: base-128
// groups assembled little-endian, then the zig-zag sign transform.
func ReadBigInt(in streamio.Stream) (*big.Int, error) {
	var (
		groups   []byte
		overlong bool
	)
	for {
		b, err := in.ReadByte()
		if err != nil {
			if err == io.EOF && len(groups) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if len(groups) < maxBigIntBytes {
			groups = append(groups, b&0x7f)
		} else {
			overlong = true
		}
		if b&0x80 == 0 {
			break
		}
	}
	if overlong {
		return nil, ErrBigIntTooLong
	}

	result := new(big.Int)
	tmp := new(big.Int)
	for i := len(groups) - 1; i >= 0; i-- {
		result.Lsh(result, 7)
		result.Or(result, tmp.SetInt64(int64(groups[i])))
	}

	// Undo the zig-zag transform.
	negative := result.Bit(0) == 1
	result.Rsh(result, 1)
	if negative {
		result.Add(result, big.NewInt(1))
		result.Neg(result)
	}
	return result, nil
}

// ReadUintBE reads a width-byte big-endian unsigned integer.
func ReadUintBE(in streamio.Stream, width int) (uint64, error) {
	var v uint64
	for i := 0; i < width; i++ {
		b, err := in.ReadByte()
		if err != nil {
			if err == io.EOF && i > 0 {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// ReadBitPacked reads count big-endian bit-packed values of the given bit
// width into buf[offset:]. Runs are byte aligned at their end, so packing
// state never carries across calls.
func ReadBitPacked(in streamio.Stream, buf []int64, offset, count, bitWidth int) error {
	var (
		current  uint64
		bitsLeft int
	)
	for i := offset; i < offset+count; i++ {
		var result uint64
		bitsNeeded := bitWidth
		for bitsNeeded > bitsLeft {
			result <<= uint(bitsLeft)
			result |= current & ((1 << uint(bitsLeft)) - 1)
			bitsNeeded -= bitsLeft
			b, err := in.ReadByte()
			if err != nil {
				if err == io.EOF {
					return io.ErrUnexpectedEOF
				}
				return err
			}
			current = uint64(b)
			bitsLeft = 8
		}
		if bitsNeeded > 0 {
			result <<= uint(bitsNeeded)
			bitsLeft -= bitsNeeded
			result |= (current >> uint(bitsLeft)) & ((1 << uint(bitsNeeded)) - 1)
		}
		buf[i] = int64(result)
	}
	return nil
}

// DecodeBitWidth maps a 5-bit width code onto the bit width it denotes.
// Codes 0 through 23 mean widths 1 through 24; the remaining codes mean
// the aligned widths 26, 28, 30, 32, 40, 48, 56 and 64.
func DecodeBitWidth(code int) int {
	if code >= 0 && code <= 23 {
		return code + 1
	}
	switch code {
	case 24:
		return 26
	case 25:
		return 28
	case 26:
		return 30
	case 27:
		return 32
	case 28:
		return 40
	case 29:
		return 48
	case 30:
		return 56
	default:
		return 64
	}
}

// ClosestFixedBits rounds a bit count up to the nearest encodable width.
func ClosestFixedBits(n int) int {
	switch {
	case n == 0:
		return 1
	case n <= 24:
		return n
	case n <= 26:
		return 26
	case n <= 28:
		return 28
	case n <= 30:
		return 30
	case n <= 32:
		return 32
	case n <= 40:
		return 40
	case n <= 48:
		return 48
	case n <= 56:
		return 56
	default:
		return 64
	}
}

// FloatDecoder reads raw little-endian IEEE floating point values.
type FloatDecoder struct {
	buf [8]byte
}

// ReadFloat reads one 32-bit float, widened to float64.
func (d *FloatDecoder) ReadFloat(in streamio.Stream) (float64, error) {
	if _, err := io.ReadFull(in, d.buf[:4]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(d.buf[:4]))), nil
}

// ReadDouble reads one 64-bit float.
func (d *FloatDecoder) ReadDouble(in streamio.Stream) (float64, error) {
	if _, err := io.ReadFull(in, d.buf[:8]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(d.buf[:8])), nil
}
