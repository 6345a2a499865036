// Package encodetest builds encoded stream payloads for tests. The
// writers here mirror the run-length and bit-packing decoders without
// any of a production writer's run selection heuristics; callers choose
// the run shapes explicitly.
package encodetest

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/columnobj/columnobj/pkg/encoding"
)

// AppendVulong appends an unsigned base-128 varint.
func AppendVulong(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// AppendVslong appends a signed zig-zag base-128 varint.
func AppendVslong(dst []byte, v int64) []byte {
	return AppendVulong(dst, encoding.ZigzagEncode(v))
}

// AppendBigInt appends a zig-zag encoded arbitrary-precision integer
// given its zig-zag form's 7-bit groups little-endian. Most tests can
// use AppendVslong; this exists for values past 64 bits.
func AppendBigIntGroups(dst []byte, groups []byte) []byte {
	for i, g := range groups {
		if i < len(groups)-1 {
			dst = append(dst, g|0x80)
		} else {
			dst = append(dst, g&0x7f)
		}
	}
	return dst
}

// AppendByteRun appends a run of count copies of value. count must be in
// [3, 130].
func AppendByteRun(dst []byte, value byte, count int) []byte {
	if count < 3 || count > 130 {
		panic("encodetest: byte run count out of range")
	}
	return append(dst, byte(count-3), value)
}

// AppendByteLiterals appends literal bytes. len(vals) must be in [1, 128].
func AppendByteLiterals(dst []byte, vals ...byte) []byte {
	if len(vals) < 1 || len(vals) > 128 {
		panic("encodetest: byte literal count out of range")
	}
	dst = append(dst, byte(0x100-len(vals)))
	return append(dst, vals...)
}

// AppendPackedBits packs bits most-significant-bit first and appends
// them as byte run-length literal runs.
func AppendPackedBits(dst []byte, bitvals []int) []byte {
	var packed []byte
	var cur byte
	used := 0
	for _, b := range bitvals {
		cur = cur<<1 | byte(b&1)
		used++
		if used == 8 {
			packed = append(packed, cur)
			cur, used = 0, 0
		}
	}
	if used > 0 {
		packed = append(packed, cur<<uint(8-used))
	}
	for len(packed) > 0 {
		n := len(packed)
		if n > 128 {
			n = 128
		}
		dst = AppendByteLiterals(dst, packed[:n]...)
		packed = packed[n:]
	}
	return dst
}

// AppendIntRunV1 appends a version 1 run: count copies starting at base,
// stepping by delta. count must be in [3, 130].
func AppendIntRunV1(dst []byte, base int64, delta int8, count int, signed bool) []byte {
	if count < 3 || count > 130 {
		panic("encodetest: integer run count out of range")
	}
	dst = append(dst, byte(count-3), byte(delta))
	if signed {
		return AppendVslong(dst, base)
	}
	return AppendVulong(dst, uint64(base))
}

// AppendIntLiteralsV1 appends version 1 literal varints. len(vals) must
// be in [1, 128].
func AppendIntLiteralsV1(dst []byte, signed bool, vals ...int64) []byte {
	if len(vals) < 1 || len(vals) > 128 {
		panic("encodetest: integer literal count out of range")
	}
	dst = append(dst, byte(0x100-len(vals)))
	for _, v := range vals {
		if signed {
			dst = AppendVslong(dst, v)
		} else {
			dst = AppendVulong(dst, uint64(v))
		}
	}
	return dst
}

// encodeBitWidth maps a bit width onto its 5-bit code, the inverse of
// encoding.DecodeBitWidth for encodable widths.
func encodeBitWidth(w int) int {
	switch {
	case w <= 24:
		return w - 1
	case w <= 26:
		return 24
	case w <= 28:
		return 25
	case w <= 30:
		return 26
	case w <= 32:
		return 27
	case w <= 40:
		return 28
	case w <= 48:
		return 29
	case w <= 56:
		return 30
	default:
		return 31
	}
}

func bitsRequired(v uint64) int {
	n := bits.Len64(v)
	if n == 0 {
		return 1
	}
	return n
}

// appendBitPacked packs values most-significant-bit first at the given
// width, byte aligned at the end.
func appendBitPacked(dst []byte, vals []uint64, width int) []byte {
	var cur byte
	bitsLeft := 8
	for _, v := range vals {
		toWrite := width
		for toWrite > bitsLeft {
			cur |= byte(v >> uint(toWrite-bitsLeft))
			toWrite -= bitsLeft
			dst = append(dst, cur)
			cur, bitsLeft = 0, 8
		}
		if toWrite > 0 {
			bitsLeft -= toWrite
			cur |= byte(v&(1<<uint(toWrite)-1)) << uint(bitsLeft)
		}
	}
	if bitsLeft != 8 {
		dst = append(dst, cur)
	}
	return dst
}

// AppendShortRepeatV2 appends a version 2 short-repeat run. count must
// be in [3, 10].
func AppendShortRepeatV2(dst []byte, value int64, count int, signed bool) []byte {
	if count < 3 || count > 10 {
		panic("encodetest: short repeat count out of range")
	}
	u := uint64(value)
	if signed {
		u = encoding.ZigzagEncode(value)
	}
	width := (bitsRequired(u) + 7) / 8
	dst = append(dst, byte(width-1)<<3|byte(count-3))
	for i := width - 1; i >= 0; i-- {
		dst = append(dst, byte(u>>uint(8*i)))
	}
	return dst
}

// AppendDirectV2 appends a version 2 direct run. len(vals) must be in
// [1, 512].
func AppendDirectV2(dst []byte, signed bool, vals ...int64) []byte {
	if len(vals) < 1 || len(vals) > 512 {
		panic("encodetest: direct run length out of range")
	}
	packed := make([]uint64, len(vals))
	maxBits := 1
	for i, v := range vals {
		u := uint64(v)
		if signed {
			u = encoding.ZigzagEncode(v)
		}
		packed[i] = u
		if n := bitsRequired(u); n > maxBits {
			maxBits = n
		}
	}
	width := encoding.ClosestFixedBits(maxBits)
	code := encodeBitWidth(width)
	l := len(vals) - 1
	dst = append(dst, 0x40|byte(code)<<1|byte(l>>8), byte(l))
	return appendBitPacked(dst, packed, width)
}

// AppendDeltaV2 appends a version 2 delta run. vals must be monotonic
// after the first step and len(vals) in [2, 512].
func AppendDeltaV2(dst []byte, signed bool, vals ...int64) []byte {
	if len(vals) < 2 || len(vals) > 512 {
		panic("encodetest: delta run length out of range")
	}
	deltaBase := vals[1] - vals[0]
	fixed := true
	maxBits := 0
	deltas := make([]uint64, 0, len(vals)-2)
	for i := 2; i < len(vals); i++ {
		d := vals[i] - vals[i-1]
		if d != deltaBase {
			fixed = false
		}
		mag := d
		if mag < 0 {
			mag = -mag
		}
		if (deltaBase < 0) != (d < 0) && d != 0 {
			panic("encodetest: delta run must be monotonic")
		}
		deltas = append(deltas, uint64(mag))
		if n := bitsRequired(uint64(mag)); n > maxBits {
			maxBits = n
		}
	}

	l := len(vals) - 1 // stored length excludes the base value
	var header []byte
	if fixed {
		header = []byte{0xc0 | byte(l>>8), byte(l)}
	} else {
		width := encoding.ClosestFixedBits(maxBits)
		if width == 1 {
			// width 1 is reserved for fixed-delta runs
			width = 2
		}
		code := encodeBitWidth(width)
		header = []byte{0xc0 | byte(code)<<1 | byte(l>>8), byte(l)}
	}
	dst = append(dst, header...)
	if signed {
		dst = AppendVslong(dst, vals[0])
	} else {
		dst = AppendVulong(dst, uint64(vals[0]))
	}
	dst = AppendVslong(dst, deltaBase)
	if !fixed {
		width := encoding.ClosestFixedBits(maxBits)
		if width == 1 {
			width = 2
		}
		dst = appendBitPacked(dst, deltas, width)
	}
	return dst
}

// AppendFloat32LE appends a float32 in little-endian IEEE form.
func AppendFloat32LE(dst []byte, v float32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	return append(dst, buf[:]...)
}

// AppendFloat64LE appends a float64 in little-endian IEEE form.
func AppendFloat64LE(dst []byte, v float64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	return append(dst, buf[:]...)
}
