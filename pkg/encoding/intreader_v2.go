package encoding

import (
	"fmt"
	"io"

	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/vector"
)

const maxIntLiteralsV2 = 512

// Sub-encoding selectors from the top two bits of a run header.
const (
	subShortRepeat = 0
	subDirect      = 1
	subPatchedBase = 2
	subDelta       = 3
)

// IntReaderV2 decodes the bit-packed integer run-length encoding. Each
// run's header byte selects one of four sub-encodings: short repeat,
// direct, patched base, or delta.
//
// With skipCorrupt set, arithmetic overflow in corrupt delta runs and
// out-of-range patch entries are tolerated (values wrap, stray patches
// are ignored); otherwise they reject the run.
type IntReaderV2 struct {
	input       streamio.Stream
	signed      bool
	skipCorrupt bool

	literals     [maxIntLiteralsV2]int64
	patchScratch [32]int64
	numLiterals  int
	used         int
}

// NewIntReaderV2 returns a version 2 integer decoder.
func NewIntReaderV2(in streamio.Stream, signed, skipCorrupt bool) *IntReaderV2 {
	return &IntReaderV2{input: in, signed: signed, skipCorrupt: skipCorrupt}
}

func (r *IntReaderV2) readValues() error {
	first, err := r.input.ReadByte()
	if err != nil {
		return err
	}
	r.used = 0
	r.numLiterals = 0
	switch (first >> 6) & 0x03 {
	case subShortRepeat:
		return r.readShortRepeat(first)
	case subDirect:
		return r.readDirect(first)
	case subPatchedBase:
		return r.readPatchedBase(first)
	default:
		return r.readDelta(first)
	}
}

// readShortRepeat decodes a header of (width-1)<<3 | (count-3) followed by
// a width-byte big-endian value repeated count times.
func (r *IntReaderV2) readShortRepeat(first byte) error {
	width := int((first>>3)&0x07) + 1
	count := int(first&0x07) + minRepeatRun

	raw, err := ReadUintBE(r.input, width)
	if err != nil {
		return err
	}
	val := int64(raw)
	if r.signed {
		val = ZigzagDecode(raw)
	}
	for i := 0; i < count; i++ {
		r.literals[i] = val
	}
	r.numLiterals = count
	return nil
}

// readRunLength completes the 9-bit length field split across the header
// byte's low bit and a second byte; lengths are stored biased by one.
func (r *IntReaderV2) readRunLength(first byte) (int, error) {
	second, err := r.input.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return (int(first&0x01)<<8 | int(second)) + 1, nil
}

// readDirect decodes a run of bit-packed values at an encoded fixed width.
func (r *IntReaderV2) readDirect(first byte) error {
	width := DecodeBitWidth(int(first>>1) & 0x1f)
	length, err := r.readRunLength(first)
	if err != nil {
		return err
	}

	if err := ReadBitPacked(r.input, r.literals[:], 0, length, width); err != nil {
		return err
	}
	if r.signed {
		for i := 0; i < length; i++ {
			r.literals[i] = ZigzagDecode(uint64(r.literals[i]))
		}
	}
	r.numLiterals = length
	return nil
}

// readPatchedBase decodes a direct-style run whose outliers are stored in
// a separate patch list: each packed value is offset from a sign-magnitude
// base, and each patch entry carries a gap to the next patched slot plus
// high-order bits to splice in above the packed width.
func (r *IntReaderV2) readPatchedBase(first byte) error {
	width := DecodeBitWidth(int(first>>1) & 0x1f)
	length, err := r.readRunLength(first)
	if err != nil {
		return err
	}

	third, err := r.input.ReadByte()
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	baseWidth := int(third>>5)&0x07 + 1
	patchWidth := DecodeBitWidth(int(third) & 0x1f)

	fourth, err := r.input.ReadByte()
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	gapWidth := int(fourth>>5)&0x07 + 1
	patchListLen := int(fourth) & 0x1f

	// The base is sign-magnitude: the top bit of its big-endian bytes is
	// the sign.
	rawBase, err := ReadUintBE(r.input, baseWidth)
	if err != nil {
		return err
	}
	signMask := uint64(1) << (uint(baseWidth)*8 - 1)
	var base int64
	if rawBase&signMask != 0 {
		base = -int64(rawBase &^ signMask)
	} else {
		base = int64(rawBase)
	}

	if err := ReadBitPacked(r.input, r.literals[:], 0, length, width); err != nil {
		return err
	}

	patchPackedWidth := ClosestFixedBits(gapWidth + patchWidth)
	patches := r.patchScratch[:patchListLen]
	if err := ReadBitPacked(r.input, patches, 0, patchListLen, patchPackedWidth); err != nil {
		return err
	}

	patchMask := int64(1)<<uint(patchWidth) - 1
	patchIdx := 0
	var currGap, currPatch, actualGap int64

	// A gap over 255 is encoded as filler entries of gap 255, patch 0.
	advance := func() error {
		currGap = int64(uint64(patches[patchIdx]) >> uint(patchWidth))
		currPatch = patches[patchIdx] & patchMask
		for currGap == 255 && currPatch == 0 {
			actualGap += 255
			patchIdx++
			if patchIdx >= patchListLen {
				return fmt.Errorf("encoding: patch list overrun in patched base run")
			}
			currGap = int64(uint64(patches[patchIdx]) >> uint(patchWidth))
			currPatch = patches[patchIdx] & patchMask
		}
		actualGap += currGap
		return nil
	}
	if patchListLen == 0 {
		if !r.skipCorrupt {
			return fmt.Errorf("encoding: patched base run with empty patch list")
		}
		actualGap = int64(length)
	} else if err := advance(); err != nil {
		if !r.skipCorrupt {
			return err
		}
		actualGap = int64(length)
	}

	for i := 0; i < length; i++ {
		if int64(i) == actualGap {
			patched := r.literals[i] | currPatch<<uint(width)
			r.literals[i] = base + patched
			patchIdx++
			if patchIdx < patchListLen {
				actualGap = 0
				if err := advance(); err != nil {
					if !r.skipCorrupt {
						return err
					}
					actualGap = int64(length)
					continue
				}
				actualGap += int64(i)
			}
		} else {
			r.literals[i] = base + r.literals[i]
		}
	}
	r.numLiterals = length
	return nil
}

// readDelta decodes a run as a varint base, a signed varint initial delta
// whose sign fixes the run's direction, and, unless the header width is
// zero (a fixed-delta run), packed magnitudes of the remaining deltas.
func (r *IntReaderV2) readDelta(first byte) error {
	widthCode := int(first>>1) & 0x1f
	width := 0
	if widthCode != 0 {
		width = DecodeBitWidth(widthCode)
	}
	// The stored length excludes the base value.
	length, err := r.readRunLength(first)
	if err != nil {
		return err
	}
	deltas := length - 1

	var base int64
	if r.signed {
		base, err = ReadVslong(r.input)
	} else {
		var u uint64
		u, err = ReadVulong(r.input)
		base = int64(u)
	}
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	deltaBase, err := ReadVslong(r.input)
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}

	r.literals[0] = base
	n := 1
	if width == 0 {
		// Fixed delta run.
		for i := 0; i < deltas; i++ {
			r.literals[n] = r.literals[n-1] + deltaBase
			n++
		}
	} else {
		r.literals[1] = base + deltaBase
		n = 2
		remaining := deltas - 1
		if remaining > 0 {
			if err := ReadBitPacked(r.input, r.literals[:], n, remaining, width); err != nil {
				return err
			}
			for i := 0; i < remaining; i++ {
				prev := r.literals[n-1]
				d := r.literals[n]
				if deltaBase < 0 {
					r.literals[n] = prev - d
					if !r.skipCorrupt && d >= 0 && r.literals[n] > prev {
						return fmt.Errorf("encoding: delta run underflows at value %d", n)
					}
				} else {
					r.literals[n] = prev + d
					if !r.skipCorrupt && d >= 0 && r.literals[n] < prev {
						return fmt.Errorf("encoding: delta run overflows at value %d", n)
					}
				}
				n++
			}
		}
	}
	r.numLiterals = n
	return nil
}

func (r *IntReaderV2) Next() (int64, error) {
	if r.used == r.numLiterals {
		if err := r.readValues(); err != nil {
			return 0, err
		}
	}
	v := r.literals[r.used]
	r.used++
	return v, nil
}

func (r *IntReaderV2) NextVector(col *vector.Column, data []int64, rows int) error {
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

func (r *IntReaderV2) Skip(items int64) error {
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

func (r *IntReaderV2) Seek(pos *streamio.PositionProvider) error {
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
