// Package streamio provides the byte-stream cursors that stripe decoding
// reads from. A [Stream] is bound to exactly one (column, stream-kind)
// pair by the stripe planner, supports sequential reads, relative skips
// and positional seeks, and is rebuilt at every stripe transition.
package streamio

import (
	"fmt"
	"io"
)

// A Stream is a sequential, seekable byte cursor over one column stream.
//
// Streams are single-use within a stripe: once the stripe is exhausted or
// a new stripe starts, the stream is invalid.
type Stream interface {
	io.Reader
	io.ByteReader

	// Skip advances the cursor by up to n bytes and returns the number of
	// bytes actually skipped. Partial skips are allowed; callers loop.
	Skip(n int64) (int64, error)

	// Seek repositions the cursor to a previously captured position,
	// consuming as many entries from pos as this stream kind requires.
	Seek(pos *PositionProvider) error

	// Available returns the number of bytes remaining, or an estimate for
	// compressed streams where the decompressed remainder is unknown. It
	// returns 0 only when the stream is exhausted.
	Available() int

	io.Closer
}

// A PositionProvider hands out consecutive entries of one column's saved
// position vector. Each consumer (stream, run decoder) takes the entries
// it wrote when the position was captured.
type PositionProvider struct {
	positions []uint64
	next      int
}

// NewPositionProvider returns a provider over a saved position entry list.
func NewPositionProvider(positions []uint64) *PositionProvider {
	return &PositionProvider{positions: positions}
}

// Next returns the next position entry. Next panics if the position vector
// is exhausted, which indicates a stream/position mismatch bug rather than
// a recoverable condition.
func (p *PositionProvider) Next() uint64 {
	if p.next >= len(p.positions) {
		panic(fmt.Sprintf("streamio: position vector exhausted after %d entries", p.next))
	}
	v := p.positions[p.next]
	p.next++
	return v
}

// ReadAll reads the remainder of a stream into memory. It is used for
// per-stripe blobs such as string dictionaries.
func ReadAll(s Stream) ([]byte, error) {
	buf := make([]byte, 0, s.Available())
	tmp := make([]byte, 4096)
	for {
		n, err := s.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// memoryStream is an uncompressed in-memory stream. Its saved positions
// are a single entry: the byte offset.
type memoryStream struct {
	data []byte
	pos  int
}

// NewMemoryStream returns a Stream over an uncompressed byte slice.
func NewMemoryStream(data []byte) Stream {
	return &memoryStream{data: data}
}

func (s *memoryStream) Read(p []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += n
	return n, nil
}

func (s *memoryStream) ReadByte() (byte, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

func (s *memoryStream) Skip(n int64) (int64, error) {
	if s.pos >= len(s.data) {
		if n == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	remain := int64(len(s.data) - s.pos)
	if n > remain {
		n = remain
	}
	s.pos += int(n)
	return n, nil
}

func (s *memoryStream) Seek(pos *PositionProvider) error {
	off := pos.Next()
	if off > uint64(len(s.data)) {
		return fmt.Errorf("streamio: seek offset %d beyond stream of %d bytes", off, len(s.data))
	}
	s.pos = int(off)
	return nil
}

func (s *memoryStream) Available() int { return len(s.data) - s.pos }

func (s *memoryStream) Close() error {
	s.data = nil
	return nil
}
