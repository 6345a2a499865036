package streamio

import (
	"fmt"
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Codec identifies the block compression applied to a stream's chunks.
type Codec int

const (
	CodecNone Codec = iota
	CodecSnappy
	CodecZstd
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecSnappy:
		return "snappy"
	case CodecZstd:
		return "zstd"
	}
	return fmt.Sprintf("Codec(%d)", int(c))
}

// NewStream returns a stream over data compressed with the given codec.
// CodecNone data is served directly from memory.
func NewStream(data []byte, codec Codec) (Stream, error) {
	switch codec {
	case CodecNone:
		return NewMemoryStream(data), nil
	case CodecSnappy, CodecZstd:
		return &chunkedStream{raw: data, codec: codec}, nil
	}
	return nil, fmt.Errorf("streamio: unknown codec %s", codec)
}

// chunkHeaderSize is the little-endian chunk header: 23 bits of chunk
// length and a low bit marking a stored (uncompressed) chunk.
const chunkHeaderSize = 3

// chunkedStream serves a sequence of independently compressed chunks.
// Its saved positions are two entries: the chunk's offset within the
// compressed buffer, then the offset within the decompressed chunk.
type chunkedStream struct {
	raw    []byte
	rawPos int
	codec  Codec

	chunk    []byte
	chunkPos int

	scratch []byte
}

func (s *chunkedStream) Read(p []byte) (int, error) {
	if err := s.ensureChunk(); err != nil {
		return 0, err
	}
	n := copy(p, s.chunk[s.chunkPos:])
	s.chunkPos += n
	return n, nil
}

func (s *chunkedStream) ReadByte() (byte, error) {
	if err := s.ensureChunk(); err != nil {
		return 0, err
	}
	b := s.chunk[s.chunkPos]
	s.chunkPos++
	return b, nil
}

func (s *chunkedStream) Skip(n int64) (int64, error) {
	if err := s.ensureChunk(); err != nil {
		return 0, err
	}
	remain := int64(len(s.chunk) - s.chunkPos)
	if n > remain {
		n = remain
	}
	s.chunkPos += int(n)
	return n, nil
}

func (s *chunkedStream) Seek(pos *PositionProvider) error {
	chunkOff := pos.Next()
	innerOff := pos.Next()
	if chunkOff > uint64(len(s.raw)) {
		return fmt.Errorf("streamio: seek chunk offset %d beyond stream of %d bytes", chunkOff, len(s.raw))
	}
	s.rawPos = int(chunkOff)
	s.chunk = nil
	s.chunkPos = 0
	if innerOff == 0 {
		return nil
	}
	if err := s.nextChunk(); err != nil {
		return err
	}
	if innerOff > uint64(len(s.chunk)) {
		return fmt.Errorf("streamio: seek offset %d beyond chunk of %d bytes", innerOff, len(s.chunk))
	}
	s.chunkPos = int(innerOff)
	return nil
}

func (s *chunkedStream) Available() int {
	// The decompressed remainder is unknown; report what is buffered plus
	// the compressed remainder so emptiness checks stay accurate.
	return (len(s.chunk) - s.chunkPos) + (len(s.raw) - s.rawPos)
}

func (s *chunkedStream) Close() error {
	s.raw = nil
	s.chunk = nil
	s.scratch = nil
	return nil
}

// ensureChunk makes the current chunk non-empty or returns io.EOF.
func (s *chunkedStream) ensureChunk() error {
	for s.chunkPos >= len(s.chunk) {
		if s.rawPos >= len(s.raw) {
			return io.EOF
		}
		if err := s.nextChunk(); err != nil {
			return err
		}
	}
	return nil
}

func (s *chunkedStream) nextChunk() error {
	if s.rawPos+chunkHeaderSize > len(s.raw) {
		return fmt.Errorf("streamio: truncated chunk header at offset %d: %w", s.rawPos, io.ErrUnexpectedEOF)
	}
	header := uint32(s.raw[s.rawPos]) | uint32(s.raw[s.rawPos+1])<<8 | uint32(s.raw[s.rawPos+2])<<16
	stored := header&1 == 1
	length := int(header >> 1)
	body := s.raw[s.rawPos+chunkHeaderSize:]
	if length > len(body) {
		return fmt.Errorf("streamio: chunk of %d bytes at offset %d overruns stream: %w", length, s.rawPos, io.ErrUnexpectedEOF)
	}
	s.rawPos += chunkHeaderSize + length
	s.chunkPos = 0

	if stored {
		s.chunk = body[:length]
		return nil
	}

	var err error
	switch s.codec {
	case CodecSnappy:
		s.scratch, err = snappy.Decode(s.scratch[:cap(s.scratch)], body[:length])
	case CodecZstd:
		dec, derr := getZstdDecoder()
		if derr != nil {
			return derr
		}
		s.scratch, err = dec.DecodeAll(body[:length], s.scratch[:0])
	default:
		err = fmt.Errorf("streamio: unknown codec %s", s.codec)
	}
	if err != nil {
		return fmt.Errorf("streamio: decompressing chunk at offset %d: %w", s.rawPos-chunkHeaderSize-length, err)
	}
	s.chunk = s.scratch
	return nil
}

// getZstdDecoder lazily initializes a shared zstd decoder. Only DecodeAll
// is safe for concurrent use, which is all we call.
var getZstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
	// A concurrency of 0 uses GOMAXPROCS workers.
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
})
