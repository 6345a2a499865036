package striperead

import (
	"time"

	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/stripemd"
)

// Stripe is an in-memory stripe: per-column encodings plus the raw
// payload of every stream the stripe carries. It implements
// [treereader.StripePlanner], opening fresh stream cursors on demand.
type Stripe struct {
	encodings map[int]stripemd.ColumnEncoding
	streams   map[stripemd.StreamName][]byte
	codec     streamio.Codec
	writerTZ  *time.Location
	rowCount  int64
}

// NewStripe returns an empty stripe whose streams are compressed with
// the given codec.
func NewStripe(codec streamio.Codec) *Stripe {
	return &Stripe{
		encodings: map[int]stripemd.ColumnEncoding{},
		streams:   map[stripemd.StreamName][]byte{},
		codec:     codec,
	}
}

// SetEncoding declares a column's encoding. Columns without a declared
// encoding default to direct.
func (s *Stripe) SetEncoding(column int, enc stripemd.ColumnEncoding) *Stripe {
	s.encodings[column] = enc
	return s
}

// SetStream attaches a stream's raw payload.
func (s *Stripe) SetStream(name stripemd.StreamName, data []byte) *Stripe {
	s.streams[name] = data
	return s
}

// SetWriterTimezone records the timezone the stripe was written in.
func (s *Stripe) SetWriterTimezone(loc *time.Location) *Stripe {
	s.writerTZ = loc
	return s
}

// SetRowCount records the stripe's row count.
func (s *Stripe) SetRowCount(rows int64) *Stripe {
	s.rowCount = rows
	return s
}

// RowCount returns the stripe's declared row count.
func (s *Stripe) RowCount() int64 { return s.rowCount }

func (s *Stripe) Encoding(column int) stripemd.ColumnEncoding {
	return s.encodings[column]
}

func (s *Stripe) Stream(name stripemd.StreamName) (streamio.Stream, error) {
	data, ok := s.streams[name]
	if !ok {
		return nil, nil
	}
	return streamio.NewStream(data, s.codec)
}

func (s *Stripe) WriterTimezone() *time.Location { return s.writerTZ }
