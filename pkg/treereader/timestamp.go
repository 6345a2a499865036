package treereader

import (
	"time"

	"github.com/columnobj/columnobj/pkg/encoding"
	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/stripemd"
	"github.com/columnobj/columnobj/pkg/vector"
)

// baseInstant anchors serialized timestamp seconds: values are stored
// relative to 2015-01-01 00:00:00 in the writer's timezone.
var baseInstant = struct{ year, month, day int }{2015, 1, 1}

// timestampReader decodes timestamps: DATA carries seconds relative to
// the base instant in the writer's timezone, SECONDARY carries
// nanoseconds with trailing-zero compression. Local timestamps are
// reconciled from the writer's timezone to the reader's; instant
// timestamps are fixed to UTC on both sides.
type timestampReader struct {
	baseReader
	instant bool

	data  encoding.IntReader
	nanos encoding.IntReader

	readerLoc *time.Location
	writerLoc *time.Location
	base      int64 // seconds
	sameRules bool
	baseCache map[string]int64
}

func newTimestampReader(id int, ctx *Context, instant bool) *timestampReader {
	r := &timestampReader{
		baseReader: newBaseReader(id, ctx),
		instant:    instant,
		baseCache:  map[string]int64{},
	}
	if instant || ctx.UseUTCTimestamp {
		r.readerLoc = time.UTC
	} else {
		r.readerLoc = time.Local
	}
	if instant {
		r.setWriterZone(time.UTC)
	} else {
		r.setWriterZone(time.Local)
	}
	return r
}

func (r *timestampReader) setWriterZone(loc *time.Location) {
	r.writerLoc = loc
	r.sameRules = sameZoneRules(loc, r.readerLoc)
	key := loc.String()
	if base, ok := r.baseCache[key]; ok {
		r.base = base
		return
	}
	r.base = time.Date(baseInstant.year, time.Month(baseInstant.month), baseInstant.day,
		0, 0, 0, 0, loc).Unix()
	r.baseCache[key] = r.base
}

func (r *timestampReader) StartStripe(planner StripePlanner) error {
	enc := planner.Encoding(r.id)
	if err := checkEncoding(r.id, enc,
		stripemd.EncodingDirect, stripemd.EncodingDirectV2); err != nil {
		return err
	}
	if err := r.startPresent(planner); err != nil {
		return err
	}
	s, err := openStream(planner, r.id, stripemd.StreamData)
	if err != nil {
		return err
	}
	if r.data, err = encoding.NewIntReader(enc.Kind, s, true, r.ctx.SkipCorrupt); err != nil {
		return err
	}
	if s, err = openStream(planner, r.id, stripemd.StreamSecondary); err != nil {
		return err
	}
	if r.nanos, err = encoding.NewIntReader(enc.Kind, s, false, r.ctx.SkipCorrupt); err != nil {
		return err
	}
	if !r.instant {
		if loc := planner.WriterTimezone(); loc != nil {
			r.setWriterZone(loc)
		}
	}
	return nil
}

func (r *timestampReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	tv := v.(*vector.Timestamp)
	col := tv.Base()
	if err := r.readNulls(col, ignore, rows); err != nil {
		return err
	}
	tv.IsUTC = r.ctx.UseUTCTimestamp || r.instant

	for i := 0; i < rows; i++ {
		if !col.NoNulls && col.IsNull[i] {
			continue
		}
		rawNanos, err := r.nanos.Next()
		if err != nil {
			return err
		}
		sec, err := r.data.Next()
		if err != nil {
			return err
		}
		newNanos := parseNanos(rawNanos)
		millis := (sec+r.base)*1000 + newNanos/1_000_000
		if millis < 0 && newNanos > 999_999 {
			// The seconds were rounded toward zero when written; borrow
			// one back for negative instants with sub-second detail.
			millis -= 1000
		}
		if !r.sameRules {
			millis += zoneAdjustment(r.writerLoc, r.readerLoc, millis)
		}
		tv.Millis[i] = millis
		tv.Nanos[i] = int32(newNanos)
	}
	return nil
}

func (r *timestampReader) Seek(index []*streamio.PositionProvider) error {
	if err := r.seekPresent(index); err != nil {
		return err
	}
	if err := r.data.Seek(index[r.id]); err != nil {
		return err
	}
	return r.nanos.Seek(index[r.id])
}

func (r *timestampReader) SkipRows(rows int64) error {
	n, err := r.countNonNulls(rows)
	if err != nil {
		return err
	}
	if err := r.data.Skip(n); err != nil {
		return err
	}
	return r.nanos.Skip(n)
}

// parseNanos expands the serialized nanosecond form: the low three bits
// count trailing decimal zeros (plus one when set) stripped from the
// value above them.
func parseNanos(serialized int64) int64 {
	zeros := serialized & 7
	result := int64(uint64(serialized) >> 3)
	if zeros != 0 {
		for i := int64(0); i <= zeros; i++ {
			result *= 10
		}
	}
	return result
}

// zoneOffsetMillis returns a zone's UTC offset at a UTC instant.
func zoneOffsetMillis(loc *time.Location, millis int64) int64 {
	_, off := time.UnixMilli(millis).In(loc).Zone()
	return int64(off) * 1000
}

// zoneAdjustment returns the correction that maps a wall-clock instant
// from the writer's zone into the reader's. The reader offset is probed
// twice so an adjustment that crosses a daylight-saving boundary settles
// on the post-transition offset.
func zoneAdjustment(writer, reader *time.Location, millis int64) int64 {
	writerOffset := zoneOffsetMillis(writer, millis)
	readerOffset := zoneOffsetMillis(reader, millis)
	adjusted := millis + writerOffset - readerOffset
	return writerOffset - zoneOffsetMillis(reader, adjusted)
}

// zoneRuleProbes samples winter and summer instants across several years
// so zones that differ only in daylight-saving rules compare unequal.
var zoneRuleProbes = []int64{
	0,
	time.Date(2005, 1, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
	time.Date(2005, 7, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
	time.Date(2015, 1, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
	time.Date(2015, 7, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
	time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
	time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
}

// sameZoneRules reports whether two zones agree on their offsets at a
// fixed set of probe instants.
func sameZoneRules(a, b *time.Location) bool {
	if a == b || a.String() == b.String() {
		return true
	}
	for _, p := range zoneRuleProbes {
		if zoneOffsetMillis(a, p) != zoneOffsetMillis(b, p) {
			return false
		}
	}
	return true
}
