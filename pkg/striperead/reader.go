// Package striperead drives a reader tree over a file's stripes,
// materializing row batches and exposing seek and skip on whole rows.
package striperead

import (
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/columnobj/columnobj/pkg/coltype"
	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/stripemd"
	"github.com/columnobj/columnobj/pkg/treereader"
	"github.com/columnobj/columnobj/pkg/vector"
)

// Config configures a [Reader].
type Config struct {
	// Schema is the normalized schema batches are produced in. Required.
	Schema *coltype.Description

	// FileSchema is the normalized schema the file was written with.
	// Defaults to Schema when the file needs no evolution.
	FileSchema *coltype.Description

	// Include selects the column ids to decode; excluded columns read as
	// all-null. Nil decodes every column.
	Include func(column int) bool

	// SkipCorrupt tolerates recoverable corruption in integer runs.
	SkipCorrupt bool

	// UseUTCTimestamp disables writer-to-local timezone reconciliation.
	UseUTCTimestamp bool

	// Version is the file format version.
	Version stripemd.Version

	Logger     log.Logger
	Registerer prometheus.Registerer
}

// A Reader materializes batches from a reader tree. It is bound to one
// stripe at a time through [Reader.StartStripe] and is not safe for
// concurrent use.
type Reader struct {
	schema  *coltype.Description
	root    treereader.TreeReader
	logger  log.Logger
	metrics *metrics

	rowsDecoded int64
	stripes     int
}

// fieldReader is satisfied by struct roots, whose children fan out into
// separate batch columns.
type fieldReader interface {
	Fields() []treereader.TreeReader
}

// New builds a Reader for the configured schema pair.
func New(cfg Config) (*Reader, error) {
	if cfg.Schema == nil {
		return nil, errors.New("striperead: config needs a schema")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNopLogger()
	}
	fileSchema := cfg.FileSchema
	if fileSchema == nil {
		fileSchema = cfg.Schema
	}

	ctx := &treereader.Context{
		Include:         cfg.Include,
		SkipCorrupt:     cfg.SkipCorrupt,
		UseUTCTimestamp: cfg.UseUTCTimestamp,
		Version:         cfg.Version,
	}
	root, err := treereader.NewTreeReader(cfg.Schema, fileSchema, ctx)
	if err != nil {
		return nil, errors.Wrap(err, "building reader tree")
	}
	return &Reader{
		schema:  cfg.Schema,
		root:    root,
		logger:  cfg.Logger,
		metrics: newMetrics(cfg.Registerer),
	}, nil
}

// Schema returns the schema batches are produced in.
func (r *Reader) Schema() *coltype.Description { return r.schema }

// NewBatch returns a batch shaped for this reader's schema.
func (r *Reader) NewBatch(rows int) (*vector.Batch, error) {
	return vector.NewBatch(r.schema, rows)
}

// StartStripe rebinds the reader tree to a new stripe.
func (r *Reader) StartStripe(planner treereader.StripePlanner) error {
	if err := r.root.StartStripe(planner); err != nil {
		return errors.Wrapf(err, "binding stripe %d", r.stripes)
	}
	r.stripes++
	r.metrics.stripesStarted.Inc()
	level.Debug(r.logger).Log(
		"msg", "started stripe",
		"stripe", r.stripes,
		"writer_timezone", planner.WriterTimezone(),
		"rows_decoded", humanize.Comma(r.rowsDecoded),
	)
	return nil
}

// NextBatch decodes the next rows rows into batch. The caller is
// responsible for not reading past the current stripe's row count.
func (r *Reader) NextBatch(batch *vector.Batch, rows int) error {
	if fr, ok := r.root.(fieldReader); ok && len(batch.Cols) == len(fr.Fields()) {
		for i, f := range fr.Fields() {
			col := batch.Cols[i]
			col.Reset()
			col.EnsureSize(rows, false)
			if err := f.NextVector(col, nil, rows); err != nil {
				return errors.Wrapf(err, "decoding batch after %d rows", r.rowsDecoded)
			}
		}
	} else {
		col := batch.Cols[0]
		col.Reset()
		col.EnsureSize(rows, false)
		if err := r.root.NextVector(col, nil, rows); err != nil {
			return errors.Wrapf(err, "decoding batch after %d rows", r.rowsDecoded)
		}
	}
	batch.Size = rows
	r.rowsDecoded += int64(rows)
	r.metrics.rowsDecoded.Add(float64(rows))
	return nil
}

// Seek repositions every column to a saved row point. positions holds one
// position entry list per column id; a column's decoders consume its
// entries in stream order.
func (r *Reader) Seek(positions [][]uint64) error {
	index := make([]*streamio.PositionProvider, len(positions))
	for i, p := range positions {
		index[i] = streamio.NewPositionProvider(p)
	}
	if err := r.root.Seek(index); err != nil {
		return errors.Wrap(err, "seeking reader tree")
	}
	r.metrics.seeks.Inc()
	level.Debug(r.logger).Log("msg", "seeked reader tree", "columns", len(positions))
	return nil
}

// SkipRows discards the next rows rows without materializing them.
func (r *Reader) SkipRows(rows int64) error {
	if err := r.root.SkipRows(rows); err != nil {
		return errors.Wrapf(err, "skipping %d rows", rows)
	}
	r.metrics.rowsSkipped.Add(float64(rows))
	return nil
}
