package treereader

import (
	"fmt"
	"math"

	"github.com/columnobj/columnobj/pkg/coltype"
	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/vector"
)

func isIntegerCategory(c coltype.Category) bool {
	switch c {
	case coltype.Byte, coltype.Short, coltype.Int, coltype.Long:
		return true
	}
	return false
}

func isFloatingCategory(c coltype.Category) bool {
	return c == coltype.Float || c == coltype.Double
}

// integerRange returns the inclusive value range of an integer category.
func integerRange(c coltype.Category) (int64, int64) {
	switch c {
	case coltype.Byte:
		return math.MinInt8, math.MaxInt8
	case coltype.Short:
		return math.MinInt16, math.MaxInt16
	case coltype.Int:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

// convertReader adapts a column decoded at the file's type into the type
// the tree was built for. Conversions exist within the integer family and
// between integers and floating point; values outside the target's range
// demote their row to null.
type convertReader struct {
	inner TreeReader
	from  coltype.Category
	to    coltype.Category

	scratchLong   *vector.Long
	scratchDouble *vector.Double
}

// newConvertReader wraps inner, which decodes fileCat values, to fill
// vectors of readerCat.
func newConvertReader(inner TreeReader, fileCat, readerCat coltype.Category) (TreeReader, error) {
	intFrom, intTo := isIntegerCategory(fileCat), isIntegerCategory(readerCat)
	floatFrom, floatTo := isFloatingCategory(fileCat), isFloatingCategory(readerCat)
	if (intFrom || floatFrom) && (intTo || floatTo) {
		return &convertReader{inner: inner, from: fileCat, to: readerCat}, nil
	}
	return nil, fmt.Errorf("column %d: no conversion from %s to %s: %w",
		inner.ColumnID(), fileCat, readerCat, ErrConversion)
}

func (r *convertReader) ColumnID() int { return r.inner.ColumnID() }

func (r *convertReader) StartStripe(planner StripePlanner) error {
	return r.inner.StartStripe(planner)
}

func (r *convertReader) Seek(index []*streamio.PositionProvider) error {
	return r.inner.Seek(index)
}

func (r *convertReader) SkipRows(rows int64) error {
	return r.inner.SkipRows(rows)
}

func (r *convertReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	if isIntegerCategory(r.from) {
		if r.scratchLong == nil {
			r.scratchLong = vector.NewLong(rows)
		}
		r.scratchLong.EnsureSize(rows, false)
		if err := r.inner.NextVector(r.scratchLong, ignore, rows); err != nil {
			return err
		}
		return r.convertFromLong(v, rows)
	}

	if r.scratchDouble == nil {
		r.scratchDouble = vector.NewDouble(rows)
	}
	r.scratchDouble.EnsureSize(rows, false)
	if err := r.inner.NextVector(r.scratchDouble, ignore, rows); err != nil {
		return err
	}
	return r.convertFromDouble(v, rows)
}

// copyColumn moves null and repeat state from the decoded scratch onto
// the destination, returning how many slots carry values.
func copyColumn(dst, src *vector.Column, rows int) int {
	dst.NoNulls = src.NoNulls
	dst.IsRepeating = src.IsRepeating
	copy(dst.IsNull[:rows], src.IsNull[:rows])
	if src.IsRepeating {
		return 1
	}
	return rows
}

func (r *convertReader) convertFromLong(v vector.Vector, rows int) error {
	src := r.scratchLong
	switch dst := v.(type) {
	case *vector.Long:
		n := copyColumn(dst.Base(), src.Base(), rows)
		lo, hi := integerRange(r.to)
		for i := 0; i < n; i++ {
			if !dst.Base().NoNulls && dst.Base().IsNull[i] {
				continue
			}
			val := src.Values[i]
			if val < lo || val > hi {
				dst.Base().IsNull[i] = true
				dst.Base().NoNulls = false
				continue
			}
			dst.Values[i] = val
		}
		return nil
	case *vector.Double:
		n := copyColumn(dst.Base(), src.Base(), rows)
		for i := 0; i < n; i++ {
			if !dst.Base().NoNulls && dst.Base().IsNull[i] {
				dst.Values[i] = math.NaN()
				continue
			}
			dst.Values[i] = float64(src.Values[i])
		}
		return nil
	}
	return fmt.Errorf("column %d: conversion to %s cannot fill %T: %w",
		r.ColumnID(), r.to, v, ErrConversion)
}

func (r *convertReader) convertFromDouble(v vector.Vector, rows int) error {
	src := r.scratchDouble
	switch dst := v.(type) {
	case *vector.Double:
		n := copyColumn(dst.Base(), src.Base(), rows)
		copy(dst.Values[:n], src.Values[:n])
		return nil
	case *vector.Long:
		n := copyColumn(dst.Base(), src.Base(), rows)
		lo, hi := integerRange(r.to)
		for i := 0; i < n; i++ {
			if !dst.Base().NoNulls && dst.Base().IsNull[i] {
				continue
			}
			val := src.Values[i]
			if math.IsNaN(val) || val < float64(lo) || val > float64(hi) {
				dst.Base().IsNull[i] = true
				dst.Base().NoNulls = false
				continue
			}
			dst.Values[i] = int64(val)
		}
		return nil
	}
	return fmt.Errorf("column %d: conversion to %s cannot fill %T: %w",
		r.ColumnID(), r.to, v, ErrConversion)
}
