package vector

import (
	"fmt"

	"github.com/columnobj/columnobj/pkg/coltype"
)

// NewFromType returns the vector kind matching a schema node, recursing
// into children for composite categories. Decimals whose precision fits
// the narrow representation get a [Decimal64] vector; wider decimals get
// an arbitrary-precision [Decimal].
func NewFromType(desc *coltype.Description, rows int) (Vector, error) {
	switch desc.Category() {
	case coltype.Boolean, coltype.Byte, coltype.Short, coltype.Int,
		coltype.Long, coltype.Date:
		return NewLong(rows), nil
	case coltype.Float, coltype.Double:
		return NewDouble(rows), nil
	case coltype.String, coltype.Char, coltype.Varchar, coltype.Binary:
		return NewBytes(rows), nil
	case coltype.Decimal:
		if desc.Precision() <= coltype.MaxDecimal64Precision {
			return NewDecimal64(rows, desc.Precision(), desc.Scale()), nil
		}
		return NewDecimal(rows, desc.Precision(), desc.Scale()), nil
	case coltype.Timestamp, coltype.TimestampInstant:
		return NewTimestamp(rows), nil
	case coltype.Struct:
		fields, err := childVectors(desc, rows)
		if err != nil {
			return nil, err
		}
		return NewStruct(rows, fields), nil
	case coltype.List:
		child, err := NewFromType(desc.Children()[0], rows)
		if err != nil {
			return nil, err
		}
		return NewList(rows, child), nil
	case coltype.Map:
		keys, err := NewFromType(desc.Children()[0], rows)
		if err != nil {
			return nil, err
		}
		values, err := NewFromType(desc.Children()[1], rows)
		if err != nil {
			return nil, err
		}
		return NewMap(rows, keys, values), nil
	case coltype.Union:
		fields, err := childVectors(desc, rows)
		if err != nil {
			return nil, err
		}
		return NewUnion(rows, fields), nil
	}
	return nil, fmt.Errorf("vector: unsupported category %s", desc.Category())
}

func childVectors(desc *coltype.Description, rows int) ([]Vector, error) {
	fields := make([]Vector, len(desc.Children()))
	for i, c := range desc.Children() {
		v, err := NewFromType(c, rows)
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}
	return fields, nil
}

// NewBatch returns a batch for the given schema root. A struct root fans
// out into one top-level vector per field, matching how the reader tree
// fills a batch; any other root becomes a single-column batch.
func NewBatch(root *coltype.Description, rows int) (*Batch, error) {
	if root.Category() == coltype.Struct {
		cols, err := childVectors(root, rows)
		if err != nil {
			return nil, err
		}
		return &Batch{Cols: cols}, nil
	}

	col, err := NewFromType(root, rows)
	if err != nil {
		return nil, err
	}
	return &Batch{Cols: []Vector{col}}, nil
}
