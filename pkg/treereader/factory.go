package treereader

import (
	"fmt"

	"github.com/columnobj/columnobj/pkg/coltype"
	"github.com/columnobj/columnobj/pkg/stripemd"
)

// NewTreeReader builds the reader tree for readerType over a file whose
// schema is fileType. Both trees must be normalized. Columns the file
// does not carry, and columns the context excludes, decode as all-null;
// scalar columns whose categories differ are converted when a conversion
// exists.
//
// Pass fileType identical to readerType when no schema evolution is in
// play.
func NewTreeReader(readerType, fileType *coltype.Description, ctx *Context) (TreeReader, error) {
	if fileType == nil {
		return newNullReader(readerType.ID()), nil
	}
	if !ctx.include(fileType.ID()) {
		return newNullReader(fileType.ID()), nil
	}

	rc, fc := readerType.Category(), fileType.Category()
	if rc == fc {
		return newMatchedReader(readerType, fileType, ctx)
	}
	if rc.IsComposite() || fc.IsComposite() {
		return nil, fmt.Errorf("column %d: file has %s, reader wants %s: %w",
			fileType.ID(), fc, rc, ErrConversion)
	}
	inner, err := newScalarReader(fileType, ctx)
	if err != nil {
		return nil, err
	}
	return newConvertReader(inner, fc, rc)
}

// newMatchedReader builds the reader for a node whose category matches
// the file's, recursing into composite children by position.
func newMatchedReader(readerType, fileType *coltype.Description, ctx *Context) (TreeReader, error) {
	id := fileType.ID()
	switch readerType.Category() {
	case coltype.Struct, coltype.Union:
		fileKids := fileType.Children()
		readerKids := readerType.Children()
		children := make([]TreeReader, len(readerKids))
		for i, rk := range readerKids {
			var fk *coltype.Description
			if i < len(fileKids) {
				fk = fileKids[i]
			}
			child, err := NewTreeReader(rk, fk, ctx)
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
		if readerType.Category() == coltype.Struct {
			return newStructReader(id, ctx, children), nil
		}
		return newUnionReader(id, ctx, children), nil

	case coltype.List:
		element, err := NewTreeReader(readerType.Children()[0], fileType.Children()[0], ctx)
		if err != nil {
			return nil, err
		}
		return newListReader(id, ctx, element), nil

	case coltype.Map:
		keys, err := NewTreeReader(readerType.Children()[0], fileType.Children()[0], ctx)
		if err != nil {
			return nil, err
		}
		values, err := NewTreeReader(readerType.Children()[1], fileType.Children()[1], ctx)
		if err != nil {
			return nil, err
		}
		return newMapReader(id, ctx, keys, values), nil
	}

	// Scalars decode with the reader's type parameters but the file's
	// column id.
	return newScalarReaderAs(readerType, id, ctx)
}

func newScalarReader(desc *coltype.Description, ctx *Context) (TreeReader, error) {
	return newScalarReaderAs(desc, desc.ID(), ctx)
}

func newScalarReaderAs(desc *coltype.Description, id int, ctx *Context) (TreeReader, error) {
	switch desc.Category() {
	case coltype.Boolean:
		return newBooleanReader(id, ctx), nil
	case coltype.Byte:
		return newByteReader(id, ctx), nil
	case coltype.Short, coltype.Int, coltype.Long, coltype.Date:
		return newIntegerReader(id, ctx), nil
	case coltype.Float:
		return newFloatReader(id, ctx), nil
	case coltype.Double:
		return newDoubleReader(id, ctx), nil
	case coltype.String:
		return newStringReader(id, ctx), nil
	case coltype.Char:
		return newCharReader(id, ctx, desc.MaxLength()), nil
	case coltype.Varchar:
		return newVarcharReader(id, ctx, desc.MaxLength()), nil
	case coltype.Binary:
		return newBinaryReader(id, ctx), nil
	case coltype.Decimal:
		if decimalAsLong(ctx.Version, desc.Precision()) {
			return newDecimal64Reader(id, ctx, desc.Precision(), desc.Scale()), nil
		}
		return newDecimalReader(id, ctx, desc.Precision(), desc.Scale()), nil
	case coltype.Timestamp:
		return newTimestampReader(id, ctx, false), nil
	case coltype.TimestampInstant:
		return newTimestampReader(id, ctx, true), nil
	}
	return nil, fmt.Errorf("column %d: %s: %w", id, desc.Category(), ErrUnsupportedType)
}

// decimalAsLong reports whether a file stores a decimal column in the
// narrow integer format, which only the pre-release format did and only
// for precisions that fit 64 bits.
func decimalAsLong(version stripemd.Version, precision int) bool {
	return version == stripemd.UnstablePre2 && precision <= coltype.MaxDecimal64Precision
}
