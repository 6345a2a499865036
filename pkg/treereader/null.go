package treereader

import (
	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/vector"
)

// nullReader stands in for a column the file does not carry or the
// caller excluded: every batch is a repeating null and no streams are
// touched.
type nullReader struct {
	id int
}

func newNullReader(id int) *nullReader { return &nullReader{id: id} }

func (r *nullReader) ColumnID() int { return r.id }

func (r *nullReader) StartStripe(StripePlanner) error { return nil }

func (r *nullReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	col := v.Base()
	col.NoNulls = false
	col.IsRepeating = true
	if len(col.IsNull) > 0 {
		col.IsNull[0] = true
	}
	return nil
}

func (r *nullReader) Seek([]*streamio.PositionProvider) error { return nil }

func (r *nullReader) SkipRows(int64) error { return nil }
