// Package coltype describes the typed, nested schema of a striped columnar
// file. A schema is a tree of [Description] nodes; every node is assigned a
// physical column id in pre-order so that decoders can look up the streams
// it owns.
package coltype

import (
	"fmt"
	"strings"
)

// Category is the type category of one column.
type Category int

const (
	Boolean Category = iota
	Byte
	Short
	Int
	Long
	Float
	Double
	String
	Char
	Varchar
	Binary
	Decimal
	Date
	Timestamp
	// TimestampInstant is a timestamp that is already in UTC and never
	// reconciled against the writer time zone.
	TimestampInstant
	Struct
	List
	Map
	Union
)

var categoryNames = map[Category]string{
	Boolean:          "boolean",
	Byte:             "tinyint",
	Short:            "smallint",
	Int:              "int",
	Long:             "bigint",
	Float:            "float",
	Double:           "double",
	String:           "string",
	Char:             "char",
	Varchar:          "varchar",
	Binary:           "binary",
	Decimal:          "decimal",
	Date:             "date",
	Timestamp:        "timestamp",
	TimestampInstant: "timestamp with local time zone",
	Struct:           "struct",
	List:             "array",
	Map:              "map",
	Union:            "uniontype",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// IsComposite reports whether columns of this category have child columns.
func (c Category) IsComposite() bool {
	switch c {
	case Struct, List, Map, Union:
		return true
	}
	return false
}

// MaxDecimal64Precision is the largest decimal precision that fits the
// narrow 64-bit backed representation.
const MaxDecimal64Precision = 18

// Default decimal precision and scale.
const (
	DefaultDecimalPrecision = 38
	DefaultDecimalScale     = 10
)

// A Description is one node in a schema tree. Descriptions are built with
// the New* constructors and are immutable afterwards apart from column id
// assignment (see [Description.Normalize]).
type Description struct {
	category   Category
	precision  int
	scale      int
	maxLength  int
	children   []*Description
	fieldNames []string

	id int
}

// NewPrimitive returns a Description for a category that carries no type
// parameters. NewPrimitive panics if the category needs parameters or
// children.
func NewPrimitive(c Category) *Description {
	switch c {
	case Char, Varchar, Decimal, Struct, List, Map, Union:
		panic(fmt.Sprintf("coltype: %s is not a parameterless category", c))
	}
	return &Description{category: c, id: -1}
}

// NewDecimal returns a decimal Description with the given precision and
// scale.
func NewDecimal(precision, scale int) *Description {
	return &Description{category: Decimal, precision: precision, scale: scale, id: -1}
}

// NewChar returns a fixed-length character Description.
func NewChar(maxLength int) *Description {
	return &Description{category: Char, maxLength: maxLength, id: -1}
}

// NewVarchar returns a bounded-length character Description.
func NewVarchar(maxLength int) *Description {
	return &Description{category: Varchar, maxLength: maxLength, id: -1}
}

// NewStruct returns a struct Description. names and fields must have the
// same length and fields are kept in declaration order.
func NewStruct(names []string, fields []*Description) *Description {
	if len(names) != len(fields) {
		panic("coltype: struct field names and types must align")
	}
	return &Description{category: Struct, fieldNames: names, children: fields, id: -1}
}

// NewList returns a list Description over the given element type.
func NewList(element *Description) *Description {
	return &Description{category: List, children: []*Description{element}, id: -1}
}

// NewMap returns a map Description over the given key and value types.
func NewMap(key, value *Description) *Description {
	return &Description{category: Map, children: []*Description{key, value}, id: -1}
}

// NewUnion returns a union Description over the given branch types.
func NewUnion(branches ...*Description) *Description {
	return &Description{category: Union, children: branches, id: -1}
}

// Category returns the node's type category.
func (d *Description) Category() Category { return d.category }

// ID returns the physical column id assigned by [Description.Normalize],
// or -1 if the tree has not been normalized.
func (d *Description) ID() int { return d.id }

// Precision returns the decimal precision.
func (d *Description) Precision() int { return d.precision }

// Scale returns the decimal scale.
func (d *Description) Scale() int { return d.scale }

// MaxLength returns the declared maximum length for char and varchar.
func (d *Description) MaxLength() int { return d.maxLength }

// Children returns the child Descriptions in schema order. The returned
// slice must not be modified.
func (d *Description) Children() []*Description { return d.children }

// FieldNames returns the struct field names aligned with Children.
func (d *Description) FieldNames() []string { return d.fieldNames }

// Normalize assigns pre-order column ids starting at 0 for the root.
// It must be called on the root of a schema tree before building readers.
func (d *Description) Normalize() {
	d.assignIDs(0)
}

func (d *Description) assignIDs(next int) int {
	d.id = next
	next++
	for _, c := range d.children {
		next = c.assignIDs(next)
	}
	return next
}

// ColumnCount returns the number of columns in the subtree rooted at d,
// including d itself.
func (d *Description) ColumnCount() int {
	n := 1
	for _, c := range d.children {
		n += c.ColumnCount()
	}
	return n
}

// Equal reports whether two Descriptions describe the same type, ignoring
// column ids.
func (d *Description) Equal(o *Description) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.category != o.category ||
		d.precision != o.precision || d.scale != o.scale ||
		d.maxLength != o.maxLength ||
		len(d.children) != len(o.children) {
		return false
	}
	for i := range d.children {
		if !d.children[i].Equal(o.children[i]) {
			return false
		}
	}
	return true
}

func (d *Description) String() string {
	var sb strings.Builder
	d.format(&sb)
	return sb.String()
}

func (d *Description) format(sb *strings.Builder) {
	sb.WriteString(d.category.String())
	switch d.category {
	case Decimal:
		fmt.Fprintf(sb, "(%d,%d)", d.precision, d.scale)
	case Char, Varchar:
		fmt.Fprintf(sb, "(%d)", d.maxLength)
	case Struct:
		sb.WriteByte('<')
		for i, c := range d.children {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(d.fieldNames[i])
			sb.WriteByte(':')
			c.format(sb)
		}
		sb.WriteByte('>')
	case List, Map, Union:
		sb.WriteByte('<')
		for i, c := range d.children {
			if i > 0 {
				sb.WriteByte(',')
			}
			c.format(sb)
		}
		sb.WriteByte('>')
	}
}
