package db2700

const (
	BlockSize      = 512
	PageHeaderSize = 20

	// Usable bytes in one page; no record may be longer than this.
	MaxRecordLength = BlockSize - PageHeaderSize

	// Int fields are stored as little-endian int32.
	IntSize = 4
)

// Type is the tag persisted in the catalog file, so the numeric values must
// not change.
type Type uint8

const (
	Int Type = iota
	Str
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Str:
		return "str"
	default:
		return "unknown"
	}
}

// Field is immutable once it has been added to a Schema.
type Field struct {
	Name   string
	Type   Type
	Length int
	Offset int
}

// Schema describes the fixed-length record layout of a single table.
//
// Invariants:
//	length == sum of field lengths
//	fields[i].Offset == sum of fields[j].Length for j < i
//	length <= MaxRecordLength
type Schema struct {
	name   string
	fields []*Field
	length int
}

type Iterator interface {
	Schema() *Schema
	// Returns io.EOF if there are no more records.
	Next() (*Record, error)
	Close() error
}
