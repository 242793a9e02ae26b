package db2700

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dropbox/godropbox/errors"
)

// Value is the content of one record slot; it is either an IntValue or a
// StrValue.
type Value interface {
	Type() Type
	isValue()
}

type IntValue int32

func (IntValue) Type() Type { return Int }
func (IntValue) isValue()   {}

// StrValue always holds exactly as many bytes as its field's Length.
type StrValue []byte

func (StrValue) Type() Type { return Str }
func (StrValue) isValue()   {}

// String drops the zero padding.
func (v StrValue) String() string {
	i := bytes.IndexByte(v, 0)
	if i < 0 {
		return string(v)
	}
	return string(v[:i])
}

// Record owns one fixed-size slot per field of the schema that created it.
type Record struct {
	schema *Schema
	slots  []Value
}

func (s *Schema) NewRecord() *Record {
	slots := make([]Value, len(s.fields))
	for i, f := range s.fields {
		switch f.Type {
		case Int:
			slots[i] = IntValue(0)
		default:
			slots[i] = make(StrValue, f.Length)
		}
	}
	return &Record{
		schema: s,
		slots:  slots,
	}
}

func (r *Record) Schema() *Schema {
	return r.schema
}

func (r *Record) Len() int {
	return len(r.slots)
}

func (r *Record) Value(i int) Value {
	return r.slots[i]
}

// SetValue stores v in slot i.  Strings are zero padded or truncated to the
// field length.
func (r *Record) SetValue(i int, v Value) error {
	f := r.schema.fields[i]
	if v.Type() != f.Type {
		return errors.Newf(
			"cannot assign %v value to %v field %v", v.Type(), f.Type, f.Name)
	}
	switch x := v.(type) {
	case IntValue:
		r.slots[i] = x
	case StrValue:
		dst := r.slots[i].(StrValue)
		n := copy(dst, x)
		for j := n; j < len(dst); j++ {
			dst[j] = 0
		}
	}
	return nil
}

// Int panics if slot i is not an int field.
func (r *Record) Int(i int) int32 {
	v, ok := r.slots[i].(IntValue)
	if !ok {
		panic(errors.Newf("%v is not an int field", r.schema.fields[i].Name))
	}
	return int32(v)
}

// Str panics if slot i is not a str field.
func (r *Record) Str(i int) StrValue {
	v, ok := r.slots[i].(StrValue)
	if !ok {
		panic(errors.Newf("%v is not a str field", r.schema.fields[i].Name))
	}
	return v
}

func (r *Record) SetInt(i int, x int32) error {
	return r.SetValue(i, IntValue(x))
}

func (r *Record) SetStr(i int, s string) error {
	return r.SetValue(i, StrValue(s))
}

// Fill assigns values in schema order; ints may be given as int or int32 and
// strings as string.
func (r *Record) Fill(values ...interface{}) error {
	if len(values) != len(r.slots) {
		return errors.Newf(
			"%v has %d fields; got %d values",
			r.schema.name,
			len(r.slots),
			len(values))
	}
	for i, value := range values {
		var err error
		switch x := value.(type) {
		case int:
			err = r.SetInt(i, int32(x))
		case int32:
			err = r.SetInt(i, x)
		case string:
			err = r.SetStr(i, x)
		case []byte:
			err = r.SetValue(i, StrValue(x))
		case Value:
			err = r.SetValue(i, x)
		default:
			err = errors.Newf("Unsupported value %v of type %T", value, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// CopyByName fills every slot of r from the field of src with the same name.
//
// Precondition: every field of r's schema appears in src's schema with the
// same type and length.
func (r *Record) CopyByName(src *Record) {
	for i, f := range r.schema.fields {
		j := src.schema.FieldPosition(f.Name)
		if j < 0 {
			panic(errors.Newf("%v does not have field %v", src.schema.name, f.Name))
		}
		r.copySlot(i, src.slots[j])
	}
}

// copyFrom copies src's slots (except skip) into r positionally, starting at
// slot start, and returns the next free slot.
func (r *Record) copyFrom(start int, src *Record, skip int) int {
	i := start
	for j, v := range src.slots {
		if j == skip {
			continue
		}
		r.copySlot(i, v)
		i++
	}
	return i
}

func (r *Record) copySlot(i int, v Value) {
	switch x := v.(type) {
	case IntValue:
		r.slots[i] = x
	case StrValue:
		copy(r.slots[i].(StrValue), x)
	}
}

// Merge fills r with all of left's slots followed by all of right's slots
// except the one at position skip.
func (r *Record) Merge(left *Record, right *Record, skip int) {
	n := r.copyFrom(0, left, -1)
	r.copyFrom(n, right, skip)
}

func (r *Record) Clone() *Record {
	result := r.schema.NewRecord()
	result.copyFrom(0, r, -1)
	return result
}

func (r1 *Record) Equals(r2 *Record) bool {
	if r1 == nil || r2 == nil {
		return r1 == r2
	}
	if len(r1.slots) != len(r2.slots) {
		return false
	}
	for i := range r1.slots {
		switch v1 := r1.slots[i].(type) {
		case IntValue:
			v2, ok := r2.slots[i].(IntValue)
			if !ok || v1 != v2 {
				return false
			}
		case StrValue:
			v2, ok := r2.slots[i].(StrValue)
			if !ok || !bytes.Equal(v1, v2) {
				return false
			}
		}
	}
	return true
}

func (r *Record) String() string {
	parts := make([]string, len(r.slots))
	for i, v := range r.slots {
		switch x := v.(type) {
		case IntValue:
			parts[i] = fmt.Sprintf("%d", int32(x))
		case StrValue:
			parts[i] = x.String()
		}
	}
	return strings.Join(parts, " | ")
}
