package db2700

import (
	"strings"
	"unicode"

	"github.com/dropbox/godropbox/errors"
)

func NewIntField(name string) *Field {
	return &Field{
		Name:   name,
		Type:   Int,
		Length: IntSize,
	}
}

func NewStrField(name string, length int) *Field {
	return &Field{
		Name:   name,
		Type:   Str,
		Length: length,
	}
}

// NewField builds a field from a persisted kind tag; the length of Int
// fields is always IntSize regardless of what was requested.
func NewField(name string, type_ Type, length int) (*Field, error) {
	switch type_ {
	case Int:
		return NewIntField(name), nil
	case Str:
		return NewStrField(name, length), nil
	default:
		return nil, errors.Newf("Unsupported type %d for field %v", type_, name)
	}
}

// Names are written to the whitespace-separated catalog file, so they may not
// be empty or contain whitespace.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("name must not be empty")
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return errors.Newf("name %q must not contain whitespace", name)
	}
	return nil
}

func NewSchema(name string) (*Schema, error) {
	err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	return &Schema{name: name}, nil
}

func (s *Schema) Name() string {
	return s.name
}

func (s *Schema) Len() int {
	return s.length
}

func (s *Schema) NumFields() int {
	return len(s.fields)
}

func (s *Schema) Fields() []*Field {
	return s.fields
}

func (s *Schema) FieldAt(i int) *Field {
	return s.fields[i]
}

// AddField appends a copy of f and returns the new number of fields.  The
// schema is left unchanged if the record would no longer fit in one page.
func (s *Schema) AddField(f *Field) (int, error) {
	err := ValidateName(f.Name)
	if err != nil {
		return len(s.fields), err
	}
	if f.Length <= 0 {
		return len(s.fields), errors.Newf(
			"field %v must have a positive length; got %d", f.Name, f.Length)
	}
	if f.Type == Int && f.Length != IntSize {
		return len(s.fields), errors.Newf(
			"int field %v must be %d bytes; got %d", f.Name, IntSize, f.Length)
	}
	if s.length+f.Length > MaxRecordLength {
		return len(s.fields), errors.Newf(
			"schema %v already has %d bytes, adding %d will exceed limited %d bytes",
			s.name,
			s.length,
			f.Length,
			MaxRecordLength)
	}
	s.fields = append(s.fields, &Field{
		Name:   f.Name,
		Type:   f.Type,
		Length: f.Length,
		Offset: s.length,
	})
	s.length += f.Length
	return len(s.fields), nil
}

// Field returns the first field with the given name, or nil.
func (s *Schema) Field(name string) *Field {
	for _, f := range s.fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldPosition returns -1 if there is no such field.
func (s *Schema) FieldPosition(name string) int {
	for i, f := range s.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FieldAtOffset recovers a field from a byte offset into the record.
func (s *Schema) FieldAtOffset(offset int) *Field {
	for _, f := range s.fields {
		if f.Offset == offset {
			return f
		}
	}
	return nil
}

func (s *Schema) MustIntField(name string) (int, *Field) {
	i := s.FieldPosition(name)
	if i < 0 {
		panic(errors.Newf("%v does not have field %v", s.name, name))
	}
	f := s.fields[i]
	if f.Type != Int {
		panic(errors.Newf("%v.%v is not an integer field", s.name, name))
	}
	return i, f
}

// Copy returns a structurally identical schema under a new name.
func (s *Schema) Copy(name string) (*Schema, error) {
	result, err := NewSchema(name)
	if err != nil {
		return nil, err
	}
	for _, f := range s.fields {
		_, err = result.AddField(f)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// SubSchema keeps only the named fields, in the requested order.
func (s *Schema) SubSchema(name string, fieldNames []string) (*Schema, error) {
	result, err := NewSchema(name)
	if err != nil {
		return nil, err
	}
	for _, fieldName := range fieldNames {
		f := s.Field(fieldName)
		if f == nil {
			return nil, errors.Newf("%q has no %q field", s.name, fieldName)
		}
		_, err = result.AddField(f)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Compatible reports whether records of s can be stored in a table of
// other, i.e. both have the same kinds and lengths in the same order.
func (s *Schema) Compatible(other *Schema) bool {
	if s == other {
		return true
	}
	if len(s.fields) != len(other.fields) {
		return false
	}
	for i, f := range s.fields {
		g := other.fields[i]
		if f.Type != g.Type || f.Length != g.Length {
			return false
		}
	}
	return true
}

// SharedField returns the name of the single field that both schemas have,
// scanning right's fields in order.  It fails if there is no shared field or
// if more than one name is shared.
func SharedField(left, right *Schema) (string, error) {
	var shared []string
	for _, f := range right.fields {
		if left.Field(f.Name) != nil {
			shared = append(shared, f.Name)
		}
	}
	switch len(shared) {
	case 0:
		return "", errors.Newf(
			"%v and %v have no field in common", left.name, right.name)
	case 1:
		return shared[0], nil
	default:
		return "", errors.Newf(
			"%v and %v share more than one field: %v",
			left.name,
			right.name,
			strings.Join(shared, ","))
	}
}

// JoinedSchema lists all of left's fields followed by all of right's fields
// except the join field.
func JoinedSchema(name string, left, right *Schema, joinField string) (*Schema, error) {
	if left.Field(joinField) == nil {
		return nil, errors.Newf("%v does not have field %v", left.name, joinField)
	}
	if right.Field(joinField) == nil {
		return nil, errors.Newf("%v does not have field %v", right.name, joinField)
	}
	result, err := left.Copy(name)
	if err != nil {
		return nil, err
	}
	for _, f := range right.fields {
		if f.Name == joinField {
			continue
		}
		_, err = result.AddField(f)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
