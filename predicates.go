package db2700

import (
	"github.com/dropbox/godropbox/errors"
)

type Predicate func(*Record) bool

// CompareFunc reports whether a record's value satisfies the comparison
// against the fixed operand.
type CompareFunc func(recordValue, operand int32) bool

var compareFuncs = map[string]CompareFunc{
	"=":  func(x, y int32) bool { return x == y },
	"!=": func(x, y int32) bool { return x != y },
	"<":  func(x, y int32) bool { return x < y },
	"<=": func(x, y int32) bool { return x <= y },
	">":  func(x, y int32) bool { return x > y },
	">=": func(x, y int32) bool { return x >= y },
}

func ParseOperator(op string) (CompareFunc, error) {
	f, ok := compareFuncs[op]
	if !ok {
		return nil, errors.Newf("unknown comparison operator %q", op)
	}
	return f, nil
}

// IntFieldCompare checks that fieldName names an int field of s before
// building the predicate.
func IntFieldCompare(
	s *Schema,
	fieldName string,
	op string,
	value int32,
) (Predicate, error) {
	compare, err := ParseOperator(op)
	if err != nil {
		return nil, err
	}
	i := s.FieldPosition(fieldName)
	if i < 0 {
		return nil, errors.Newf("%q has no %q field", s.name, fieldName)
	}
	if s.fields[i].Type != Int {
		return nil, errors.Newf("%q is not an integer field", fieldName)
	}
	return func(record *Record) bool {
		return compare(record.Int(i), value)
	}, nil
}

func FieldEquals(s *Schema, fieldName string, value int32) Predicate {
	i, _ := s.MustIntField(fieldName)
	return func(record *Record) bool {
		return record.Int(i) == value
	}
}
