package executor

import "github.com/robot-dreams/db2700"

// selection restricts Records from the input to those that satisfy the
// specified Predicate.
type selection struct {
	iter db2700.Iterator
	p    db2700.Predicate
}

var _ db2700.Iterator = (*selection)(nil)

func NewSelection(iter db2700.Iterator, p db2700.Predicate) *selection {
	return &selection{
		iter: iter,
		p:    p,
	}
}

func (s *selection) Schema() *db2700.Schema {
	return s.iter.Schema()
}

func (s *selection) Next() (*db2700.Record, error) {
	for {
		record, err := s.iter.Next()
		if err != nil {
			return nil, err
		}
		if s.p(record) {
			return record, nil
		}
	}
}

func (s *selection) Close() error {
	return s.iter.Close()
}
