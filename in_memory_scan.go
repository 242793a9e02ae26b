package db2700

import (
	"io"
)

type inMemoryScan struct {
	s       *Schema
	records []*Record
}

var _ Iterator = (*inMemoryScan)(nil)

func NewInMemoryScan(s *Schema, records []*Record) *inMemoryScan {
	return &inMemoryScan{
		s:       s,
		records: records,
	}
}

func (m *inMemoryScan) Schema() *Schema {
	return m.s
}

func (m *inMemoryScan) Next() (*Record, error) {
	if len(m.records) == 0 {
		return nil, io.EOF
	}
	r := m.records[0]
	m.records = m.records[1:]
	return r, nil
}

func (m *inMemoryScan) Close() error {
	m.records = nil
	return nil
}
