package db2700

import (
	"io"
)

func ReadAll(iter Iterator) ([]*Record, error) {
	var records []*Record
	for {
		record, err := iter.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		} else {
			records = append(records, record)
		}
	}
	return records, nil
}

// NewRecords is a convenience for tests and tools; each row is passed to
// Record.Fill.
func NewRecords(s *Schema, rows ...[]interface{}) ([]*Record, error) {
	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		r := s.NewRecord()
		err := r.Fill(row...)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
