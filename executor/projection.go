package executor

import (
	"github.com/robot-dreams/db2700"
)

// projection returns Records from the input Iterator, but only restricted to
// the specified fields, in the order they were requested.  Values are copied
// by field name.
type projection struct {
	iter   db2700.Iterator
	schema *db2700.Schema
}

var _ db2700.Iterator = (*projection)(nil)

// NewProjection fails if a requested field does not appear in the input.
func NewProjection(
	iter db2700.Iterator,
	name string,
	fieldNames []string,
) (*projection, error) {
	s, err := iter.Schema().SubSchema(name, fieldNames)
	if err != nil {
		return nil, err
	}
	return &projection{
		iter:   iter,
		schema: s,
	}, nil
}

func (p *projection) Schema() *db2700.Schema {
	return p.schema
}

func (p *projection) Next() (*db2700.Record, error) {
	record, err := p.iter.Next()
	if err != nil {
		return nil, err
	}
	projectedRecord := p.schema.NewRecord()
	projectedRecord.CopyByName(record)
	return projectedRecord, nil
}

func (p *projection) Close() error {
	return p.iter.Close()
}
