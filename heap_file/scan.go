package heap_file

import (
	"io"

	"github.com/dropbox/godropbox/errors"

	"github.com/robot-dreams/db2700"
)

// scan walks a table from its first record using the table's cursor.  Each
// call to Next returns a freshly allocated Record.
type scan struct {
	hf     *HeapFile
	closed bool
	done   bool
}

var _ db2700.Iterator = (*scan)(nil)

func NewScan(hf *HeapFile) (*scan, error) {
	err := hf.SetPosition(Beginning)
	if err != nil {
		return nil, err
	}
	return &scan{hf: hf}, nil
}

func (s *scan) Schema() *db2700.Schema {
	return s.hf.Schema()
}

func (s *scan) Next() (*db2700.Record, error) {
	if s.closed {
		return nil, errors.New("Cannot call Next after scan was closed")
	}
	if s.done {
		return nil, io.EOF
	}
	record, err := s.hf.NextRecord()
	if err == io.EOF {
		s.done = true
	}
	return record, err
}

// Close releases the table's cursor page.
func (s *scan) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.hf.Release()
	return nil
}
