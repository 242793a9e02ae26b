package heap_file

import (
	"io"

	"github.com/dropbox/godropbox/errors"

	"github.com/robot-dreams/db2700"
)

// indexScan returns the records whose int field equals a key, using the
// sorted-column search to find the first one.  Matching records are
// contiguous in a sorted table, so the scan stops at the first record that
// does not match.
type indexScan struct {
	hf     *HeapFile
	offset int
	key    int32
	done   bool
	closed bool
}

var _ db2700.Iterator = (*indexScan)(nil)

// NewIndexScanEqual requires hf to be sorted ascending on fieldName.
func NewIndexScanEqual(
	hf *HeapFile,
	fieldName string,
	key int32,
) (*indexScan, error) {
	f := hf.Schema().Field(fieldName)
	if f == nil {
		return nil, errors.Newf("%q has no %q field", hf.Name(), fieldName)
	}
	found, err := hf.FirstMatch(f.Offset, key)
	if err != nil {
		return nil, err
	}
	return &indexScan{
		hf:     hf,
		offset: f.Offset,
		key:    key,
		done:   !found,
	}, nil
}

func (s *indexScan) Schema() *db2700.Schema {
	return s.hf.Schema()
}

func (s *indexScan) Next() (*db2700.Record, error) {
	if s.closed {
		return nil, errors.New("Cannot call Next after scan was closed")
	}
	if s.done {
		return nil, io.EOF
	}
	x, ok, err := s.hf.peekInt(s.offset)
	if err != nil {
		return nil, err
	}
	if !ok || x != s.key {
		s.done = true
		return nil, io.EOF
	}
	return s.hf.NextRecord()
}

func (s *indexScan) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.hf.Release()
	return nil
}
