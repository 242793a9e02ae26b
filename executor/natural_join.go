package executor

import (
	"bytes"
	"io"

	"github.com/dropbox/godropbox/errors"
	"github.com/willf/bloom"

	"github.com/robot-dreams/db2700"
	"github.com/robot-dreams/db2700/heap_file"
)

// False positive rate of the filter over the right table's join keys.
const joinFilterFalsePositiveRate = 0.01

// naturalJoin is a nested-loop equi-join over two tables sharing exactly one
// field name.  It holds one left record at a time and rescans the right table
// from its beginning for every left record, so each left record is paired
// with all of its right matches before the left cursor advances.
//
// A Bloom filter over the right table's keys lets left records that cannot
// match skip the rescan.
type naturalJoin struct {
	left  *heap_file.HeapFile
	right *heap_file.HeapFile

	schema   *db2700.Schema
	leftPos  int
	rightPos int
	filter   *bloom.BloomFilter

	leftRecord  *db2700.Record
	rightRecord *db2700.Record
	leftKey     []byte
	rightKey    []byte

	done   bool
	closed bool
}

var _ db2700.Iterator = (*naturalJoin)(nil)

// NewNaturalJoin reads the right table once to build its key filter.  The
// result schema is left's fields followed by right's fields minus the join
// field.
func NewNaturalJoin(
	left *heap_file.HeapFile,
	right *heap_file.HeapFile,
	name string,
) (*naturalJoin, error) {
	if left == right {
		return nil, errors.Newf("cannot join %v with itself", left.Name())
	}
	joinField, err := db2700.SharedField(left.Schema(), right.Schema())
	if err != nil {
		return nil, err
	}
	leftPos := left.Schema().FieldPosition(joinField)
	rightPos := right.Schema().FieldPosition(joinField)
	lf := left.Schema().FieldAt(leftPos)
	rf := right.Schema().FieldAt(rightPos)
	if lf.Type != rf.Type || lf.Length != rf.Length {
		return nil, errors.Newf(
			"%v.%v and %v.%v have different types",
			left.Name(),
			joinField,
			right.Name(),
			joinField)
	}
	s, err := db2700.JoinedSchema(name, left.Schema(), right.Schema(), joinField)
	if err != nil {
		return nil, err
	}
	j := &naturalJoin{
		left:        left,
		right:       right,
		schema:      s,
		leftPos:     leftPos,
		rightPos:    rightPos,
		rightRecord: right.Schema().NewRecord(),
		leftKey:     make([]byte, lf.Length),
		rightKey:    make([]byte, rf.Length),
	}
	err = j.buildFilter()
	if err != nil {
		right.Release()
		return nil, err
	}
	err = left.SetPosition(heap_file.Beginning)
	if err != nil {
		right.Release()
		return nil, err
	}
	return j, nil
}

func (j *naturalJoin) buildFilter() error {
	n := uint(j.right.NumRecords())
	if n == 0 {
		n = 1
	}
	j.filter = bloom.NewWithEstimates(n, joinFilterFalsePositiveRate)
	err := j.right.SetPosition(heap_file.Beginning)
	if err != nil {
		return err
	}
	for {
		err = j.right.Next(j.rightRecord)
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		j.filter.Add(joinKey(j.rightRecord, j.rightPos, j.rightKey))
	}
}

// joinKey writes the stored bytes of slot i of r into buf.
func joinKey(r *db2700.Record, i int, buf []byte) []byte {
	switch v := r.Value(i).(type) {
	case db2700.IntValue:
		db2700.EncodeInt(buf, int32(v))
	case db2700.StrValue:
		copy(buf, v)
	}
	return buf
}

func (j *naturalJoin) Schema() *db2700.Schema {
	return j.schema
}

// nextLeft advances to the next left record that may have a match and
// rewinds the right table.  It returns io.EOF when the left table is
// exhausted.
func (j *naturalJoin) nextLeft() error {
	for {
		r, err := j.left.NextRecord()
		if err != nil {
			return err
		}
		joinKey(r, j.leftPos, j.leftKey)
		if !j.filter.Test(j.leftKey) {
			continue
		}
		j.leftRecord = r
		return j.right.SetPosition(heap_file.Beginning)
	}
}

func (j *naturalJoin) Next() (*db2700.Record, error) {
	if j.closed {
		return nil, errors.New("Cannot call Next after join was closed")
	}
	for !j.done {
		if j.leftRecord == nil {
			err := j.nextLeft()
			if err == io.EOF {
				j.done = true
				break
			} else if err != nil {
				return nil, err
			}
		}
		err := j.right.Next(j.rightRecord)
		if err == io.EOF {
			j.leftRecord = nil
			continue
		} else if err != nil {
			return nil, err
		}
		if !bytes.Equal(joinKey(j.rightRecord, j.rightPos, j.rightKey), j.leftKey) {
			continue
		}
		merged := j.schema.NewRecord()
		merged.Merge(j.leftRecord, j.rightRecord, j.rightPos)
		return merged, nil
	}
	return nil, io.EOF
}

// Close releases the cursors of both tables.
func (j *naturalJoin) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true
	j.left.Release()
	j.right.Release()
	return nil
}
