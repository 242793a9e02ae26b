package executor

import (
	"github.com/dropbox/godropbox/errors"

	"github.com/robot-dreams/db2700"
	"github.com/robot-dreams/db2700/catalog"
	"github.com/robot-dreams/db2700/heap_file"
	"github.com/robot-dreams/db2700/logging"
)

// The operators below validate their arguments before creating anything, and
// each one returns a brand-new table named "<op>__<input>_<n>" holding the
// result.

// materialize creates the result table for iter's schema and fills it.  The
// result table is dropped again if filling it fails.
func materialize(
	db *catalog.Database,
	iter db2700.Iterator,
) (*heap_file.HeapFile, error) {
	result, err := db.CreateTable(iter.Schema())
	if err != nil {
		_ = iter.Close()
		return nil, err
	}
	n, err := result.AppendAll(iter)
	if err != nil {
		dropErr := db.RemoveTable(result.Name())
		if dropErr != nil {
			logging.WithTable(result.Name()).Error(
				"dropping incomplete result",
				"error", dropErr)
		}
		return nil, errors.Wrapf(err, "filling %v", result.Name())
	}
	result.Release()
	logging.WithTable(result.Name()).Debug("materialized result", "records", n)
	return result, nil
}

// Select returns the records of t whose int field attr compares to value
// with op (one of =, !=, <, <=, >, >=).  With useIndex and op "=", t must
// be sorted ascending on attr; the matching run is then found by binary
// search instead of a full scan.
func Select(
	db *catalog.Database,
	t *heap_file.HeapFile,
	attr string,
	op string,
	value int32,
	useIndex bool,
) (*heap_file.HeapFile, error) {
	if t == nil {
		return nil, errors.New("select needs a table")
	}
	p, err := db2700.IntFieldCompare(t.Schema(), attr, op, value)
	if err != nil {
		return nil, err
	}
	s, err := t.Schema().Copy(db.TmpName("select", t.Name()))
	if err != nil {
		return nil, err
	}
	var iter db2700.Iterator
	if useIndex && op == "=" {
		iter, err = heap_file.NewIndexScanEqual(t, attr, value)
	} else {
		var scan db2700.Iterator
		scan, err = heap_file.NewScan(t)
		if err == nil {
			iter = NewSelection(scan, p)
		}
	}
	if err != nil {
		return nil, err
	}
	return materialize(db, &renamed{Iterator: iter, schema: s})
}

// Project returns the named fields of every record of t, in the requested
// order.
func Project(
	db *catalog.Database,
	t *heap_file.HeapFile,
	fieldNames []string,
) (*heap_file.HeapFile, error) {
	if t == nil {
		return nil, errors.New("project needs a table")
	}
	if len(fieldNames) == 0 {
		return nil, errors.Newf("no fields to project from %v", t.Name())
	}
	// Check the field names before touching the table.
	name := db.TmpName("project", t.Name())
	_, err := t.Schema().SubSchema(name, fieldNames)
	if err != nil {
		return nil, err
	}
	scan, err := heap_file.NewScan(t)
	if err != nil {
		return nil, err
	}
	p, err := NewProjection(scan, name, fieldNames)
	if err != nil {
		_ = scan.Close()
		return nil, err
	}
	return materialize(db, p)
}

// NaturalJoin pairs every record of left with every record of right that
// has the same value in the one field name both schemas share.
func NaturalJoin(
	db *catalog.Database,
	left *heap_file.HeapFile,
	right *heap_file.HeapFile,
) (*heap_file.HeapFile, error) {
	if left == nil || right == nil {
		return nil, errors.New("natural join needs two tables")
	}
	j, err := NewNaturalJoin(left, right, db.TmpName("join", left.Name()))
	if err != nil {
		return nil, err
	}
	return materialize(db, j)
}

// renamed presents the records of an iterator under a layout-compatible
// schema.
type renamed struct {
	db2700.Iterator
	schema *db2700.Schema
}

func (r *renamed) Schema() *db2700.Schema {
	return r.schema
}
