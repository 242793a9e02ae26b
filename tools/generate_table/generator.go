package main

import (
	"fmt"
	"sort"

	"github.com/dropbox/godropbox/errors"
	"github.com/dropbox/godropbox/math2/rand2"

	"github.com/robot-dreams/db2700"
	"github.com/robot-dreams/db2700/catalog"
	"github.com/robot-dreams/db2700/executor"
	"github.com/robot-dreams/db2700/heap_file"
)

const (
	sortedField = "val"
	maxID       = 1 << 30
	nameLength  = 16
)

// generator produces records sorted ascending on "val".  The optional "id"
// (unique) and "name" fields appear in random order around it.
type generator struct {
	schema  *db2700.Schema
	idPos   int
	namePos int
	valPos  int
	next    int32
	usedIDs map[int32]bool
}

func newGenerator(tableName string, initial int32) (*generator, error) {
	s, err := db2700.NewSchema(tableName)
	if err != nil {
		return nil, err
	}
	optional := []string{"id", "name"}
	if rand2.Intn(2) == 0 {
		optional[0], optional[1] = optional[1], optional[0]
	}
	var names []string
	for _, name := range optional {
		if rand2.Intn(2) == 0 {
			names = append(names, name)
		}
	}
	at := rand2.Intn(len(names) + 1)
	names = append(names[:at], append([]string{sortedField}, names[at:]...)...)
	for _, name := range names {
		f := db2700.NewIntField(name)
		if name == "name" {
			f = db2700.NewStrField(name, nameLength)
		}
		_, err = s.AddField(f)
		if err != nil {
			return nil, err
		}
	}
	return &generator{
		schema:  s,
		idPos:   s.FieldPosition("id"),
		namePos: s.FieldPosition("name"),
		valPos:  s.FieldPosition(sortedField),
		next:    initial,
		usedIDs: make(map[int32]bool),
	}, nil
}

func randomName() string {
	b := make([]byte, 1+rand2.Intn(nameLength))
	for i := range b {
		b[i] = byte('a' + rand2.Intn(26))
	}
	return string(b)
}

// record advances "val" by a geometrically distributed step (possibly zero),
// so runs of duplicates are common.
func (g *generator) record() *db2700.Record {
	for rand2.Intn(2) == 1 {
		g.next++
	}
	r := g.schema.NewRecord()
	_ = r.SetInt(g.valPos, g.next)
	if g.idPos >= 0 {
		id := int32(1 + rand2.Intn(maxID))
		for g.usedIDs[id] {
			id = int32(1 + rand2.Intn(maxID))
		}
		g.usedIDs[id] = true
		_ = r.SetInt(g.idPos, id)
	}
	if g.namePos >= 0 {
		_ = r.SetStr(g.namePos, randomName())
	}
	return r
}

// generate appends n records to a new table and returns the values of "val"
// in storage order.
func (g *generator) generate(db *catalog.Database, n int) (*heap_file.HeapFile, []int32, error) {
	hf, err := db.CreateTable(g.schema)
	if err != nil {
		return nil, nil, err
	}
	values := make([]int32, n)
	for i := 0; i < n; i++ {
		r := g.record()
		err = hf.AppendRecord(r)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "appending record %d", i)
		}
		values[i] = r.Int(g.valPos)
	}
	hf.Release()
	return hf, values, nil
}

type query struct {
	desc  string
	value int32
}

// queries picks the values that exercise page boundaries of the sorted
// search, plus nrand random present and absent values.
func queries(values []int32, recordLen int, nrand int) []query {
	perPage := db2700.MaxRecordLength / recordLen
	numPages := (len(values) + perPage - 1) / perPage
	last := len(values) - 1
	result := []query{
		{"first value", values[0]},
		{"last value", values[last]},
		{"last value of first page", values[minInt(perPage, len(values))-1]},
		{"first value of last page", values[(numPages-1)*perPage]},
	}
	if numPages > 2 {
		for i := 0; i < nrand; i++ {
			page := 1 + rand2.Intn(numPages-2)
			result = append(
				result,
				query{fmt.Sprintf("first value of page %d", page), values[page*perPage]},
				query{fmt.Sprintf("last value of page %d", page), values[(page+1)*perPage-1]})
		}
	}
	present := make(map[int32]bool, len(values))
	for _, v := range values {
		present[v] = true
	}
	for i := 0; i < nrand; i++ {
		j := rand2.Intn(len(values))
		result = append(result, query{fmt.Sprintf("value of record %d", j), values[j]})
	}
	span := int(values[last]-values[0]) + 1
	if len(present) < span {
		for i := 0; i < nrand; i++ {
			v := values[0] + int32(rand2.Intn(span))
			for present[v] {
				v = values[0] + int32(rand2.Intn(span))
			}
			result = append(result, query{"absent value", v})
		}
	}
	result = append(
		result,
		query{"below smallest", values[0] - 1},
		query{"above largest", values[last] + 1})
	return result
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// check compares the indexed and the scanning equality selection for q.
// Both result tables are dropped afterwards.
func check(db *catalog.Database, hf *heap_file.HeapFile, q query) (bool, error) {
	var results [2][]*db2700.Record
	for i, useIndex := range []bool{true, false} {
		result, err := executor.Select(db, hf, sortedField, "=", q.value, useIndex)
		if err != nil {
			return false, err
		}
		scan, err := heap_file.NewScan(result)
		if err != nil {
			return false, err
		}
		results[i], err = db2700.ReadAll(scan)
		_ = scan.Close()
		if err != nil {
			return false, err
		}
		err = db.RemoveTable(result.Name())
		if err != nil {
			return false, err
		}
	}
	return sameRecords(results[0], results[1]), nil
}

// sameRecords compares two results as sets.
func sameRecords(a, b []*db2700.Record) bool {
	if len(a) != len(b) {
		return false
	}
	keys := func(records []*db2700.Record) []string {
		result := make([]string, len(records))
		for i, r := range records {
			result[i] = r.String()
		}
		sort.Strings(result)
		return result
	}
	ka, kb := keys(a), keys(b)
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}
