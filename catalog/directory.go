package catalog

import (
	"sort"

	"github.com/google/btree"

	"github.com/robot-dreams/db2700/heap_file"
)

// entry is one table of the directory.  seq records creation order, which is
// the order the catalog file is written in (newest first).
type entry struct {
	name  string
	seq   uint64
	table *heap_file.HeapFile
}

func (e *entry) Less(than btree.Item) bool {
	return e.name < than.(*entry).name
}

// directory owns the open tables, keyed by name.
type directory struct {
	tree    *btree.BTree
	nextSeq uint64
}

func newDirectory() *directory {
	return &directory{
		tree: btree.New(2),
	}
}

func (d *directory) Len() int {
	return d.tree.Len()
}

func (d *directory) get(name string) *entry {
	item := d.tree.Get(&entry{name: name})
	if item == nil {
		return nil
	}
	return item.(*entry)
}

// insert returns false, leaving the directory unchanged, if the name is
// taken.
func (d *directory) insert(hf *heap_file.HeapFile) bool {
	if d.tree.Has(&entry{name: hf.Name()}) {
		return false
	}
	d.tree.ReplaceOrInsert(&entry{
		name:  hf.Name(),
		seq:   d.nextSeq,
		table: hf,
	})
	d.nextSeq++
	return true
}

func (d *directory) remove(name string) *entry {
	item := d.tree.Delete(&entry{name: name})
	if item == nil {
		return nil
	}
	return item.(*entry)
}

// byName returns the tables in ascending name order.
func (d *directory) byName() []*heap_file.HeapFile {
	tables := make([]*heap_file.HeapFile, 0, d.tree.Len())
	d.tree.Ascend(func(i btree.Item) bool {
		tables = append(tables, i.(*entry).table)
		return true
	})
	return tables
}

// byCreation returns the tables newest first.
func (d *directory) byCreation() []*heap_file.HeapFile {
	entries := make([]*entry, 0, d.tree.Len())
	d.tree.Ascend(func(i btree.Item) bool {
		entries = append(entries, i.(*entry))
		return true
	})
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq > entries[j].seq
	})
	tables := make([]*heap_file.HeapFile, len(entries))
	for i, e := range entries {
		tables[i] = e.table
	}
	return tables
}

func (d *directory) clear() {
	d.tree.Clear(false)
	d.nextSeq = 0
}
