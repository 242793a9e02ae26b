// Package catalog keeps the directory of tables of one database and persists
// it to a text catalog file between Open and Close.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dropbox/godropbox/errors"

	"github.com/robot-dreams/db2700"
	"github.com/robot-dreams/db2700/heap_file"
	"github.com/robot-dreams/db2700/logging"
	"github.com/robot-dreams/db2700/pager"
)

const tombstonePrefix = "__"

type Options struct {
	// Directory holding the catalog file and one data file per table.
	// Defaults to the current directory.
	Dir string

	// Number of pages the buffer pool holds.  Defaults to
	// pager.DefaultCapacity.
	BufferPoolSize int
}

type Database struct {
	dir    string
	pager  *pager.Pager
	tables *directory
	log    *slog.Logger
}

// Open starts a fresh buffer pool over opts.Dir and loads the catalog file
// found there, if any.
func Open(opts Options) (*Database, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %v", dir)
	}
	db := &Database{
		dir:    dir,
		pager:  pager.New(dir, opts.BufferPoolSize),
		tables: newDirectory(),
		log:    logging.WithComponent("catalog"),
	}
	err = db.load()
	if err != nil {
		return nil, err
	}
	db.log.Info("opened database", "dir", dir, "tables", db.tables.Len())
	return db, nil
}

func (db *Database) load() error {
	f, err := os.Open(db.path(CatalogFileName))
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Wrap(err, "opening catalog")
	}
	defer f.Close()
	descs, err := readCatalog(f, db.log)
	if err != nil {
		return err
	}
	// The file lists the newest table first.
	for i := len(descs) - 1; i >= 0; i-- {
		d := descs[i]
		if !db.tables.insert(heap_file.New(db.pager, d.schema, d.numRecords)) {
			return errors.Newf("catalog lists %v more than once", d.schema.Name())
		}
	}
	return nil
}

// Close writes the catalog, keeping the previous one under BackupFileName,
// and shuts down the buffer pool.  The Database must not be used afterwards.
func (db *Database) Close() error {
	tables := db.tables.byCreation()
	descs := make([]tableDesc, len(tables))
	for i, hf := range tables {
		hf.Release()
		descs[i] = tableDesc{
			schema:     hf.Schema(),
			numRecords: hf.NumRecords(),
		}
	}
	saveErr := db.save(descs)
	db.tables.clear()
	err := db.pager.Terminate()
	if saveErr != nil {
		return saveErr
	}
	if err != nil {
		return errors.Wrap(err, "shutting down pager")
	}
	db.log.Info("closed database", "dir", db.dir, "tables", len(descs))
	return nil
}

func (db *Database) save(descs []tableDesc) error {
	err := os.Rename(db.path(CatalogFileName), db.path(BackupFileName))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "backing up catalog")
	}
	f, err := os.Create(db.path(CatalogFileName))
	if err != nil {
		return errors.Wrap(err, "creating catalog")
	}
	err = writeCatalog(f, descs)
	if err != nil {
		_ = f.Close()
		return errors.Wrap(err, "writing catalog")
	}
	return f.Close()
}

func (db *Database) path(name string) string {
	return filepath.Join(db.dir, name)
}

func (db *Database) Dir() string {
	return db.dir
}

// CreateTable registers an empty table for s.  Table names are unique.
func (db *Database) CreateTable(s *db2700.Schema) (*heap_file.HeapFile, error) {
	name := s.Name()
	if name == CatalogFileName || name == BackupFileName {
		return nil, errors.Newf("%v is reserved for the catalog", name)
	}
	if strings.ContainsRune(name, filepath.Separator) || name == "." || name == ".." {
		return nil, errors.Newf("%q is not a valid file name", name)
	}
	if strings.HasPrefix(name, tombstonePrefix) {
		return nil, errors.Newf(
			"%v: names starting with %q are reserved for dropped tables",
			name,
			tombstonePrefix)
	}
	hf := heap_file.New(db.pager, s, 0)
	if !db.tables.insert(hf) {
		return nil, errors.Newf("table %v already exists", name)
	}
	db.log.Debug("created table", "table", name, "fields", s.NumFields())
	return hf, nil
}

// Table returns nil if there is no table with the given name.
func (db *Database) Table(name string) *heap_file.HeapFile {
	e := db.tables.get(name)
	if e == nil {
		return nil
	}
	return e.table
}

func (db *Database) Schema(name string) *db2700.Schema {
	hf := db.Table(name)
	if hf == nil {
		return nil
	}
	return hf.Schema()
}

// Tables returns every table in name order.
func (db *Database) Tables() []*heap_file.HeapFile {
	return db.tables.byName()
}

// RemoveTable drops a table from the directory.  Its data file is renamed to
// "__<name>" rather than deleted.  The directory is unchanged on error.
func (db *Database) RemoveTable(name string) error {
	e := db.tables.get(name)
	if e == nil {
		return errors.Newf("no table named %v", name)
	}
	e.table.Release()
	err := db.pager.CloseFile(name)
	if err != nil {
		return errors.Wrapf(err, "closing %v", name)
	}
	err = os.Rename(db.path(name), db.path(tombstonePrefix+name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "renaming data file of %v", name)
	}
	db.tables.remove(name)
	db.log.Debug("removed table", "table", name)
	return nil
}

// RemoveSchema drops the table s belongs to.
func (db *Database) RemoveSchema(s *db2700.Schema) error {
	hf := db.Table(s.Name())
	if hf == nil || hf.Schema() != s {
		return errors.Newf("schema %v does not belong to a table", s.Name())
	}
	return db.RemoveTable(s.Name())
}

// TmpName returns "<op>__<table>_<n>" for the smallest n that names neither
// a table nor an existing data file.
func (db *Database) TmpName(op string, table string) string {
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s__%s_%d", op, table, i)
		if db.tables.get(name) != nil {
			continue
		}
		_, err := os.Stat(db.path(name))
		if os.IsNotExist(err) {
			return name
		}
	}
}

// Info describes every table, newest first.
func (db *Database) Info() (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "======Database at %s======\n", db.dir)
	for _, hf := range db.tables.byCreation() {
		info, err := hf.Info()
		if err != nil {
			return "", err
		}
		b.WriteString(info)
	}
	return b.String(), nil
}
