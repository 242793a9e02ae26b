package catalog

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/dropbox/godropbox/errors"

	"github.com/robot-dreams/db2700"
)

const (
	CatalogFileName = "db.db"
	BackupFileName  = "__backup_" + CatalogFileName
)

// tableDesc is one table entry of the catalog file:
//
//	<table_name> <field_count>
//	<field_name> <kind> <length> <offset>    (field_count times)
//	<record_count>
type tableDesc struct {
	schema     *db2700.Schema
	numRecords int
}

func writeCatalog(w io.Writer, tables []tableDesc) error {
	bw := bufio.NewWriter(w)
	for _, t := range tables {
		_, err := fmt.Fprintf(bw, "%s %d\n", t.schema.Name(), t.schema.NumFields())
		if err != nil {
			return err
		}
		for _, f := range t.schema.Fields() {
			_, err = fmt.Fprintf(
				bw,
				"%s %d %d %d\n",
				f.Name,
				f.Type,
				f.Length,
				f.Offset)
			if err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(bw, "%d\n", t.numRecords)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// readCatalog rebuilds each schema through AddField, so the offsets in the
// file are never trusted.  Entries are returned in file order.
func readCatalog(r io.Reader, log *slog.Logger) ([]tableDesc, error) {
	br := bufio.NewReader(r)
	var tables []tableDesc
	for {
		var name string
		var numFields int
		n, err := fmt.Fscan(br, &name, &numFields)
		if err == io.EOF && n == 0 {
			return tables, nil
		} else if err != nil {
			return nil, errors.Wrapf(err, "reading entry %d of catalog", len(tables))
		}
		if numFields < 0 {
			return nil, errors.Newf("%v has %d fields", name, numFields)
		}
		s, err := db2700.NewSchema(name)
		if err != nil {
			return nil, err
		}
		for i := 0; i < numFields; i++ {
			var fieldName string
			var kind, length, offset int
			_, err = fmt.Fscan(br, &fieldName, &kind, &length, &offset)
			if err != nil {
				return nil, errors.Wrapf(err, "reading field %d of %v", i, name)
			}
			if kind < int(db2700.Int) || kind > int(db2700.Str) {
				return nil, errors.Newf(
					"field %d of %v has unknown type %d", i, name, kind)
			}
			f, err := db2700.NewField(fieldName, db2700.Type(kind), length)
			if err != nil {
				return nil, errors.Wrapf(err, "field %d of %v", i, name)
			}
			_, err = s.AddField(f)
			if err != nil {
				return nil, errors.Wrapf(err, "field %d of %v", i, name)
			}
			if s.FieldAt(i).Offset != offset {
				log.Warn(
					"catalog offset differs from layout",
					"table", name,
					"field", fieldName,
					"catalog_offset", offset,
					"offset", s.FieldAt(i).Offset)
			}
		}
		var numRecords int
		_, err = fmt.Fscan(br, &numRecords)
		if err != nil {
			return nil, errors.Wrapf(err, "reading record count of %v", name)
		}
		tables = append(tables, tableDesc{
			schema:     s,
			numRecords: numRecords,
		})
	}
}
