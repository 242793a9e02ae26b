package heap_file

import (
	"io"
	"log/slog"

	"github.com/dropbox/godropbox/errors"

	"github.com/robot-dreams/db2700"
	"github.com/robot-dreams/db2700/logging"
	"github.com/robot-dreams/db2700/pager"
)

type Position int

const (
	Beginning Position = iota
	End
)

// HeapFile is a table: a schema plus the file of fixed-length records it
// describes.  Records are packed back to back after each page header, so the
// i-th slot of a page starts at i*schema.Len() + PageHeaderSize.
//
// A HeapFile has a single cursor.  The page under the cursor is the only page
// the HeapFile keeps pinned; moving the cursor always releases it first.
type HeapFile struct {
	schema     *db2700.Schema
	pager      *pager.Pager
	numRecords int

	// nil until the first SetPosition (or after Release).
	cursor *pager.Page

	log *slog.Logger
}

// New does not touch the data file; numRecords is whatever the catalog last
// recorded for the table.
func New(p *pager.Pager, s *db2700.Schema, numRecords int) *HeapFile {
	return &HeapFile{
		schema:     s,
		pager:      p,
		numRecords: numRecords,
		log:        logging.WithTable(s.Name()),
	}
}

func (hf *HeapFile) Schema() *db2700.Schema {
	return hf.schema
}

func (hf *HeapFile) Name() string {
	return hf.schema.Name()
}

func (hf *HeapFile) NumRecords() int {
	return hf.numRecords
}

func (hf *HeapFile) NumBlocks() (int32, error) {
	return hf.pager.NumBlocks(hf.schema.Name())
}

// move hands the pin held by pg over to the cursor, releasing the page the
// cursor was on.
func (hf *HeapFile) move(pg *pager.Page) {
	if hf.cursor != nil {
		hf.cursor.Unpin()
	}
	hf.cursor = pg
}

// Release unpins the cursor page.  The HeapFile must be repositioned before
// it is read again.
func (hf *HeapFile) Release() {
	hf.move(nil)
}

func (hf *HeapFile) SetPosition(pos Position) error {
	var pg *pager.Page
	var err error
	switch pos {
	case Beginning:
		pg, err = hf.pager.GetPage(hf.Name(), 0)
	case End:
		pg, err = hf.pager.GetPageForAppend(hf.Name())
	default:
		return errors.Newf("Unsupported position %d", pos)
	}
	if err != nil {
		return err
	}
	hf.move(pg)
	return nil
}

// seek puts the cursor on the given byte position of a block.
func (hf *HeapFile) seek(blockNr int32, pos int) error {
	pg, err := hf.pager.GetPage(hf.Name(), blockNr)
	if err != nil {
		return err
	}
	pg.SetPos(pos)
	hf.move(pg)
	return nil
}

// EOT reports whether the cursor is at the end of the table.  An unpositioned
// cursor is always at the end.
func (hf *HeapFile) EOT() bool {
	return hf.cursor == nil || hf.cursor.EOF()
}

func (hf *HeapFile) checkRecord(r *db2700.Record) error {
	if hf.schema.Len() == 0 {
		return errors.Newf("%v has no fields", hf.Name())
	}
	if !r.Schema().Compatible(hf.schema) {
		return errors.Newf(
			"record of %v does not match the layout of %v",
			r.Schema().Name(),
			hf.Name())
	}
	return nil
}

func (hf *HeapFile) aligned(pos int) bool {
	return (pos-db2700.PageHeaderSize)%hf.schema.Len() == 0
}

// pageForNextRecord returns the cursor page, first following the next-page
// link if the cursor has consumed its page.  It returns nil at the end of the
// table.
func (hf *HeapFile) pageForNextRecord() (*pager.Page, error) {
	if hf.cursor == nil {
		return nil, errors.Newf("%v has no cursor position", hf.Name())
	}
	for hf.cursor.EOP() {
		if hf.cursor.EOF() {
			return nil, nil
		}
		blockNr := hf.cursor.BlockNr()
		next, err := hf.pager.NextPage(hf.cursor)
		if err != nil {
			hf.Release()
			logging.Fatalf(
				hf.log,
				"get_page_for_next_record failed at block %d: %v",
				blockNr+1,
				err)
		}
		hf.move(next)
	}
	return hf.cursor, nil
}

func (hf *HeapFile) getPageRecord(pg *pager.Page, r *db2700.Record) {
	pos := pg.Pos()
	if !pg.ValidPosForGet(pos) || !hf.aligned(pos) {
		hf.Release()
		logging.Fatalf(
			hf.log,
			"try to get record at invalid position %d of block %d",
			pos,
			pg.BlockNr())
	}
	for i, f := range hf.schema.Fields() {
		switch f.Type {
		case db2700.Int:
			_ = r.SetInt(i, pg.GetInt())
		default:
			pg.GetStr(r.Str(i))
		}
	}
}

// Next reads the record under the cursor into r and advances the cursor.  It
// returns io.EOF at the end of the table.
func (hf *HeapFile) Next(r *db2700.Record) error {
	err := hf.checkRecord(r)
	if err != nil {
		return err
	}
	pg, err := hf.pageForNextRecord()
	if err != nil {
		return err
	}
	if pg == nil {
		return io.EOF
	}
	hf.getPageRecord(pg, r)
	return nil
}

// NextRecord is like Next, but allocates the record.
func (hf *HeapFile) NextRecord() (*db2700.Record, error) {
	r := hf.schema.NewRecord()
	err := hf.Next(r)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// peekInt returns the int at the given record offset of the record under the
// cursor, without moving the cursor.
func (hf *HeapFile) peekInt(offset int) (int32, bool, error) {
	pg, err := hf.pageForNextRecord()
	if err != nil || pg == nil {
		return 0, false, err
	}
	return pg.GetIntAt(pg.Pos() + offset), true, nil
}

// putPageRecord returns false if the record does not fit at the page's
// cursor.
func (hf *HeapFile) putPageRecord(pg *pager.Page, r *db2700.Record) bool {
	pos := pg.Pos()
	if !pg.ValidPosForPut(pos, hf.schema.Len()) || !hf.aligned(pos) {
		return false
	}
	for i, f := range hf.schema.Fields() {
		switch f.Type {
		case db2700.Int:
			pg.PutInt(r.Int(i))
		default:
			pg.PutStr(r.Str(i), f.Length)
		}
	}
	return true
}

// PutRecord writes r at the cursor and advances the cursor past it.  The
// cursor must be on a record boundary of its page, either over an existing
// record (which is overwritten) or directly after the page's last record
// with room left in the block.
func (hf *HeapFile) PutRecord(r *db2700.Record) error {
	err := hf.checkRecord(r)
	if err != nil {
		return err
	}
	if hf.cursor == nil {
		return errors.Newf("%v has no cursor position", hf.Name())
	}
	pg := hf.cursor
	pos := pg.Pos()
	appending := pg.EOP()
	if !hf.putPageRecord(pg, r) {
		return errors.Newf(
			"cannot put record of %v at position %d of block %d",
			hf.Name(),
			pos,
			pg.BlockNr())
	}
	if appending {
		hf.numRecords++
	}
	return nil
}

// AppendRecord writes r after the last record of the table and leaves the
// cursor on the page holding it.
func (hf *HeapFile) AppendRecord(r *db2700.Record) error {
	err := hf.checkRecord(r)
	if err != nil {
		return err
	}
	pg, err := hf.pager.GetPageForAppend(hf.Name())
	if err != nil {
		return err
	}
	if !hf.putPageRecord(pg, r) {
		// Not enough space in the current page.
		next, err := hf.pager.NextPageForAppend(pg)
		blockNr := pg.BlockNr()
		pg.Unpin()
		if err != nil {
			return errors.Wrapf(
				err, "getting page for %v block %d", hf.Name(), blockNr+1)
		}
		if !hf.putPageRecord(next, r) {
			next.Unpin()
			logging.Fatalf(
				hf.log,
				"failed to put record to page for %v block %d",
				hf.Name(),
				next.BlockNr())
		}
		pg = next
	}
	hf.move(pg)
	hf.numRecords++
	return nil
}

// AppendAll appends every record of iter and closes it.
func (hf *HeapFile) AppendAll(iter db2700.Iterator) (int, error) {
	defer iter.Close()
	n := 0
	for {
		r, err := iter.Next()
		if err == io.EOF {
			return n, nil
		} else if err != nil {
			return n, err
		}
		err = hf.AppendRecord(r)
		if err != nil {
			return n, err
		}
		n++
	}
}
