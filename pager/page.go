package pager

import (
	"github.com/robot-dreams/db2700"
	"github.com/robot-dreams/db2700/logging"
)

// Page header layout; the rest of the header is reserved.
const (
	blockNrOffset = 0
	endOffset     = 4
)

type Whence int

const (
	Beginning Whence = iota
	End
)

// Page is one pinned block of a table file plus a read/write cursor.  The
// records of a page occupy [PageHeaderSize, end); the end offset is kept in
// the header.
type Page struct {
	pager    *Pager
	file     string
	blockNr  int32
	data     []byte
	pos      int
	pinCount int
	dirty    bool
}

func (pg *Page) initHeader() {
	db2700.EncodeInt(pg.data[blockNrOffset:], pg.blockNr)
	pg.setEnd(db2700.PageHeaderSize)
	pg.pos = db2700.PageHeaderSize
	pg.dirty = true
}

func (pg *Page) end() int {
	return int(db2700.DecodeInt(pg.data[endOffset:]))
}

func (pg *Page) setEnd(end int) {
	db2700.EncodeInt(pg.data[endOffset:], int32(end))
}

func (pg *Page) File() string {
	return pg.file
}

func (pg *Page) BlockNr() int32 {
	return pg.blockNr
}

// Unpin releases the caller's reference to the page.
func (pg *Page) Unpin() {
	pg.pager.unpin(pg)
}

func (pg *Page) Pos() int {
	return pg.pos
}

func (pg *Page) SetPos(pos int) {
	pg.pos = pos
}

func (pg *Page) SetPosBegin() {
	pg.pos = db2700.PageHeaderSize
}

// Seek moves the cursor relative to the first record slot or to the end of
// the data and returns the new position.
func (pg *Page) Seek(whence Whence, delta int) int {
	switch whence {
	case Beginning:
		pg.pos = db2700.PageHeaderSize + delta
	case End:
		pg.pos = pg.end() + delta
	}
	return pg.pos
}

// DataLen is the number of record bytes stored in the page.
func (pg *Page) DataLen() int {
	return pg.end() - db2700.PageHeaderSize
}

// EOP reports whether the cursor is at or past the end of the page's data.
func (pg *Page) EOP() bool {
	return pg.pos >= pg.end()
}

// EOF reports whether the cursor is at the end of the page's data and there
// is no following block.
func (pg *Page) EOF() bool {
	if !pg.EOP() {
		return false
	}
	bf, ok := pg.pager.files[pg.file]
	return !ok || pg.blockNr >= bf.NumBlocks-1
}

func (pg *Page) ValidPosForGet(pos int) bool {
	return pos >= db2700.PageHeaderSize && pos < pg.end()
}

// ValidPosForPut allows overwriting existing data and appending directly
// after it, as long as n bytes fit in the block.
func (pg *Page) ValidPosForPut(pos int, n int) bool {
	return pos >= db2700.PageHeaderSize &&
		pos <= pg.end() &&
		pos+n <= db2700.BlockSize
}

func (pg *Page) checkGet(pos int, n int) {
	if !pg.ValidPosForGet(pos) || pos+n > pg.end() {
		logging.Fatalf(
			pg.pager.log,
			"read of %d bytes at %d outside the data of %v block %d",
			n,
			pos,
			pg.file,
			pg.blockNr)
	}
}

func (pg *Page) checkPut(pos int, n int) {
	if !pg.ValidPosForPut(pos, n) {
		logging.Fatalf(
			pg.pager.log,
			"write of %d bytes at %d outside %v block %d",
			n,
			pos,
			pg.file,
			pg.blockNr)
	}
}

func (pg *Page) GetIntAt(pos int) int32 {
	pg.checkGet(pos, db2700.IntSize)
	return db2700.DecodeInt(pg.data[pos:])
}

func (pg *Page) GetInt() int32 {
	x := pg.GetIntAt(pg.pos)
	pg.pos += db2700.IntSize
	return x
}

// GetStr fills b from the cursor.
func (pg *Page) GetStr(b []byte) {
	pg.checkGet(pg.pos, len(b))
	copy(b, pg.data[pg.pos:pg.pos+len(b)])
	pg.pos += len(b)
}

func (pg *Page) advance(n int) {
	pg.pos += n
	if pg.pos > pg.end() {
		pg.setEnd(pg.pos)
	}
	pg.dirty = true
}

func (pg *Page) PutInt(x int32) {
	pg.checkPut(pg.pos, db2700.IntSize)
	db2700.EncodeInt(pg.data[pg.pos:], x)
	pg.advance(db2700.IntSize)
}

// PutStr writes exactly n bytes from b at the cursor, zero padding if b is
// shorter.
func (pg *Page) PutStr(b []byte, n int) {
	pg.checkPut(pg.pos, n)
	dst := pg.data[pg.pos : pg.pos+n]
	m := copy(dst, b)
	for i := m; i < n; i++ {
		dst[i] = 0
	}
	pg.advance(n)
}
