// Package pager is the buffer manager between table files and the record
// layer.  Pages are shared, reference counted buffers: every GetPage (or
// NextPage) pins the returned page and the caller must Unpin it exactly once
// before it is allowed to be evicted.
package pager

import (
	"log/slog"
	"path/filepath"

	"github.com/dropbox/godropbox/errors"
	"golang.org/x/sync/errgroup"

	"github.com/robot-dreams/db2700"
	"github.com/robot-dreams/db2700/block_file"
	"github.com/robot-dreams/db2700/logging"
)

// LastBlock can be passed to GetPage instead of a block number.
const LastBlock int32 = -1

const DefaultCapacity = 64

var ErrPoolExhausted = errors.New("all pages in the buffer pool are pinned")

type frameID struct {
	file    string
	blockNr int32
}

type Pager struct {
	dir      string
	capacity int
	files    map[string]*block_file.BlockFile
	frames   map[frameID]*Page

	// Frames with a zero pin count, least recently released first.
	unpinned []frameID

	log *slog.Logger
}

// New creates a pager whose table files live in dir.  A non-positive capacity
// selects DefaultCapacity.
func New(dir string, capacity int) *Pager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Pager{
		dir:      dir,
		capacity: capacity,
		files:    make(map[string]*block_file.BlockFile),
		frames:   make(map[frameID]*Page, capacity),
		log:      logging.WithComponent("pager"),
	}
}

func (p *Pager) Dir() string {
	return p.dir
}

func (p *Pager) Path(file string) string {
	return filepath.Join(p.dir, file)
}

func (p *Pager) openFile(file string) (*block_file.BlockFile, error) {
	bf, ok := p.files[file]
	if ok {
		return bf, nil
	}
	bf, err := block_file.OpenBlockFile(p.Path(file))
	if err != nil {
		return nil, err
	}
	p.files[file] = bf
	return bf, nil
}

func (p *Pager) NumBlocks(file string) (int32, error) {
	bf, err := p.openFile(file)
	if err != nil {
		return 0, err
	}
	return bf.NumBlocks, nil
}

// GetPage returns the pinned page for the given block, with its cursor at the
// first record slot.  Block 0 of an empty file is allocated on demand so that
// every table has at least one page to position a cursor on.
func (p *Pager) GetPage(file string, blockNr int32) (*Page, error) {
	pg, err := p.ReadPage(file, blockNr)
	if err != nil {
		return nil, err
	}
	pg.SetPosBegin()
	return pg, nil
}

// ReadPage is like GetPage, but leaves the cursor of an already cached page
// where it is.  Readers that only use the *At accessors share frames with
// positioned cursors this way.
func (p *Pager) ReadPage(file string, blockNr int32) (*Page, error) {
	bf, err := p.openFile(file)
	if err != nil {
		return nil, err
	}
	if bf.NumBlocks == 0 && (blockNr == 0 || blockNr == LastBlock) {
		return p.allocate(file, bf)
	}
	if blockNr == LastBlock {
		blockNr = bf.NumBlocks - 1
	}
	if blockNr < 0 || blockNr >= bf.NumBlocks {
		return nil, errors.Newf(
			"%v has no block %d; it has %d blocks", file, blockNr, bf.NumBlocks)
	}
	return p.fetch(file, bf, blockNr)
}

// GetPageForAppend returns the pinned last page of the file with its cursor
// just past the last record.
func (p *Pager) GetPageForAppend(file string) (*Page, error) {
	pg, err := p.GetPage(file, LastBlock)
	if err != nil {
		return nil, err
	}
	pg.Seek(End, 0)
	return pg, nil
}

// NextPage follows the link from pg to the following block of the same file.
// It fails if pg is the last block.  pg itself stays pinned.
func (p *Pager) NextPage(pg *Page) (*Page, error) {
	bf, err := p.openFile(pg.file)
	if err != nil {
		return nil, err
	}
	next := pg.blockNr + 1
	if next >= bf.NumBlocks {
		return nil, errors.Newf(
			"%v has no block after %d", pg.file, pg.blockNr)
	}
	result, err := p.fetch(pg.file, bf, next)
	if err != nil {
		return nil, err
	}
	result.SetPosBegin()
	return result, nil
}

// NextPageForAppend is like NextPage, but allocates a new block if pg is the
// last one.  The cursor of the result is positioned for appending.
func (p *Pager) NextPageForAppend(pg *Page) (*Page, error) {
	bf, err := p.openFile(pg.file)
	if err != nil {
		return nil, err
	}
	var result *Page
	if pg.blockNr+1 >= bf.NumBlocks {
		result, err = p.allocate(pg.file, bf)
	} else {
		result, err = p.fetch(pg.file, bf, pg.blockNr+1)
	}
	if err != nil {
		return nil, err
	}
	result.Seek(End, 0)
	return result, nil
}

func (p *Pager) fetch(
	file string,
	bf *block_file.BlockFile,
	blockNr int32,
) (*Page, error) {
	id := frameID{file, blockNr}
	if pg, ok := p.frames[id]; ok {
		p.pin(pg)
		return pg, nil
	}
	err := p.makeRoom()
	if err != nil {
		return nil, err
	}
	pg := &Page{
		pager:   p,
		file:    file,
		blockNr: blockNr,
		data:    make([]byte, db2700.BlockSize),
		pos:     db2700.PageHeaderSize,
	}
	err = bf.ReadBlock(pg.data, blockNr)
	if err != nil {
		return nil, err
	}
	if pg.end() < db2700.PageHeaderSize {
		// Allocated but never written.
		pg.initHeader()
	}
	p.frames[id] = pg
	p.pin(pg)
	return pg, nil
}

func (p *Pager) allocate(file string, bf *block_file.BlockFile) (*Page, error) {
	err := p.makeRoom()
	if err != nil {
		return nil, err
	}
	blockNr, err := bf.AllocateBlock()
	if err != nil {
		return nil, err
	}
	pg := &Page{
		pager:   p,
		file:    file,
		blockNr: blockNr,
		data:    make([]byte, db2700.BlockSize),
	}
	pg.initHeader()
	p.frames[frameID{file, blockNr}] = pg
	p.pin(pg)
	p.log.Debug("allocated block", "file", file, "block", blockNr)
	return pg, nil
}

func (p *Pager) pin(pg *Page) {
	if pg.pinCount == 0 {
		p.removeUnpinned(frameID{pg.file, pg.blockNr})
	}
	pg.pinCount++
}

func (p *Pager) unpin(pg *Page) {
	if pg.pinCount == 0 {
		p.log.Error(
			"unpin of a page that is not pinned",
			"file", pg.file,
			"block", pg.blockNr)
		return
	}
	pg.pinCount--
	if pg.pinCount == 0 {
		p.unpinned = append(p.unpinned, frameID{pg.file, pg.blockNr})
	}
}

func (p *Pager) removeUnpinned(id frameID) {
	for i, other := range p.unpinned {
		if other == id {
			p.unpinned = append(p.unpinned[:i], p.unpinned[i+1:]...)
			return
		}
	}
}

// makeRoom evicts the least recently released frame if the pool is full.
func (p *Pager) makeRoom() error {
	if len(p.frames) < p.capacity {
		return nil
	}
	if len(p.unpinned) == 0 {
		return ErrPoolExhausted
	}
	id := p.unpinned[0]
	err := p.flush(p.frames[id])
	if err != nil {
		return err
	}
	p.unpinned = p.unpinned[1:]
	delete(p.frames, id)
	return nil
}

func (p *Pager) flush(pg *Page) error {
	if !pg.dirty {
		return nil
	}
	bf, ok := p.files[pg.file]
	if !ok {
		return errors.Newf("%v is not open", pg.file)
	}
	err := bf.WriteBlock(pg.data, pg.blockNr)
	if err != nil {
		return err
	}
	pg.dirty = false
	return nil
}

// NumPinned reports how many pages are currently pinned.
func (p *Pager) NumPinned() int {
	return len(p.frames) - len(p.unpinned)
}

// CloseFile writes back the file's dirty pages, drops them from the pool and
// closes the file.  All of its pages must be unpinned.
func (p *Pager) CloseFile(file string) error {
	bf, ok := p.files[file]
	if !ok {
		return nil
	}
	for id, pg := range p.frames {
		if id.file != file {
			continue
		}
		if pg.pinCount > 0 {
			return errors.Newf(
				"cannot close %v: block %d is still pinned", file, id.blockNr)
		}
	}
	for id, pg := range p.frames {
		if id.file != file {
			continue
		}
		err := p.flush(pg)
		if err != nil {
			return err
		}
		p.removeUnpinned(id)
		delete(p.frames, id)
	}
	delete(p.files, file)
	return bf.Close()
}

// Terminate writes back every dirty page and closes every file.  Files are
// independent of each other, so each one is flushed on its own goroutine.
// The pager is empty afterwards and may be reused.
func (p *Pager) Terminate() error {
	byFile := make(map[string][]*Page, len(p.files))
	for id, pg := range p.frames {
		if pg.pinCount > 0 {
			p.log.Warn(
				"page still pinned at shutdown",
				"file", id.file,
				"block", id.blockNr,
				"pins", pg.pinCount)
		}
		byFile[id.file] = append(byFile[id.file], pg)
	}
	var g errgroup.Group
	for name, bf := range p.files {
		bf := bf
		pages := byFile[name]
		g.Go(func() error {
			for _, pg := range pages {
				if !pg.dirty {
					continue
				}
				err := bf.WriteBlock(pg.data, pg.blockNr)
				if err != nil {
					_ = bf.Close()
					return err
				}
				pg.dirty = false
			}
			err := bf.Sync()
			if err != nil {
				_ = bf.Close()
				return errors.Wrapf(err, "syncing %v", bf.Path)
			}
			return bf.Close()
		})
	}
	err := g.Wait()
	p.files = make(map[string]*block_file.BlockFile)
	p.frames = make(map[frameID]*Page, p.capacity)
	p.unpinned = nil
	return err
}
