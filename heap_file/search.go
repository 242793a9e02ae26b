package heap_file

import (
	"github.com/dropbox/godropbox/errors"

	"github.com/robot-dreams/db2700"
	"github.com/robot-dreams/db2700/logging"
	"github.com/robot-dreams/db2700/pager"
)

// Classification places a value relative to the records of one page, assuming
// the page is sorted ascending on the searched field.
type Classification int

const (
	// value < first record
	Below Classification = iota
	// value == first record
	First
	// first record < value == last record, and the last slot is the only
	// slot of the page holding value
	Last
	// first record < value < last record, or value == last record with
	// another copy of value before the last slot
	Within
	// value > last record
	Above
)

func (c Classification) String() string {
	switch c {
	case Below:
		return "Below"
	case First:
		return "First"
	case Last:
		return "Last"
	case Within:
		return "Within"
	case Above:
		return "Above"
	default:
		return "Unknown"
	}
}

func slotPos(recordLen int, slot int) int {
	return slot*recordLen + db2700.PageHeaderSize
}

func slotIndex(recordLen int, pos int) int {
	return (pos - db2700.PageHeaderSize) / recordLen
}

func numSlots(pg *pager.Page, recordLen int) int {
	return pg.DataLen() / recordLen
}

func valueAt(pg *pager.Page, recordLen int, offset int, slot int) int32 {
	return pg.GetIntAt(slotPos(recordLen, slot) + offset)
}

// Classify compares value with the first and last record of pg.  An empty
// page is reported as Below since it cannot hold value.
func Classify(pg *pager.Page, recordLen int, offset int, value int32) Classification {
	n := numSlots(pg, recordLen)
	if n == 0 {
		return Below
	}
	first := valueAt(pg, recordLen, offset, 0)
	last := valueAt(pg, recordLen, offset, n-1)
	if first > last {
		logging.Fatalf(
			nil,
			"%v block %d is not sorted: first value %d > last value %d",
			pg.File(),
			pg.BlockNr(),
			first,
			last)
	}
	switch {
	case value < first:
		return Below
	case value == first:
		return First
	case value > last:
		return Above
	case value == last && valueAt(pg, recordLen, offset, n-2) != value:
		// first < value, so n >= 2 here.
		return Last
	default:
		return Within
	}
}

// FirstMatchInPage returns the byte position of the leftmost record of pg
// whose field at offset equals value.
func FirstMatchInPage(
	pg *pager.Page,
	recordLen int,
	offset int,
	value int32,
) (int, bool) {
	low := 0
	high := numSlots(pg, recordLen) - 1
	for low <= high {
		mid := low + (high-low)/2
		x := valueAt(pg, recordLen, offset, mid)
		switch {
		case x < value:
			low = mid + 1
		case x > value:
			high = mid - 1
		default:
			// Duplicates cluster, so only a predecessor with a different
			// value proves this is the first occurrence.
			if mid == 0 || valueAt(pg, recordLen, offset, mid-1) != value {
				return slotPos(recordLen, mid), true
			}
			high = mid - 1
		}
	}
	return 0, false
}

type match struct {
	blockNr int32
	pos     int
}

type searcher struct {
	hf     *HeapFile
	offset int
	value  int32
}

func (s *searcher) classifyBlock(blockNr int32) (Classification, error) {
	pg, err := s.hf.pager.ReadPage(s.hf.Name(), blockNr)
	if err != nil {
		return Below, err
	}
	defer pg.Unpin()
	return Classify(pg, s.hf.schema.Len(), s.offset, s.value), nil
}

func (s *searcher) searchBlock(blockNr int32) (match, bool, error) {
	pg, err := s.hf.pager.ReadPage(s.hf.Name(), blockNr)
	if err != nil {
		return match{}, false, err
	}
	defer pg.Unpin()
	pos, ok := FirstMatchInPage(pg, s.hf.schema.Len(), s.offset, s.value)
	return match{blockNr, pos}, ok, nil
}

func firstSlot(blockNr int32) (match, bool, error) {
	return match{blockNr, db2700.PageHeaderSize}, true, nil
}

// locate finds the block and position of the first record holding value.
func (s *searcher) locate(numBlocks int32) (match, bool, error) {
	c, err := s.classifyBlock(0)
	if err != nil {
		return match{}, false, err
	}
	switch c {
	case Below:
		return match{}, false, nil
	case First:
		return firstSlot(0)
	case Within, Last:
		return s.searchBlock(0)
	}

	// Every record of block 0 is smaller than value.
	lastBlock := numBlocks - 1
	if lastBlock == 0 {
		return match{}, false, nil
	}
	c, err = s.classifyBlock(lastBlock)
	if err != nil {
		return match{}, false, err
	}
	switch c {
	case Above:
		return match{}, false, nil
	case Within, Last:
		// The first record of the last block is smaller than value, so
		// nothing before it can hold value.
		return s.searchBlock(lastBlock)
	}

	// Invariant: low is Above, high is Below or First.  The first
	// occurrence, if any, is in (low, high].
	low, high, highClass := int32(0), lastBlock, c
	for high-low > 1 {
		mid := low + (high-low)/2
		c, err = s.classifyBlock(mid)
		if err != nil {
			return match{}, false, err
		}
		switch c {
		case Above:
			low = mid
		case Below, First:
			high, highClass = mid, c
		default:
			return s.searchBlock(mid)
		}
	}
	if highClass == First {
		return firstSlot(high)
	}
	return match{}, false, nil
}

// FirstMatch positions the cursor on the first record (lowest block, lowest
// slot) whose int field at offset equals value, and reports whether there is
// one.  The cursor is left unchanged if there is none.
//
// Precondition: the table is sorted ascending on the field, both within and
// across pages.  A page whose first value exceeds its last is fatal; other
// violations produce unspecified results.
func (hf *HeapFile) FirstMatch(offset int, value int32) (bool, error) {
	f := hf.schema.FieldAtOffset(offset)
	if f == nil {
		return false, errors.Newf("%v has no field at offset %d", hf.Name(), offset)
	}
	if f.Type != db2700.Int {
		return false, errors.Newf("%q is not an integer field", f.Name)
	}
	numBlocks, err := hf.NumBlocks()
	if err != nil {
		return false, err
	}
	if numBlocks == 0 {
		return false, nil
	}
	s := &searcher{
		hf:     hf,
		offset: offset,
		value:  value,
	}
	m, ok, err := s.locate(numBlocks)
	if err != nil || !ok {
		return false, err
	}
	err = hf.seek(m.blockNr, m.pos)
	if err != nil {
		return false, err
	}
	hf.log.Debug(
		"found first match",
		"field", f.Name,
		"value", value,
		"block", m.blockNr,
		"slot", slotIndex(hf.schema.Len(), m.pos))
	return true, nil
}
