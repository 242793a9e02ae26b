package heap_file

import (
	. "gopkg.in/check.v1"

	. "github.com/dropbox/godropbox/gocheck2"

	"github.com/robot-dreams/db2700"
	"github.com/robot-dreams/db2700/pager"
)

type SearchSuite struct{}

var _ = Suite(&SearchSuite{})

const keyOffset = db2700.IntSize

// linearFirst finds the first record whose key equals value by scanning the
// whole table.
func linearFirst(c *C, hf *HeapFile, value int32) (int32, int, bool) {
	c.Assert(hf.SetPosition(Beginning), IsNil)
	defer hf.Release()
	for {
		pg, err := hf.pageForNextRecord()
		c.Assert(err, IsNil)
		if pg == nil {
			return 0, 0, false
		}
		if pg.GetIntAt(pg.Pos()+keyOffset) == value {
			return pg.BlockNr(), pg.Pos(), true
		}
		_, err = hf.NextRecord()
		c.Assert(err, IsNil)
	}
}

func checkAgainstScan(c *C, hf *HeapFile, keys []int32) {
	for value := keys[0] - 1; value <= keys[len(keys)-1]+1; value++ {
		blockNr, pos, expected := linearFirst(c, hf, value)

		c.Assert(hf.SetPosition(Beginning), IsNil)
		found, err := hf.FirstMatch(keyOffset, value)
		c.Assert(err, IsNil)
		c.Assert(found, Equals, expected, Commentf("value %d", value))
		if found {
			c.Assert(hf.cursor.BlockNr(), Equals, blockNr, Commentf("value %d", value))
			c.Assert(hf.cursor.Pos(), Equals, pos, Commentf("value %d", value))
			r, err := hf.NextRecord()
			c.Assert(err, IsNil)
			c.Assert(r.Int(1), Equals, value)
		} else {
			// A miss leaves the cursor where it was.
			c.Assert(hf.cursor.BlockNr(), Equals, int32(0))
			c.Assert(hf.cursor.Pos(), Equals, db2700.PageHeaderSize)
		}
		hf.Release()
	}
	c.Assert(hf.pager.NumPinned(), Equals, 0)
}

func (s *SearchSuite) TestMissKeepsCursor(c *C) {
	p := pager.New(c.MkDir(), 4)
	hf := tableWithKeys(c, p, "t", 0, []int32{1, 2, 3, 4})
	c.Assert(hf.SetPosition(Beginning), IsNil)
	for i := 0; i < 2; i++ {
		_, err := hf.NextRecord()
		c.Assert(err, IsNil)
	}
	pos := hf.cursor.Pos()
	for _, value := range []int32{0, 99} {
		found, err := hf.FirstMatch(keyOffset, value)
		c.Assert(err, IsNil)
		c.Assert(found, IsFalse)
		c.Assert(hf.cursor.Pos(), Equals, pos)
	}
	r, err := hf.NextRecord()
	c.Assert(err, IsNil)
	c.Assert(r.Int(0), Equals, int32(2))
	hf.Release()

	// Even keys only, 61 records per page; odd values miss inside the
	// table after probing the page under the cursor.
	keys := make([]int32, 200)
	for i := range keys {
		keys[i] = int32(2 * i)
	}
	hf = tableWithKeys(c, p, "even", 0, keys)
	c.Assert(hf.SetPosition(Beginning), IsNil)
	for i := 0; i < 70; i++ {
		_, err = hf.NextRecord()
		c.Assert(err, IsNil)
	}
	blockNr, pos := hf.cursor.BlockNr(), hf.cursor.Pos()
	c.Assert(blockNr, Equals, int32(1))
	for _, value := range []int32{1, 121, 141, 399} {
		found, err := hf.FirstMatch(keyOffset, value)
		c.Assert(err, IsNil)
		c.Assert(found, IsFalse, Commentf("value %d", value))
		c.Assert(hf.cursor.BlockNr(), Equals, blockNr)
		c.Assert(hf.cursor.Pos(), Equals, pos)
	}
	r, err = hf.NextRecord()
	c.Assert(err, IsNil)
	c.Assert(r.Int(0), Equals, int32(70))

	found, err := hf.FirstMatch(keyOffset, 140)
	c.Assert(err, IsNil)
	c.Assert(found, IsTrue)
	r, err = hf.NextRecord()
	c.Assert(err, IsNil)
	c.Assert(r.Int(0), Equals, int32(70))
	hf.Release()
	c.Assert(p.NumPinned(), Equals, 0)
}

func (s *SearchSuite) TestClassify(c *C) {
	p := pager.New(c.MkDir(), 4)
	hf := tableWithKeys(c, p, "t", 0, []int32{3, 5, 5, 7, 7})
	pg, err := p.GetPage("t", 0)
	c.Assert(err, IsNil)
	recordLen := hf.Schema().Len()
	expected := map[int32]Classification{
		2: Below,
		3: First,
		4: Within,
		5: Within,
		6: Within,
		7: Within,
		8: Above,
	}
	for value, class := range expected {
		c.Assert(
			Classify(pg, recordLen, keyOffset, value),
			Equals,
			class,
			Commentf("value %d", value))
	}
	pg.Unpin()

	hf = tableWithKeys(c, p, "u", 0, []int32{3, 5, 7})
	pg, err = p.GetPage("u", 0)
	c.Assert(err, IsNil)
	c.Assert(Classify(pg, hf.Schema().Len(), keyOffset, 7), Equals, Last)
	c.Assert(Classify(pg, hf.Schema().Len(), keyOffset, 3), Equals, First)
	pg.Unpin()

	hf = tableWithKeys(c, p, "empty", 0, nil)
	pg, err = p.GetPage("empty", 0)
	c.Assert(err, IsNil)
	c.Assert(Classify(pg, hf.Schema().Len(), keyOffset, 0), Equals, Below)
	pg.Unpin()
	c.Assert(p.NumPinned(), Equals, 0)
}

func (s *SearchSuite) TestFirstMatchInPage(c *C) {
	p := pager.New(c.MkDir(), 4)
	hf := tableWithKeys(c, p, "t", 0, []int32{1, 2, 2, 2, 4, 4})
	pg, err := p.GetPage("t", 0)
	c.Assert(err, IsNil)
	defer pg.Unpin()
	recordLen := hf.Schema().Len()
	expected := map[int32]int{1: 0, 2: 1, 4: 4}
	for value, slot := range expected {
		pos, ok := FirstMatchInPage(pg, recordLen, keyOffset, value)
		c.Assert(ok, IsTrue)
		c.Assert(pos, Equals, slotPos(recordLen, slot))
	}
	for _, value := range []int32{0, 3, 5} {
		_, ok := FirstMatchInPage(pg, recordLen, keyOffset, value)
		c.Assert(ok, IsFalse)
	}
}

func (s *SearchSuite) TestSinglePage(c *C) {
	p := pager.New(c.MkDir(), 4)
	keys := []int32{2, 4, 4, 9}
	checkAgainstScan(c, tableWithKeys(c, p, "t", 0, keys), keys)
	keys = []int32{7}
	checkAgainstScan(c, tableWithKeys(c, p, "u", 0, keys), keys)
}

func (s *SearchSuite) TestUniformPages(c *C) {
	// 8 byte records, so 61 per page.  Every page holds a single value, so
	// each match is the first slot of its page.
	p := pager.New(c.MkDir(), 8)
	keys := make([]int32, 61*7)
	for i := range keys {
		keys[i] = int32(i / 61)
	}
	checkAgainstScan(c, tableWithKeys(c, p, "t", 0, keys), keys)
}

func (s *SearchSuite) TestRunsAcrossPages(c *C) {
	// Every run starts half way through a page and ends half way through the
	// next one.
	p := pager.New(c.MkDir(), 8)
	keys := make([]int32, 61*7)
	for i := range keys {
		keys[i] = int32((i + 30) / 61)
	}
	checkAgainstScan(c, tableWithKeys(c, p, "t", 0, keys), keys)

	// A run whose first copy is the last slot of a page.
	keys = make([]int32, 61*3)
	for i := range keys {
		switch {
		case i < 60:
			keys[i] = int32(i)
		case i < 70:
			keys[i] = 60
		default:
			keys[i] = int32(i)
		}
	}
	checkAgainstScan(c, tableWithKeys(c, p, "u", 0, keys), keys)
}

func (s *SearchSuite) TestOneRecordPerPage(c *C) {
	// 8 + 480 byte records leave room for exactly one record per page.
	p := pager.New(c.MkDir(), 8)
	keys := []int32{1, 3, 3, 3, 4, 8, 9, 9, 12, 15, 15}
	checkAgainstScan(c, tableWithKeys(c, p, "t", 480, keys), keys)
	numBlocks, err := p.NumBlocks("t")
	c.Assert(err, IsNil)
	c.Assert(numBlocks, Equals, int32(len(keys)))

	for i := 0; i < 5; i++ {
		keys = sortedKeys(40)
		checkAgainstScan(c, tableWithKeys(c, p, "r", 480, keys), keys)
		c.Assert(p.CloseFile("r"), IsNil)
		c.Assert(removeTableFile(p, "r"), IsNil)
	}
}

func (s *SearchSuite) TestRandomTables(c *C) {
	p := pager.New(c.MkDir(), 16)
	for _, padding := range []int{0, 20, 200} {
		for i := 0; i < 3; i++ {
			keys := sortedKeys(500)
			checkAgainstScan(c, tableWithKeys(c, p, "r", padding, keys), keys)
			c.Assert(p.CloseFile("r"), IsNil)
			c.Assert(removeTableFile(p, "r"), IsNil)
		}
	}
}

func (s *SearchSuite) TestEmptyTable(c *C) {
	p := pager.New(c.MkDir(), 4)
	hf := tableWithKeys(c, p, "t", 0, nil)
	found, err := hf.FirstMatch(keyOffset, 0)
	c.Assert(err, IsNil)
	c.Assert(found, IsFalse)
	c.Assert(p.NumPinned(), Equals, 0)
}

func (s *SearchSuite) TestInvalidField(c *C) {
	p := pager.New(c.MkDir(), 4)
	hf := tableWithKeys(c, p, "t", 8, []int32{1, 2})
	_, err := hf.FirstMatch(2, 1)
	c.Assert(err, NotNil)
	_, err = hf.FirstMatch(2*db2700.IntSize, 1)
	c.Assert(err, NotNil)
	_, err = NewIndexScanEqual(hf, "missing", 1)
	c.Assert(err, NotNil)
}

func (s *SearchSuite) TestUnsortedPage(c *C) {
	p := pager.New(c.MkDir(), 4)
	hf := tableWithKeys(c, p, "t", 0, []int32{5, 1})
	c.Assert(
		func() { _, _ = hf.FirstMatch(keyOffset, 3) },
		PanicMatches,
		"(?s).*not sorted.*")
}

func (s *SearchSuite) TestIndexScan(c *C) {
	p := pager.New(c.MkDir(), 8)
	keys := sortedKeys(300)
	hf := tableWithKeys(c, p, "t", 0, keys)
	for value := keys[0] - 1; value <= keys[len(keys)-1]+1; value++ {
		var expected []*db2700.Record
		for i, key := range keys {
			if key == value {
				expected = append(expected, keyRecord(c, hf.Schema(), i, key))
			}
		}
		scan, err := NewIndexScanEqual(hf, "key", value)
		c.Assert(err, IsNil)
		db2700.CheckIterator(c, scan, expected)
		c.Assert(p.NumPinned(), Equals, 0)
	}
}
