package db2700

import (
	. "gopkg.in/check.v1"

	. "github.com/dropbox/godropbox/gocheck2"
)

type RecordSuite struct{}

var _ = Suite(&RecordSuite{})

func (s *RecordSuite) TestFill(c *C) {
	sch := newPersonSchema(c)
	r := sch.NewRecord()
	c.Assert(r.Fill(1, "Alice"), IsNil)
	c.Assert(r.Int(0), Equals, int32(1))
	c.Assert(r.Str(1).String(), Equals, "Alice")
	c.Assert(len(r.Str(1)), Equals, 10)
	c.Assert(r.String(), Equals, "1 | Alice")

	// Too long strings are truncated to the field length.
	c.Assert(r.SetStr(1, "Bartholomew"), IsNil)
	c.Assert(r.Str(1).String(), Equals, "Bartholome")
	// Shorter strings clear the old tail.
	c.Assert(r.SetStr(1, "Bo"), IsNil)
	c.Assert(r.Str(1).String(), Equals, "Bo")

	c.Assert(r.Fill(1), NotNil)
	c.Assert(r.Fill("x", "y"), NotNil)
	c.Assert(r.SetValue(0, StrValue("x")), NotNil)
	c.Assert(func() { r.Int(1) }, PanicMatches, "(?s).*not an int field.*")
}

func (s *RecordSuite) TestIntEncoding(c *C) {
	b := make([]byte, IntSize)
	EncodeInt(b, -7)
	c.Assert(DecodeInt(b), Equals, int32(-7))
	c.Assert(b, DeepEquals, []byte{0xf9, 0xff, 0xff, 0xff})
}

func (s *RecordSuite) TestCopyByNameAndMerge(c *C) {
	sch := newPersonSchema(c)
	src := sch.NewRecord()
	c.Assert(src.Fill(3, "Dan"), IsNil)

	sub, err := sch.SubSchema("names", []string{"name"})
	c.Assert(err, IsNil)
	dst := sub.NewRecord()
	dst.CopyByName(src)
	c.Assert(dst.Str(0).String(), Equals, "Dan")

	right, err := NewSchema("score")
	c.Assert(err, IsNil)
	_, err = right.AddField(NewIntField("id"))
	c.Assert(err, IsNil)
	_, err = right.AddField(NewIntField("points"))
	c.Assert(err, IsNil)
	rr := right.NewRecord()
	c.Assert(rr.Fill(3, 99), IsNil)

	joined, err := JoinedSchema("joined", sch, right, "id")
	c.Assert(err, IsNil)
	merged := joined.NewRecord()
	merged.Merge(src, rr, 0)
	c.Assert(merged.String(), Equals, "3 | Dan | 99")

	clone := merged.Clone()
	c.Assert(clone.Equals(merged), IsTrue)
	c.Assert(clone.SetInt(2, 1), IsNil)
	c.Assert(clone.Equals(merged), IsFalse)
}
