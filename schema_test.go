package db2700

import (
	. "gopkg.in/check.v1"

	. "github.com/dropbox/godropbox/gocheck2"
	"github.com/dropbox/godropbox/math2/rand2"
)

type SchemaSuite struct{}

var _ = Suite(&SchemaSuite{})

func checkLayout(c *C, s *Schema) {
	offset := 0
	for _, f := range s.Fields() {
		c.Assert(f.Offset, Equals, offset)
		offset += f.Length
	}
	c.Assert(s.Len(), Equals, offset)
}

func (s *SchemaSuite) TestAddField(c *C) {
	sch := newPersonSchema(c)
	c.Assert(sch.NumFields(), Equals, 2)
	c.Assert(sch.Len(), Equals, IntSize+10)
	n, err := sch.AddField(NewIntField("age"))
	c.Assert(err, IsNil)
	c.Assert(n, Equals, 3)
	c.Assert(sch.Field("age").Offset, Equals, IntSize+10)
	checkLayout(c, sch)
}

func (s *SchemaSuite) TestRandomLayouts(c *C) {
	for i := 0; i < 50; i++ {
		sch, err := NewSchema("random")
		c.Assert(err, IsNil)
		for j := 0; j < 1+rand2.Intn(20); j++ {
			var f *Field
			if rand2.Intn(2) == 0 {
				f = NewIntField("i")
			} else {
				f = NewStrField("s", 1+rand2.Intn(40))
			}
			before := sch.Len()
			_, err = sch.AddField(f)
			if err != nil {
				c.Assert(sch.Len(), Equals, before)
			}
			c.Assert(sch.Len() <= MaxRecordLength, IsTrue)
		}
		checkLayout(c, sch)
	}
}

func (s *SchemaSuite) TestAddFieldCapacity(c *C) {
	sch, err := NewSchema("wide")
	c.Assert(err, IsNil)
	_, err = sch.AddField(NewStrField("a", MaxRecordLength-IntSize))
	c.Assert(err, IsNil)
	n, err := sch.AddField(NewStrField("b", IntSize+1))
	c.Assert(err, NotNil)
	c.Assert(n, Equals, 1)
	c.Assert(sch.NumFields(), Equals, 1)
	c.Assert(sch.Len(), Equals, MaxRecordLength-IntSize)
	// Exactly filling the page is allowed.
	_, err = sch.AddField(NewIntField("b"))
	c.Assert(err, IsNil)
	c.Assert(sch.Len(), Equals, MaxRecordLength)
}

func (s *SchemaSuite) TestInvalidFields(c *C) {
	sch := newPersonSchema(c)
	_, err := sch.AddField(NewStrField("empty", 0))
	c.Assert(err, NotNil)
	_, err = sch.AddField(NewIntField("has space"))
	c.Assert(err, NotNil)
	_, err = sch.AddField(&Field{Name: "wide_int", Type: Int, Length: 8})
	c.Assert(err, NotNil)
	_, err = NewField("x", Type(7), 4)
	c.Assert(err, NotNil)
	_, err = NewSchema("")
	c.Assert(err, NotNil)
	c.Assert(sch.NumFields(), Equals, 2)
}

func (s *SchemaSuite) TestLookup(c *C) {
	sch := newPersonSchema(c)
	c.Assert(sch.Field("name").Type, Equals, Str)
	c.Assert(sch.Field("birthday"), IsNil)
	c.Assert(sch.FieldPosition("name"), Equals, 1)
	c.Assert(sch.FieldPosition("birthday"), Equals, -1)
	c.Assert(sch.FieldAtOffset(IntSize).Name, Equals, "name")
	c.Assert(sch.FieldAtOffset(1), IsNil)
}

func (s *SchemaSuite) TestCopyAndSubSchema(c *C) {
	sch := newPersonSchema(c)
	cp, err := sch.Copy("person_copy")
	c.Assert(err, IsNil)
	c.Assert(cp.Name(), Equals, "person_copy")
	c.Assert(cp.Fields(), DeepEquals, sch.Fields())
	c.Assert(cp.Compatible(sch), IsTrue)

	sub, err := sch.SubSchema("names", []string{"name", "id"})
	c.Assert(err, IsNil)
	c.Assert(sub.Field("name").Offset, Equals, 0)
	c.Assert(sub.Field("id").Offset, Equals, 10)
	c.Assert(sub.Compatible(sch), IsFalse)

	_, err = sch.SubSchema("bad", []string{"name", "missing"})
	c.Assert(err, NotNil)
}

func (s *SchemaSuite) TestJoinedSchema(c *C) {
	left := newPersonSchema(c)
	right, err := NewSchema("login")
	c.Assert(err, IsNil)
	_, err = right.AddField(NewIntField("ts"))
	c.Assert(err, IsNil)
	_, err = right.AddField(NewIntField("id"))
	c.Assert(err, IsNil)
	_, err = right.AddField(NewStrField("client", 8))
	c.Assert(err, IsNil)

	shared, err := SharedField(left, right)
	c.Assert(err, IsNil)
	c.Assert(shared, Equals, "id")

	joined, err := JoinedSchema("joined", left, right, shared)
	c.Assert(err, IsNil)
	c.Assert(joined.NumFields(), Equals, left.NumFields()+right.NumFields()-1)
	names := make([]string, 0, joined.NumFields())
	for _, f := range joined.Fields() {
		names = append(names, f.Name)
	}
	c.Assert(names, DeepEquals, []string{"id", "name", "ts", "client"})
	checkLayout(c, joined)

	other, err := NewSchema("other")
	c.Assert(err, IsNil)
	_, err = other.AddField(NewIntField("x"))
	c.Assert(err, IsNil)
	_, err = SharedField(left, other)
	c.Assert(err, NotNil)
	_, err = SharedField(left, left)
	c.Assert(err, NotNil)
}
