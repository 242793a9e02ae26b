package db2700

import (
	. "gopkg.in/check.v1"

	. "github.com/dropbox/godropbox/gocheck2"
)

type PredicatesSuite struct{}

var _ = Suite(&PredicatesSuite{})

func (s *PredicatesSuite) TestIntFieldCompare(c *C) {
	sch := newPersonSchema(c)
	records := MustNewRecords(c, sch,
		[]interface{}{5, "Susan"},
		[]interface{}{6, "Daneel"})
	cases := []struct {
		op       string
		expected [2]bool
	}{
		{"=", [2]bool{true, false}},
		{"!=", [2]bool{false, true}},
		{"<", [2]bool{false, false}},
		{"<=", [2]bool{true, false}},
		{">", [2]bool{false, true}},
		{">=", [2]bool{true, true}},
	}
	for _, tc := range cases {
		p, err := IntFieldCompare(sch, "id", tc.op, 5)
		c.Assert(err, IsNil)
		for i, r := range records {
			c.Assert(p(r), Equals, tc.expected[i], Commentf("%v %v", tc.op, r))
		}
	}

	_, err := IntFieldCompare(sch, "id", "~", 5)
	c.Assert(err, NotNil)
	_, err = IntFieldCompare(sch, "name", "=", 5)
	c.Assert(err, NotNil)
	_, err = IntFieldCompare(sch, "missing", "=", 5)
	c.Assert(err, NotNil)

	equals := FieldEquals(sch, "id", 6)
	c.Assert(equals(records[0]), IsFalse)
	c.Assert(equals(records[1]), IsTrue)
}

func (s *PredicatesSuite) TestInMemoryScan(c *C) {
	sch := newPersonSchema(c)
	records := MustNewRecords(c, sch,
		[]interface{}{1, "ewd"},
		[]interface{}{2, "dmr"},
		[]interface{}{3, "rob"})
	CheckIterator(c, NewInMemoryScan(sch, records), records)
}
