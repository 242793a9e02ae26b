package executor

import (
	. "gopkg.in/check.v1"

	"github.com/robot-dreams/db2700"
)

type SelectionSuite struct{}

var _ = Suite(&SelectionSuite{})

func usersSchema(c *C) *db2700.Schema {
	t, err := db2700.NewSchema("users")
	c.Assert(err, IsNil)
	_, err = t.AddField(db2700.NewIntField("id"))
	c.Assert(err, IsNil)
	_, err = t.AddField(db2700.NewStrField("first_name", 10))
	c.Assert(err, IsNil)
	_, err = t.AddField(db2700.NewStrField("last_name", 10))
	c.Assert(err, IsNil)
	_, err = t.AddField(db2700.NewStrField("username", 8))
	c.Assert(err, IsNil)
	return t
}

func (s *SelectionSuite) TestSelection(c *C) {
	t := usersSchema(c)
	records := db2700.MustNewRecords(c, t,
		[]interface{}{0, "Rob", "Pike", "rob"},
		[]interface{}{1, "Ken", "Thompson", "ken"},
		[]interface{}{2, "Robert", "Griesemer", "gri"})
	selection := NewSelection(
		db2700.NewInMemoryScan(t, records),
		db2700.FieldEquals(t, "id", 1))
	expected := db2700.MustNewRecords(c, t,
		[]interface{}{1, "Ken", "Thompson", "ken"})
	db2700.CheckIterator(c, selection, expected)

	less, err := db2700.IntFieldCompare(t, "id", "<", 2)
	c.Assert(err, IsNil)
	selection = NewSelection(db2700.NewInMemoryScan(t, records), less)
	expected = db2700.MustNewRecords(c, t,
		[]interface{}{0, "Rob", "Pike", "rob"},
		[]interface{}{1, "Ken", "Thompson", "ken"})
	db2700.CheckIterator(c, selection, expected)
}
