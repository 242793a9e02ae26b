package executor

import (
	. "gopkg.in/check.v1"

	"github.com/robot-dreams/db2700"
)

type ProjectionSuite struct{}

var _ = Suite(&ProjectionSuite{})

func (s *ProjectionSuite) TestProjection(c *C) {
	t := usersSchema(c)
	records := db2700.MustNewRecords(c, t,
		[]interface{}{0, "Rob", "Pike", "rob"},
		[]interface{}{1, "Ken", "Thompson", "ken"},
		[]interface{}{2, "Robert", "Griesemer", "gri"})
	projection, err := NewProjection(
		db2700.NewInMemoryScan(t, records),
		"names",
		[]string{"username", "first_name"})
	c.Assert(err, IsNil)
	p := projection.Schema()
	c.Assert(p.Name(), Equals, "names")
	c.Assert(p.NumFields(), Equals, 2)
	c.Assert(*p.FieldAt(0), Equals, db2700.Field{Name: "username", Type: db2700.Str, Length: 8, Offset: 0})
	c.Assert(*p.FieldAt(1), Equals, db2700.Field{Name: "first_name", Type: db2700.Str, Length: 10, Offset: 8})
	expected := db2700.MustNewRecords(c, p,
		[]interface{}{"rob", "Rob"},
		[]interface{}{"ken", "Ken"},
		[]interface{}{"gri", "Robert"})
	db2700.CheckIterator(c, projection, expected)

	_, err = NewProjection(
		db2700.NewInMemoryScan(t, records),
		"missing",
		[]string{"username", "email"})
	c.Assert(err, NotNil)
}
