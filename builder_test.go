package azql_test

import (
	"errors"

	. "gopkg.in/check.v1"

	"github.com/carlhu/azql"
)

type BuilderSuite struct{}

var _ = Suite(&BuilderSuite{})

func (s *BuilderSuite) TestSingleAssignmentClauses(c *C) {
	base, err := azql.NewSelect().From("t", "things")
	c.Assert(err, IsNil)

	withLimit, err := base.Limit(10)
	c.Assert(err, IsNil)
	_, err = withLimit.Limit(20)
	c.Assert(errors.Is(err, azql.ErrDuplicateClause), Equals, true)

	withOffset, err := base.Offset(5)
	c.Assert(err, IsNil)
	_, err = withOffset.Offset(6)
	c.Assert(errors.Is(err, azql.ErrDuplicateClause), Equals, true)

	withFields, err := base.Fields(azql.C("t.id"))
	c.Assert(err, IsNil)
	_, err = withFields.Fields(azql.C("t.name"))
	c.Assert(errors.Is(err, azql.ErrDuplicateClause), Equals, true)

	withGroup, err := base.GroupBy(azql.C("t.kind"))
	c.Assert(err, IsNil)
	_, err = withGroup.GroupBy(azql.C("t.id"))
	c.Assert(errors.Is(err, azql.ErrDuplicateClause), Equals, true)

	withModifier, err := base.Distinct()
	c.Assert(err, IsNil)
	_, err = withModifier.All()
	c.Assert(errors.Is(err, azql.ErrDuplicateClause), Equals, true)
}

func (s *BuilderSuite) TestFailedOperationLeavesDescriptorValid(c *C) {
	base, err := azql.NewSelect().From("t", "things")
	c.Assert(err, IsNil)
	withLimit, err := base.Limit(10)
	c.Assert(err, IsNil)

	_, err = withLimit.Limit(20)
	c.Assert(err, NotNil)

	// The descriptor from the first call is untouched and still renders.
	frag := withLimit.Render()
	c.Assert(frag.SQL(), Equals, `SELECT * FROM "things" "t" LIMIT 10`)
}

func (s *BuilderSuite) TestDescriptorsAreTemplates(c *C) {
	base, err := azql.NewSelect().From("u", "users")
	c.Assert(err, IsNil)

	active, err := base.Where(azql.Eq(azql.C("u.active"), true))
	c.Assert(err, IsNil)
	inactive, err := base.Where(azql.Eq(azql.C("u.active"), false))
	c.Assert(err, IsNil)

	c.Assert(base.Render().SQL(), Equals, `SELECT * FROM "users" "u"`)
	c.Assert(active.Render().Params(), DeepEquals, []any{true})
	c.Assert(inactive.Render().Params(), DeepEquals, []any{false})
}

func (s *BuilderSuite) TestDuplicateAlias(c *C) {
	q, err := azql.NewSelect().From("u", "users")
	c.Assert(err, IsNil)
	_, err = q.InnerJoin("u", "orders", azql.Eq(azql.C("u.id"), azql.C("u.user_id")))
	c.Assert(errors.Is(err, azql.ErrDuplicateAlias), Equals, true)
}

func (s *BuilderSuite) TestFirstJoinKind(c *C) {
	_, err := azql.NewSelect().InnerJoin("o", "orders", azql.Eq(azql.C("o.id"), 1))
	c.Assert(errors.Is(err, azql.ErrStructure), Equals, true)

	_, err = azql.NewSelect().From("o", "orders")
	c.Assert(err, IsNil)

	_, err = azql.NewSelect().CrossJoin("o", "orders")
	c.Assert(err, IsNil)
}

func (s *BuilderSuite) TestJoinKindValidation(c *C) {
	_, err := azql.NewSelect().Join("o", "orders", azql.JoinKind(42), nil)
	c.Assert(errors.Is(err, azql.ErrInvalidArgument), Equals, true)
}

func (s *BuilderSuite) TestOrderDirectionValidation(c *C) {
	q, err := azql.NewSelect().From("t", "things")
	c.Assert(err, IsNil)
	_, err = q.OrderBy(azql.C("t.id"), azql.Order(7))
	c.Assert(errors.Is(err, azql.ErrInvalidArgument), Equals, true)
}

func (s *BuilderSuite) TestNegativeLimitAndOffset(c *C) {
	q, err := azql.NewSelect().From("t", "things")
	c.Assert(err, IsNil)
	_, err = q.Limit(-1)
	c.Assert(errors.Is(err, azql.ErrInvalidArgument), Equals, true)
	_, err = q.Offset(-1)
	c.Assert(errors.Is(err, azql.ErrInvalidArgument), Equals, true)
}

func (s *BuilderSuite) TestWhereConjoins(c *C) {
	q, err := azql.NewSelect().From("t", "things")
	c.Assert(err, IsNil)
	q, err = q.Where(azql.Eq(azql.C("t.a"), 1))
	c.Assert(err, IsNil)
	q, err = q.Where(azql.Eq(azql.C("t.b"), 2))
	c.Assert(err, IsNil)

	frag := q.Render()
	c.Assert(frag.SQL(), Equals, `SELECT * FROM "things" "t" WHERE "t"."a" = ? AND "t"."b" = ?`)
	c.Assert(frag.Params(), DeepEquals, []any{1, 2})
}

func (s *BuilderSuite) TestInsertValuesAccumulate(c *C) {
	ins := azql.NewInsert("things")
	ins, err := ins.Values(azql.M{"a": 1})
	c.Assert(err, IsNil)
	ins, err = ins.Values(azql.M{"a": 2}, azql.M{"a": 3})
	c.Assert(err, IsNil)

	frag := ins.Render()
	c.Assert(frag.SQL(), Equals, `INSERT INTO "things" ("a") VALUES (?), (?), (?)`)
	c.Assert(frag.Params(), DeepEquals, []any{1, 2, 3})
}

func (s *BuilderSuite) TestInsertStructRecord(c *C) {
	ins := azql.NewInsert("person")
	ins, err := ins.Values(Person{ID: 1, Name: "Fred", TeamID: 2})
	c.Assert(err, IsNil)

	frag := ins.Render()
	c.Assert(frag.SQL(), Equals, `INSERT INTO "person" ("id", "name", "team_id") VALUES (?, ?, ?)`)
	c.Assert(frag.Params(), DeepEquals, []any{1, "Fred", 2})
}

func (s *BuilderSuite) TestInsertColumnsOnce(c *C) {
	ins, err := azql.NewInsert("t").Columns("a", "b")
	c.Assert(err, IsNil)
	_, err = ins.Columns("c")
	c.Assert(errors.Is(err, azql.ErrDuplicateClause), Equals, true)
}

func (s *BuilderSuite) TestInsertRejectsNonRecord(c *C) {
	_, err := azql.NewInsert("t").Values(42)
	c.Assert(errors.Is(err, azql.ErrInvalidArgument), Equals, true)
}

func (s *BuilderSuite) TestInsertBatchExclusive(c *C) {
	ins, err := azql.NewInsert("t").Values(azql.M{"a": 1})
	c.Assert(err, IsNil)
	_, err = ins.Values(azql.Batch{azql.M{"a": 2}})
	c.Assert(errors.Is(err, azql.ErrInvalidArgument), Equals, true)

	batched, err := azql.NewInsert("t").Values(azql.Batch{azql.M{"a": 1}})
	c.Assert(err, IsNil)
	_, err = batched.Values(azql.M{"a": 2})
	c.Assert(errors.Is(err, azql.ErrInvalidArgument), Equals, true)
}

func (s *BuilderSuite) TestDeleteUsingDuplicateAlias(c *C) {
	d, err := azql.NewDelete("orders").Using("u", "users")
	c.Assert(err, IsNil)
	_, err = d.Using("u", "stores")
	c.Assert(errors.Is(err, azql.ErrDuplicateAlias), Equals, true)
}
