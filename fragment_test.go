package azql_test

import (
	. "gopkg.in/check.v1"

	"github.com/carlhu/azql"
)

type FragmentSuite struct{}

var _ = Suite(&FragmentSuite{})

var serializeTests = []struct {
	summary        string
	input          any
	expectedSQL    string
	expectedParams []any
}{{
	"raw token",
	azql.Raw("SELECT"),
	"SELECT",
	nil,
}, {
	"qualified name",
	azql.Name("u.id"),
	`"u"."id"`,
	nil,
}, {
	"scalar becomes a parameter",
	42,
	"?",
	[]any{42},
}, {
	"nil still occupies a placeholder",
	nil,
	"?",
	[]any{nil},
}, {
	"empty sequence",
	[]any{},
	"",
	nil,
}, {
	"tokens joined with single spaces",
	[]any{azql.Raw("SELECT"), azql.Raw("*"), azql.Raw("FROM"), azql.Name("t")},
	`SELECT * FROM "t"`,
	nil,
}, {
	"no space after ( or before ) and ,",
	[]any{azql.Raw("f("), azql.Raw("a"), azql.Raw(","), azql.Raw("b"), azql.Raw(")")},
	"f(a, b)",
	nil,
}, {
	"nested sequences flatten in traversal order",
	[]any{azql.Raw("BETWEEN"), []any{1, azql.Raw("AND"), []any{2}}},
	"BETWEEN ? AND ?",
	[]any{1, 2},
}, {
	"parenthesized composite",
	azql.Parens([]any{azql.Name("a"), azql.Raw("="), 1}),
	`("a" = ?)`,
	[]any{1},
}, {
	"batch is a single parameter",
	azql.Batch{[]any{1, 2}, []any{3, 4}},
	"?",
	[]any{azql.Batch{[]any{1, 2}, []any{3, 4}}},
}, {
	"batch inside a sequence is not unwrapped",
	[]any{"x", azql.Batch{[]any{1}, []any{2}, []any{3}}},
	"? ?",
	[]any{"x", azql.Batch{[]any{1}, []any{2}, []any{3}}},
}}

func (s *FragmentSuite) TestSerialize(c *C) {
	for _, t := range serializeTests {
		f := azql.Serialize(t.input)
		c.Check(f.SQL(), Equals, t.expectedSQL, Commentf("test %q failed", t.summary))
		c.Check(f.Params(), DeepEquals, t.expectedParams, Commentf("test %q failed", t.summary))
	}
}

func (s *FragmentSuite) TestSerializeIdempotent(c *C) {
	f := azql.Serialize([]any{azql.Name("a"), azql.Raw("="), 1})
	again := azql.Serialize(f)
	c.Assert(again, DeepEquals, f)
}

func (s *FragmentSuite) TestParameterOrder(c *C) {
	f := azql.Serialize([]any{1, []any{2, azql.Parens([]any{3, azql.Raw(","), 4})}, 5})
	c.Assert(f.SQL(), Equals, "? ? (?, ?) ?")
	c.Assert(f.Params(), DeepEquals, []any{1, 2, 3, 4, 5})
}

func (s *FragmentSuite) TestUnwrap(c *C) {
	inner := []any{azql.Name("a"), azql.Raw(","), azql.Name("b")}
	wrapped := azql.Parens(inner)
	c.Assert(azql.Unwrap(wrapped), DeepEquals, any(inner))
	c.Assert(azql.Unwrap(inner), DeepEquals, any(inner))
	c.Assert(azql.Unwrap(nil), IsNil)
}

func (s *FragmentSuite) TestSQLConstructor(c *C) {
	f := azql.SQL("SELECT * FROM t WHERE id = ?", 7)
	c.Assert(f.SQL(), Equals, "SELECT * FROM t WHERE id = ?")
	c.Assert(f.Params(), DeepEquals, []any{7})
	c.Assert(f.Render(), DeepEquals, f)
}

var exprTests = []struct {
	summary        string
	input          any
	expectedSQL    string
	expectedParams []any
}{{
	"equality with bind value",
	azql.Eq(azql.C("u.active"), true),
	`"u"."active" = ?`,
	[]any{true},
}, {
	"equality with nil is IS NULL",
	azql.Eq(azql.C("deleted_at"), nil),
	`"deleted_at" IS NULL`,
	nil,
}, {
	"inequality with nil is IS NOT NULL",
	azql.Ne(azql.C("deleted_at"), nil),
	`"deleted_at" IS NOT NULL`,
	nil,
}, {
	"conjunction",
	azql.And(azql.Gt(azql.C("age"), 18), azql.Lt(azql.C("age"), 65)),
	`"age" > ? AND "age" < ?`,
	[]any{18, 65},
}, {
	"disjunction is parenthesized",
	azql.Or(azql.Eq(azql.C("a"), 1), azql.Eq(azql.C("b"), 2)),
	`("a" = ? OR "b" = ?)`,
	[]any{1, 2},
}, {
	"negation",
	azql.Not(azql.Eq(azql.C("a"), 1)),
	`NOT ("a" = ?)`,
	[]any{1},
}, {
	"membership",
	azql.In(azql.C("id"), 1, 2, 3),
	`"id" IN (?, ?, ?)`,
	[]any{1, 2, 3},
}, {
	"function call",
	azql.Fn("coalesce", azql.C("nick"), azql.C("name"), "anon"),
	`coalesce("nick", "name", ?)`,
	[]any{"anon"},
}, {
	"bind literal forces a parameter",
	azql.Eq(azql.C("state"), azql.L("active")),
	`"state" = ?`,
	[]any{"active"},
}}

func (s *FragmentSuite) TestExpressionHelpers(c *C) {
	for _, t := range exprTests {
		f := azql.Serialize(t.input)
		c.Check(f.SQL(), Equals, t.expectedSQL, Commentf("test %q failed", t.summary))
		c.Check(f.Params(), DeepEquals, t.expectedParams, Commentf("test %q failed", t.summary))
	}
}
