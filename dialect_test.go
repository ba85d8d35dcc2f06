package azql_test

import (
	. "gopkg.in/check.v1"

	"github.com/carlhu/azql"
)

type DialectSuite struct{}

var _ = Suite(&DialectSuite{})

var quoteTests = []struct {
	summary  string
	dialect  azql.Dialect
	name     string
	expected string
}{{
	"single segment",
	azql.ANSI,
	"users",
	`"users"`,
}, {
	"two segments quoted independently",
	azql.ANSI,
	"u.id",
	`"u"."id"`,
}, {
	"three segments",
	azql.ANSI,
	"db.schema.t",
	`"db"."schema"."t"`,
}, {
	"star is never quoted",
	azql.ANSI,
	"*",
	"*",
}, {
	"qualified star",
	azql.ANSI,
	"u.*",
	`"u".*`,
}, {
	"lower folding",
	azql.ANSI,
	"Users",
	`"users"`,
}, {
	"upper folding",
	azql.Dialect{Quote: `"`, Fold: azql.FoldUpper},
	"users",
	`"USERS"`,
}, {
	"no folding",
	azql.Dialect{Quote: `"`, Fold: azql.FoldNone},
	"Users",
	`"Users"`,
}, {
	"embedded quote is doubled",
	azql.Dialect{Quote: `"`, Fold: azql.FoldNone},
	`weird"name`,
	`"weird""name"`,
}, {
	"mysql backticks",
	azql.MySQL,
	"u.id",
	"`u`.`id`",
}}

func (s *DialectSuite) TestQuoteName(c *C) {
	for _, t := range quoteTests {
		c.Check(azql.QuoteName(t.dialect, t.name), Equals, t.expected, Commentf("test %q failed", t.summary))
	}
}

func (s *DialectSuite) TestSerializeWithDialect(c *C) {
	f := azql.SerializeWith(azql.MySQL, []any{azql.Raw("SELECT"), azql.Name("u.id")})
	c.Assert(f.SQL(), Equals, "SELECT `u`.`id`")
}

func (s *DialectSuite) TestSetDialectValidation(c *C) {
	err := azql.SetDialect(azql.Dialect{})
	c.Assert(err, ErrorMatches, "cannot set dialect: invalid argument: empty quote string")
}

func (s *DialectSuite) TestSetDialectOnce(c *C) {
	// The dialect gate is process-wide. Install the dialect the rest of the
	// tests already assume and check the gate shuts behind it.
	err := azql.SetDialect(azql.ANSI)
	c.Assert(err, IsNil)
	err = azql.SetDialect(azql.MySQL)
	c.Assert(err, ErrorMatches, "cannot set dialect: already set")
}
