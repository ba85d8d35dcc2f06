/*
Package azql builds SQL statements programmatically and runs them through
cached prepared statements.

Statements are assembled as immutable descriptors: every builder method
returns a new descriptor and leaves its receiver untouched, so partially
built statements can be shared and reused as templates. A finished
descriptor is rendered into a Fragment, one parameterized SQL string plus
the ordered list of bind values for its placeholders.

# Building statements

A SELECT is accumulated clause by clause:

	s, err := azql.NewSelect().From("u", "users")
	s, err = s.InnerJoin("o", "orders", azql.Eq(azql.C("u.id"), azql.C("o.user_id")))
	s, err = s.Fields(azql.C("u.id"), azql.C("o.total"))
	s, err = s.Where(azql.Eq(azql.C("u.active"), true))
	s, err = s.Limit(10)

Each operation validates its clause at the call site: setting a
single-assignment clause twice, reusing a join alias, or attaching the
first relation with an ON condition fails immediately and the descriptor
passed in remains valid.

Rendering produces the SQL text and bind values:

	frag := s.Render()
	frag.SQL()    // SELECT "u"."id", "o"."total" FROM "users" "u" ...
	frag.Params() // [true]

Conditions are expression nodes: any value the serializer accepts, usually
composites built with the helpers in this package (Eq, And, In, Fn, ...).
Identifiers are quoted per the active dialect, which is installed once per
process with SetDialect and defaults to ANSI double quoting.

# Inserts

INSERT records are maps or structs with `db` tags:

	ins := azql.NewInsert("users")
	ins, err := ins.Values(azql.M{"name": "Fred", "active": true})

Without an explicit column list the columns are inferred from the records;
gaps are bound as NULL. Passing a Batch renders a single VALUES group that
the execution layer runs once per row.

# Running statements

Statements are prepared once and bound to a database:

	db := azql.NewDB(sqldb)
	stmt := azql.MustPrepare(s)
	var u User
	err := db.Query(ctx, stmt).One(&u)

The driver prepared statement behind each Statement is cached per database
and reused across queries and transactions. One returns ErrCardinality
unless the result holds exactly one row; All collects every row into
slices; Iter gives row-by-row access.
*/
package azql
