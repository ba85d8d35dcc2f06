package azql

// This file provides thin constructors for expression nodes. An expression
// node carries no behaviour of its own: it is any value the serializer
// accepts, usually a []any composite of names, raw tokens and bind values.
// Anything that satisfies that contract can be handed to Where, Having, join
// conditions and field lists, whether built here or elsewhere.

// C returns a column or table reference. Dotted names are quoted per
// segment: C("u.id") renders as `"u"."id"`.
func C(name string) Name { return Name(name) }

// R returns a raw SQL token emitted verbatim.
func R(text string) Raw { return Raw(text) }

// L returns a bind literal: a single placeholder bound to v, whatever v is.
// Plain scalars bind on their own; L is for values the serializer would
// otherwise interpret, such as a []any that should bind as one driver value.
func L(v any) Fragment { return Fragment{sql: "?", params: []any{v}} }

// Alias names a select field: Alias(Fn("count", R("*")), "n") selects the
// count under the column name "n".
func Alias(expr any, as string) Field { return Field{As: as, Expr: expr} }

func binary(a any, op string, b any) any {
	return []any{a, Raw(op), b}
}

// Eq returns an equality comparison. A nil right-hand side renders as
// IS NULL rather than "= NULL".
func Eq(a, b any) any {
	if b == nil {
		return []any{a, Raw("IS NULL")}
	}
	return binary(a, "=", b)
}

// Ne returns an inequality comparison, rendering IS NOT NULL for nil.
func Ne(a, b any) any {
	if b == nil {
		return []any{a, Raw("IS NOT NULL")}
	}
	return binary(a, "!=", b)
}

func Lt(a, b any) any { return binary(a, "<", b) }
func Le(a, b any) any { return binary(a, "<=", b) }
func Gt(a, b any) any { return binary(a, ">", b) }
func Ge(a, b any) any { return binary(a, ">=", b) }

// And conjoins expressions with AND.
func And(exprs ...any) any {
	return conjoin("AND", exprs)
}

// Or disjoins expressions with OR. The result is parenthesized so that it
// can be conjoined with other conditions without changing its meaning.
func Or(exprs ...any) any {
	return Parens(conjoin("OR", exprs))
}

func conjoin(op string, exprs []any) any {
	if len(exprs) == 1 {
		return exprs[0]
	}
	out := make([]any, 0, 2*len(exprs))
	for i, e := range exprs {
		if i > 0 {
			out = append(out, Raw(op))
		}
		out = append(out, e)
	}
	return out
}

// Not negates an expression.
func Not(expr any) any {
	return []any{Raw("NOT"), Parens(expr)}
}

// In returns a membership test against a list of bind values.
func In(expr any, values ...any) any {
	return []any{expr, Raw("IN"), Parens(list(values))}
}

// Fn returns a function call expression: Fn("coalesce", C("a"), 0) renders
// as `coalesce("a", ?)`.
func Fn(name string, args ...any) any {
	out := []any{Raw(name + "(")}
	out = append(out, list(args)...)
	return append(out, Raw(")"))
}
