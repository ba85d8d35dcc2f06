package azql

import "strings"

// Fragment is a rendered piece of SQL: the statement text and the bind
// values for its placeholders, in the order they appear in the text.
//
// Except for batch parameters (see Batch), the text contains exactly one "?"
// marker per entry of Params, in the same left-to-right order.
type Fragment struct {
	sql    string
	params []any
}

// SQL returns the statement text.
func (f Fragment) SQL() string { return f.sql }

// Params returns the ordered bind values. The returned slice must not be
// modified.
func (f Fragment) Params() []any { return f.params }

// Render implements Renderable: a Fragment renders to itself, so
// pre-rendered SQL can be prepared and run directly.
func (f Fragment) Render() Fragment { return f }

// SQL builds a Fragment from hand-written statement text and its bind
// values. The text must contain one "?" per value.
func SQL(text string, params ...any) Fragment {
	return Fragment{sql: text, params: params}
}

// Raw is a symbolic token emitted verbatim into the SQL text, with no
// parameters. Use it for keywords and operators.
type Raw string

// Name is a qualified identifier such as "users" or "u.id". Each
// dot-separated segment is quoted independently per the active dialect.
type Name string

// Batch tags a group of rows destined to become a single batched bind
// parameter. The serializer never flattens a Batch into its elements; the
// execution layer expands it into one statement execution per row.
type Batch []any

// group is the parenthesized-composite marker. It records the original,
// un-wrapped value so that callers needing the bare form can recover it.
type group struct {
	inner any
}

// Parens wraps a serializable value in parentheses.
func Parens(v any) any { return group{inner: v} }

// Unwrap returns the original value of a parenthesized composite, or the
// value unchanged if it is not one.
func Unwrap(v any) any {
	if g, ok := v.(group); ok {
		return g.inner
	}
	return v
}

// Serialize converts any supported value into one normalized Fragment using
// the active dialect:
//
//   - a Fragment is returned unchanged;
//   - a Batch becomes a single "?" bound to the batch itself;
//   - a []any composite is serialized element-wise and joined with the
//     spacing rule of joinToken;
//   - a Name is quoted per the dialect;
//   - a Raw token becomes verbatim text;
//   - nil becomes a single "?" bound to nil;
//   - any other value becomes a single "?" bound to that value.
func Serialize(v any) Fragment {
	return serialize(currentDialect(), v)
}

func serialize(d Dialect, v any) Fragment {
	switch v := v.(type) {
	case Fragment:
		return v
	case Batch:
		return Fragment{sql: "?", params: []any{v}}
	case []any:
		f := Fragment{}
		for _, elem := range v {
			f = f.join(serialize(d, elem))
		}
		return f
	case group:
		inner := serialize(d, v.inner)
		f := Fragment{sql: "("}
		f = f.join(inner)
		return f.join(Fragment{sql: ")"})
	case Name:
		return Fragment{sql: d.quoteName(string(v))}
	case Raw:
		return Fragment{sql: string(v)}
	case nil:
		return Fragment{sql: "?", params: []any{nil}}
	default:
		return Fragment{sql: "?", params: []any{v}}
	}
}

// join concatenates two fragments, inserting a single space between their
// texts unless the adjacent tokens make it redundant: nothing is inserted
// after an opening parenthesis, before a closing parenthesis or a comma, or
// next to empty text. Parameters are concatenated in order.
func (f Fragment) join(next Fragment) Fragment {
	joined := Fragment{sql: joinToken(f.sql, next.sql)}
	if len(f.params) > 0 || len(next.params) > 0 {
		joined.params = make([]any, 0, len(f.params)+len(next.params))
		joined.params = append(joined.params, f.params...)
		joined.params = append(joined.params, next.params...)
	}
	return joined
}

func joinToken(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if strings.HasSuffix(a, "(") || strings.HasPrefix(b, ")") || strings.HasPrefix(b, ",") {
		return a + b
	}
	return a + " " + b
}

// list intersperses commas between values, producing a composite that
// renders as "a, b, c".
func list(values []any) []any {
	out := make([]any, 0, 2*len(values))
	for i, v := range values {
		if i > 0 {
			out = append(out, Raw(","))
		}
		out = append(out, v)
	}
	return out
}
