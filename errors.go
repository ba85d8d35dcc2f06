package azql

import "errors"

// The builder fails fast: an invalid operation returns the original,
// unmodified statement together with one of the errors below. All of them can
// be tested for with errors.Is.
var (
	// ErrDuplicateClause reports that a clause which may be set at most once
	// (fields, group, modifier, limit, offset) was set a second time.
	ErrDuplicateClause = errors.New("clause already set")

	// ErrDuplicateAlias reports that a join alias collides with an alias
	// already registered on the statement.
	ErrDuplicateAlias = errors.New("duplicate table alias")

	// ErrInvalidArgument reports an argument outside the accepted domain,
	// such as an unknown ordering direction or a negative limit.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStructure reports a statement whose shape is invalid, for example a
	// first join that carries an ON condition.
	ErrStructure = errors.New("invalid statement structure")

	// ErrCardinality is returned by Query.One when the result set does not
	// contain exactly one row.
	ErrCardinality = errors.New("unexpected result cardinality")
)
