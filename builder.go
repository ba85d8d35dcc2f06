package azql

import (
	"fmt"

	"github.com/carlhu/azql/internal/record"
)

// JoinKind identifies how a relation is attached to a statement.
type JoinKind int

const (
	// JoinComma attaches the relation with a comma, as in "FROM a, b". It is
	// the only kind, besides JoinCross, allowed for the first relation.
	JoinComma JoinKind = iota
	JoinCross
	JoinInner
	JoinLeft
	JoinRight
	JoinFull
)

func (k JoinKind) keyword() string {
	switch k {
	case JoinCross:
		return "CROSS JOIN"
	case JoinInner:
		return "INNER JOIN"
	case JoinLeft:
		return "LEFT JOIN"
	case JoinRight:
		return "RIGHT JOIN"
	case JoinFull:
		return "FULL JOIN"
	}
	return ""
}

func (k JoinKind) valid() bool { return k >= JoinComma && k <= JoinFull }

// Order is an ordering direction for OrderBy.
type Order int

const (
	// OrderDefault leaves the direction to the database.
	OrderDefault Order = iota
	OrderAsc
	OrderDesc
)

// Field is one entry of a select field list: an expression and the alias
// under which its value is returned.
type Field struct {
	As   string
	Expr any
}

type join struct {
	alias string
	kind  JoinKind
	on    any
}

type orderTerm struct {
	column any
	dir    Order
}

// SelectStmt is an immutable SELECT statement descriptor. Builder methods
// return a new descriptor and leave the receiver untouched, so intermediate
// values stay valid and can be reused as templates.
//
// The zero value is not useful; start from NewSelect.
type SelectStmt struct {
	tables    map[string]any
	joins     []join
	fields    []Field
	fieldsSet bool
	where     any
	group     []any
	having    any
	order     []orderTerm
	modifier  string
	limit     int64
	limitSet  bool
	offset    int64
	offsetSet bool
}

// NewSelect returns an empty SELECT descriptor.
func NewSelect() SelectStmt {
	return SelectStmt{}
}

// clone returns a copy of s whose map and slice fields are safe to grow
// without aliasing the receiver.
func (s SelectStmt) clone() SelectStmt {
	c := s
	c.tables = make(map[string]any, len(s.tables)+1)
	for k, v := range s.tables {
		c.tables[k] = v
	}
	c.joins = append([]join(nil), s.joins...)
	c.fields = append([]Field(nil), s.fields...)
	c.group = append([]any(nil), s.group...)
	c.order = append([]orderTerm(nil), s.order...)
	return c
}

// From attaches a relation with a comma join. It is shorthand for
// Join(alias, table, JoinComma, nil).
func (s SelectStmt) From(alias string, table any) (SelectStmt, error) {
	return s.Join(alias, table, JoinComma, nil)
}

// Join attaches a relation under a fresh alias. The first relation of a
// statement is the base table: it must be attached with JoinComma or
// JoinCross and carries no ON condition. A table may be a name, a Fragment
// or a SelectStmt subquery.
func (s SelectStmt) Join(alias string, table any, kind JoinKind, on any) (SelectStmt, error) {
	if !kind.valid() {
		return s, fmt.Errorf("cannot join %q: %w: unknown join kind %d", alias, ErrInvalidArgument, kind)
	}
	if _, ok := s.tables[alias]; ok {
		return s, fmt.Errorf("cannot join %q: %w", alias, ErrDuplicateAlias)
	}
	if len(s.joins) == 0 && kind != JoinComma && kind != JoinCross {
		return s, fmt.Errorf("cannot join %q: %w: first relation cannot have an ON condition", alias, ErrStructure)
	}
	c := s.clone()
	c.tables[alias] = asTable(table)
	c.joins = append(c.joins, join{alias: alias, kind: kind, on: on})
	return c, nil
}

// InnerJoin is shorthand for Join(alias, table, JoinInner, on).
func (s SelectStmt) InnerJoin(alias string, table any, on any) (SelectStmt, error) {
	return s.Join(alias, table, JoinInner, on)
}

// LeftJoin is shorthand for Join(alias, table, JoinLeft, on).
func (s SelectStmt) LeftJoin(alias string, table any, on any) (SelectStmt, error) {
	return s.Join(alias, table, JoinLeft, on)
}

// CrossJoin is shorthand for Join(alias, table, JoinCross, nil).
func (s SelectStmt) CrossJoin(alias string, table any) (SelectStmt, error) {
	return s.Join(alias, table, JoinCross, nil)
}

// Fields sets the field list. It may be called once per statement. Each
// entry is either a Field, or a plain expression whose alias defaults to its
// own name: a Name keeps its last segment, a string keeps itself.
func (s SelectStmt) Fields(cols ...any) (SelectStmt, error) {
	if s.fieldsSet {
		return s, fmt.Errorf("cannot set fields: %w", ErrDuplicateClause)
	}
	if len(cols) == 0 {
		return s, fmt.Errorf("cannot set fields: %w: empty field list", ErrInvalidArgument)
	}
	fields := make([]Field, 0, len(cols))
	for _, col := range cols {
		switch col := col.(type) {
		case Field:
			fields = append(fields, col)
		case Name:
			fields = append(fields, Field{As: lastSegment(string(col)), Expr: col})
		case string:
			fields = append(fields, Field{As: lastSegment(col), Expr: Name(col)})
		default:
			fields = append(fields, Field{Expr: col})
		}
	}
	c := s.clone()
	c.fields = fields
	c.fieldsSet = true
	return c, nil
}

// Where adds a condition. The first call sets it; later calls conjoin with
// the existing condition via AND.
func (s SelectStmt) Where(expr any) (SelectStmt, error) {
	c := s.clone()
	c.where = conjoinWith(c.where, expr)
	return c, nil
}

// Having adds a HAVING condition with the same conjunction rule as Where.
func (s SelectStmt) Having(expr any) (SelectStmt, error) {
	c := s.clone()
	c.having = conjoinWith(c.having, expr)
	return c, nil
}

// GroupBy sets the grouping keys. It may be called once per statement.
func (s SelectStmt) GroupBy(keys ...any) (SelectStmt, error) {
	if s.group != nil {
		return s, fmt.Errorf("cannot set group: %w", ErrDuplicateClause)
	}
	if len(keys) == 0 {
		return s, fmt.Errorf("cannot set group: %w: empty group list", ErrInvalidArgument)
	}
	c := s.clone()
	c.group = make([]any, len(keys))
	for i, k := range keys {
		c.group[i] = asTable(k)
	}
	return c, nil
}

// OrderBy prepends an ordering term, so the term of the last call is emitted
// first. This reverse-insertion order is kept for compatibility with
// existing callers.
func (s SelectStmt) OrderBy(column any, dir Order) (SelectStmt, error) {
	if dir != OrderDefault && dir != OrderAsc && dir != OrderDesc {
		return s, fmt.Errorf("cannot set order: %w: unknown direction %d", ErrInvalidArgument, dir)
	}
	c := s.clone()
	c.order = append([]orderTerm{{column: asTable(column), dir: dir}}, c.order...)
	return c, nil
}

// Distinct sets the DISTINCT modifier. A statement can carry one modifier.
func (s SelectStmt) Distinct() (SelectStmt, error) {
	return s.setModifier("DISTINCT")
}

// All sets the ALL modifier. A statement can carry one modifier.
func (s SelectStmt) All() (SelectStmt, error) {
	return s.setModifier("ALL")
}

func (s SelectStmt) setModifier(m string) (SelectStmt, error) {
	if s.modifier != "" {
		return s, fmt.Errorf("cannot set modifier %s: %w", m, ErrDuplicateClause)
	}
	c := s.clone()
	c.modifier = m
	return c, nil
}

// Limit sets the row limit. It may be called once, with a non-negative
// value.
func (s SelectStmt) Limit(n int64) (SelectStmt, error) {
	if s.limitSet {
		return s, fmt.Errorf("cannot set limit: %w", ErrDuplicateClause)
	}
	if n < 0 {
		return s, fmt.Errorf("cannot set limit: %w: negative limit %d", ErrInvalidArgument, n)
	}
	c := s.clone()
	c.limit, c.limitSet = n, true
	return c, nil
}

// Offset sets the row offset. It may be called once, with a non-negative
// value.
func (s SelectStmt) Offset(n int64) (SelectStmt, error) {
	if s.offsetSet {
		return s, fmt.Errorf("cannot set offset: %w", ErrDuplicateClause)
	}
	if n < 0 {
		return s, fmt.Errorf("cannot set offset: %w: negative offset %d", ErrInvalidArgument, n)
	}
	c := s.clone()
	c.offset, c.offsetSet = n, true
	return c, nil
}

// InsertStmt is an immutable INSERT statement descriptor.
type InsertStmt struct {
	table   any
	columns []string
	colsSet bool
	records []M
	batch   []M
}

// NewInsert returns an INSERT descriptor for the given table.
func NewInsert(table any) InsertStmt {
	return InsertStmt{table: asTable(table)}
}

func (ins InsertStmt) clone() InsertStmt {
	c := ins
	c.columns = append([]string(nil), ins.columns...)
	c.records = append([]M(nil), ins.records...)
	c.batch = append([]M(nil), ins.batch...)
	return c
}

// Columns sets the explicit column list. It may be called once; without it
// the columns are inferred from the records at render time.
func (ins InsertStmt) Columns(cols ...string) (InsertStmt, error) {
	if ins.colsSet {
		return ins, fmt.Errorf("cannot set columns: %w", ErrDuplicateClause)
	}
	c := ins.clone()
	c.columns = append([]string(nil), cols...)
	c.colsSet = true
	return c, nil
}

// Values appends records. A record is an M, any map with string keys, or a
// struct with `db` tags. Passing a Batch switches the statement to batch
// mode: it renders a single VALUES group and the execution layer runs it
// once per row. A statement holds either plain records or one batch, never
// both.
func (ins InsertStmt) Values(records ...any) (InsertStmt, error) {
	c := ins.clone()
	for _, r := range records {
		if b, ok := r.(Batch); ok {
			if c.batch != nil || len(c.records) > 0 {
				return ins, fmt.Errorf("cannot add batch: %w: statement already has records", ErrInvalidArgument)
			}
			rows := make([]M, 0, len(b))
			for _, row := range b {
				m, err := asRecord(row)
				if err != nil {
					return ins, fmt.Errorf("cannot add batch: %w", err)
				}
				rows = append(rows, m)
			}
			c.batch = rows
			continue
		}
		if c.batch != nil {
			return ins, fmt.Errorf("cannot add record: %w: statement already has a batch", ErrInvalidArgument)
		}
		m, err := asRecord(r)
		if err != nil {
			return ins, fmt.Errorf("cannot add record: %w", err)
		}
		c.records = append(c.records, m)
	}
	return c, nil
}

// DeleteStmt is an immutable DELETE statement descriptor.
type DeleteStmt struct {
	table   any
	using   []join
	aliases map[string]any
	where   any
}

// NewDelete returns a DELETE descriptor for the given table.
func NewDelete(table any) DeleteStmt {
	return DeleteStmt{table: asTable(table)}
}

func (d DeleteStmt) clone() DeleteStmt {
	c := d
	c.using = append([]join(nil), d.using...)
	c.aliases = make(map[string]any, len(d.aliases)+1)
	for k, v := range d.aliases {
		c.aliases[k] = v
	}
	return c
}

// Using attaches an auxiliary relation referenced by the WHERE condition.
func (d DeleteStmt) Using(alias string, table any) (DeleteStmt, error) {
	if _, ok := d.aliases[alias]; ok {
		return d, fmt.Errorf("cannot add relation %q: %w", alias, ErrDuplicateAlias)
	}
	c := d.clone()
	c.aliases[alias] = asTable(table)
	c.using = append(c.using, join{alias: alias, kind: JoinComma})
	return c, nil
}

// Where adds a condition with the same conjunction rule as SelectStmt.Where.
func (d DeleteStmt) Where(expr any) (DeleteStmt, error) {
	c := d.clone()
	c.where = conjoinWith(c.where, expr)
	return c, nil
}

// conjoinWith combines an optional existing condition with a new one using
// AND.
func conjoinWith(existing, expr any) any {
	if existing == nil {
		return expr
	}
	return []any{existing, Raw("AND"), expr}
}

// asTable normalizes relation and grouping references: bare strings are
// identifiers, everything else is taken as-is.
func asTable(v any) any {
	if s, ok := v.(string); ok {
		return Name(s)
	}
	return v
}

// asRecord normalizes one insert record into an M.
func asRecord(v any) (M, error) {
	switch v := v.(type) {
	case M:
		return v, nil
	case map[string]any:
		return M(v), nil
	default:
		m, err := record.Map(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
		}
		return m, nil
	}
}

func lastSegment(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
