package azql

import (
	"math"
	"strconv"
)

// Render flattens the descriptor into one Fragment in fixed clause
// order: SELECT, modifier, field list, FROM with joins, WHERE, GROUP BY,
// HAVING, ORDER BY, LIMIT and OFFSET.
func (s SelectStmt) Render() Fragment {
	toks := []any{Raw("SELECT")}
	if s.modifier != "" {
		toks = append(toks, Raw(s.modifier))
	}
	if len(s.fields) > 0 {
		exprs := make([]any, len(s.fields))
		for i, f := range s.fields {
			exprs[i] = fieldExpr(f)
		}
		toks = append(toks, list(exprs)...)
	} else {
		toks = append(toks, Raw("*"))
	}
	if len(s.joins) > 0 {
		toks = append(toks, Raw("FROM"))
		toks = append(toks, tableRef(s.tables[s.joins[0].alias], s.joins[0].alias)...)
		for _, j := range s.joins[1:] {
			if j.kind == JoinComma {
				toks = append(toks, Raw(","))
			} else {
				toks = append(toks, Raw(j.kind.keyword()))
			}
			toks = append(toks, tableRef(s.tables[j.alias], j.alias)...)
			// Comma and cross joins never emit an ON condition, even if one
			// was supplied.
			if j.kind != JoinComma && j.kind != JoinCross && j.on != nil {
				toks = append(toks, Raw("ON"), j.on)
			}
		}
	}
	if s.where != nil {
		toks = append(toks, Raw("WHERE"), s.where)
	}
	if len(s.group) > 0 {
		toks = append(toks, Raw("GROUP BY"))
		toks = append(toks, list(s.group)...)
	}
	if s.having != nil {
		toks = append(toks, Raw("HAVING"), s.having)
	}
	if len(s.order) > 0 {
		toks = append(toks, Raw("ORDER BY"))
		terms := make([]any, len(s.order))
		for i, t := range s.order {
			term := []any{t.column}
			switch t.dir {
			case OrderAsc:
				term = append(term, Raw("ASC"))
			case OrderDesc:
				term = append(term, Raw("DESC"))
			}
			terms[i] = term
		}
		toks = append(toks, list(terms)...)
	}
	// LIMIT is emitted whenever either bound is set, defaulting to the
	// maximum representable value so that a bare OFFSET still paginates. The
	// numbers are embedded as raw text: some drivers refuse bound LIMIT
	// parameters.
	if s.limitSet || s.offsetSet {
		limit := int64(math.MaxInt64)
		if s.limitSet {
			limit = s.limit
		}
		toks = append(toks, Raw("LIMIT"), Raw(strconv.FormatInt(limit, 10)))
		if s.offsetSet {
			toks = append(toks, Raw("OFFSET"), Raw(strconv.FormatInt(s.offset, 10)))
		}
	}
	return Serialize(toks)
}

// Render flattens the descriptor into an INSERT Fragment. Without an
// explicit column list the columns are the union of all record keys, in
// first-record order with each record's keys sorted.
func (ins InsertStmt) Render() Fragment {
	toks := []any{Raw("INSERT INTO"), ins.table}
	records := ins.records
	if ins.batch != nil {
		records = ins.batch
	}
	cols := ins.columns
	if !ins.colsSet {
		cols = columnUnion(records)
	}
	if len(cols) > 0 {
		colExprs := make([]any, len(cols))
		for i, c := range cols {
			colExprs[i] = Name(c)
		}
		toks = append(toks, Parens(list(colExprs)))
	}
	switch {
	case ins.batch != nil:
		// One VALUES group with a placeholder per column; the rows travel as
		// a single batch parameter and are expanded at execution time.
		marks := make([]any, len(cols))
		for i := range marks {
			marks[i] = Raw("?")
		}
		rows := make(Batch, len(ins.batch))
		for i, m := range ins.batch {
			row := make([]any, len(cols))
			for j, c := range cols {
				row[j] = m[c]
			}
			rows[i] = row
		}
		toks = append(toks, Raw("VALUES"), Parens(list(marks)), Fragment{params: []any{rows}})
	case len(records) > 0:
		toks = append(toks, Raw("VALUES"))
		groups := make([]any, len(records))
		for i, m := range records {
			vals := make([]any, len(cols))
			for j, c := range cols {
				vals[j] = m[c]
			}
			groups[i] = Parens(list(vals))
		}
		toks = append(toks, list(groups)...)
	}
	return Serialize(toks)
}

// Render flattens the descriptor into a DELETE Fragment.
func (d DeleteStmt) Render() Fragment {
	toks := []any{Raw("DELETE FROM"), d.table}
	if len(d.using) > 0 {
		toks = append(toks, Raw("USING"))
		refs := make([]any, len(d.using))
		for i, j := range d.using {
			refs[i] = tableRef(d.aliases[j.alias], j.alias)
		}
		toks = append(toks, list(refs)...)
	}
	if d.where != nil {
		toks = append(toks, Raw("WHERE"), d.where)
	}
	return Serialize(toks)
}

// fieldExpr renders one select field. An AS alias is added only when the
// alias is not already the expression's own name, so that plain column
// references stay plain.
func fieldExpr(f Field) any {
	if f.As == "" {
		return f.Expr
	}
	if n, ok := f.Expr.(Name); ok && lastSegment(string(n)) == f.As {
		return f.Expr
	}
	return []any{f.Expr, Raw("AS"), Name(f.As)}
}

// tableRef renders a relation reference with its alias. Subqueries are
// parenthesized.
func tableRef(table any, alias string) []any {
	switch t := table.(type) {
	case SelectStmt:
		table = Parens(t.Render())
	case *SelectStmt:
		table = Parens(t.Render())
	}
	return []any{table, Name(alias)}
}

// columnUnion returns the union of the records' keys: first-record order,
// each record's keys sorted.
func columnUnion(records []M) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, m := range records {
		for _, k := range sortedKeys(m) {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}
