package azql

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"sync/atomic"

	"github.com/carlhu/azql/internal/record"
)

// M is a convenience record type. It can be passed to InsertStmt.Values as a
// record, and to the Get methods to receive a result row keyed by column
// name. M is not special: any map type with string keys works in both
// places.
type M map[string]any

var ErrNoRows = sql.ErrNoRows
var ErrTXDone = sql.ErrTxDone

// Renderable is a statement descriptor that can be flattened into a
// Fragment: SelectStmt, InsertStmt and DeleteStmt all qualify.
type Renderable interface {
	Render() Fragment
}

// stmtCache stores the driver prepared statements associated with Statement
// objects.
var stmtCache = newStatementCache()

// Statement is a rendered statement ready to be run on a database. A
// Statement can be used with any [DB], concurrently.
type Statement struct {
	// cacheID is used to look up the driver prepared statements associated
	// with this Statement.
	cacheID int64
	// frag is the rendered SQL and its bind values.
	frag Fragment
}

// Fragment returns the rendered SQL fragment underlying the statement.
func (s *Statement) Fragment() Fragment { return s.frag }

// Prepare renders the descriptor and wraps it in a [Statement] whose driver
// prepared statements are cached per database.
func Prepare(r Renderable) (*Statement, error) {
	frag := r.Render()
	if n := countBatches(frag.params); n > 1 {
		return nil, fmt.Errorf("cannot prepare statement: %w: %d batch parameters, want at most one", ErrInvalidArgument, n)
	}
	return stmtCache.newStatement(frag), nil
}

// MustPrepare is the same as [Prepare] except that it panics on error.
func MustPrepare(r Renderable) *Statement {
	s, err := Prepare(r)
	if err != nil {
		panic(err)
	}
	return s
}

func countBatches(params []any) int {
	n := 0
	for _, p := range params {
		if _, ok := p.(Batch); ok {
			n++
		}
	}
	return n
}

// DB is a database handle that caches prepared statements.
type DB struct {
	// cacheID is used to look up the cached driver prepared statements
	// prepared on this database.
	cacheID int64
	// sqldb is the underlying database/sql DB object.
	sqldb *sql.DB
}

// NewDB creates a new [DB] from a [sql.DB].
func NewDB(sqldb *sql.DB) *DB {
	if sqldb == nil {
		return nil
	}
	return stmtCache.newDB(sqldb)
}

// PlainDB returns the underlying database object.
func (db *DB) PlainDB() *sql.DB {
	return db.sqldb
}

// Query represents a statement bound to a database or transaction. It is
// designed to be run once.
type Query struct {
	// run executes the Query against the DB or the TX.
	run  func(context.Context, []any, bool) (*sql.Rows, sql.Result, error)
	ctx  context.Context
	err  error
	frag Fragment
}

// Query binds a [Statement] to the database. The statement is executed when
// one of [Query.Run], [Query.Exec], [Query.Iter], [Query.One] or [Query.All]
// is called.
func (db *DB) Query(ctx context.Context, s *Statement) *Query {
	if ctx == nil {
		ctx = context.Background()
	}

	run := func(innerCtx context.Context, params []any, wantRows bool) (*sql.Rows, sql.Result, error) {
		sqlstmt, err := stmtCache.prepareStmt(innerCtx, db.cacheID, db.sqldb, s)
		if err != nil {
			return nil, nil, err
		}
		if wantRows {
			rows, err := sqlstmt.QueryContext(innerCtx, params...)
			return rows, nil, err
		}
		result, err := sqlstmt.ExecContext(innerCtx, params...)
		return nil, result, err
	}

	return &Query{run: run, ctx: ctx, frag: s.frag}
}

// Run executes the statement and disregards any results.
func (q *Query) Run() error {
	_, err := q.Exec()
	return err
}

// Exec executes the statement. If one of the bind values is a [Batch], the
// statement is executed once per row of the batch, each row supplying the
// values for the batch's placeholders; the returned result is the one of the
// last execution.
func (q *Query) Exec() (sql.Result, error) {
	if q.err != nil {
		return nil, q.err
	}
	batchAt := -1
	for i, p := range q.frag.params {
		if _, ok := p.(Batch); ok {
			batchAt = i
			break
		}
	}
	if batchAt == -1 {
		_, result, err := q.run(q.ctx, q.frag.params, false)
		return result, err
	}

	batch := q.frag.params[batchAt].(Batch)
	var result sql.Result
	for _, row := range batch {
		vals, ok := row.([]any)
		if !ok {
			vals = []any{row}
		}
		params := make([]any, 0, len(q.frag.params)-1+len(vals))
		params = append(params, q.frag.params[:batchAt]...)
		params = append(params, vals...)
		params = append(params, q.frag.params[batchAt+1:]...)
		var err error
		_, result, err = q.run(q.ctx, params, false)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Iter executes the statement and returns an [Iterator] over the result
// rows. [Iterator.Close] must be run once iteration is finished.
func (q *Query) Iter() *Iterator {
	if q.err != nil {
		return &Iterator{err: q.err}
	}
	if countBatches(q.frag.params) > 0 {
		return &Iterator{err: fmt.Errorf("cannot iterate: %w: batch statements cannot return rows", ErrInvalidArgument)}
	}

	rows, _, err := q.run(q.ctx, q.frag.params, true)
	if err != nil {
		return &Iterator{err: err}
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return &Iterator{err: err}
	}
	return &Iterator{rows: rows, cols: cols}
}

// One executes the statement and decodes the single result row into the
// provided outputs. A result set with zero rows, or with more than one,
// fails with [ErrCardinality].
func (q *Query) One(outputs ...any) error {
	iter := q.Iter()
	if !iter.Next() {
		err := iter.Close()
		if err == nil {
			err = fmt.Errorf("cannot get one row: %w: got 0 rows", ErrCardinality)
		}
		return err
	}
	if err := iter.Get(outputs...); err != nil {
		iter.Close()
		return err
	}
	if iter.Next() {
		iter.Close()
		return fmt.Errorf("cannot get one row: %w: got more than one row", ErrCardinality)
	}
	return iter.Close()
}

// All executes the statement and appends every result row to the provided
// slices. Each argument must be a pointer to a slice of structs or of maps.
func (q *Query) All(sliceArgs ...any) error {
	// Check slice arguments are valid using reflection.
	var slicePtrVals []reflect.Value
	var sliceVals []reflect.Value
	for _, ptr := range sliceArgs {
		ptrVal := reflect.ValueOf(ptr)
		if ptrVal.Kind() != reflect.Pointer || ptrVal.IsNil() {
			return fmt.Errorf("cannot get all rows: need pointer to slice, got %T", ptr)
		}
		sliceVal := ptrVal.Elem()
		if sliceVal.Kind() != reflect.Slice {
			return fmt.Errorf("cannot get all rows: need pointer to slice, got pointer to %s", sliceVal.Kind())
		}
		slicePtrVals = append(slicePtrVals, ptrVal)
		sliceVals = append(sliceVals, sliceVal)
	}

	iter := q.Iter()
	for iter.Next() {
		var outputs []any
		for _, sliceVal := range sliceVals {
			elemType := sliceVal.Type().Elem()
			switch elemType.Kind() {
			case reflect.Struct:
				outputs = append(outputs, reflect.New(elemType).Interface())
			case reflect.Map:
				outputs = append(outputs, reflect.MakeMap(elemType).Interface())
			default:
				iter.Close()
				return fmt.Errorf("cannot get all rows: need slice of structs/maps, got slice of %s", elemType.Kind())
			}
		}
		if err := iter.Get(outputs...); err != nil {
			iter.Close()
			return err
		}
		for i, output := range outputs {
			switch sliceVals[i].Type().Elem().Kind() {
			case reflect.Struct:
				sliceVals[i] = reflect.Append(sliceVals[i], reflect.ValueOf(output).Elem())
			case reflect.Map:
				sliceVals[i] = reflect.Append(sliceVals[i], reflect.ValueOf(output))
			}
		}
	}
	if err := iter.Close(); err != nil {
		return err
	}

	for i, ptrVal := range slicePtrVals {
		ptrVal.Elem().Set(sliceVals[i])
	}
	return nil
}

// TX represents a transaction on the database.
type TX struct {
	sqltx *sql.Tx
	db    *DB
	done  int32
}

// Begin starts a transaction. A transaction must be ended with a [TX.Commit]
// or [TX.Rollback].
func (db *DB) Begin(ctx context.Context, opts *TXOptions) (*TX, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	sqltx, err := db.sqldb.BeginTx(ctx, opts.plainTXOptions())
	if err != nil {
		return nil, err
	}
	return &TX{sqltx: sqltx, db: db}, nil
}

func (tx *TX) isDone() bool {
	return atomic.LoadInt32(&tx.done) == 1
}

func (tx *TX) setDone() error {
	if !atomic.CompareAndSwapInt32(&tx.done, 0, 1) {
		return ErrTXDone
	}
	return nil
}

// Commit commits the transaction.
func (tx *TX) Commit() error {
	err := tx.setDone()
	if err == nil {
		err = tx.sqltx.Commit()
	}
	return err
}

// Rollback aborts the transaction.
func (tx *TX) Rollback() error {
	err := tx.setDone()
	if err == nil {
		err = tx.sqltx.Rollback()
	}
	return err
}

// TXOptions holds the transaction options to be used in [DB.Begin].
type TXOptions struct {
	// Isolation is the transaction isolation level.
	// If zero, the driver or database's default level is used.
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

func (txopts *TXOptions) plainTXOptions() *sql.TxOptions {
	if txopts == nil {
		return nil
	}
	return &sql.TxOptions{Isolation: txopts.Isolation, ReadOnly: txopts.ReadOnly}
}

// Query binds a [Statement] to the transaction. Statements already prepared
// on the underlying database are reused without re-preparing on the driver.
func (tx *TX) Query(ctx context.Context, s *Statement) *Query {
	if ctx == nil {
		ctx = context.Background()
	}
	if tx.isDone() {
		return &Query{ctx: ctx, err: ErrTXDone}
	}

	run := func(innerCtx context.Context, params []any, wantRows bool) (*sql.Rows, sql.Result, error) {
		sqlstmt, err := stmtCache.prepareStmt(innerCtx, tx.db.cacheID, tx.db.sqldb, s)
		if err != nil {
			return nil, nil, err
		}
		// The txstmt is closed by database/sql when the transaction is
		// committed or rolled back.
		txstmt := tx.sqltx.StmtContext(innerCtx, sqlstmt)
		if wantRows {
			rows, err := txstmt.QueryContext(innerCtx, params...)
			return rows, nil, err
		}
		result, err := txstmt.ExecContext(innerCtx, params...)
		return nil, result, err
	}

	return &Query{run: run, ctx: ctx, frag: s.frag}
}

// Iterator is used to iterate over the results of a query.
type Iterator struct {
	rows *sql.Rows
	cols []string
	err  error
}

// Next prepares the next row for [Iterator.Get]. If an error occurs during
// iteration it will be returned by [Iterator.Close].
func (iter *Iterator) Next() bool {
	if iter.err != nil || iter.rows == nil {
		return false
	}
	return iter.rows.Next()
}

// Get decodes the row prepared by [Iterator.Next] into the provided outputs.
// An output is either a pointer to a struct with `db` tags or a map with
// string keys. Each column is assigned to the first output that has a field
// for it; columns matched by no output are discarded, map outputs collect
// every column not claimed by a struct.
func (iter *Iterator) Get(outputs ...any) (err error) {
	if iter.err != nil {
		return iter.err
	}
	if iter.rows == nil {
		return fmt.Errorf("cannot get result: iteration ended")
	}
	defer func() {
		if err != nil {
			err = fmt.Errorf("cannot get result: %s", err)
		}
	}()

	dests := make([]any, len(iter.cols))
	type mapTarget struct {
		m   reflect.Value
		col string
		val *any
	}
	var mapTargets []mapTarget
	for i, col := range iter.cols {
		var dest any
		for _, out := range outputs {
			if reflect.ValueOf(out).Kind() == reflect.Map {
				continue
			}
			ptr, ok, lerr := record.Locate(out, col)
			if lerr != nil {
				return lerr
			}
			if ok {
				dest = ptr
				break
			}
		}
		if dest == nil {
			for _, out := range outputs {
				outVal := reflect.ValueOf(out)
				if outVal.Kind() == reflect.Map && outVal.Type().Key().Kind() == reflect.String &&
					outVal.Type().Elem().Kind() == reflect.Interface {
					var holder any
					mapTargets = append(mapTargets, mapTarget{m: outVal, col: col, val: &holder})
					dest = &holder
					break
				}
			}
		}
		if dest == nil {
			var discard any
			dest = &discard
		}
		dests[i] = dest
	}

	if err := iter.rows.Scan(dests...); err != nil {
		return err
	}
	for _, t := range mapTargets {
		val := reflect.ValueOf(*t.val)
		if !val.IsValid() {
			// NULL column: store a nil interface value under the key.
			val = reflect.Zero(t.m.Type().Elem())
		}
		t.m.SetMapIndex(reflect.ValueOf(t.col), val)
	}
	return nil
}

// Close finishes the iteration and returns any errors encountered. Close
// can be called multiple times and returns the same error.
func (iter *Iterator) Close() error {
	if iter.rows == nil {
		return iter.err
	}
	err := iter.rows.Close()
	iter.rows = nil
	if iter.err == nil {
		iter.err = err
	}
	return iter.err
}

func sortedKeys(m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
