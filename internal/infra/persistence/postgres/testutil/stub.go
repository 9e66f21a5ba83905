// Package testutil provides an in-memory database/sql driver that speaks the
// handful of statements the postgres design library issues:
//
//	CREATE TABLE IF NOT EXISTS designs (...)
//	INSERT INTO designs (cols) VALUES (...) ON CONFLICT (name) DO UPDATE ...
//	DELETE FROM designs WHERE name = $1
//	SELECT cols FROM designs
//
// SELECT returns every row of the table. Anything else is rejected.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync/atomic"
)

var (
	insertRe   = regexp.MustCompile(`(?is)^INSERT\s+INTO\s+(\w+)\s*\(([^)]*)\)\s*VALUES\s*\([^)]*\)(?:\s+ON\s+CONFLICT\s*\(\s*(\w+)\s*\)\s+DO\s+(UPDATE|NOTHING)\b.*)?$`)
	deleteRe   = regexp.MustCompile(`(?is)^DELETE\s+FROM\s+(\w+)\s+WHERE\s+(\w+)\s*=\s*\$1$`)
	selectRe   = regexp.MustCompile(`(?is)^SELECT\s+(.+?)\s+FROM\s+(\w+)\b`)
	createRe   = regexp.MustCompile(`(?is)^CREATE\s+TABLE\s+IF\s+NOT\s+EXISTS\s+(\w+)\b`)
	driverSeq  atomic.Int64
	errNoTx    = errors.New("stub: transactions are not supported")
	errNoStmts = errors.New("stub: prepared statements are not supported")
)

// Row is one stored row keyed by lower-case column name.
type Row = map[string]any

// StubConn holds the tables and records every executed statement. While a
// Fail knob is set, matching calls return an error.
type StubConn struct {
	Execs      []string
	Tables     map[string][]Row
	FailExec   bool
	FailTables map[string]bool
	RowsErr    error
}

// NewStubDB registers a fresh driver instance and opens a sql.DB on it.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Tables: make(map[string][]Row)}
	name := fmt.Sprintf("shipyard-stubpg-%d", driverSeq.Add(1))
	sql.Register(name, stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct{ conn *StubConn }

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Prepare is never reached: database/sql uses ExecContext and QueryContext.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, errNoStmts }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin rejects transactions; the design library never opens one.
func (c *StubConn) Begin() (driver.Tx, error) { return nil, errNoTx }

// Ping implements driver.Pinger and fails alongside FailExec.
func (c *StubConn) Ping(context.Context) error {
	if c.FailExec {
		return errors.New("stub: ping failed")
	}
	return nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	query = strings.TrimSpace(query)
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, errors.New("stub: exec failed")
	}
	if m := createRe.FindStringSubmatch(query); m != nil {
		return c.create(strings.ToLower(m[1]))
	}
	if m := insertRe.FindStringSubmatch(query); m != nil {
		return c.insert(strings.ToLower(m[1]), columns(m[2]), strings.ToLower(m[3]), strings.ToUpper(m[4]), args)
	}
	if m := deleteRe.FindStringSubmatch(query); m != nil {
		return c.delete(strings.ToLower(m[1]), strings.ToLower(m[2]), args)
	}
	return nil, fmt.Errorf("stub: unsupported statement: %s", query)
}

func (c *StubConn) create(table string) (driver.Result, error) {
	if _, ok := c.Tables[table]; !ok {
		c.Tables[table] = nil
	}
	return driver.RowsAffected(0), nil
}

// insert appends a row. With ON CONFLICT the row sharing the conflict
// column's value is replaced (DO UPDATE) or the insert is skipped (DO NOTHING).
func (c *StubConn) insert(table string, cols []string, target, action string, args []driver.NamedValue) (driver.Result, error) {
	if err := c.tableErr(table); err != nil {
		return nil, err
	}
	if len(cols) != len(args) {
		return nil, fmt.Errorf("stub: %s insert has %d columns and %d args", table, len(cols), len(args))
	}
	row := make(Row, len(cols))
	for i, col := range cols {
		row[col] = args[i].Value
	}
	if target != "" {
		key, ok := row[target]
		if !ok {
			return nil, fmt.Errorf("stub: conflict target %q is not an inserted column", target)
		}
		for i, existing := range c.Tables[table] {
			if existing[target] != key {
				continue
			}
			if action == "NOTHING" {
				return driver.RowsAffected(0), nil
			}
			c.Tables[table][i] = row
			return driver.RowsAffected(1), nil
		}
	}
	c.Tables[table] = append(c.Tables[table], row)
	return driver.RowsAffected(1), nil
}

func (c *StubConn) delete(table, col string, args []driver.NamedValue) (driver.Result, error) {
	if err := c.tableErr(table); err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("stub: %s delete needs one arg, got %d", table, len(args))
	}
	var kept []Row
	var removed int64
	for _, row := range c.Tables[table] {
		if row[col] == args[0].Value {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	c.Tables[table] = kept
	return driver.RowsAffected(removed), nil
}

// QueryContext implements driver.QueryerContext.
func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	m := selectRe.FindStringSubmatch(strings.TrimSpace(query))
	if m == nil {
		return nil, fmt.Errorf("stub: unsupported query: %s", query)
	}
	table := strings.ToLower(m[2])
	if err := c.tableErr(table); err != nil {
		return nil, err
	}
	cols := columns(m[1])
	rows := &stubRows{cols: cols, err: c.RowsErr}
	for _, row := range c.Tables[table] {
		vals := make([]driver.Value, len(cols))
		for i, col := range cols {
			vals[i] = row[col]
		}
		rows.rows = append(rows.rows, vals)
	}
	return rows, nil
}

func (c *StubConn) tableErr(table string) error {
	if c.FailTables[table] {
		return fmt.Errorf("stub: %s unavailable", table)
	}
	return nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	next int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.next == len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.next])
	r.next++
	return nil
}

func columns(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return out
}
