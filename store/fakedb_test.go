package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"sync"
	"testing"

	"emperror.dev/errors"
)

// fakeResponse is what the fake database answers for one statement.
type fakeResponse struct {
	columns  []string
	rows     [][]driver.Value
	affected int64
	err      error
}

type fakeStatement struct {
	query string
	args  []driver.Value
}

// fakeDB is a scripted database/sql driver. Every statement is recorded and answered by respond.
type fakeDB struct {
	mu         sync.Mutex
	statements []fakeStatement
	respond    func(query string, args []driver.Value) fakeResponse
}

func newFakeDB(t *testing.T, respond func(query string, args []driver.Value) fakeResponse) (*sql.DB, *fakeDB) {
	t.Helper()

	fake := &fakeDB{respond: respond}
	db := sql.OpenDB(fake)
	t.Cleanup(func() { _ = db.Close() })
	return db, fake
}

func (f *fakeDB) Statements() []fakeStatement {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]fakeStatement(nil), f.statements...)
}

func (f *fakeDB) answer(query string, named []driver.NamedValue) fakeResponse {
	args := make([]driver.Value, len(named))
	for i, nv := range named {
		args[i] = nv.Value
	}

	f.mu.Lock()
	f.statements = append(f.statements, fakeStatement{query: query, args: args})
	f.mu.Unlock()

	return f.respond(query, args)
}

func (f *fakeDB) Connect(context.Context) (driver.Conn, error) { return &fakeConn{db: f}, nil }
func (f *fakeDB) Driver() driver.Driver                        { return fakeDriver{} }

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("fake driver is only usable through sql.OpenDB")
}

type fakeConn struct {
	db *fakeDB
}

func (c *fakeConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements are not supported")
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions are not supported")
}

func (c *fakeConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	resp := c.db.answer(query, args)
	if resp.err != nil {
		return nil, resp.err
	}
	return &fakeRows{columns: resp.columns, rows: resp.rows}, nil
}

func (c *fakeConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	resp := c.db.answer(query, args)
	if resp.err != nil {
		return nil, resp.err
	}
	return driver.RowsAffected(resp.affected), nil
}

type fakeRows struct {
	columns []string
	rows    [][]driver.Value
	next    int
}

func (r *fakeRows) Columns() []string { return r.columns }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.next >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.next])
	r.next++
	return nil
}
