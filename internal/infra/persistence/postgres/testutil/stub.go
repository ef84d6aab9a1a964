// Package testutil provides a fake database/sql driver that understands the
// handful of statements the postgres state store issues against
// client_state.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

var driverSeq atomic.Uint64

// StubConn keeps client_state rows in a map keyed by storage name.
type StubConn struct {
	mu         sync.Mutex
	Statements []string
	Rows       map[string][]byte

	FailPing   bool
	FailBegin  bool
	FailCommit bool
}

// NewStubDB registers a uniquely named driver and opens a sql.DB on it.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Rows: make(map[string][]byte)}
	name := fmt.Sprintf("pokemontodo-stubpg-%d", driverSeq.Add(1))
	sql.Register(name, stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// Payload returns the stored payload for name.
func (c *StubConn) Payload(name string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.Rows[name]
	return p, ok
}

type stubDriver struct{ conn *StubConn }

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func (c *StubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("stub: prepared statements are not supported")
}

func (c *StubConn) Close() error { return nil }

func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *StubConn) Ping(context.Context) error {
	if c.FailPing {
		return errors.New("stub: connection refused")
	}
	return nil
}

func (c *StubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, errors.New("stub: begin failed")
	}
	return stubTx{conn: c}, nil
}

func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statements = append(c.Statements, query)
	switch verb(query) {
	case "CREATE":
		return driver.RowsAffected(0), nil
	case "INSERT":
		if len(args) < 2 {
			return nil, fmt.Errorf("stub: insert wants name and payload, got %d args", len(args))
		}
		name, _ := args[0].Value.(string)
		payload, _ := args[1].Value.([]byte)
		c.Rows[name] = append([]byte(nil), payload...)
		return driver.RowsAffected(1), nil
	case "DELETE":
		if len(args) < 1 {
			return nil, errors.New("stub: delete wants a name")
		}
		name, _ := args[0].Value.(string)
		if _, ok := c.Rows[name]; !ok {
			return driver.RowsAffected(0), nil
		}
		delete(c.Rows, name)
		return driver.RowsAffected(1), nil
	}
	return nil, fmt.Errorf("stub: unsupported statement %q", query)
}

func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statements = append(c.Statements, query)
	if verb(query) != "SELECT" || len(args) < 1 {
		return nil, fmt.Errorf("stub: unsupported query %q", query)
	}
	name, _ := args[0].Value.(string)
	rows := &stubRows{}
	if p, ok := c.Rows[name]; ok {
		rows.payloads = [][]byte{append([]byte(nil), p...)}
	}
	return rows, nil
}

func verb(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

type stubTx struct{ conn *StubConn }

func (t stubTx) Commit() error {
	if t.conn.FailCommit {
		return errors.New("stub: commit failed")
	}
	return nil
}

func (stubTx) Rollback() error { return nil }

// stubRows yields single-column payload rows.
type stubRows struct {
	payloads [][]byte
	next     int
}

func (r *stubRows) Columns() []string { return []string{"payload"} }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.next >= len(r.payloads) {
		return io.EOF
	}
	dest[0] = r.payloads[r.next]
	r.next++
	return nil
}
