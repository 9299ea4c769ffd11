package pgdriver

import (
	"context"
	"database/sql/driver"

	"github.com/alfredjeanlab/pgjson/internal/jsoncodec"
)

// jsonConnector wraps a driver.Connector so that its connections encode
// generic JSON containers passed as query arguments.
type jsonConnector struct {
	base  driver.Connector
	codec *jsoncodec.Codec
}

func (c *jsonConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.base.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &jsonConn{Conn: conn, codec: c.codec}, nil
}

func (c *jsonConnector) Driver() driver.Driver {
	return c.base.Driver()
}

// jsonConn forwards the optional driver interfaces of the wrapped connection.
type jsonConn struct {
	driver.Conn
	codec *jsoncodec.Codec
}

var (
	_ driver.NamedValueChecker  = (*jsonConn)(nil)
	_ driver.QueryerContext     = (*jsonConn)(nil)
	_ driver.ExecerContext      = (*jsonConn)(nil)
	_ driver.ConnPrepareContext = (*jsonConn)(nil)
	_ driver.ConnBeginTx        = (*jsonConn)(nil)
	_ driver.Pinger             = (*jsonConn)(nil)
	_ driver.SessionResetter    = (*jsonConn)(nil)
)

// CheckNamedValue encodes map[string]any and []any arguments as JSON text.
// Everything else goes to the wrapped connection or the default converter.
func (c *jsonConn) CheckNamedValue(nv *driver.NamedValue) error {
	if v, ok, err := ConvertValue(c.codec, nv.Value); ok {
		if err != nil {
			return err
		}
		nv.Value = v
		return nil
	}
	if checker, ok := c.Conn.(driver.NamedValueChecker); ok {
		return checker.CheckNamedValue(nv)
	}
	return driver.ErrSkip
}

// ConvertValue encodes v when it is a generic JSON container. ok is false
// for every other type.
func ConvertValue(c *jsoncodec.Codec, v any) (value driver.Value, ok bool, err error) {
	switch v.(type) {
	case map[string]any, []any:
		value, err = jsoncodec.Adapt(v, c, jsoncodec.Options{}).Value()
		return value, true, err
	}
	return nil, false, nil
}

func (c *jsonConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if q, ok := c.Conn.(driver.QueryerContext); ok {
		return q.QueryContext(ctx, query, args)
	}
	return nil, driver.ErrSkip
}

func (c *jsonConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if e, ok := c.Conn.(driver.ExecerContext); ok {
		return e.ExecContext(ctx, query, args)
	}
	return nil, driver.ErrSkip
}

func (c *jsonConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if p, ok := c.Conn.(driver.ConnPrepareContext); ok {
		return p.PrepareContext(ctx, query)
	}
	return c.Conn.Prepare(query)
}

func (c *jsonConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if b, ok := c.Conn.(driver.ConnBeginTx); ok {
		return b.BeginTx(ctx, opts)
	}
	return c.Conn.Begin() //nolint:staticcheck // fallback for drivers without BeginTx
}

func (c *jsonConn) Ping(ctx context.Context) error {
	if p, ok := c.Conn.(driver.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *jsonConn) ResetSession(ctx context.Context) error {
	if r, ok := c.Conn.(driver.SessionResetter); ok {
		return r.ResetSession(ctx)
	}
	return nil
}
