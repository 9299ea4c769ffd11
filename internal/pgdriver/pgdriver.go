// Package pgdriver opens database/sql handles whose connections know how to
// send and receive JSON values through a jsoncodec.Codec.
package pgdriver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"github.com/alfredjeanlab/pgjson/internal/jsoncodec"
)

// Driver names accepted by Open.
const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

// ErrUnknownDriver is returned by Open for names other than DriverPQ and
// DriverPGX.
var ErrUnknownDriver = errors.New("unknown database driver")

// Open returns a pooled handle for dsn. With DriverPQ, map[string]any and
// []any arguments are encoded as JSON text by c. With DriverPGX, the json and
// jsonb types of every new connection are registered with c's Marshal and
// Unmarshal.
func Open(driverName, dsn string, c *jsoncodec.Codec) (*sql.DB, error) {
	if c == nil {
		c = jsoncodec.Default()
	}
	connector, err := newConnector(driverName, dsn, c)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// OpenContext is Open followed by a ping.
func OpenContext(ctx context.Context, driverName, dsn string, c *jsoncodec.Codec) (*sql.DB, error) {
	db, err := Open(driverName, dsn, c)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func newConnector(driverName, dsn string, c *jsoncodec.Codec) (driver.Connector, error) {
	switch driverName {
	case DriverPQ, "":
		base, err := pq.NewConnector(dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return &jsonConnector{base: base, codec: c}, nil
	case DriverPGX:
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return stdlib.GetConnector(*cfg, stdlib.OptionAfterConnect(func(_ context.Context, conn *pgx.Conn) error {
			RegisterTypes(conn.TypeMap(), c)
			return nil
		})), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownDriver, driverName)
}

// RegisterTypes points json, jsonb and their array types in m at c.
func RegisterTypes(m *pgtype.Map, c *jsoncodec.Codec) {
	jsonType := &pgtype.Type{
		Name:  "json",
		OID:   pgtype.JSONOID,
		Codec: &pgtype.JSONCodec{Marshal: c.Marshal, Unmarshal: c.Unmarshal},
	}
	jsonbType := &pgtype.Type{
		Name:  "jsonb",
		OID:   pgtype.JSONBOID,
		Codec: &pgtype.JSONBCodec{Marshal: c.Marshal, Unmarshal: c.Unmarshal},
	}
	m.RegisterType(jsonType)
	m.RegisterType(jsonbType)
	m.RegisterType(&pgtype.Type{Name: "_json", OID: pgtype.JSONArrayOID, Codec: &pgtype.ArrayCodec{ElementType: jsonType}})
	m.RegisterType(&pgtype.Type{Name: "_jsonb", OID: pgtype.JSONBArrayOID, Codec: &pgtype.ArrayCodec{ElementType: jsonbType}})
}
