package jsonfield

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
)

// VersionSource reports the version of the connected PostgreSQL server.
type VersionSource interface {
	ServerVersion(ctx context.Context) (*version.Version, error)
}

// Queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DBVersion asks the server for server_version_num on every call.
type DBVersion struct {
	DB Queryer
}

func (d DBVersion) ServerVersion(ctx context.Context) (*version.Version, error) {
	var num string
	if err := d.DB.QueryRowContext(ctx, "SHOW server_version_num").Scan(&num); err != nil {
		return nil, fmt.Errorf("query server version: %w", err)
	}
	return ParseServerVersionNum(num)
}

// StaticVersion is a VersionSource with a fixed answer, e.g. "9.6.24".
type StaticVersion string

func (s StaticVersion) ServerVersion(context.Context) (*version.Version, error) {
	return version.NewVersion(string(s))
}

// ParseServerVersionNum converts server_version_num (90405, 160002) into a
// version. Releases before 10 use three two-digit groups; later releases use
// major*10000 + minor.
func ParseServerVersionNum(s string) (*version.Version, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("parse server_version_num %q: not a positive integer", s)
	}
	var v string
	if n >= 100000 {
		v = fmt.Sprintf("%d.%d", n/10000, n%10000)
	} else {
		v = fmt.Sprintf("%d.%d.%d", n/10000, (n/100)%100, n%100)
	}
	return version.NewVersion(v)
}
