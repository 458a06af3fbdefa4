// Package database wraps database/sql connections behind the querier
// contract the engine depends on. Driver selection follows the
// connection string scheme.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dimensigon/schemashift/internal/migration"
)

// Conn is a live connection to one target database.
type Conn struct {
	DB      *sql.DB
	Dialect migration.Dialect
}

// Detect maps a connection string to the dialect it targets.
func Detect(connStr string) (migration.Dialect, error) {
	switch {
	case strings.HasPrefix(connStr, "postgres://"), strings.HasPrefix(connStr, "postgresql://"):
		return migration.DialectPostgres, nil
	case strings.HasPrefix(connStr, "mysql://"):
		return migration.DialectMySQL, nil
	case strings.HasPrefix(connStr, "libsql://"),
		strings.HasPrefix(connStr, "file:"),
		strings.HasSuffix(connStr, ".db"),
		strings.HasSuffix(connStr, ".sqlite"):
		return migration.DialectSQLite, nil
	default:
		return "", fmt.Errorf("cannot detect database dialect from connection string")
	}
}

// Connect opens a connection for the given connection string and verifies
// it with a ping. The sql driver must be registered by the importing
// binary (main blank-imports lib/pq, modernc sqlite and libsql).
func Connect(ctx context.Context, connStr string) (*Conn, error) {
	dialect, err := Detect(connStr)
	if err != nil {
		return nil, err
	}

	var driverName string
	switch dialect {
	case migration.DialectPostgres:
		driverName = "postgres"
	case migration.DialectSQLite:
		if strings.HasPrefix(connStr, "libsql://") {
			driverName = "libsql"
		} else {
			driverName = "sqlite"
		}
	default:
		return nil, fmt.Errorf("no connection driver available for dialect %s", dialect)
	}

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Conn{DB: db, Dialect: dialect}, nil
}

// ExecuteQuery runs a statement and scans every row into a map keyed by
// column name. DDL statements return an empty row set.
func (c *Conn) ExecuteQuery(ctx context.Context, query string) ([]map[string]any, error) {
	rows, err := c.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Close releases the underlying connection pool.
func (c *Conn) Close() error {
	return c.DB.Close()
}
