// Package locks classifies synthesized DDL/DML statements by the table
// lock they acquire on a Postgres-style database, for the planner's
// static risk scan.
package locks

import "strings"

// Mode is a PostgreSQL-style table lock mode, ordered by severity.
type Mode int

const (
	AccessShare Mode = iota
	RowExclusive
	ShareUpdateExclusive
	Share
	AccessExclusive
)

func (m Mode) String() string {
	switch m {
	case AccessShare:
		return "ACCESS SHARE"
	case RowExclusive:
		return "ROW EXCLUSIVE"
	case ShareUpdateExclusive:
		return "SHARE UPDATE EXCLUSIVE"
	case Share:
		return "SHARE"
	case AccessExclusive:
		return "ACCESS EXCLUSIVE"
	default:
		return "UNKNOWN"
	}
}

// BlocksReads reports whether the mode blocks SELECT queries.
func (m Mode) BlocksReads() bool {
	return m == AccessExclusive
}

// BlocksWrites reports whether the mode blocks INSERT/UPDATE/DELETE.
func (m Mode) BlocksWrites() bool {
	return m == Share || m == AccessExclusive
}

// Detect returns the lock mode a statement will acquire.
func Detect(sql string) Mode {
	stmt := strings.ToUpper(strings.TrimSpace(sql))
	if stmt == "" {
		return AccessShare
	}

	if strings.HasPrefix(stmt, "CREATE INDEX") || strings.HasPrefix(stmt, "CREATE UNIQUE INDEX") {
		if strings.Contains(stmt, "CONCURRENTLY") {
			return ShareUpdateExclusive
		}
		return Share
	}

	if strings.HasPrefix(stmt, "ALTER TABLE") {
		if strings.Contains(stmt, "VALIDATE CONSTRAINT") {
			return ShareUpdateExclusive
		}
		// ADD/DROP COLUMN, ADD CONSTRAINT, SET NOT NULL and friends all
		// take ACCESS EXCLUSIVE, however briefly.
		return AccessExclusive
	}

	if strings.HasPrefix(stmt, "DROP TABLE") ||
		strings.HasPrefix(stmt, "DROP INDEX") ||
		strings.HasPrefix(stmt, "TRUNCATE") {
		return AccessExclusive
	}

	if strings.HasPrefix(stmt, "INSERT") ||
		strings.HasPrefix(stmt, "UPDATE") ||
		strings.HasPrefix(stmt, "DELETE") {
		return RowExclusive
	}

	if strings.HasPrefix(stmt, "SELECT") {
		return AccessShare
	}

	// Unknown statements are assumed worst-case.
	return AccessExclusive
}

// Explain returns a one-line description of why the statement takes the
// detected lock and what it blocks.
func Explain(sql string) string {
	stmt := strings.ToUpper(strings.TrimSpace(sql))
	mode := Detect(sql)

	switch mode {
	case Share:
		return "CREATE INDEX without CONCURRENTLY takes a SHARE lock, blocking writes for the duration of the build"
	case ShareUpdateExclusive:
		return "allows concurrent reads and writes"
	case AccessExclusive:
		if strings.Contains(stmt, "ADD COLUMN") && strings.Contains(stmt, "DEFAULT") {
			return "ADD COLUMN with DEFAULT takes a brief ACCESS EXCLUSIVE lock and may rewrite the table on older servers"
		}
		if strings.Contains(stmt, "SET NOT NULL") {
			return "SET NOT NULL takes an ACCESS EXCLUSIVE lock and scans the table to verify existing rows"
		}
		if strings.Contains(stmt, "ADD CONSTRAINT") {
			return "ADD CONSTRAINT takes an ACCESS EXCLUSIVE lock and scans existing rows to validate the constraint"
		}
		return "requires an ACCESS EXCLUSIVE lock, blocking reads and writes while held"
	case RowExclusive:
		return "row-level DML; long-running updates hold row locks and bloat the table"
	default:
		return "read-only operation"
	}
}
