// Package sqlcheck runs synthesized statements through the PostgreSQL
// parser as an advisory syntax check. It is not a planner: a statement
// that parses can still fail against the live schema.
package sqlcheck

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Check parses a single statement, returning a descriptive error when
// the PostgreSQL grammar rejects it.
func Check(sql string) error {
	if _, err := pg_query.Parse(sql); err != nil {
		return fmt.Errorf("statement failed to parse: %w", err)
	}
	return nil
}

// CheckAll parses every statement and returns one message per failure.
func CheckAll(statements []string) []string {
	var failures []string
	for i, stmt := range statements {
		if err := Check(stmt); err != nil {
			failures = append(failures, fmt.Sprintf("statement %d (%s): %v", i+1, stmt, err))
		}
	}
	return failures
}
