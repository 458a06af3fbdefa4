package migration

import "fmt"

// Dialect identifies the target database flavor for a migration.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect converts a persisted dialect string into a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case DialectPostgres, DialectMySQL, DialectSQLite:
		return Dialect(s), nil
	case "":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unknown database dialect: %q", s)
	}
}

// Definition is a complete, immutable migration description: an ordered
// list of phases to run against a single database.
type Definition struct {
	Name    string
	Dialect Dialect
	Phases  []Phase
}

// Phase is a numbered group of operations executed as one reporting unit.
// A phase is not a database transaction: it may contain statements (for
// example CREATE INDEX CONCURRENTLY) that cannot run inside one.
type Phase struct {
	Number      int
	Description string
	Operations  []Operation
	Validations []Validation
	Rollback    []Operation
}

// Validate checks the structural invariants of a definition: a non-empty
// name and phase numbers that are strictly sequential starting at 1.
func Validate(def *Definition) error {
	if def.Name == "" {
		return fmt.Errorf("migration name is required")
	}
	for i, phase := range def.Phases {
		want := i + 1
		if phase.Number != want {
			return fmt.Errorf("phase numbers must be sequential starting at 1: expected phase %d, found phase %d", want, phase.Number)
		}
	}
	return nil
}

// Validation is a declarative post-phase check. It runs as a query whose
// non-empty result set means the check passed.
type Validation struct {
	Kind   ValidationKind
	Table  string
	Column string
}

// ValidationKind identifies the check a Validation performs.
type ValidationKind string

const (
	// ValidateColumnExists passes when the column is present on the table.
	ValidateColumnExists ValidationKind = "column_exists"
)

// Query returns the SQL used to evaluate the validation for the given
// dialect. A non-empty result set means the validation passed.
func (v Validation) Query(dialect Dialect) string {
	switch dialect {
	case DialectSQLite:
		return fmt.Sprintf("SELECT name FROM pragma_table_info('%s') WHERE name = '%s'", v.Table, v.Column)
	default:
		return fmt.Sprintf("SELECT column_name FROM information_schema.columns WHERE table_name = '%s' AND column_name = '%s'", v.Table, v.Column)
	}
}

// Describe returns a short human-readable summary of the validation.
func (v Validation) Describe() string {
	return fmt.Sprintf("Verify column %s.%s exists", v.Table, v.Column)
}
