package migration

import (
	"fmt"
	"strings"
)

// OpKind identifies one of the closed set of operation kinds in the
// catalog. The persisted document stores the kind in the "type" field.
type OpKind string

const (
	OpAddColumn        OpKind = "add_column"
	OpDropColumn       OpKind = "drop_column"
	OpAddIndex         OpKind = "add_index"
	OpDropIndex        OpKind = "drop_index"
	OpAddConstraint    OpKind = "add_constraint"
	OpDropConstraint   OpKind = "drop_constraint"
	OpSetNotNull       OpKind = "set_not_null"
	OpDropNotNull      OpKind = "drop_not_null"
	OpBackfill         OpKind = "backfill"
	OpDualWriteEnable  OpKind = "dual_write_enable"
	OpDualWriteDisable OpKind = "dual_write_disable"
)

// ConstraintKind distinguishes the constraint specs the catalog supports.
type ConstraintKind string

const (
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintUnique     ConstraintKind = "unique"
)

// Operation is a single schema or data change of a fixed kind. Operations
// are pure data: synthesis and inversion are functions of the kind and
// fields, no behavior is attached to the instance.
type Operation struct {
	Kind OpKind

	// Column operations.
	Table    string
	Column   string
	DataType string
	Nullable bool
	Default  *string

	// Index and constraint operations.
	Name       string
	Columns    []string
	Concurrent bool
	Constraint ConstraintKind
	RefTable   string
	RefColumns []string

	// Backfill.
	SetClause string

	// Dual-write flag toggles.
	FlagKey string
}

// IsFlagToggle reports whether the operation is an application-level flag
// toggle routed to the state store instead of the database connection.
func (op Operation) IsFlagToggle() bool {
	return op.Kind == OpDualWriteEnable || op.Kind == OpDualWriteDisable
}

// Synthesize renders the SQL statement for an operation. Flag toggles do
// not synthesize SQL and return an error; callers check IsFlagToggle first.
func Synthesize(op Operation) (string, error) {
	switch op.Kind {
	case OpAddColumn:
		var sb strings.Builder
		fmt.Fprintf(&sb, "ALTER TABLE %s ADD COLUMN %s %s", op.Table, op.Column, op.DataType)
		if op.Nullable {
			sb.WriteString(" NULL")
		} else {
			sb.WriteString(" NOT NULL")
		}
		if op.Default != nil {
			fmt.Fprintf(&sb, " DEFAULT %s", *op.Default)
		}
		return sb.String(), nil

	case OpDropColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", op.Table, op.Column), nil

	case OpAddIndex:
		concurrently := ""
		if op.Concurrent {
			concurrently = "CONCURRENTLY "
		}
		return fmt.Sprintf("CREATE INDEX %s%s ON %s (%s)",
			concurrently, op.Name, op.Table, strings.Join(op.Columns, ", ")), nil

	case OpDropIndex:
		return fmt.Sprintf("DROP INDEX %s", op.Name), nil

	case OpAddConstraint:
		switch op.Constraint {
		case ConstraintForeignKey:
			return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
				op.Table, op.Name, strings.Join(op.Columns, ", "), op.RefTable, strings.Join(op.RefColumns, ", ")), nil
		case ConstraintUnique:
			return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)",
				op.Table, op.Name, strings.Join(op.Columns, ", ")), nil
		default:
			return "", fmt.Errorf("unknown constraint kind: %q", op.Constraint)
		}

	case OpDropConstraint:
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", op.Table, op.Name), nil

	case OpSetNotNull:
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", op.Table, op.Column), nil

	case OpDropNotNull:
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", op.Table, op.Column), nil

	case OpBackfill:
		// The set clause is caller-supplied and may carry its own WHERE.
		return fmt.Sprintf("UPDATE %s SET %s", op.Table, op.SetClause), nil

	case OpDualWriteEnable, OpDualWriteDisable:
		return "", fmt.Errorf("operation %s is a flag toggle and does not synthesize SQL", op.Kind)

	default:
		return "", fmt.Errorf("unknown operation kind: %q", op.Kind)
	}
}

// Describe returns a short human-readable summary of the operation.
func Describe(op Operation) string {
	switch op.Kind {
	case OpAddColumn:
		return fmt.Sprintf("Add column %s to table %s", op.Column, op.Table)
	case OpDropColumn:
		return fmt.Sprintf("Drop column %s from table %s", op.Column, op.Table)
	case OpAddIndex:
		return fmt.Sprintf("Create index %s on table %s", op.Name, op.Table)
	case OpDropIndex:
		return fmt.Sprintf("Drop index %s", op.Name)
	case OpAddConstraint:
		return fmt.Sprintf("Add constraint %s to table %s", op.Name, op.Table)
	case OpDropConstraint:
		return fmt.Sprintf("Drop constraint %s from table %s", op.Name, op.Table)
	case OpSetNotNull:
		return fmt.Sprintf("Require non-null in %s.%s", op.Table, op.Column)
	case OpDropNotNull:
		return fmt.Sprintf("Allow nulls in %s.%s", op.Table, op.Column)
	case OpBackfill:
		return fmt.Sprintf("Backfill table %s", op.Table)
	case OpDualWriteEnable:
		return fmt.Sprintf("Enable dual-write flag %s", op.FlagKey)
	case OpDualWriteDisable:
		return fmt.Sprintf("Disable dual-write flag %s", op.FlagKey)
	default:
		return fmt.Sprintf("Unknown operation %s", op.Kind)
	}
}
