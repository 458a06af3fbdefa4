// Package patterns encodes proven-safe multi-phase migration idioms as
// builder compositions, so callers never hand-write the dangerous
// single-phase equivalents. Every function is pure: the same inputs
// always produce an equivalent builder.
package patterns

import (
	"fmt"

	"github.com/dimensigon/schemashift/internal/builder"
	"github.com/dimensigon/schemashift/internal/migration"
)

// AddNullableColumn adds a column that allows nulls. Safe in a single
// phase: no table rewrite, no constraint scan.
func AddNullableColumn(table, column, dataType string) *builder.Builder {
	return builder.New(fmt.Sprintf("add_%s_%s", table, column), migration.DialectPostgres).
		Phase(fmt.Sprintf("Add nullable column %s to %s", column, table)).
		AddColumn(table, column, dataType).Nullable().
		ValidateColumnExists(table, column)
}

// AddRequiredColumn adds a NOT NULL column without blocking writes:
// add it nullable first, backfill the default, then tighten to NOT NULL.
func AddRequiredColumn(table, column, dataType, defaultValue string) *builder.Builder {
	return builder.New(fmt.Sprintf("add_required_%s_%s", table, column), migration.DialectPostgres).
		Phase(fmt.Sprintf("Add nullable column %s to %s", column, table)).
		AddColumn(table, column, dataType).Nullable().
		ValidateColumnExists(table, column).
		Phase(fmt.Sprintf("Backfill %s.%s with default value", table, column)).
		Backfill(table, fmt.Sprintf("%s = %s WHERE %s IS NULL", column, defaultValue, column)).
		Phase(fmt.Sprintf("Require %s.%s to be non-null", table, column)).
		SetNotNull(table, column)
}

// RemoveColumn drops a column behind a deprecation window: application
// writes stop first, a grace-period phase confirms nothing depends on
// the column, and only then is it dropped.
func RemoveColumn(table, column string) *builder.Builder {
	writesFlag := fmt.Sprintf("writes.%s.%s", table, column)
	return builder.New(fmt.Sprintf("remove_%s_%s", table, column), migration.DialectPostgres).
		Phase(fmt.Sprintf("Stop application writes to %s.%s", table, column)).
		DisableDualWrite(writesFlag).
		Phase(fmt.Sprintf("Grace period: monitor for lingering reads of %s.%s", table, column)).
		ValidateColumnExists(table, column).
		Phase(fmt.Sprintf("Drop column %s from %s", column, table)).
		DropColumn(table, column)
}

// SafeRenameColumn renames a column with zero downtime using dual-write:
// add the new column, keep both in sync, backfill, cut reads over, then
// drop the old column.
func SafeRenameColumn(table, oldColumn, newColumn, dataType string) *builder.Builder {
	dualWriteFlag := fmt.Sprintf("dualwrite.%s.%s", table, newColumn)
	readFlag := fmt.Sprintf("reads.%s.%s", table, newColumn)
	return builder.New(fmt.Sprintf("rename_%s_%s_to_%s", table, oldColumn, newColumn), migration.DialectPostgres).
		Phase(fmt.Sprintf("Add new column %s to %s", newColumn, table)).
		AddColumn(table, newColumn, dataType).Nullable().
		ValidateColumnExists(table, newColumn).
		Phase(fmt.Sprintf("Enable dual-write of %s and %s", oldColumn, newColumn)).
		EnableDualWrite(dualWriteFlag).
		Phase(fmt.Sprintf("Backfill %s from %s", newColumn, oldColumn)).
		Backfill(table, fmt.Sprintf("%s = %s WHERE %s IS NULL", newColumn, oldColumn, newColumn)).
		Phase(fmt.Sprintf("Cut reads over to %s", newColumn)).
		EnableDualWrite(readFlag).
		Phase(fmt.Sprintf("Drop old column %s and stop dual-write", oldColumn)).
		DropColumn(table, oldColumn).
		DisableDualWrite(dualWriteFlag)
}

// ChangeColumnType changes a column type through a shadow column:
// add the shadow with the new type, dual-write, convert existing rows,
// cut reads over, then drop the original.
func ChangeColumnType(table, column, newType, conversion string) *builder.Builder {
	shadow := column + "_new"
	if conversion == "" {
		conversion = fmt.Sprintf("CAST(%s AS %s)", column, newType)
	}
	dualWriteFlag := fmt.Sprintf("dualwrite.%s.%s", table, shadow)
	return builder.New(fmt.Sprintf("change_type_%s_%s", table, column), migration.DialectPostgres).
		Phase(fmt.Sprintf("Add shadow column %s with type %s", shadow, newType)).
		AddColumn(table, shadow, newType).Nullable().
		ValidateColumnExists(table, shadow).
		Phase(fmt.Sprintf("Enable dual-write of %s and %s", column, shadow)).
		EnableDualWrite(dualWriteFlag).
		Phase(fmt.Sprintf("Convert existing rows into %s", shadow)).
		Backfill(table, fmt.Sprintf("%s = %s WHERE %s IS NULL", shadow, conversion, shadow)).
		Phase(fmt.Sprintf("Cut reads over to %s", shadow)).
		EnableDualWrite(fmt.Sprintf("reads.%s.%s", table, shadow)).
		Phase(fmt.Sprintf("Drop old column %s and stop dual-write", column)).
		DropColumn(table, column).
		DisableDualWrite(dualWriteFlag)
}

// AddConcurrentIndex builds an index without taking a long-held table
// lock. Single phase; the concurrent build cannot run in a transaction.
func AddConcurrentIndex(table, name string, columns ...string) *builder.Builder {
	return builder.New(fmt.Sprintf("index_%s_%s", table, name), migration.DialectPostgres).
		Phase(fmt.Sprintf("Create index %s on %s concurrently", name, table)).
		AddIndex(table, name, columns...).Concurrently()
}

// AddForeignKey adds a foreign key constraint in a single phase.
func AddForeignKey(table, name, column, refTable, refColumn string) *builder.Builder {
	return builder.New(fmt.Sprintf("fk_%s_%s", table, name), migration.DialectPostgres).
		Phase(fmt.Sprintf("Add foreign key %s on %s", name, table)).
		AddForeignKey(table, name, column, refTable, refColumn)
}

// AddUniqueConstraint adds a unique constraint in a single phase.
func AddUniqueConstraint(table, name string, columns ...string) *builder.Builder {
	return builder.New(fmt.Sprintf("unique_%s_%s", table, name), migration.DialectPostgres).
		Phase(fmt.Sprintf("Add unique constraint %s on %s", name, table)).
		AddUniqueConstraint(table, name, columns...)
}
