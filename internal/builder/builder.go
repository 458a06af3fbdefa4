// Package builder provides fluent construction of migration definitions.
//
// The builder is mutable and chainable: operation methods append to the
// current phase and modifier methods adjust the most recently appended
// operation. Contract violations (a modifier with no matching operation,
// an operation before any phase) are collected and surfaced by Build,
// which keeps call sites chainable.
package builder

import (
	"fmt"

	"github.com/dimensigon/schemashift/internal/migration"
)

// ContractError reports misuse of the builder API.
type ContractError struct {
	Call   string
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("builder contract violation in %s: %s", e.Call, e.Reason)
}

// Builder assembles a migration definition phase by phase. The index pair
// (phase, operation) of the most recently appended operation backs the
// modifier methods; it is reset whenever a new phase starts.
type Builder struct {
	def       migration.Definition
	lastPhase int // index into def.Phases, -1 when none
	lastOp    int // index into current phase operations, -1 when none
	errs      []error
}

// New starts a builder for a named migration with an empty phase list.
func New(name string, dialect migration.Dialect) *Builder {
	if dialect == "" {
		dialect = migration.DialectPostgres
	}
	return &Builder{
		def: migration.Definition{
			Name:    name,
			Dialect: dialect,
		},
		lastPhase: -1,
		lastOp:    -1,
	}
}

// Phase appends a new phase numbered after the previous one and makes it
// the current phase.
func (b *Builder) Phase(description string) *Builder {
	b.def.Phases = append(b.def.Phases, migration.Phase{
		Number:      len(b.def.Phases) + 1,
		Description: description,
	})
	b.lastPhase = len(b.def.Phases) - 1
	b.lastOp = -1
	return b
}

// AddColumn appends an add_column operation to the current phase. The
// column is nullable unless NotNull is chained.
func (b *Builder) AddColumn(table, column, dataType string) *Builder {
	return b.appendOp("AddColumn", migration.Operation{
		Kind:     migration.OpAddColumn,
		Table:    table,
		Column:   column,
		DataType: dataType,
		Nullable: true,
	})
}

// DropColumn appends a drop_column operation to the current phase.
func (b *Builder) DropColumn(table, column string) *Builder {
	return b.appendOp("DropColumn", migration.Operation{
		Kind:   migration.OpDropColumn,
		Table:  table,
		Column: column,
	})
}

// AddIndex appends an add_index operation to the current phase.
func (b *Builder) AddIndex(table, name string, columns ...string) *Builder {
	return b.appendOp("AddIndex", migration.Operation{
		Kind:    migration.OpAddIndex,
		Table:   table,
		Name:    name,
		Columns: columns,
	})
}

// DropIndex appends a drop_index operation to the current phase.
func (b *Builder) DropIndex(table, name string) *Builder {
	return b.appendOp("DropIndex", migration.Operation{
		Kind:  migration.OpDropIndex,
		Table: table,
		Name:  name,
	})
}

// Backfill appends a backfill operation. The set clause is emitted
// verbatim after UPDATE <table> SET and may include a WHERE clause.
func (b *Builder) Backfill(table, setClause string) *Builder {
	return b.appendOp("Backfill", migration.Operation{
		Kind:      migration.OpBackfill,
		Table:     table,
		SetClause: setClause,
	})
}

// AddForeignKey appends an add_constraint operation with a foreign key spec.
func (b *Builder) AddForeignKey(table, name, column, refTable, refColumn string) *Builder {
	return b.appendOp("AddForeignKey", migration.Operation{
		Kind:       migration.OpAddConstraint,
		Table:      table,
		Name:       name,
		Columns:    []string{column},
		Constraint: migration.ConstraintForeignKey,
		RefTable:   refTable,
		RefColumns: []string{refColumn},
	})
}

// AddUniqueConstraint appends an add_constraint operation with a unique spec.
func (b *Builder) AddUniqueConstraint(table, name string, columns ...string) *Builder {
	return b.appendOp("AddUniqueConstraint", migration.Operation{
		Kind:       migration.OpAddConstraint,
		Table:      table,
		Name:       name,
		Columns:    columns,
		Constraint: migration.ConstraintUnique,
	})
}

// DropConstraint appends a drop_constraint operation to the current phase.
func (b *Builder) DropConstraint(table, name string) *Builder {
	return b.appendOp("DropConstraint", migration.Operation{
		Kind:  migration.OpDropConstraint,
		Table: table,
		Name:  name,
	})
}

// SetNotNull appends a set_not_null operation to the current phase.
func (b *Builder) SetNotNull(table, column string) *Builder {
	return b.appendOp("SetNotNull", migration.Operation{
		Kind:   migration.OpSetNotNull,
		Table:  table,
		Column: column,
	})
}

// EnableDualWrite appends a dual_write_enable flag toggle.
func (b *Builder) EnableDualWrite(flag string) *Builder {
	return b.appendOp("EnableDualWrite", migration.Operation{
		Kind:    migration.OpDualWriteEnable,
		FlagKey: flag,
	})
}

// DisableDualWrite appends a dual_write_disable flag toggle.
func (b *Builder) DisableDualWrite(flag string) *Builder {
	return b.appendOp("DisableDualWrite", migration.Operation{
		Kind:    migration.OpDualWriteDisable,
		FlagKey: flag,
	})
}

// ValidateColumnExists appends a post-phase validation to the current phase.
func (b *Builder) ValidateColumnExists(table, column string) *Builder {
	if b.lastPhase < 0 {
		b.errs = append(b.errs, &ContractError{Call: "ValidateColumnExists", Reason: "no phase started"})
		return b
	}
	phase := &b.def.Phases[b.lastPhase]
	phase.Validations = append(phase.Validations, migration.Validation{
		Kind:   migration.ValidateColumnExists,
		Table:  table,
		Column: column,
	})
	return b
}

// Nullable marks the most recently added column as nullable.
func (b *Builder) Nullable() *Builder {
	if op := b.columnOp("Nullable"); op != nil {
		op.Nullable = true
	}
	return b
}

// NotNull marks the most recently added column as NOT NULL.
func (b *Builder) NotNull() *Builder {
	if op := b.columnOp("NotNull"); op != nil {
		op.Nullable = false
	}
	return b
}

// WithDefault sets a default literal on the most recently added column.
// The literal is emitted verbatim, so string values must carry quotes.
func (b *Builder) WithDefault(literal string) *Builder {
	if op := b.columnOp("WithDefault"); op != nil {
		op.Default = &literal
	}
	return b
}

// Concurrently marks the most recently added index as a concurrent build.
func (b *Builder) Concurrently() *Builder {
	op := b.currentOp()
	if op == nil || op.Kind != migration.OpAddIndex {
		b.errs = append(b.errs, &ContractError{
			Call:   "Concurrently",
			Reason: "previous operation in the current phase is not add_index",
		})
		return b
	}
	op.Concurrent = true
	return b
}

// Rollback sets explicit rollback operations for the current phase,
// replacing the automatic inverse population for it.
func (b *Builder) Rollback(ops ...migration.Operation) *Builder {
	if b.lastPhase < 0 {
		b.errs = append(b.errs, &ContractError{Call: "Rollback", Reason: "no phase started"})
		return b
	}
	b.def.Phases[b.lastPhase].Rollback = append([]migration.Operation{}, ops...)
	return b
}

// Build finalizes the definition. Phases without explicit rollback
// operations get them auto-populated from the catalog inverse rules;
// operations with no safe inverse are omitted, not defaulted to a no-op.
// An empty migration (zero phases) is permitted.
func (b *Builder) Build() (*migration.Definition, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	def := b.def
	def.Phases = make([]migration.Phase, len(b.def.Phases))
	copy(def.Phases, b.def.Phases)

	for i := range def.Phases {
		phase := &def.Phases[i]
		if phase.Rollback != nil {
			continue
		}
		// Inverses run in reverse operation order.
		for j := len(phase.Operations) - 1; j >= 0; j-- {
			if inv, ok := migration.Inverse(phase.Operations[j]); ok {
				phase.Rollback = append(phase.Rollback, inv)
			}
		}
	}

	if err := migration.Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// YAML finalizes the definition and serializes it to the persisted
// document form.
func (b *Builder) YAML() ([]byte, error) {
	def, err := b.Build()
	if err != nil {
		return nil, err
	}
	return migration.MarshalYAML(def)
}

func (b *Builder) appendOp(call string, op migration.Operation) *Builder {
	if b.lastPhase < 0 {
		b.errs = append(b.errs, &ContractError{Call: call, Reason: "no phase started"})
		return b
	}
	phase := &b.def.Phases[b.lastPhase]
	phase.Operations = append(phase.Operations, op)
	b.lastOp = len(phase.Operations) - 1
	return b
}

// currentOp returns the most recently appended operation of the current
// phase, or nil when there is none.
func (b *Builder) currentOp() *migration.Operation {
	if b.lastPhase < 0 || b.lastOp < 0 {
		return nil
	}
	return &b.def.Phases[b.lastPhase].Operations[b.lastOp]
}

// columnOp returns the current operation when it is an add_column,
// recording a contract error otherwise.
func (b *Builder) columnOp(call string) *migration.Operation {
	op := b.currentOp()
	if op == nil || op.Kind != migration.OpAddColumn {
		b.errs = append(b.errs, &ContractError{
			Call:   call,
			Reason: "previous operation in the current phase is not add_column",
		})
		return nil
	}
	return op
}
