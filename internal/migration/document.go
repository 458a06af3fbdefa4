package migration

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// The persisted migration document is a YAML structure with a single
// top-level "migration" key. Operation records are tagged by a "type"
// field matching the catalog kind plus kind-specific fields.

type document struct {
	Migration documentMigration `yaml:"migration"`
}

type documentMigration struct {
	Name     string          `yaml:"name"`
	Database string          `yaml:"database"`
	Phases   []documentPhase `yaml:"phases"`
}

type documentPhase struct {
	Phase       int                  `yaml:"phase"`
	Description string               `yaml:"description"`
	Operations  []documentOperation  `yaml:"operations"`
	Validation  []documentValidation `yaml:"validation,omitempty"`
	Rollback    []documentOperation  `yaml:"rollbackOperations,omitempty"`
}

type documentOperation struct {
	Type       string   `yaml:"type"`
	Table      string   `yaml:"table,omitempty"`
	Column     string   `yaml:"column,omitempty"`
	DataType   string   `yaml:"dataType,omitempty"`
	Nullable   *bool    `yaml:"nullable,omitempty"`
	Default    *string  `yaml:"default,omitempty"`
	Name       string   `yaml:"name,omitempty"`
	Columns    []string `yaml:"columns,omitempty"`
	Concurrent bool     `yaml:"concurrent,omitempty"`
	Constraint string   `yaml:"constraint,omitempty"`
	RefTable   string   `yaml:"refTable,omitempty"`
	RefColumns []string `yaml:"refColumns,omitempty"`
	Set        string   `yaml:"set,omitempty"`
	Flag       string   `yaml:"flag,omitempty"`
}

type documentValidation struct {
	Type   string `yaml:"type"`
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

// MarshalYAML serializes a definition to its stable, human-diffable
// persisted document form.
func MarshalYAML(def *Definition) ([]byte, error) {
	doc := document{
		Migration: documentMigration{
			Name:     def.Name,
			Database: string(def.Dialect),
			Phases:   make([]documentPhase, 0, len(def.Phases)),
		},
	}

	for _, phase := range def.Phases {
		dp := documentPhase{
			Phase:       phase.Number,
			Description: phase.Description,
			Operations:  encodeOperations(phase.Operations),
			Rollback:    encodeOperations(phase.Rollback),
		}
		for _, v := range phase.Validations {
			dp.Validation = append(dp.Validation, documentValidation{
				Type:   string(v.Kind),
				Table:  v.Table,
				Column: v.Column,
			})
		}
		doc.Migration.Phases = append(doc.Migration.Phases, dp)
	}

	return yaml.Marshal(&doc)
}

// UnmarshalYAML parses a persisted migration document. It performs only
// structural decoding; invariant checks live in Validate.
func UnmarshalYAML(data []byte) (*Definition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse migration document: %w", err)
	}

	dialect, err := ParseDialect(doc.Migration.Database)
	if err != nil {
		return nil, err
	}

	def := &Definition{
		Name:    doc.Migration.Name,
		Dialect: dialect,
	}

	for _, dp := range doc.Migration.Phases {
		phase := Phase{
			Number:      dp.Phase,
			Description: dp.Description,
		}
		phase.Operations, err = decodeOperations(dp.Operations)
		if err != nil {
			return nil, fmt.Errorf("phase %d: %w", dp.Phase, err)
		}
		phase.Rollback, err = decodeOperations(dp.Rollback)
		if err != nil {
			return nil, fmt.Errorf("phase %d rollback: %w", dp.Phase, err)
		}
		for _, dv := range dp.Validation {
			if ValidationKind(dv.Type) != ValidateColumnExists {
				return nil, fmt.Errorf("phase %d: unknown validation type: %q", dp.Phase, dv.Type)
			}
			phase.Validations = append(phase.Validations, Validation{
				Kind:   ValidateColumnExists,
				Table:  dv.Table,
				Column: dv.Column,
			})
		}
		def.Phases = append(def.Phases, phase)
	}

	return def, nil
}

func encodeOperations(ops []Operation) []documentOperation {
	if len(ops) == 0 {
		return nil
	}
	out := make([]documentOperation, 0, len(ops))
	for _, op := range ops {
		enc := documentOperation{
			Type:       string(op.Kind),
			Table:      op.Table,
			Column:     op.Column,
			DataType:   op.DataType,
			Default:    op.Default,
			Name:       op.Name,
			Columns:    op.Columns,
			Concurrent: op.Concurrent,
			Constraint: string(op.Constraint),
			RefTable:   op.RefTable,
			RefColumns: op.RefColumns,
			Set:        op.SetClause,
			Flag:       op.FlagKey,
		}
		if op.Kind == OpAddColumn {
			nullable := op.Nullable
			enc.Nullable = &nullable
		}
		out = append(out, enc)
	}
	return out
}

func decodeOperations(encoded []documentOperation) ([]Operation, error) {
	var out []Operation
	for i, enc := range encoded {
		kind := OpKind(enc.Type)
		switch kind {
		case OpAddColumn, OpDropColumn, OpAddIndex, OpDropIndex,
			OpAddConstraint, OpDropConstraint, OpSetNotNull, OpDropNotNull,
			OpBackfill, OpDualWriteEnable, OpDualWriteDisable:
		default:
			return nil, fmt.Errorf("operation %d: unknown operation type: %q", i+1, enc.Type)
		}

		op := Operation{
			Kind:       kind,
			Table:      enc.Table,
			Column:     enc.Column,
			DataType:   enc.DataType,
			Default:    enc.Default,
			Name:       enc.Name,
			Columns:    enc.Columns,
			Concurrent: enc.Concurrent,
			Constraint: ConstraintKind(enc.Constraint),
			RefTable:   enc.RefTable,
			RefColumns: enc.RefColumns,
			SetClause:  enc.Set,
			FlagKey:    enc.Flag,
		}
		// Columns default to nullable when the document leaves it out.
		if kind == OpAddColumn {
			op.Nullable = enc.Nullable == nil || *enc.Nullable
		}
		out = append(out, op)
	}
	return out, nil
}
