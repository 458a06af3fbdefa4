// Package planner turns persisted migration definitions into execution
// plans: it validates structural invariants, synthesizes SQL per
// operation, estimates duration and scans the result for lock risks.
package planner

import (
	"fmt"
	"os"
	"strings"

	"github.com/dimensigon/schemashift/internal/locks"
	"github.com/dimensigon/schemashift/internal/migration"
	"github.com/dimensigon/schemashift/internal/schemadoc"
)

// LoadError reports a malformed or invalid migration definition.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("failed to load migration: %v", e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Plan is a derived, read-only view of a definition: the synthesized
// statements per phase plus the planner's risk findings. Computing a plan
// never mutates the database.
type Plan struct {
	Migration           *migration.Definition
	Phases              []PhasePlan
	Risks               []string
	EstimatedDurationMs int64
}

// PhasePlan pairs a phase with its synthesized SQL statements, in
// operation order. Flag toggles do not appear in the statement list; the
// engine routes them to the state store.
type PhasePlan struct {
	Phase      migration.Phase
	Statements []string
}

// Duration heuristic, in milliseconds per operation kind. Values only
// need to be positive and rank the known-slow kinds.
const (
	costDefaultMs         = 50
	costBackfillMs        = 5000
	costIndexMs           = 10000
	costConcurrentIndexMs = 30000
)

// Load parses and validates a persisted migration document.
func Load(data []byte) (*migration.Definition, error) {
	if err := schemadoc.Validate(data); err != nil {
		return nil, &LoadError{Err: err}
	}

	def, err := migration.UnmarshalYAML(data)
	if err != nil {
		return nil, &LoadError{Err: err}
	}

	if err := migration.Validate(def); err != nil {
		return nil, &LoadError{Err: err}
	}

	return def, nil
}

// LoadFile reads and parses a migration document from disk.
func LoadFile(path string) (*migration.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("failed to read migration file: %w", err)}
	}
	return Load(data)
}

// Generate computes the execution plan for a validated definition.
// It is pure: calling it twice on the same definition yields identical
// statement lists and risk sets.
func Generate(def *migration.Definition) (*Plan, error) {
	plan := &Plan{Migration: def}

	for _, phase := range def.Phases {
		pp := PhasePlan{Phase: phase}
		for i, op := range phase.Operations {
			plan.EstimatedDurationMs += estimateMs(op)
			if op.IsFlagToggle() {
				continue
			}
			stmt, err := migration.Synthesize(op)
			if err != nil {
				return nil, fmt.Errorf("phase %d operation %d: %w", phase.Number, i+1, err)
			}
			pp.Statements = append(pp.Statements, stmt)
			plan.Risks = append(plan.Risks, scanRisks(phase.Number, op, stmt)...)
		}
		plan.Phases = append(plan.Phases, pp)
	}

	if plan.EstimatedDurationMs <= 0 {
		plan.EstimatedDurationMs = costDefaultMs
	}
	return plan, nil
}

func estimateMs(op migration.Operation) int64 {
	switch op.Kind {
	case migration.OpBackfill:
		return costBackfillMs
	case migration.OpAddIndex:
		if op.Concurrent {
			return costConcurrentIndexMs
		}
		return costIndexMs
	default:
		return costDefaultMs
	}
}

// scanRisks flags statements that can cause lock contention or downtime.
func scanRisks(phaseNumber int, op migration.Operation, stmt string) []string {
	var risks []string

	mode := locks.Detect(stmt)

	if op.Kind == migration.OpAddIndex && !op.Concurrent {
		risks = append(risks, fmt.Sprintf(
			"phase %d: index %s on %s is built without CONCURRENTLY and holds a %s lock, blocking writes to the table for the whole build",
			phaseNumber, op.Name, op.Table, mode))
		return risks
	}

	if op.Kind == migration.OpBackfill && !strings.Contains(strings.ToUpper(op.SetClause), " WHERE ") {
		risks = append(risks, fmt.Sprintf(
			"phase %d: backfill on %s has no WHERE clause and updates every row in one statement; long row locks and table bloat are likely",
			phaseNumber, op.Table))
	}

	if mode.BlocksReads() {
		risks = append(risks, fmt.Sprintf(
			"phase %d: %s: %s", phaseNumber, migration.Describe(op), locks.Explain(stmt)))
	}

	return risks
}
