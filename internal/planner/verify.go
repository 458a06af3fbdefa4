package planner

import (
	"fmt"

	"github.com/dimensigon/schemashift/internal/migration"
	"github.com/dimensigon/schemashift/internal/sqlcheck"
)

// VerificationResult is the stateless output of Verify. Warnings and
// recommendations are advisory and never block execution; Safe is false
// only when Errors is non-empty.
type VerificationResult struct {
	Safe            bool
	Errors          []string
	Warnings        []string
	Recommendations []string
}

// Verify plans the definition and layers advisory checks on top:
// irreversible operations, phases with no rollback, and index builds
// that should be concurrent. Synthesized statements are additionally run
// through the PostgreSQL parser when the dialect allows it.
func Verify(def *migration.Definition) (*VerificationResult, error) {
	plan, err := Generate(def)
	if err != nil {
		return nil, err
	}

	result := &VerificationResult{}

	for _, pp := range plan.Phases {
		phase := pp.Phase

		if len(phase.Rollback) == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"No rollback operations defined for phase %d (%s); a failure in a later phase cannot undo it",
				phase.Number, phase.Description))
		}

		for _, op := range phase.Operations {
			switch op.Kind {
			case migration.OpDropColumn:
				result.Warnings = append(result.Warnings, fmt.Sprintf(
					"Dropping column %s.%s in phase %d is irreversible; the data cannot be recovered by rollback",
					op.Table, op.Column, phase.Number))
			case migration.OpAddIndex:
				if !op.Concurrent {
					result.Warnings = append(result.Warnings, fmt.Sprintf(
						"Index %s on %s in phase %d is not concurrent and will block writes during the build",
						op.Name, op.Table, phase.Number))
					result.Recommendations = append(result.Recommendations, fmt.Sprintf(
						"Set concurrent: true on index %s to avoid blocking writes to %s",
						op.Name, op.Table))
				}
			case migration.OpBackfill:
				if _, ok := migration.Inverse(op); !ok && len(phase.Rollback) == 0 {
					result.Recommendations = append(result.Recommendations, fmt.Sprintf(
						"Backfill in phase %d has no safe inverse; consider an explicit rollbackOperations entry",
						phase.Number))
				}
			}
		}

		// Advisory syntax check of the synthesized statements. Only the
		// postgres grammar is available.
		if def.Dialect == migration.DialectPostgres {
			for _, failure := range sqlcheck.CheckAll(pp.Statements) {
				result.Errors = append(result.Errors, fmt.Sprintf("phase %d: %s", phase.Number, failure))
			}
		}
	}

	result.Safe = len(result.Errors) == 0
	return result, nil
}
