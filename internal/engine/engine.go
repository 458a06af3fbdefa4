// Package engine runs execution plans against a live database, phase by
// phase, with best-effort rollback on failure and an append-only
// execution history for audit.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dimensigon/schemashift/internal/migration"
	"github.com/dimensigon/schemashift/internal/planner"
)

// Querier executes a statement against the target database and returns
// the result rows. Any error propagates as a StatementError.
type Querier interface {
	ExecuteQuery(ctx context.Context, query string) ([]map[string]any, error)
}

// BackupCreator requests a safety snapshot before a migration runs. The
// engine only records the returned identifier for audit.
type BackupCreator interface {
	CreateBackup(ctx context.Context, descriptor string) (string, error)
}

// FlagStore persists application-level flags. Dual-write toggles are
// routed here instead of the database connection.
type FlagStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Status is the lifecycle state of one execution.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// PhaseStatus is the terminal state of one phase within an execution.
type PhaseStatus string

const (
	PhaseCompleted PhaseStatus = "completed"
	PhaseFailed    PhaseStatus = "failed"
)

// PhaseResult records the outcome of a single phase.
type PhaseResult struct {
	PhaseNumber        int         `json:"phase_number"`
	Status             PhaseStatus `json:"status"`
	Error              string      `json:"error,omitempty"`
	StatementsExecuted int         `json:"statements_executed"`
}

// Execution is the mutable record of one migration run. Records are
// appended to the engine's history and never deleted.
type Execution struct {
	ID             string        `json:"id"`
	MigrationName  string        `json:"migration_name"`
	Status         Status        `json:"status"`
	CurrentPhase   int           `json:"current_phase"`
	PhaseResults   []PhaseResult `json:"phase_results"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at,omitempty"`
	BackupRef      string        `json:"backup_ref,omitempty"`
	RollbackErrors []string      `json:"rollback_errors,omitempty"`
}

// Options control a single execution.
type Options struct {
	// DryRun computes the plan but never touches the connection; the
	// execution record stays pending.
	DryRun bool
	// SkipSnapshot skips the pre-migration safety snapshot outright.
	SkipSnapshot bool
	// Phase selects exactly one phase to run; zero runs all phases in
	// ascending order.
	Phase int
}

// StatusReport is a consistent snapshot of the execution history.
type StatusReport struct {
	Executions    []Execution `json:"executions"`
	LastMigration *Execution  `json:"last_migration,omitempty"`
}

// Engine executes migration plans. It owns the execution-history list;
// phases and operations within one execution run strictly sequentially.
type Engine struct {
	db      Querier
	backups BackupCreator
	flags   FlagStore

	mu      sync.Mutex
	history []*Execution
}

// New creates an engine for one target database. backups may be nil only
// when every execution skips snapshots; flags may be nil when no
// migration uses dual-write toggles.
func New(db Querier, backups BackupCreator, flags FlagStore) *Engine {
	return &Engine{db: db, backups: backups, flags: flags}
}

// Execute runs a migration definition against the live target. The
// returned execution record is also appended to the history, so every
// failure path stays queryable with the offending phase number and the
// original error intact.
func (e *Engine) Execute(ctx context.Context, def *migration.Definition, opts Options) (*Execution, error) {
	plan, err := planner.Generate(def)
	if err != nil {
		return nil, err
	}

	exec := &Execution{
		ID:            uuid.NewString(),
		MigrationName: def.Name,
		Status:        StatusPending,
		StartedAt:     time.Now().UTC(),
	}
	e.append(exec)

	if opts.DryRun {
		// Plan computed, nothing executed. Pending is the terminal state.
		e.update(func() { exec.FinishedAt = time.Now().UTC() })
		return e.snapshotOf(exec), nil
	}

	phases, err := selectPhases(plan, opts.Phase)
	if err != nil {
		e.finish(exec, StatusFailed)
		return e.snapshotOf(exec), err
	}

	if !opts.SkipSnapshot {
		if e.backups == nil {
			err := &SnapshotError{Migration: def.Name, Err: fmt.Errorf("no backup collaborator configured")}
			e.finish(exec, StatusFailed)
			return e.snapshotOf(exec), err
		}
		ref, err := e.backups.CreateBackup(ctx, def.Name)
		if err != nil {
			serr := &SnapshotError{Migration: def.Name, Err: err}
			e.finish(exec, StatusFailed)
			return e.snapshotOf(exec), serr
		}
		e.update(func() { exec.BackupRef = ref })
	}

	e.update(func() { exec.Status = StatusRunning })

	var completed []planner.PhasePlan
	for _, pp := range phases {
		e.update(func() { exec.CurrentPhase = pp.Phase.Number })

		executed, phaseErr := e.runPhase(ctx, def, pp)
		if phaseErr != nil {
			e.update(func() {
				exec.PhaseResults = append(exec.PhaseResults, PhaseResult{
					PhaseNumber:        pp.Phase.Number,
					Status:             PhaseFailed,
					Error:              phaseErr.Error(),
					StatementsExecuted: executed,
				})
			})
			// Best-effort rollback of the failing phase and every phase
			// already completed in this run, in reverse phase order.
			// Rollback errors are collected, never raised: the original
			// error must reach the caller.
			rollbackErrs := e.rollback(ctx, def, append(completed, pp))
			e.update(func() { exec.RollbackErrors = rollbackErrs })
			e.finish(exec, StatusFailed)
			return e.snapshotOf(exec), phaseErr
		}

		e.update(func() {
			exec.PhaseResults = append(exec.PhaseResults, PhaseResult{
				PhaseNumber:        pp.Phase.Number,
				Status:             PhaseCompleted,
				StatementsExecuted: executed,
			})
		})
		completed = append(completed, pp)
	}

	e.finish(exec, StatusCompleted)
	return e.snapshotOf(exec), nil
}

// runPhase applies a phase's operations in order, then its validations.
// It returns the number of statements (and flag toggles) applied.
func (e *Engine) runPhase(ctx context.Context, def *migration.Definition, pp planner.PhasePlan) (int, error) {
	executed := 0
	stmtIdx := 0

	for i, op := range pp.Phase.Operations {
		if op.IsFlagToggle() {
			if err := e.toggleFlag(ctx, op); err != nil {
				return executed, &StatementError{
					Phase:     pp.Phase.Number,
					Operation: i + 1,
					Err:       err,
				}
			}
			executed++
			continue
		}

		stmt := pp.Statements[stmtIdx]
		stmtIdx++
		if _, err := e.db.ExecuteQuery(ctx, stmt); err != nil {
			return executed, &StatementError{
				Phase:     pp.Phase.Number,
				Operation: i + 1,
				Query:     stmt,
				Err:       err,
			}
		}
		executed++
	}

	for _, v := range pp.Phase.Validations {
		rows, err := e.db.ExecuteQuery(ctx, v.Query(def.Dialect))
		if err != nil {
			return executed, fmt.Errorf("phase %d validation query failed: %w", pp.Phase.Number, err)
		}
		if len(rows) == 0 {
			return executed, &ValidationError{
				Phase:  pp.Phase.Number,
				Table:  v.Table,
				Column: v.Column,
			}
		}
	}

	return executed, nil
}

// rollback applies the rollback operations of the given phases in reverse
// phase order, collecting errors instead of raising them.
func (e *Engine) rollback(ctx context.Context, def *migration.Definition, phases []planner.PhasePlan) []string {
	var errs []string
	for i := len(phases) - 1; i >= 0; i-- {
		phase := phases[i].Phase
		for _, op := range phase.Rollback {
			if op.IsFlagToggle() {
				if err := e.toggleFlag(ctx, op); err != nil {
					errs = append(errs, fmt.Sprintf("phase %d rollback: %v", phase.Number, err))
				}
				continue
			}
			stmt, err := migration.Synthesize(op)
			if err != nil {
				errs = append(errs, fmt.Sprintf("phase %d rollback: %v", phase.Number, err))
				continue
			}
			if _, err := e.db.ExecuteQuery(ctx, stmt); err != nil {
				errs = append(errs, fmt.Sprintf("phase %d rollback (%s): %v", phase.Number, stmt, err))
			}
		}
	}
	return errs
}

func (e *Engine) toggleFlag(ctx context.Context, op migration.Operation) error {
	if e.flags == nil {
		return fmt.Errorf("no state store configured for flag %s", op.FlagKey)
	}
	value := "true"
	if op.Kind == migration.OpDualWriteDisable {
		value = "false"
	}
	if err := e.flags.Set(ctx, op.FlagKey, value); err != nil {
		return fmt.Errorf("failed to set flag %s: %w", op.FlagKey, err)
	}
	return nil
}

// Status returns the full execution history plus the most recent record.
func (e *Engine) Status() *StatusReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := &StatusReport{
		Executions: make([]Execution, 0, len(e.history)),
	}
	for _, exec := range e.history {
		report.Executions = append(report.Executions, copyExecution(exec))
	}
	if n := len(report.Executions); n > 0 {
		last := report.Executions[n-1]
		report.LastMigration = &last
	}
	return report
}

// PersistHistory writes every execution record to the given store as a
// JSON document keyed by execution ID, for hosts that keep history
// beyond process memory.
func (e *Engine) PersistHistory(ctx context.Context, store FlagStore) error {
	report := e.Status()
	for _, exec := range report.Executions {
		data, err := json.Marshal(exec)
		if err != nil {
			return fmt.Errorf("failed to encode execution %s: %w", exec.ID, err)
		}
		if err := store.Set(ctx, "schemashift:execution:"+exec.ID, string(data)); err != nil {
			return fmt.Errorf("failed to persist execution %s: %w", exec.ID, err)
		}
	}
	return nil
}

func selectPhases(plan *planner.Plan, phase int) ([]planner.PhasePlan, error) {
	if phase == 0 {
		return plan.Phases, nil
	}
	if phase < 1 || phase > len(plan.Phases) {
		return nil, fmt.Errorf("invalid phase number %d (migration has %d phases)", phase, len(plan.Phases))
	}
	return plan.Phases[phase-1 : phase], nil
}

func (e *Engine) append(exec *Execution) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, exec)
}

// update mutates an execution record under the history lock so Status
// readers always observe a consistent snapshot.
func (e *Engine) update(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

func (e *Engine) finish(exec *Execution, status Status) {
	e.update(func() {
		exec.Status = status
		exec.FinishedAt = time.Now().UTC()
	})
}

func (e *Engine) snapshotOf(exec *Execution) *Execution {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := copyExecution(exec)
	return &out
}

func copyExecution(exec *Execution) Execution {
	out := *exec
	out.PhaseResults = append([]PhaseResult(nil), exec.PhaseResults...)
	out.RollbackErrors = append([]string(nil), exec.RollbackErrors...)
	return out
}
