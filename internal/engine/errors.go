package engine

import "fmt"

// SnapshotError reports that the pre-migration safety snapshot failed and
// was not skipped; the execution fails before phase 1 begins.
type SnapshotError struct {
	Migration string
	Err       error
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("safety snapshot for migration %s failed: %v", e.Migration, e.Err)
}

func (e *SnapshotError) Unwrap() error { return e.Err }

// StatementError reports that an operation's statement (or flag toggle)
// failed against the live target, with enough context to locate it.
type StatementError struct {
	Phase     int
	Operation int // 1-based index within the phase
	Query     string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("phase %d operation %d failed: %v", e.Phase, e.Operation, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

// ValidationError reports that a post-phase validation query returned an
// empty result set.
type ValidationError struct {
	Phase  int
	Table  string
	Column string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("phase %d validation failed: column %s.%s not found", e.Phase, e.Table, e.Column)
}
