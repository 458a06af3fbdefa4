package builder

import (
	"errors"
	"strings"
	"testing"

	"github.com/dimensigon/schemashift/internal/migration"
)

func TestBuildSimpleMigration(t *testing.T) {
	def, err := New("add_nickname", migration.DialectPostgres).
		Phase("Add nullable nickname").
		AddColumn("users", "nickname", "text").
		ValidateColumnExists("users", "nickname").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if def.Name != "add_nickname" {
		t.Errorf("name = %q, want add_nickname", def.Name)
	}
	if len(def.Phases) != 1 {
		t.Fatalf("phases = %d, want 1", len(def.Phases))
	}
	phase := def.Phases[0]
	if phase.Number != 1 {
		t.Errorf("phase number = %d, want 1", phase.Number)
	}
	if len(phase.Operations) != 1 || phase.Operations[0].Kind != migration.OpAddColumn {
		t.Fatalf("unexpected operations: %+v", phase.Operations)
	}
	if !phase.Operations[0].Nullable {
		t.Error("AddColumn should default to nullable")
	}
	if len(phase.Validations) != 1 {
		t.Errorf("validations = %d, want 1", len(phase.Validations))
	}
}

func TestOperationBeforePhaseIsContractError(t *testing.T) {
	_, err := New("broken", migration.DialectPostgres).
		AddColumn("users", "nickname", "text").
		Build()
	if err == nil {
		t.Fatal("expected contract error")
	}
	var cerr *ContractError
	if !errors.As(err, &cerr) {
		t.Fatalf("error type = %T, want *ContractError", err)
	}
	if cerr.Call != "AddColumn" {
		t.Errorf("contract error call = %q, want AddColumn", cerr.Call)
	}
}

func TestConcurrentlyRequiresIndex(t *testing.T) {
	_, err := New("broken", migration.DialectPostgres).
		Phase("phase").
		AddColumn("users", "nickname", "text").
		Concurrently().
		Build()
	if err == nil {
		t.Fatal("expected contract error")
	}
	var cerr *ContractError
	if !errors.As(err, &cerr) || cerr.Call != "Concurrently" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestColumnModifiersRequireAddColumn(t *testing.T) {
	_, err := New("broken", migration.DialectPostgres).
		Phase("phase").
		DropColumn("users", "email").
		WithDefault("'x'").
		Build()
	if err == nil {
		t.Fatal("expected contract error")
	}
	if !strings.Contains(err.Error(), "WithDefault") {
		t.Errorf("error %q should name WithDefault", err)
	}
}

func TestBuildSurfacesFirstErrorOnly(t *testing.T) {
	_, err := New("broken", migration.DialectPostgres).
		Concurrently().
		NotNull().
		Build()
	if err == nil {
		t.Fatal("expected contract error")
	}
	var cerr *ContractError
	if !errors.As(err, &cerr) || cerr.Call != "Concurrently" {
		t.Errorf("Build should return the first recorded error, got %v", err)
	}
}

func TestAutoRollbackReversesOperationOrder(t *testing.T) {
	def, err := New("multi", migration.DialectPostgres).
		Phase("expand").
		AddColumn("users", "email_address", "text").
		AddIndex("users", "idx_users_email_address", "email_address").Concurrently().
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	rollback := def.Phases[0].Rollback
	if len(rollback) != 2 {
		t.Fatalf("rollback length = %d, want 2", len(rollback))
	}
	if rollback[0].Kind != migration.OpDropIndex {
		t.Errorf("rollback[0] = %s, want drop_index", rollback[0].Kind)
	}
	if rollback[1].Kind != migration.OpDropColumn {
		t.Errorf("rollback[1] = %s, want drop_column", rollback[1].Kind)
	}
}

func TestAutoRollbackOmitsUnsafeInverses(t *testing.T) {
	def, err := New("contract", migration.DialectPostgres).
		Phase("contract").
		DropColumn("users", "email").
		Backfill("users", "email_address = email WHERE email_address IS NULL").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := len(def.Phases[0].Rollback); got != 0 {
		t.Errorf("rollback length = %d, want 0 (drop and backfill have no safe inverse)", got)
	}
}

func TestExplicitRollbackWins(t *testing.T) {
	def, err := New("explicit", migration.DialectPostgres).
		Phase("expand").
		AddColumn("users", "nickname", "text").
		Rollback(migration.Operation{Kind: migration.OpDropIndex, Name: "idx_custom"}).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	rollback := def.Phases[0].Rollback
	if len(rollback) != 1 || rollback[0].Kind != migration.OpDropIndex {
		t.Errorf("explicit rollback replaced: %+v", rollback)
	}
}

func TestModifiersAdjustLastOperation(t *testing.T) {
	def, err := New("mods", migration.DialectPostgres).
		Phase("expand").
		AddColumn("users", "active", "boolean").NotNull().WithDefault("true").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	op := def.Phases[0].Operations[0]
	if op.Nullable {
		t.Error("NotNull() should clear nullable")
	}
	if op.Default == nil || *op.Default != "true" {
		t.Errorf("default = %v, want true", op.Default)
	}
}

func TestEmptyMigrationBuilds(t *testing.T) {
	def, err := New("noop", migration.DialectPostgres).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(def.Phases) != 0 {
		t.Errorf("phases = %d, want 0", len(def.Phases))
	}
}

func TestBuildRequiresName(t *testing.T) {
	if _, err := New("", migration.DialectPostgres).Build(); err == nil {
		t.Error("expected validation error for empty name")
	}
}

func TestYAMLRoundTrips(t *testing.T) {
	data, err := New("yaml_test", migration.DialectPostgres).
		Phase("expand").
		AddColumn("users", "nickname", "text").
		YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}

	def, err := migration.UnmarshalYAML(data)
	if err != nil {
		t.Fatalf("UnmarshalYAML() error = %v", err)
	}
	if def.Name != "yaml_test" {
		t.Errorf("name = %q, want yaml_test", def.Name)
	}
}
