package patterns

import (
	"strings"
	"testing"

	"github.com/dimensigon/schemashift/internal/migration"
)

func build(t *testing.T, b interface {
	Build() (*migration.Definition, error)
}) *migration.Definition {
	t.Helper()
	def, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return def
}

func TestAddNullableColumn(t *testing.T) {
	def := build(t, AddNullableColumn("users", "nickname", "text"))

	if len(def.Phases) != 1 {
		t.Fatalf("phases = %d, want 1", len(def.Phases))
	}
	op := def.Phases[0].Operations[0]
	if op.Kind != migration.OpAddColumn || !op.Nullable {
		t.Errorf("unexpected operation: %+v", op)
	}
	if len(def.Phases[0].Validations) != 1 {
		t.Errorf("validations = %d, want 1", len(def.Phases[0].Validations))
	}
}

func TestAddRequiredColumn(t *testing.T) {
	def := build(t, AddRequiredColumn("users", "active", "boolean", "true"))

	if len(def.Phases) != 3 {
		t.Fatalf("phases = %d, want 3", len(def.Phases))
	}

	addOp := def.Phases[0].Operations[0]
	if addOp.Kind != migration.OpAddColumn || !addOp.Nullable {
		t.Errorf("phase 1 should add the column nullable, got %+v", addOp)
	}

	backfill := def.Phases[1].Operations[0]
	if backfill.Kind != migration.OpBackfill {
		t.Fatalf("phase 2 kind = %s, want backfill", backfill.Kind)
	}
	if !strings.Contains(backfill.SetClause, "WHERE active IS NULL") {
		t.Errorf("backfill %q should only touch null rows", backfill.SetClause)
	}

	if def.Phases[2].Operations[0].Kind != migration.OpSetNotNull {
		t.Errorf("phase 3 kind = %s, want set_not_null", def.Phases[2].Operations[0].Kind)
	}
}

func TestRemoveColumnDefersDrop(t *testing.T) {
	def := build(t, RemoveColumn("users", "legacy_token"))

	if len(def.Phases) != 3 {
		t.Fatalf("phases = %d, want 3", len(def.Phases))
	}
	if def.Phases[0].Operations[0].Kind != migration.OpDualWriteDisable {
		t.Errorf("phase 1 should stop application writes first")
	}
	last := def.Phases[2].Operations[0]
	if last.Kind != migration.OpDropColumn {
		t.Errorf("drop must be the final phase, got %s", last.Kind)
	}
}

func TestSafeRenameColumn(t *testing.T) {
	def := build(t, SafeRenameColumn("users", "email", "email_address", "text"))

	if len(def.Phases) != 5 {
		t.Fatalf("phases = %d, want 5", len(def.Phases))
	}

	if op := def.Phases[0].Operations[0]; op.Kind != migration.OpAddColumn || op.Column != "email_address" {
		t.Errorf("phase 1 should add the new column, got %+v", op)
	}
	if op := def.Phases[1].Operations[0]; op.Kind != migration.OpDualWriteEnable {
		t.Errorf("phase 2 should enable dual-write, got %s", op.Kind)
	}
	if op := def.Phases[2].Operations[0]; op.Kind != migration.OpBackfill {
		t.Errorf("phase 3 should backfill, got %s", op.Kind)
	}

	var dropsOld bool
	for _, op := range def.Phases[4].Operations {
		if op.Kind == migration.OpDropColumn && op.Column == "email" {
			dropsOld = true
		}
	}
	if !dropsOld {
		t.Error("final phase should drop the old column")
	}
}

func TestChangeColumnTypeUsesShadowColumn(t *testing.T) {
	def := build(t, ChangeColumnType("orders", "total", "numeric(12,2)", ""))

	if len(def.Phases) != 5 {
		t.Fatalf("phases = %d, want 5", len(def.Phases))
	}

	shadow := def.Phases[0].Operations[0]
	if shadow.Column != "total_new" {
		t.Errorf("shadow column = %q, want total_new", shadow.Column)
	}

	backfill := def.Phases[2].Operations[0]
	if !strings.Contains(backfill.SetClause, "CAST(total AS numeric(12,2))") {
		t.Errorf("default conversion missing from %q", backfill.SetClause)
	}
}

func TestChangeColumnTypeCustomConversion(t *testing.T) {
	def := build(t, ChangeColumnType("orders", "total", "numeric", "total::numeric / 100"))

	backfill := def.Phases[2].Operations[0]
	if !strings.Contains(backfill.SetClause, "total::numeric / 100") {
		t.Errorf("custom conversion missing from %q", backfill.SetClause)
	}
}

func TestAddConcurrentIndex(t *testing.T) {
	def := build(t, AddConcurrentIndex("orders", "idx_orders_user", "user_id"))

	op := def.Phases[0].Operations[0]
	if op.Kind != migration.OpAddIndex || !op.Concurrent {
		t.Errorf("expected concurrent index build, got %+v", op)
	}
}

func TestConstraintPatterns(t *testing.T) {
	fk := build(t, AddForeignKey("orders", "fk_orders_user", "user_id", "users", "id"))
	if op := fk.Phases[0].Operations[0]; op.Constraint != migration.ConstraintForeignKey {
		t.Errorf("constraint = %s, want foreign_key", op.Constraint)
	}

	uq := build(t, AddUniqueConstraint("users", "uq_users_email", "email"))
	if op := uq.Phases[0].Operations[0]; op.Constraint != migration.ConstraintUnique {
		t.Errorf("constraint = %s, want unique", op.Constraint)
	}
}

func TestPatternsAreDeterministic(t *testing.T) {
	a, err := SafeRenameColumn("users", "email", "email_address", "text").YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	b, err := SafeRenameColumn("users", "email", "email_address", "text").YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	if string(a) != string(b) {
		t.Error("identical inputs should produce identical documents")
	}
}
