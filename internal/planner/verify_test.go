package planner

import (
	"strings"
	"testing"

	"github.com/dimensigon/schemashift/internal/migration"
)

func hasMessage(msgs []string, substr string) bool {
	for _, msg := range msgs {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func TestVerifyWarnsOnDropColumn(t *testing.T) {
	def := &migration.Definition{
		Name:    "drop_email",
		Dialect: migration.DialectPostgres,
		Phases: []migration.Phase{{
			Number:      1,
			Description: "Drop column",
			Operations: []migration.Operation{{
				Kind: migration.OpDropColumn, Table: "users", Column: "email",
			}},
		}},
	}

	result, err := Verify(def)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if !hasMessage(result.Warnings, "Dropping column") {
		t.Errorf("expected a Dropping column warning, got %v", result.Warnings)
	}
	if !hasMessage(result.Warnings, "No rollback") {
		t.Errorf("expected a No rollback warning, got %v", result.Warnings)
	}
	if !result.Safe {
		t.Error("warnings alone must not clear the safe flag")
	}
}

func TestVerifyRecommendsConcurrentIndex(t *testing.T) {
	def := &migration.Definition{
		Name:    "blocking_index",
		Dialect: migration.DialectPostgres,
		Phases: []migration.Phase{{
			Number: 1,
			Operations: []migration.Operation{{
				Kind: migration.OpAddIndex, Table: "orders", Name: "idx_orders_user", Columns: []string{"user_id"},
			}},
		}},
	}

	result, err := Verify(def)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if !hasMessage(result.Warnings, "not concurrent") {
		t.Errorf("expected a not concurrent warning, got %v", result.Warnings)
	}
	if !hasMessage(result.Recommendations, "concurrent: true") {
		t.Errorf("expected a concurrent: true recommendation, got %v", result.Recommendations)
	}
}

func TestVerifyCleanMigration(t *testing.T) {
	def := &migration.Definition{
		Name:    "clean",
		Dialect: migration.DialectPostgres,
		Phases: []migration.Phase{{
			Number: 1,
			Operations: []migration.Operation{{
				Kind: migration.OpAddColumn, Table: "users", Column: "nickname", DataType: "text", Nullable: true,
			}},
			Rollback: []migration.Operation{{
				Kind: migration.OpDropColumn, Table: "users", Column: "nickname",
			}},
		}},
	}

	result, err := Verify(def)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !result.Safe {
		t.Errorf("expected safe result, errors: %v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestVerifyRecommendsExplicitBackfillRollback(t *testing.T) {
	def := &migration.Definition{
		Name:    "backfill_only",
		Dialect: migration.DialectPostgres,
		Phases: []migration.Phase{{
			Number: 1,
			Operations: []migration.Operation{{
				Kind: migration.OpBackfill, Table: "users", SetClause: "a = b WHERE a IS NULL",
			}},
		}},
	}

	result, err := Verify(def)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !hasMessage(result.Recommendations, "rollbackOperations") {
		t.Errorf("expected an explicit rollback recommendation, got %v", result.Recommendations)
	}
}
