package migration

import (
	"reflect"
	"strings"
	"testing"
)

func sampleDefinition() *Definition {
	return &Definition{
		Name:    "rename_users_email_to_email_address",
		Dialect: DialectPostgres,
		Phases: []Phase{
			{
				Number:      1,
				Description: "Add new column",
				Operations: []Operation{
					{Kind: OpAddColumn, Table: "users", Column: "email_address", DataType: "text", Nullable: true},
				},
				Validations: []Validation{
					{Kind: ValidateColumnExists, Table: "users", Column: "email_address"},
				},
				Rollback: []Operation{
					{Kind: OpDropColumn, Table: "users", Column: "email_address"},
				},
			},
			{
				Number:      2,
				Description: "Backfill and sync",
				Operations: []Operation{
					{Kind: OpDualWriteEnable, FlagKey: "dualwrite.users.email_address"},
					{Kind: OpBackfill, Table: "users", SetClause: "email_address = email WHERE email_address IS NULL"},
				},
				Rollback: []Operation{
					{Kind: OpDualWriteDisable, FlagKey: "dualwrite.users.email_address"},
				},
			},
		},
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	def := sampleDefinition()

	data, err := MarshalYAML(def)
	if err != nil {
		t.Fatalf("MarshalYAML() error = %v", err)
	}

	got, err := UnmarshalYAML(data)
	if err != nil {
		t.Fatalf("UnmarshalYAML() error = %v", err)
	}

	if !reflect.DeepEqual(got, def) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, def)
	}
}

func TestUnmarshalDefaultsToNullable(t *testing.T) {
	doc := `
migration:
  name: add_nickname
  database: postgres
  phases:
    - phase: 1
      description: Add column
      operations:
        - type: add_column
          table: users
          column: nickname
          dataType: text
`
	def, err := UnmarshalYAML([]byte(doc))
	if err != nil {
		t.Fatalf("UnmarshalYAML() error = %v", err)
	}
	if !def.Phases[0].Operations[0].Nullable {
		t.Error("column without nullable field should decode as nullable")
	}
}

func TestUnmarshalRejectsUnknownOperationType(t *testing.T) {
	doc := `
migration:
  name: bad
  database: postgres
  phases:
    - phase: 1
      operations:
        - type: rename_table
          table: users
`
	_, err := UnmarshalYAML([]byte(doc))
	if err == nil {
		t.Fatal("expected error for unknown operation type")
	}
	if !strings.Contains(err.Error(), "rename_table") {
		t.Errorf("error %q should name the offending type", err)
	}
}

func TestUnmarshalRejectsUnknownValidationType(t *testing.T) {
	doc := `
migration:
  name: bad
  database: postgres
  phases:
    - phase: 1
      operations:
        - type: drop_column
          table: users
          column: email
      validation:
        - type: row_count
          table: users
          column: email
`
	if _, err := UnmarshalYAML([]byte(doc)); err == nil {
		t.Fatal("expected error for unknown validation type")
	}
}

func TestUnmarshalRejectsUnknownDialect(t *testing.T) {
	doc := `
migration:
  name: bad
  database: oracle
  phases: []
`
	if _, err := UnmarshalYAML([]byte(doc)); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}
