package locks

import (
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		sql  string
		want Mode
	}{
		{"CREATE INDEX idx ON users (email)", Share},
		{"CREATE INDEX CONCURRENTLY idx ON users (email)", ShareUpdateExclusive},
		{"CREATE UNIQUE INDEX idx ON users (email)", Share},
		{"ALTER TABLE users ADD COLUMN nickname text NULL", AccessExclusive},
		{"ALTER TABLE users DROP COLUMN email", AccessExclusive},
		{"ALTER TABLE orders VALIDATE CONSTRAINT fk_orders_user", ShareUpdateExclusive},
		{"DROP INDEX idx_users_email", AccessExclusive},
		{"TRUNCATE users", AccessExclusive},
		{"UPDATE users SET a = b", RowExclusive},
		{"INSERT INTO users VALUES (1)", RowExclusive},
		{"DELETE FROM users", RowExclusive},
		{"SELECT 1", AccessShare},
		{"  select 1", AccessShare},
		{"", AccessShare},
		{"VACUUM FULL users", AccessExclusive},
	}

	for _, tt := range tests {
		if got := Detect(tt.sql); got != tt.want {
			t.Errorf("Detect(%q) = %s, want %s", tt.sql, got, tt.want)
		}
	}
}

func TestModeBlocking(t *testing.T) {
	if !AccessExclusive.BlocksReads() || !AccessExclusive.BlocksWrites() {
		t.Error("ACCESS EXCLUSIVE must block reads and writes")
	}
	if !Share.BlocksWrites() {
		t.Error("SHARE must block writes")
	}
	if Share.BlocksReads() {
		t.Error("SHARE must not block reads")
	}
	if ShareUpdateExclusive.BlocksWrites() || ShareUpdateExclusive.BlocksReads() {
		t.Error("SHARE UPDATE EXCLUSIVE must allow reads and writes")
	}
}

func TestExplain(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{"CREATE INDEX idx ON users (email)", "blocking writes"},
		{"ALTER TABLE users ALTER COLUMN email SET NOT NULL", "SET NOT NULL"},
		{"ALTER TABLE users ADD CONSTRAINT uq UNIQUE (email)", "ADD CONSTRAINT"},
		{"UPDATE users SET a = b", "row locks"},
	}

	for _, tt := range tests {
		if got := Explain(tt.sql); !strings.Contains(got, tt.want) {
			t.Errorf("Explain(%q) = %q, want substring %q", tt.sql, got, tt.want)
		}
	}
}
