// Package backup records pre-migration safety snapshots. The manager
// writes a manifest per snapshot; actual data capture belongs to the
// host's backup tooling and is referenced by ID only.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the manifest recorded for one safety snapshot.
type Snapshot struct {
	ID        string    `json:"id"`
	Migration string    `json:"migration"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// Manager writes snapshot manifests under a directory.
type Manager struct {
	dir string
}

// NewManager creates a manager rooted at dir; the directory is created
// on first use.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// CreateBackup records a snapshot manifest for the named migration and
// returns its identifier.
func (m *Manager) CreateBackup(_ context.Context, descriptor string) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	snap := Snapshot{
		ID:        uuid.NewString(),
		Migration: descriptor,
		Timestamp: time.Now().UTC(),
		Status:    "created",
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot manifest: %w", err)
	}

	path := filepath.Join(m.dir, snap.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot manifest: %w", err)
	}

	return snap.ID, nil
}

// Load reads a snapshot manifest by ID.
func (m *Manager) Load(id string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, id+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot manifest: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot manifest: %w", err)
	}
	return &snap, nil
}
