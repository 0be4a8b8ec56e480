// Package storage provides the persistence backends behind the
// load/save snapshot contract.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bookkeep/backend/internal/domain/ledger"
	"go.uber.org/zap"
)

// Ensure JSONFileStorage implements ledger.Storage
var _ ledger.Storage = (*JSONFileStorage)(nil)

// JSONFileStorage persists ledger snapshots as a single JSON document.
// Saves write to a temp file in the same directory and rename it over
// the target, so a crash mid-write never leaves a truncated file.
type JSONFileStorage struct {
	path   string
	logger *zap.Logger
}

// NewJSONFileStorage creates a JSONFileStorage writing to path.
func NewJSONFileStorage(path string, logger *zap.Logger) *JSONFileStorage {
	return &JSONFileStorage{path: path, logger: logger}
}

// Load reads the snapshot from disk. A missing file is not an error,
// it yields an empty snapshot so a fresh deployment starts clean.
func (s *JSONFileStorage) Load(ctx context.Context) (ledger.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("no snapshot file found, starting empty", zap.String("path", s.path))
			return ledger.Snapshot{}, nil
		}
		return ledger.Snapshot{}, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}

	s.logger.Info("snapshot loaded",
		zap.String("path", s.path),
		zap.Int("invoices", len(snap.Invoices)),
		zap.Int("expenses", len(snap.Expenses)),
	)
	return snap, nil
}

// Save writes the snapshot to disk atomically.
func (s *JSONFileStorage) Save(ctx context.Context, snap ledger.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace snapshot %s: %w", s.path, err)
	}

	s.logger.Info("snapshot saved",
		zap.String("path", s.path),
		zap.Int("invoices", len(snap.Invoices)),
		zap.Int("expenses", len(snap.Expenses)),
	)
	return nil
}
