// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package artifacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// SnapshotConfig holds configuration for the snapshot store.
type SnapshotConfig struct {
	// Path is the directory for the store's files. Required unless
	// InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Useful
	// for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives the store's internal log output. Nil disables
	// internal logging.
	Logger *slog.Logger
}

// DefaultSnapshotConfig returns production defaults for the given path.
func DefaultSnapshotConfig(path string) SnapshotConfig {
	return SnapshotConfig{Path: path, SyncWrites: true}
}

// SnapshotStore persists per-layer iteration snapshots in BadgerDB,
// keyed "{run_id}/{iteration}/{layer}".
//
// # Thread Safety
//
// Safe for concurrent use. Close is idempotent.
type SnapshotStore struct {
	db *badger.DB

	mu     sync.Mutex
	closed bool
}

// badgerLogger adapts slog to BadgerDB's logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenSnapshotStore opens the store, creating the directory if needed.
func OpenSnapshotStore(cfg SnapshotConfig) (*SnapshotStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("%w: path required for persistent store", ErrInvalidInput)
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create snapshot directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &SnapshotStore{db: db}, nil
}

// snapshotKey builds the store key for one layer snapshot.
func snapshotKey(runID string, iteration int, layer string) []byte {
	return []byte(fmt.Sprintf("%s/%d/%s", runID, iteration, layer))
}

// PutSnapshot stores one layer's serialized enrichment state.
func (s *SnapshotStore) PutSnapshot(ctx context.Context, runID string, iteration int, layer string, payload []byte) error {
	if runID == "" || iteration < 1 || layer == "" {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(runID, iteration, layer), payload)
	})
}

// GetSnapshot retrieves one layer's serialized enrichment state.
//
// # Outputs
//
//   - []byte: The stored payload; a copy the caller owns.
//   - error: ErrNotFound when the key is absent.
func (s *SnapshotStore) GetSnapshot(ctx context.Context, runID string, iteration int, layer string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(runID, iteration, layer))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Iterations returns the iteration numbers stored for a run, ascending.
func (s *SnapshotStore) Iterations(ctx context.Context, runID string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	seen := map[int]bool{}
	prefix := []byte(runID + "/")
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var iteration int
			var layer string
			key := string(it.Item().Key())
			if _, err := fmt.Sscanf(key[len(prefix):], "%d/%s", &iteration, &layer); err == nil {
				seen[iteration] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	iterations := make([]int, 0, len(seen))
	for i := range seen {
		iterations = append(iterations, i)
	}
	// Insertion sort: iteration counts are tiny.
	for i := 1; i < len(iterations); i++ {
		for j := i; j > 0 && iterations[j] < iterations[j-1]; j-- {
			iterations[j], iterations[j-1] = iterations[j-1], iterations[j]
		}
	}
	return iterations, nil
}

// Close releases the store. Idempotent.
func (s *SnapshotStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SnapshotStore) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}
