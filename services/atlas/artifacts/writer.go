// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package artifacts persists enrichment outputs: JSON files in the
// knowledge directory and per-iteration snapshots in an embedded
// BadgerDB store.
//
// # Description
//
// Artifact files are written atomically: the payload is serialized to a
// temporary file in the target directory and renamed into place, so a
// crashed run never leaves a half-written artifact behind.
// Serialization failures are always surfaced to the caller.
//
// # Thread Safety
//
// A Writer is stateless and safe for concurrent use; concurrent writes
// to the same logical name last-writer-wins at the rename.
package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Writer persists named JSON artifacts into a directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at the given directory. The
// directory is created on first write, not here.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, ErrInvalidInput
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the artifact directory.
func (w *Writer) Dir() string { return w.dir }

// Write serializes the payload and atomically persists it as
// "<name>.json" in the artifact directory.
//
// # Inputs
//
//   - ctx: Context, checked before any I/O.
//   - name: Logical artifact name; path separators are rejected.
//   - payload: Any JSON-serializable value.
//
// # Outputs
//
//   - error: ErrInvalidInput for a bad name, ErrSerialize (wrapped) for
//     an unserializable payload, or the underlying I/O error.
func (w *Writer) Write(ctx context.Context, name string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: artifact name %q", ErrInvalidInput, name)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSerialize, name, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return fmt.Errorf("create artifact directory %s: %w", w.dir, err)
	}

	final := filepath.Join(w.dir, name+".json")
	tmp, err := os.CreateTemp(w.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return fmt.Errorf("publish artifact %s: %w", name, err)
	}

	slog.Debug("artifact written",
		slog.String("artifact", name),
		slog.String("path", final),
		slog.Int("bytes", len(data)),
	)
	return nil
}
