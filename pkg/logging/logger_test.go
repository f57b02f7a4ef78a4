// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestNewWritesToStderrWriter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: LevelInfo, Stderr: &buf})
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("hello", "run_id", "r1")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "run_id=r1")
	assert.Contains(t, out, "service=atlas")
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: LevelWarn, Stderr: &buf})
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
}

func TestNewJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{JSON: true, Stderr: &buf, Service: "atlas-test"})
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("structured", "count", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "structured", entry["msg"])
	assert.Equal(t, float64(3), entry["count"])
	assert.Equal(t, "atlas-test", entry["service"])
}

func TestNewFileLogging(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger, err := New(Config{LogDir: dir, Service: "atlas-test", Stderr: &buf})
	require.NoError(t, err)

	logger.Info("persisted")
	require.NoError(t, logger.Close())

	name := fmt.Sprintf("atlas-test_%s.log", time.Now().Format("2006-01-02"))
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)

	// The file stream is always JSON, the console stream stays text.
	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "persisted", entry["msg"])
	assert.Contains(t, buf.String(), "persisted")
}

func TestNewCreatesLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	logger, err := New(Config{LogDir: dir, Stderr: &bytes.Buffer{}})
	require.NoError(t, err)
	defer logger.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewFailsOnUnwritableDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(path, []byte("not a dir"), 0o600))

	_, err := New(Config{LogDir: filepath.Join(path, "logs")})
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	logger, err := New(Config{LogDir: t.TempDir(), Stderr: &bytes.Buffer{}})
	require.NoError(t, err)

	assert.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
}

func TestDefaultNeverNil(t *testing.T) {
	logger := Default()
	require.NotNil(t, logger)
	assert.NoError(t, logger.Close())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "logs"), expandHome("~/logs"))
	assert.Equal(t, home, expandHome("~"))
	assert.Equal(t, "/var/log/atlas", expandHome("/var/log/atlas"))
	assert.True(t, strings.HasPrefix(expandHome("~relative"), "~"))
}
