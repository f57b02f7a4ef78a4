// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSpinnerNonTerminalPrintsOncePerMessage(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinnerTo(&buf, "loading graph", false)

	s.Start()
	s.Update("running passes")
	s.Stop()

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "loading graph"))
	assert.Equal(t, 1, strings.Count(out, "running passes"))
	assert.NotContains(t, out, "\r", "no control sequences on a pipe")
}

func TestSpinnerAnimatedClearsLineOnStop(t *testing.T) {
	var buf syncBuffer
	s := NewSpinnerTo(&buf, "working", true)

	s.Start()
	time.Sleep(3 * frameInterval)
	s.Stop()

	assert.Contains(t, buf.String(), "working")
	assert.True(t, strings.HasSuffix(buf.String(), "\r\033[K"))
}

func TestSpinnerStartStopIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinnerTo(&buf, "once", false)

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()

	assert.Equal(t, 1, strings.Count(buf.String(), "once"))
}

// syncBuffer guards a bytes.Buffer against the animation goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
