// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal progress feedback for long-running
// enrichment runs.
//
// # Thread Safety
//
// Spinner is safe for concurrent use.
package ux

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const frameInterval = 80 * time.Millisecond

// Spinner animates a progress indicator on a terminal. On a
// non-terminal writer it degrades to printing each message once, so
// piped output stays clean.
type Spinner struct {
	out      io.Writer
	animated bool

	mu      sync.Mutex
	message string
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewSpinner creates a spinner writing to stderr.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		out:      os.Stderr,
		animated: isatty.IsTerminal(os.Stderr.Fd()),
		message:  message,
	}
}

// NewSpinnerTo creates a spinner for a specific writer. Animation is
// enabled only when animated is true; tests pass a buffer with false.
func NewSpinnerTo(out io.Writer, message string, animated bool) *Spinner {
	return &Spinner{out: out, animated: animated, message: message}
}

// Start begins the animation. Idempotent while running.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	if !s.animated {
		fmt.Fprintf(s.out, "%s\n", s.message)
		return
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.animate(s.stop, s.done)
}

func (s *Spinner) animate(stop, done chan struct{}) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-stop:
			fmt.Fprint(s.out, "\r\033[K")
			close(done)
			return
		case <-ticker.C:
			s.mu.Lock()
			message := s.message
			s.mu.Unlock()
			fmt.Fprintf(s.out, "\r%s %s", spinnerFrames[frame], message)
			frame = (frame + 1) % len(spinnerFrames)
		}
	}
}

// Update changes the message. On a non-terminal writer the new message
// is printed as its own line.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	if s.running && !s.animated {
		fmt.Fprintf(s.out, "%s\n", message)
	}
}

// Stop halts the animation and clears the line. Idempotent.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
