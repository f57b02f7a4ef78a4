// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import "errors"

// Sentinel errors for pipeline operations.
var (
	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrGraphNotReady indicates the base graph was not frozen before
	// the engine was constructed.
	ErrGraphNotReady = errors.New("graph not frozen")

	// ErrAlreadyRunning indicates Run was called on an engine whose run
	// is still in progress. Engines are single-run.
	ErrAlreadyRunning = errors.New("run already in progress")

	// ErrRunFinished indicates Run was called on an engine that already
	// completed a run.
	ErrRunFinished = errors.New("run already finished")
)
