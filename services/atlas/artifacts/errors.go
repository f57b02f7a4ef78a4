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

import "errors"

// Sentinel errors for artifact operations.
var (
	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSerialize indicates the payload could not be serialized. This
	// is always surfaced, never silently swallowed.
	ErrSerialize = errors.New("serialize artifact")

	// ErrStoreClosed indicates an operation on a closed snapshot store.
	ErrStoreClosed = errors.New("snapshot store closed")

	// ErrNotFound indicates a missing snapshot key.
	ErrNotFound = errors.New("snapshot not found")
)
