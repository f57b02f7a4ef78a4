// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import "errors"

// Sentinel errors for the graph package.
var (
	// ErrInvalidGraph indicates the input document is structurally
	// malformed: unparseable JSON, missing required node fields, or
	// duplicate node IDs. Fatal - the run must not start.
	ErrInvalidGraph = errors.New("invalid graph")

	// ErrGraphFrozen indicates a mutation was attempted after Freeze().
	ErrGraphFrozen = errors.New("graph is frozen")

	// ErrGraphNotFrozen indicates a query requires a frozen graph.
	ErrGraphNotFrozen = errors.New("graph not frozen")

	// ErrTooManyNodes indicates the node cap was exceeded.
	ErrTooManyNodes = errors.New("too many nodes")

	// ErrTooManyEdges indicates the edge cap was exceeded.
	ErrTooManyEdges = errors.New("too many edges")
)
