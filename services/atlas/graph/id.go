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

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// nodeIDLen is the length of a node ID in hex characters.
const nodeIDLen = 16

// NodeID derives the stable identifier for a code element.
//
// # Description
//
// The ID is a pure function of (type, path, qualified name, line):
// sha256 over "type:path:name:line", truncated to 16 hex characters.
// Reruns on unchanged source yield identical IDs, which is what makes
// incremental re-enrichment possible.
//
// # Inputs
//
//   - nodeType: The element kind (file, class, function, method).
//   - path: File path relative to the project root.
//   - name: Qualified declaration name (file basename for files).
//   - line: Declaration start line (0 for file nodes).
//
// # Outputs
//
//   - string: 16 hex characters, stable across runs.
func NodeID(nodeType NodeType, path, name string, line int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s:%d", nodeType, path, name, line)))
	return hex.EncodeToString(sum[:])[:nodeIDLen]
}
