// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command atlas enriches a producer-generated code graph with layered
// structural, semantic, and domain knowledge.
//
// Usage:
//
//	atlas enrich                       # enrich .ai-gov/code-graph.json
//	atlas enrich --graph path.json     # enrich a specific graph
//	atlas validate                     # parse and validate without enriching
//	atlas watch                        # re-enrich whenever the graph changes
//	atlas version
//
// Artifacts land in the configured knowledge directory, by default
// .ai-gov/knowledge/.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
