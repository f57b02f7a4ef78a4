// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package enrich

import (
	"strings"
	"unicode"
)

// tokenize splits an identifier into lowercase terms on case-convention
// boundaries: underscores, hyphens, dots, and lower-to-upper or
// acronym-to-word transitions. Order is preserved.
//
// Examples:
//
//	"checkout_workflow" -> [checkout workflow]
//	"OrderRepository"   -> [order repository]
//	"parseHTTPRequest"  -> [parse http request]
func tokenize(name string) []string {
	name = strings.TrimLeft(name, "_")
	if name == "" {
		return nil
	}

	var terms []string
	var current []rune
	runes := []rune(name)

	flush := func() {
		if len(current) > 0 {
			terms = append(terms, strings.ToLower(string(current)))
			current = current[:0]
		}
	}

	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			// Acronym boundary: "HTTPRequest" splits before "Request".
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			prevUpper := i > 0 && unicode.IsUpper(runes[i-1])
			if prevLower || (prevUpper && nextLower) {
				flush()
			}
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()

	return terms
}

// detectConvention determines the dominant case convention of an
// identifier. Leading underscores (privacy markers) are ignored.
func detectConvention(name string) Convention {
	name = strings.TrimLeft(name, "_")
	if name == "" {
		return ConventionUnknown
	}

	hasUnderscore := strings.ContainsRune(name, '_')
	hasUpper := strings.ContainsFunc(name, unicode.IsUpper)
	hasLower := strings.ContainsFunc(name, unicode.IsLower)
	first := []rune(name)[0]

	switch {
	case hasUpper && !hasLower:
		return ConventionScreaming
	case hasUnderscore && !hasUpper:
		return ConventionSnake
	case hasUnderscore:
		// Mixed underscores and case carry no single convention.
		return ConventionUnknown
	case unicode.IsUpper(first):
		return ConventionPascal
	case hasUpper:
		return ConventionCamel
	default:
		return ConventionFlat
	}
}

// roleIndicators returns the sorted role tokens present in the term
// sequence.
func roleIndicators(terms []string) []string {
	seen := map[string]bool{}
	for _, t := range terms {
		if roleIndicatorTokens[t] {
			seen[t] = true
		}
	}
	return sortedKeys(seen)
}

// methodRole classifies a method name by its first term against the
// verb-prefix ontology. Returns "" for unclassified names.
func methodRole(name string) MethodRole {
	terms := tokenize(name)
	if len(terms) == 0 {
		return ""
	}
	for _, rp := range rolePrefixes {
		if terms[0] == rp.verb {
			return rp.role
		}
	}
	return ""
}

// sortedKeys returns the map's keys in sorted order.
func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Insertion sort: these sets are tiny.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
