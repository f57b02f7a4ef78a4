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

// Classification vocabularies for the structural pass.
//
// The original design left the literal vocabulary unspecified; these
// lists are the fixed, documented choice. Keep them sorted and lowercase:
// tokens are lowercased before lookup, and the lists double as the audit
// record of what the classifier reacts to.

// domainTerms are entity-like nouns that bias a name toward domain code.
var domainTerms = map[string]bool{
	"account":      true,
	"address":      true,
	"appointment":  true,
	"balance":      true,
	"basket":       true,
	"booking":      true,
	"cart":         true,
	"catalog":      true,
	"claim":        true,
	"customer":     true,
	"discount":     true,
	"inventory":    true,
	"invoice":      true,
	"loan":         true,
	"order":        true,
	"patient":      true,
	"payment":      true,
	"policy":       true,
	"price":        true,
	"product":      true,
	"refund":       true,
	"shipment":     true,
	"subscription": true,
	"ticket":       true,
	"transaction":  true,
	"user":         true,
}

// infraTerms are technical-plumbing tokens that bias a name toward
// infrastructure code.
var infraTerms = map[string]bool{
	"adapter":    true,
	"buffer":     true,
	"cache":      true,
	"client":     true,
	"config":     true,
	"conn":       true,
	"connection": true,
	"db":         true,
	"driver":     true,
	"handler":    true,
	"helper":     true,
	"http":       true,
	"log":        true,
	"logger":     true,
	"middleware": true,
	"parser":     true,
	"pool":       true,
	"queue":      true,
	"router":     true,
	"serializer": true,
	"socket":     true,
	"util":       true,
	"utils":      true,
	"wrapper":    true,
}

// platformImports are standard/platform-library import names across the
// languages the graph generator emits. Platform imports count toward a
// file's import total but are neutral for classification; this list only
// needs to cover the common cases well.
var platformImports = map[string]bool{
	// Python standard library.
	"abc": true, "asyncio": true, "collections": true, "copy": true,
	"csv": true, "dataclasses": true, "datetime": true, "enum": true,
	"functools": true, "hashlib": true, "inspect": true, "io": true,
	"itertools": true, "json": true, "logging": true, "math": true,
	"os": true, "pathlib": true, "random": true, "re": true,
	"socket": true, "sqlite3": true, "string": true, "struct": true,
	"subprocess": true, "sys": true, "threading": true, "time": true,
	"typing": true, "unittest": true, "urllib": true, "uuid": true,

	// Node/browser platform modules.
	"assert": true, "buffer": true, "crypto": true, "events": true,
	"fs": true, "http": true, "https": true, "net": true, "path": true,
	"stream": true, "url": true, "util": true, "zlib": true,
}

// workflowVocabulary maps each fixed workflow name to its keyword set.
// A node participates in a workflow when its own name tokens or its
// callees' domain concepts hit the keyword set.
var workflowVocabulary = map[string][]string{
	"authentication": {"auth", "authenticate", "credential", "login", "logout", "password", "session", "token"},
	"checkout":       {"basket", "cart", "checkout"},
	"payment":        {"billing", "charge", "invoice", "pay", "payment"},
	"refund":         {"chargeback", "refund", "reimburse"},
	"registration":   {"enroll", "onboard", "register", "signup"},
	"shipping":       {"delivery", "dispatch", "fulfillment", "ship", "shipment", "shipping"},
}

// workflowNames returns the vocabulary's workflow names in sorted order.
// Kept as an explicit slice so tagging output order never depends on map
// iteration.
var workflowNames = []string{
	"authentication",
	"checkout",
	"payment",
	"refund",
	"registration",
	"shipping",
}

// rolePrefixes is the verb-prefix ontology for method role
// classification, in evaluation order. Longer prefixes are listed before
// their own prefixes ("validate" before nothing shadows it, but "is"
// must not shadow "islower"-style names, so matching is on the first
// name token, not a raw prefix).
var rolePrefixes = []struct {
	verb string
	role MethodRole
}{
	{"get", RoleGetter},
	{"is", RoleGetter},
	{"has", RoleGetter},
	{"set", RoleSetter},
	{"validate", RoleValidator},
	{"check", RoleValidator},
	{"calculate", RoleCalculator},
	{"compute", RoleCalculator},
	{"transform", RoleTransformer},
	{"convert", RoleTransformer},
	{"map", RoleTransformer},
	{"create", RoleCreator},
	{"build", RoleCreator},
	{"make", RoleCreator},
	{"new", RoleCreator},
	{"update", RoleMutator},
	{"apply", RoleMutator},
}

// crudVerbs are the first-token verbs that make a method CRUD-shaped for
// Repository detection.
var crudVerbs = map[string]bool{
	"add":    true,
	"delete": true,
	"fetch":  true,
	"find":   true,
	"get":    true,
	"list":   true,
	"load":   true,
	"remove": true,
	"save":   true,
	"store":  true,
	"update": true,
}

// roleIndicatorTokens are name tokens that announce an architectural
// role. Reported in layer-2 naming analysis.
var roleIndicatorTokens = map[string]bool{
	"adapter":    true,
	"builder":    true,
	"client":     true,
	"controller": true,
	"dto":        true,
	"factory":    true,
	"gateway":    true,
	"handler":    true,
	"manager":    true,
	"provider":   true,
	"repository": true,
	"service":    true,
	"validator":  true,
}

// identityFieldNames disqualify a class from ValueObject detection.
var identityFieldNames = map[string]bool{
	"id":   true,
	"guid": true,
	"key":  true,
	"pk":   true,
	"uid":  true,
	"uuid": true,
}

// equalityMethodNames signal equality semantics for ValueObject detection.
var equalityMethodNames = map[string]bool{
	"__eq__": true,
	"equal":  true,
	"equals": true,
	"eq":     true,
}

// isConstructorName reports whether a method name is a constructor for
// the given class.
func isConstructorName(name, className string) bool {
	switch name {
	case "__init__", "__new__", "constructor", className:
		return true
	}
	return len(name) > 3 && name[:3] == "New" && name[3:] == className
}
