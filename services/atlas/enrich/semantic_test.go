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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianAtlas/services/atlas/graph"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"checkout_workflow", []string{"checkout", "workflow"}},
		{"OrderRepository", []string{"order", "repository"}},
		{"parseHTTPRequest", []string{"parse", "http", "request"}},
		{"_private_helper", []string{"private", "helper"}},
		{"MAX_RETRIES", []string{"max", "retries"}},
		{"x", []string{"x"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tokenize(tt.in), tt.in)
	}
}

func TestDetectConvention(t *testing.T) {
	tests := []struct {
		in   string
		want Convention
	}{
		{"checkout_workflow", ConventionSnake},
		{"placeOrder", ConventionCamel},
		{"OrderRepository", ConventionPascal},
		{"MAX_RETRIES", ConventionScreaming},
		{"checkout", ConventionFlat},
		{"_internal_name", ConventionSnake},
		{"Mixed_Case_Name", ConventionUnknown},
		{"", ConventionUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectConvention(tt.in), tt.in)
	}
}

func TestMethodRole(t *testing.T) {
	tests := []struct {
		in   string
		want MethodRole
	}{
		{"get_total", RoleGetter},
		{"is_valid", RoleGetter},
		{"set_name", RoleSetter},
		{"validate_total", RoleValidator},
		{"check_inventory", RoleValidator},
		{"calculate_tax", RoleCalculator},
		{"convertToDTO", RoleTransformer},
		{"create_order", RoleCreator},
		{"update_status", RoleMutator},
		{"process", ""},
		// Role verbs match whole first tokens, never raw prefixes.
		{"island_lookup", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, methodRole(tt.in), tt.in)
	}
}

// patternFixture builds one file holding a representative class per
// detection rule.
type patternFixture struct {
	g *graph.Graph

	order, customer, service, repository, factory, money, dto *graph.Node
}

func newPatternFixture(t *testing.T) *patternFixture {
	t.Helper()
	const path = "shop/models.py"
	f := &patternFixture{}

	file := testNode(graph.NodeTypeFile, path, "models.py", 0, &graph.Metadata{EndLine: intp(400)})

	f.order = testNode(graph.NodeTypeClass, path, "Order", 10, &graph.Metadata{
		EndLine: intp(30),
		Fields:  []graph.TypeRef{{Name: "id", Type: "str"}, {Name: "total", Type: "Decimal"}},
	})
	orderInit := testNode(graph.NodeTypeMethod, path, "__init__", 11, nil)

	f.customer = testNode(graph.NodeTypeClass, path, "Customer", 40, &graph.Metadata{
		EndLine: intp(55),
		Fields:  []graph.TypeRef{{Name: "id", Type: "str"}},
	})
	customerInit := testNode(graph.NodeTypeMethod, path, "__init__", 41, nil)

	f.service = testNode(graph.NodeTypeClass, path, "OrderService", 60, &graph.Metadata{
		EndLine: intp(90),
	})
	placeOrder := testNode(graph.NodeTypeMethod, path, "place_order", 61, nil)

	f.repository = testNode(graph.NodeTypeClass, path, "OrderRepository", 100, &graph.Metadata{
		EndLine: intp(140),
	})
	saveOrder := testNode(graph.NodeTypeMethod, path, "save_order", 101, nil)
	findOrder := testNode(graph.NodeTypeMethod, path, "find_order_by_id", 110, nil)
	deleteOrder := testNode(graph.NodeTypeMethod, path, "delete_order", 120, nil)

	f.factory = testNode(graph.NodeTypeClass, path, "OrderFactory", 150, &graph.Metadata{
		EndLine: intp(180),
	})
	factoryInit := testNode(graph.NodeTypeMethod, path, "__init__", 151, nil)
	createOrder := testNode(graph.NodeTypeMethod, path, "create_order", 160, &graph.Metadata{
		Returns: []graph.TypeRef{{Type: "Order"}},
	})

	f.money = testNode(graph.NodeTypeClass, path, "Money", 200, &graph.Metadata{
		EndLine: intp(230),
		Fields:  []graph.TypeRef{{Name: "amount", Type: "Decimal"}, {Name: "currency", Type: "str"}},
	})
	moneyInit := testNode(graph.NodeTypeMethod, path, "__init__", 201, nil)
	moneyEq := testNode(graph.NodeTypeMethod, path, "__eq__", 210, nil)

	f.dto = testNode(graph.NodeTypeClass, path, "OrderData", 240, &graph.Metadata{
		EndLine: intp(260),
		Fields:  []graph.TypeRef{{Name: "total", Type: "Decimal"}, {Name: "status", Type: "str"}},
	})
	dtoInit := testNode(graph.NodeTypeMethod, path, "__init__", 241, nil)

	nodes := []*graph.Node{
		file, f.order, orderInit, f.customer, customerInit,
		f.service, placeOrder,
		f.repository, saveOrder, findOrder, deleteOrder,
		f.factory, factoryInit, createOrder,
		f.money, moneyInit, moneyEq,
		f.dto, dtoInit,
	}
	edges := []*graph.Edge{
		contains(file, f.order), contains(f.order, orderInit),
		contains(file, f.customer), contains(f.customer, customerInit),
		contains(file, f.service), contains(f.service, placeOrder),
		contains(file, f.repository),
		contains(f.repository, saveOrder), contains(f.repository, findOrder), contains(f.repository, deleteOrder),
		contains(file, f.factory), contains(f.factory, factoryInit), contains(f.factory, createOrder),
		contains(file, f.money), contains(f.money, moneyInit), contains(f.money, moneyEq),
		contains(file, f.dto), contains(f.dto, dtoInit),
		calls(placeOrder, f.order),
		calls(placeOrder, f.customer),
	}

	f.g = buildGraph(t, nodes, edges)
	return f
}

func TestDetectPatterns(t *testing.T) {
	f := newPatternFixture(t)
	store := runLayers(t, f.g, nil, 1, NewStructuralPass(f.g), NewSemanticPass(f.g))

	patterns := func(n *graph.Node) []Pattern {
		r := store.Record(n.ID)
		require.NotNil(t, r)
		require.NotNil(t, r.Layer2)
		require.Equal(t, StatusOK, r.Layer2.Status)
		return r.Layer2.Patterns
	}

	assert.Contains(t, patterns(f.order), PatternEntity)
	assert.Contains(t, patterns(f.service), PatternService)
	assert.Equal(t, []Pattern{PatternRepository}, patterns(f.repository))
	assert.Equal(t, []Pattern{PatternFactory}, patterns(f.factory))
	assert.Contains(t, patterns(f.money), PatternValueObject)
	assert.Contains(t, patterns(f.dto), PatternDTO)

	// Fields plus constructor co-occur with DTO shape; identity fields
	// keep Order out of ValueObject.
	assert.NotContains(t, patterns(f.order), PatternValueObject)
	assert.NotContains(t, patterns(f.service), PatternEntity)
}

func TestDetectPatternsOnlyForClasses(t *testing.T) {
	f := newShopFixture(t)
	store := runLayers(t, f.g, nil, 1, NewStructuralPass(f.g), NewSemanticPass(f.g))

	assert.Nil(t, store.Record(f.checkoutWorkflow.ID).Layer2.Patterns)
	assert.Nil(t, store.Record(f.orderFile.ID).Layer2.Patterns)
}

func TestAnalyzeNamingAndRoles(t *testing.T) {
	f := newShopFixture(t)
	store := runLayers(t, f.g, nil, 1, NewStructuralPass(f.g), NewSemanticPass(f.g))

	naming := store.Record(f.checkoutWorkflow.ID).Layer2.Naming
	require.NotNil(t, naming)
	assert.Equal(t, []string{"checkout", "workflow"}, naming.Terms)
	assert.Equal(t, ConventionSnake, naming.Convention)

	// A class aggregates the roles of its methods.
	orderRoles := store.Record(f.order.ID).Layer2.MethodRoles
	assert.Equal(t, []MethodRole{RoleCalculator, RoleValidator}, orderRoles)

	// A method reports its own role.
	assert.Equal(t, []MethodRole{RoleGetter}, store.Record(f.getOrders.ID).Layer2.MethodRoles)
}

func TestSiblingConventionViolation(t *testing.T) {
	const path = "svc/report.py"
	file := testNode(graph.NodeTypeFile, path, "report.py", 0, &graph.Metadata{EndLine: intp(60)})
	a := testNode(graph.NodeTypeFunction, path, "get_total", 5, nil)
	b := testNode(graph.NodeTypeFunction, path, "compute_price", 15, nil)
	c := testNode(graph.NodeTypeFunction, path, "GetDiscount", 25, nil)
	g := buildGraph(t,
		[]*graph.Node{file, a, b, c},
		[]*graph.Edge{contains(file, a), contains(file, b), contains(file, c)},
	)

	store := runLayers(t, g, nil, 1, NewStructuralPass(g), NewSemanticPass(g))

	assert.False(t, store.Record(a.ID).Layer2.Naming.ConventionViolation)
	assert.False(t, store.Record(b.ID).Layer2.Naming.ConventionViolation)
	assert.True(t, store.Record(c.ID).Layer2.Naming.ConventionViolation)
}

func TestAPISurface(t *testing.T) {
	tests := []struct {
		name     string
		metadata *graph.Metadata
		want     APISurface
	}{
		{"place_order", nil, SurfacePublic},
		{"_recalculate", nil, SurfacePrivate},
		{"place_order", &graph.Metadata{Visibility: "protected"}, SurfaceProtected},
		{"_helper", &graph.Metadata{Visibility: "public"}, SurfacePublic},
	}
	for _, tt := range tests {
		n := testNode(graph.NodeTypeMethod, "a.py", tt.name, 1, tt.metadata)
		assert.Equal(t, tt.want, apiSurface(n), tt.name)
	}
}

func TestSingularize(t *testing.T) {
	tests := map[string]string{
		"orders":    "order",
		"companies": "company",
		"address":   "address",
		"bus":       "bus",
		"order":     "order",
	}
	for in, want := range tests {
		assert.Equal(t, want, singularize(in), in)
	}
}
