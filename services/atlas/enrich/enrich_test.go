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
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianAtlas/services/atlas/graph"
)

func intp(v int) *int { return &v }

func testNode(nt graph.NodeType, path, name string, line int, md *graph.Metadata) *graph.Node {
	return &graph.Node{
		ID:       graph.NodeID(nt, path, name, line),
		Type:     nt,
		Name:     name,
		Path:     path,
		Location: graph.Location{Line: line},
		Metadata: md,
	}
}

func buildGraph(t *testing.T, nodes []*graph.Node, edges []*graph.Edge) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, n := range nodes {
		require.NoError(t, g.AddNode(n))
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e))
	}
	_, err := g.Validate()
	require.NoError(t, err)
	require.NoError(t, g.Freeze())
	return g
}

func contains(src, dst *graph.Node) *graph.Edge {
	return &graph.Edge{Source: src.ID, Target: dst.ID, Type: graph.EdgeTypeContains}
}

func calls(src, dst *graph.Node) *graph.Edge {
	return &graph.Edge{Source: src.ID, Target: dst.ID, Type: graph.EdgeTypeCalls}
}

func imports(src, dst *graph.Node) *graph.Edge {
	return &graph.Edge{Source: src.ID, Target: dst.ID, Type: graph.EdgeTypeImports}
}

// runLayers executes the given passes in order over a fresh store.
func runLayers(t *testing.T, g *graph.Graph, history []*Snapshot, iteration int, passes ...Pass) *Store {
	t.Helper()
	store := NewStore(g.NodeIDs())
	for _, p := range passes {
		_, err := RunPass(context.Background(), p, g, store, history, iteration, 2)
		require.NoError(t, err)
	}
	return store
}

// runAll executes all three layer passes for one iteration.
func runAll(t *testing.T, g *graph.Graph, history []*Snapshot, iteration int) *Store {
	t.Helper()
	return runLayers(t, g, history, iteration,
		NewStructuralPass(g), NewSemanticPass(g), NewDomainPass(g))
}

// shopFixture is the shared e-commerce test graph:
//
//	models/order.py       class Order (fields, __init__, validate_total,
//	                      calculate_total)
//	models/customer.py    class Customer (fields, __init__, get_orders
//	                      returning a collection of Order)
//	services/checkout.py  checkout_workflow -> process_payment, imports
//	                      models/order.py
type shopFixture struct {
	g *graph.Graph

	orderFile, customerFile, checkoutFile         *graph.Node
	order, customer                               *graph.Node
	orderInit, validateTotal, calculateTotal      *graph.Node
	customerInit, getOrders                       *graph.Node
	checkoutWorkflow, processPayment              *graph.Node
}

func newShopFixture(t *testing.T) *shopFixture {
	t.Helper()
	f := &shopFixture{}

	f.orderFile = testNode(graph.NodeTypeFile, "models/order.py", "order.py", 0, &graph.Metadata{
		Language: "python",
		Imports:  []string{"datetime"},
		EndLine:  intp(120),
	})
	f.order = testNode(graph.NodeTypeClass, "models/order.py", "Order", 10, &graph.Metadata{
		EndLine: intp(60),
		Fields: []graph.TypeRef{
			{Name: "id", Type: "str"},
			{Name: "items", Type: "OrderItem", Collection: true},
			{Name: "total", Type: "Decimal"},
		},
	})
	f.orderInit = testNode(graph.NodeTypeMethod, "models/order.py", "__init__", 11, &graph.Metadata{
		EndLine: intp(15),
		Params:  []graph.TypeRef{{Name: "id", Type: "str"}},
	})
	f.validateTotal = testNode(graph.NodeTypeMethod, "models/order.py", "validate_total", 20, &graph.Metadata{
		EndLine:    intp(25),
		MaxNesting: intp(2),
		Conditions: []graph.Condition{
			{Subject: "total", Operator: ">=", Value: "0", Line: 21},
		},
	})
	f.calculateTotal = testNode(graph.NodeTypeMethod, "models/order.py", "calculate_total", 30, &graph.Metadata{
		EndLine: intp(40),
	})

	f.customerFile = testNode(graph.NodeTypeFile, "models/customer.py", "customer.py", 0, &graph.Metadata{
		Language: "python",
		EndLine:  intp(80),
	})
	f.customer = testNode(graph.NodeTypeClass, "models/customer.py", "Customer", 5, &graph.Metadata{
		EndLine: intp(40),
		Fields: []graph.TypeRef{
			{Name: "id", Type: "str"},
			{Name: "name", Type: "str"},
		},
	})
	f.customerInit = testNode(graph.NodeTypeMethod, "models/customer.py", "__init__", 6, &graph.Metadata{
		EndLine: intp(10),
	})
	f.getOrders = testNode(graph.NodeTypeMethod, "models/customer.py", "get_orders", 15, &graph.Metadata{
		EndLine: intp(20),
		Returns: []graph.TypeRef{{Type: "Order", Collection: true}},
	})

	f.checkoutFile = testNode(graph.NodeTypeFile, "services/checkout.py", "checkout.py", 0, &graph.Metadata{
		Language: "python",
		Imports:  []string{"models.order", "stripe"},
		EndLine:  intp(90),
	})
	f.checkoutWorkflow = testNode(graph.NodeTypeFunction, "services/checkout.py", "checkout_workflow", 8, &graph.Metadata{
		EndLine: intp(25),
		Params:  []graph.TypeRef{{Name: "order", Type: "Order"}},
	})
	f.processPayment = testNode(graph.NodeTypeFunction, "services/checkout.py", "process_payment", 30, &graph.Metadata{
		EndLine: intp(55),
	})

	nodes := []*graph.Node{
		f.orderFile, f.order, f.orderInit, f.validateTotal, f.calculateTotal,
		f.customerFile, f.customer, f.customerInit, f.getOrders,
		f.checkoutFile, f.checkoutWorkflow, f.processPayment,
	}
	edges := []*graph.Edge{
		contains(f.orderFile, f.order),
		contains(f.order, f.orderInit),
		contains(f.order, f.validateTotal),
		contains(f.order, f.calculateTotal),
		contains(f.customerFile, f.customer),
		contains(f.customer, f.customerInit),
		contains(f.customer, f.getOrders),
		contains(f.checkoutFile, f.checkoutWorkflow),
		contains(f.checkoutFile, f.processPayment),
		calls(f.checkoutWorkflow, f.processPayment),
		calls(f.checkoutWorkflow, f.calculateTotal),
		imports(f.checkoutFile, f.orderFile),
	}

	f.g = buildGraph(t, nodes, edges)
	return f
}
