// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package index

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianAtlas/services/atlas/enrich"
	"github.com/AleutianAI/AleutianAtlas/services/atlas/graph"
)

func indexFixture(t *testing.T) (*graph.Graph, *enrich.Store) {
	t.Helper()

	order := &graph.Node{
		ID:   graph.NodeID(graph.NodeTypeClass, "models/order.py", "Order", 10),
		Type: graph.NodeTypeClass, Name: "Order", Path: "models/order.py",
		Location: graph.Location{Line: 10},
	}
	orderSvc := &graph.Node{
		ID:   graph.NodeID(graph.NodeTypeClass, "services/orders.py", "OrderService", 5),
		Type: graph.NodeTypeClass, Name: "OrderService", Path: "services/orders.py",
		Location: graph.Location{Line: 5},
	}
	broken := &graph.Node{
		ID:   graph.NodeID(graph.NodeTypeFunction, "services/orders.py", "submit", 40),
		Type: graph.NodeTypeFunction, Name: "submit", Path: "services/orders.py",
		Location: graph.Location{Line: 40},
	}

	g := graph.New()
	for _, n := range []*graph.Node{order, orderSvc, broken} {
		require.NoError(t, g.AddNode(n))
	}
	_, err := g.Validate()
	require.NoError(t, err)
	require.NoError(t, g.Freeze())

	store := enrich.NewStore(g.NodeIDs())
	store.Record(order.ID).Layer3 = &enrich.Layer3Result{
		Status:         enrich.StatusOK,
		DomainConcepts: []string{"Order"},
		Confirmations:  map[string]int{"concept:Order": 3},
	}
	store.Record(orderSvc.ID).Layer3 = &enrich.Layer3Result{
		Status:         enrich.StatusOK,
		DomainConcepts: []string{"Order"},
	}
	store.Record(broken.ID).Layer3 = &enrich.Layer3Result{
		Status: enrich.StatusError, Reason: "boom",
	}
	return g, store
}

func TestBuildRanksByConfidence(t *testing.T) {
	g, store := indexFixture(t)

	idx, err := Build(context.Background(), g, store)
	require.NoError(t, err)

	entries := idx.Lookup("Order")
	require.Len(t, entries, 2)

	// Three confirmations outrank the single-sighting default.
	assert.Equal(t, "Order", entries[0].Name)
	assert.Equal(t, 3, entries[0].Confidence)
	assert.Equal(t, "OrderService", entries[1].Name)
	assert.Equal(t, 1, entries[1].Confidence)

	assert.Equal(t, []string{"Order"}, idx.Concepts())
	assert.Nil(t, idx.Lookup("Payment"))
}

func TestBuildSkipsFailedDomainLayers(t *testing.T) {
	g, store := indexFixture(t)

	idx, err := Build(context.Background(), g, store)
	require.NoError(t, err)

	for _, entries := range idx.Entities {
		for _, e := range entries {
			assert.NotEqual(t, "submit", e.Name)
		}
	}
}

func TestBuildIsRebuildable(t *testing.T) {
	g, store := indexFixture(t)

	first, err := Build(context.Background(), g, store)
	require.NoError(t, err)
	second, err := Build(context.Background(), g, store)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestBuildPreconditions(t *testing.T) {
	g, store := indexFixture(t)

	_, err := Build(context.Background(), nil, store)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Build(context.Background(), g, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Build(context.Background(), graph.New(), store)
	assert.ErrorIs(t, err, ErrGraphNotReady)
}
