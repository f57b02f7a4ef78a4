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

func layer3(t *testing.T, store *Store, id string) *Layer3Result {
	t.Helper()
	r := store.Record(id)
	require.NotNil(t, r)
	require.NotNil(t, r.Layer3)
	require.Equal(t, StatusOK, r.Layer3.Status)
	return r.Layer3
}

func TestDomainConcepts(t *testing.T) {
	f := newShopFixture(t)
	store := runAll(t, f.g, nil, 1)

	assert.Equal(t, []string{"Order"}, layer3(t, store, f.order.ID).DomainConcepts)
	assert.Equal(t, []string{"Customer"}, layer3(t, store, f.customer.ID).DomainConcepts)
	assert.Equal(t, []string{"Payment"}, layer3(t, store, f.processPayment.ID).DomainConcepts)

	// Plural name tokens singularize into the concept.
	assert.Equal(t, []string{"Order"}, layer3(t, store, f.getOrders.ID).DomainConcepts)
}

func TestBusinessRulesFromValidatorConditionals(t *testing.T) {
	f := newShopFixture(t)
	store := runAll(t, f.g, nil, 1)

	want := []BusinessRule{{
		Description: "requires total >= 0",
		Location:    "models/order.py:21",
	}}

	// The method owns its rule; the class aggregates its methods'.
	assert.Equal(t, want, layer3(t, store, f.validateTotal.ID).BusinessRules)
	assert.Equal(t, want, layer3(t, store, f.order.ID).BusinessRules)

	// Non-validator methods contribute nothing even with conditionals.
	assert.Empty(t, layer3(t, store, f.getOrders.ID).BusinessRules)
}

func TestBusinessRulesSkipAmbiguousConditionals(t *testing.T) {
	f := newShopFixture(t)

	// A conditional with no extractable comparison value is ambiguous
	// and must be skipped, not guessed at.
	f.validateTotal.Metadata.Conditions = append(f.validateTotal.Metadata.Conditions,
		graph.Condition{Subject: "total", Operator: "", Value: "", Line: 23})

	store := runAll(t, f.g, nil, 1)
	rules := layer3(t, store, f.validateTotal.ID).BusinessRules
	assert.Len(t, rules, 1)
}

func TestWorkflowParticipation(t *testing.T) {
	f := newShopFixture(t)
	store := runAll(t, f.g, nil, 1)

	// Own-name token "checkout" plus the callee-derived Payment concept.
	assert.Equal(t, []string{"checkout", "payment"},
		layer3(t, store, f.checkoutWorkflow.ID).WorkflowParticipation)

	assert.Equal(t, []string{"payment"},
		layer3(t, store, f.processPayment.ID).WorkflowParticipation)

	assert.Empty(t, layer3(t, store, f.order.ID).WorkflowParticipation)
}

func TestEntityRelationships(t *testing.T) {
	f := newShopFixture(t)
	store := runAll(t, f.g, nil, 1)

	// Collection-typed return of an entity: HAS_MANY.
	assert.Equal(t, []EntityRelationship{{Type: RelHasMany, TargetEntity: "Order"}},
		layer3(t, store, f.customer.ID).EntityRelationships)

	// Singular parameter reference: HAS_ONE. The call into Order's
	// method stays subsumed by the ownership relationship.
	assert.Equal(t, []EntityRelationship{{Type: RelHasOne, TargetEntity: "Order"}},
		layer3(t, store, f.checkoutWorkflow.ID).EntityRelationships)

	// Self references never count.
	assert.Empty(t, layer3(t, store, f.order.ID).EntityRelationships)
}

func TestConfirmationsAccumulateAcrossIterations(t *testing.T) {
	f := newShopFixture(t)

	first := runAll(t, f.g, nil, 1)
	history := []*Snapshot{first.Snapshot(1)}
	second := runAll(t, f.g, history, 2)

	got := layer3(t, second, f.customer.ID).Confirmations
	require.NotNil(t, got)
	assert.Equal(t, 2, got["concept:Customer"])
	assert.Equal(t, 2, got["rel:HAS_MANY:Order"])

	// First sighting of any fact stays at one.
	firstSeen := layer3(t, first, f.customer.ID).Confirmations
	assert.Equal(t, 1, firstSeen["concept:Customer"])
}

func TestConfirmationsIgnoreFailedHistory(t *testing.T) {
	f := newShopFixture(t)

	first := runAll(t, f.g, nil, 1)
	snap := first.Snapshot(1)
	snap.Records[f.customer.ID].Layer3 = &Layer3Result{Status: StatusError, Reason: "boom"}

	second := runAll(t, f.g, []*Snapshot{snap}, 2)
	got := layer3(t, second, f.customer.ID).Confirmations
	assert.Equal(t, 1, got["concept:Customer"])
}
