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

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	store, err := OpenSnapshotStore(SnapshotConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	payload := []byte(`{"records":{}}`)
	require.NoError(t, store.PutSnapshot(ctx, "run-1", 1, "l1-structural", payload))

	got, err := store.GetSnapshot(ctx, "run-1", 1, "l1-structural")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestGetSnapshotMissingKey(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetSnapshot(context.Background(), "run-1", 1, "l1-structural")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutSnapshotValidatesInputs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.PutSnapshot(ctx, "", 1, "l1-structural", nil), ErrInvalidInput)
	assert.ErrorIs(t, store.PutSnapshot(ctx, "run-1", 0, "l1-structural", nil), ErrInvalidInput)
	assert.ErrorIs(t, store.PutSnapshot(ctx, "run-1", 1, "", nil), ErrInvalidInput)
}

func TestIterationsListsRunOnly(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, layer := range []string{"l1-structural", "l2-semantic", "l3-domain"} {
		require.NoError(t, store.PutSnapshot(ctx, "run-1", 1, layer, []byte("{}")))
		require.NoError(t, store.PutSnapshot(ctx, "run-1", 2, layer, []byte("{}")))
	}
	require.NoError(t, store.PutSnapshot(ctx, "run-2", 7, "l1-structural", []byte("{}")))

	iterations, err := store.Iterations(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, iterations)

	iterations, err = store.Iterations(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, []int{7}, iterations)
}

func TestCloseIsIdempotent(t *testing.T) {
	store, err := OpenSnapshotStore(SnapshotConfig{InMemory: true})
	require.NoError(t, err)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.PutSnapshot(context.Background(), "run-1", 1, "l1-structural", nil),
		ErrStoreClosed)
}

func TestOpenPersistentStoreRequiresPath(t *testing.T) {
	_, err := OpenSnapshotStore(SnapshotConfig{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPersistentStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenSnapshotStore(DefaultSnapshotConfig(dir))
	require.NoError(t, err)
	require.NoError(t, store.PutSnapshot(ctx, "run-1", 1, "l3-domain", []byte(`{"a":1}`)))
	require.NoError(t, store.Close())

	reopened, err := OpenSnapshotStore(DefaultSnapshotConfig(dir))
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetSnapshot(ctx, "run-1", 1, "l3-domain")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), got)
}
