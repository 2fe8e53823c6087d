// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rootfs

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/vaultfs/accumulator"
	"github.com/luxfi/vaultfs/blockstore"
	"github.com/luxfi/vaultfs/xerrors"
)

func testSetup(t *testing.T) accumulator.Setup {
	t.Helper()
	setup, err := accumulator.FromRSA2048(rand.Reader)
	require.NoError(t, err)
	return setup
}

func TestPublicExchangeDispatch(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	now := time.Now()
	root := New(testSetup(t), now)

	require.NoError(root.Mkdir(ctx, store, []string{"public", "docs"}, now, rand.Reader))
	require.NoError(root.Write(ctx, store, []string{"public", "docs", "a.txt"}, []byte("hello"), now, rand.Reader))
	got, err := root.Read(ctx, store, []string{"public", "docs", "a.txt"})
	require.NoError(err)
	require.Equal("hello", string(got))

	require.NoError(root.Write(ctx, store, []string{"exchange", "invite.txt"}, []byte("welcome"), now, rand.Reader))
	got, err = root.Read(ctx, store, []string{"exchange", "invite.txt"})
	require.NoError(err)
	require.Equal("welcome", string(got))

	entries, err := root.Ls(ctx, store, []string{"public", "docs"})
	require.NoError(err)
	require.Len(entries, 1)
	require.Equal("a.txt", entries[0].Name)
	require.False(entries[0].IsDir)
}

func TestPrivatePartitionRoundTrip(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	now := time.Now()
	root := New(testSetup(t), now)

	_, err := root.CreatePrivateRoot(ctx, store, "home", now, rand.Reader)
	require.NoError(err)

	require.NoError(root.Write(ctx, store, []string{"private", "home", "secret.txt"}, []byte("shh"), now, rand.Reader))
	got, err := root.Read(ctx, store, []string{"private", "home", "secret.txt"})
	require.NoError(err)
	require.Equal("shh", string(got))

	require.NoError(root.Mkdir(ctx, store, []string{"private", "home", "photos"}, now, rand.Reader))
	entries, err := root.Ls(ctx, store, []string{"private", "home"})
	require.NoError(err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	require.ElementsMatch([]string{"secret.txt", "photos"}, names)
}

func TestUnknownPartitionFails(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	now := time.Now()
	root := New(testSetup(t), now)

	_, err := root.Read(ctx, store, []string{"private", "nope", "a.txt"})
	require.ErrorIs(err, xerrors.ErrPartitionNotFound)
}

func TestCreatePrivateRootTwiceFails(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	now := time.Now()
	root := New(testSetup(t), now)

	_, err := root.CreatePrivateRoot(ctx, store, "home", now, rand.Reader)
	require.NoError(err)
	_, err = root.CreatePrivateRoot(ctx, store, "home", now, rand.Reader)
	require.ErrorIs(err, xerrors.ErrDirectoryAlreadyExists)
}

// TestStoreLoadRoundTrip covers the container-record binding (spec §4.9):
// a stored root reloads its public/exchange trees and forest, and a
// private partition remounts from its AccessKey after reload.
func TestStoreLoadRoundTrip(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	now := time.Now()
	root := New(testSetup(t), now)

	key, err := root.CreatePrivateRoot(ctx, store, "home", now, rand.Reader)
	require.NoError(err)
	require.NoError(root.Write(ctx, store, []string{"private", "home", "a.txt"}, []byte("one"), now, rand.Reader))
	require.NoError(root.Write(ctx, store, []string{"public", "b.txt"}, []byte("two"), now, rand.Reader))

	rootCID, err := root.Store(ctx, store)
	require.NoError(err)

	reloaded, err := Load(ctx, rootCID, store)
	require.NoError(err)

	got, err := reloaded.Read(ctx, store, []string{"public", "b.txt"})
	require.NoError(err)
	require.Equal("two", string(got))

	_, err = reloaded.Read(ctx, store, []string{"private", "home", "a.txt"})
	require.ErrorIs(err, xerrors.ErrPartitionNotFound)

	require.NoError(reloaded.LoadPrivateRoot(ctx, store, "home", key))
	got, err = reloaded.Read(ctx, store, []string{"private", "home", "a.txt"})
	require.NoError(err)
	require.Equal("one", string(got))
}

func TestWithDiscrepancyBudgetClampsNonPositive(t *testing.T) {
	require := require.New(t)
	now := time.Now()

	root := New(testSetup(t), now, WithDiscrepancyBudget(0))
	require.Equal(1, root.budget)

	root = New(testSetup(t), now, WithDiscrepancyBudget(-5))
	require.Equal(1, root.budget)

	root = New(testSetup(t), now, WithDiscrepancyBudget(64))
	require.Equal(64, root.budget)
}

func TestLoadPrivateRootRejectsIncompatibleSetup(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	now := time.Now()

	rootA := New(testSetup(t), now)
	key, err := rootA.CreatePrivateRoot(ctx, store, "home", now, rand.Reader)
	require.NoError(err)

	rootB := New(testSetup(t), now)
	err = rootB.LoadPrivateRoot(ctx, store, "home", key)
	require.ErrorIs(err, xerrors.ErrIncompatibleAccumulatorSetups)
}
