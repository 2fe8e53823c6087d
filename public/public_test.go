// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package public

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/vaultfs/blockstore"
	"github.com/luxfi/vaultfs/xerrors"
)

func TestWriteReadRoundTrip(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	now := time.Now()

	root := NewDirectory(now)
	require.NoError(root.Write(ctx, store, []string{"text.txt"}, []byte("Hello, World!"), now))

	n, err := root.GetNode(ctx, store, []string{"text.txt"})
	require.NoError(err)
	require.NotNil(n.File)
	require.Equal("Hello, World!", string(n.File.Content))
}

func TestLsAfterMixedCreates(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	now := time.Now()

	root := NewDirectory(now)
	require.NoError(root.Mkdir(ctx, store, []string{"tamedun", "pictures"}, now))
	require.NoError(root.Write(ctx, store, []string{"tamedun", "pictures", "puppy.jpg"}, []byte("puppy"), now))
	require.NoError(root.Mkdir(ctx, store, []string{"tamedun", "pictures", "cats"}, now))

	n, err := root.GetNode(ctx, store, []string{"tamedun", "pictures"})
	require.NoError(err)
	require.NotNil(n.Dir)

	entries, err := n.Dir.Ls(ctx, store)
	require.NoError(err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	require.Equal([]string{"cats", "puppy.jpg"}, names)
}

func TestRmDoubleFails(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	now := time.Now()

	root := NewDirectory(now)
	require.NoError(root.Mkdir(ctx, store, []string{"tamedun", "pictures"}, now))

	_, err := root.Rm(ctx, store, []string{"tamedun", "pictures"})
	require.NoError(err)

	_, err = root.Rm(ctx, store, []string{"tamedun", "pictures"})
	require.ErrorIs(err, xerrors.ErrNotFound)
}

func TestPrepareMutRecordsPrevious(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	now := time.Now()

	d := NewDirectory(now)
	first, err := d.Store(ctx, store)
	require.NoError(err)

	require.NoError(d.Write(ctx, store, []string{"a.txt"}, []byte("v1"), now))
	require.True(d.Previous.Contains(first))
}

func TestMvMovesNode(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	now := time.Now()

	root := NewDirectory(now)
	require.NoError(root.Write(ctx, store, []string{"a.txt"}, []byte("hi"), now))
	require.NoError(root.Mv(ctx, store, []string{"a.txt"}, []string{"dir", "b.txt"}, now))

	_, err := root.GetNode(ctx, store, []string{"a.txt"})
	require.ErrorIs(err, xerrors.ErrNotFound)

	n, err := root.GetNode(ctx, store, []string{"dir", "b.txt"})
	require.NoError(err)
	require.Equal("hi", string(n.File.Content))
}
