// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package hamt

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/vaultfs/blockstore"
)

// testKey is a minimal Keyer for exercising the trie without pulling in
// package accumulator/cid's heavier key types.
type testKey string

func (k testKey) Bytes() []byte { return []byte(k) }

func keys(n int) []testKey {
	out := make([]testKey, n)
	for i := range out {
		out[i] = testKey(fmt.Sprintf("key-%04d", i))
	}
	return out
}

func TestGetSetRemove(t *testing.T) {
	require := require.New(t)
	n := New[testKey, int]()

	_, ok := n.Get("missing")
	require.False(ok)

	n.Set("a", 1)
	n.Set("b", 2)
	v, ok := n.Get("a")
	require.True(ok)
	require.Equal(1, v)

	n.Set("a", 3)
	v, ok = n.Get("a")
	require.True(ok)
	require.Equal(3, v)

	v, ok = n.Remove("a")
	require.True(ok)
	require.Equal(3, v)
	_, ok = n.Get("a")
	require.False(ok)
}

func TestBucketSplitsAtOverflow(t *testing.T) {
	require := require.New(t)
	n := New[testKey, int]()
	ks := keys(BucketSize + 5)
	for i, k := range ks {
		n.Set(k, i)
	}
	for i, k := range ks {
		v, ok := n.Get(k)
		require.True(ok)
		require.Equal(i, v)
	}
	require.Equal(len(ks), n.CountValues())
}

// TestHistoryIndependence is invariant #2 (spec §8): any two orderings of
// the same final key/value set produce the same persisted CID.
func TestHistoryIndependence(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	ks := keys(40)

	build := func(order []int) *Node[testKey, int] {
		n := New[testKey, int]()
		for _, i := range order {
			n.Set(ks[i], i)
		}
		return n
	}

	forward := make([]int, len(ks))
	for i := range forward {
		forward[i] = i
	}
	shuffled := append([]int(nil), forward...)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	a := build(forward)
	b := build(shuffled)

	storeA := blockstore.NewMemStore()
	storeB := blockstore.NewMemStore()
	cidA, err := a.Cid(ctx, storeA)
	require.NoError(err)
	cidB, err := b.Cid(ctx, storeB)
	require.NoError(err)
	require.True(cidA.Equals(cidB))
}

// TestIdempotence is invariant #3: repeating an insert or removal does
// not change the resulting CID.
func TestIdempotence(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	once := New[testKey, int]()
	once.Set("x", 1)
	twice := New[testKey, int]()
	twice.Set("x", 1)
	twice.Set("x", 1)

	s1, s2 := blockstore.NewMemStore(), blockstore.NewMemStore()
	c1, err := once.Cid(ctx, s1)
	require.NoError(err)
	c2, err := twice.Cid(ctx, s2)
	require.NoError(err)
	require.True(c1.Equals(c2))

	base := New[testKey, int]()
	for i, k := range keys(10) {
		base.Set(k, i)
	}
	removedOnce := New[testKey, int]()
	for i, k := range keys(10) {
		removedOnce.Set(k, i)
	}
	removedOnce.Remove("key-0003")

	removedTwice := New[testKey, int]()
	for i, k := range keys(10) {
		removedTwice.Set(k, i)
	}
	removedTwice.Remove("key-0003")
	removedTwice.Remove("key-0003")

	s3, s4 := blockstore.NewMemStore(), blockstore.NewMemStore()
	c3, err := removedOnce.Cid(ctx, s3)
	require.NoError(err)
	c4, err := removedTwice.Cid(ctx, s4)
	require.NoError(err)
	require.True(c3.Equals(c4))
}

func TestStoreLoadRoundTrip(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()

	n := New[testKey, int]()
	ks := keys(50)
	for i, k := range ks {
		n.Set(k, i)
	}
	id, err := n.Cid(ctx, store)
	require.NoError(err)

	loaded, err := Load[testKey, int](ctx, id, store)
	require.NoError(err)
	for i, k := range ks {
		v, ok := loaded.Get(k)
		require.True(ok)
		require.Equal(i, v)
	}
}

func TestMergeUnion(t *testing.T) {
	require := require.New(t)
	a := New[testKey, int]()
	a.Set("shared", 1)
	a.Set("only-a", 2)

	b := New[testKey, int]()
	b.Set("shared", 100)
	b.Set("only-b", 3)

	combine := func(x, y int) int { return x + y }
	merged := Merge(a, b, combine)

	v, ok := merged.Get("shared")
	require.True(ok)
	require.Equal(101, v)
	v, ok = merged.Get("only-a")
	require.True(ok)
	require.Equal(2, v)
	v, ok = merged.Get("only-b")
	require.True(ok)
	require.Equal(3, v)
}

func TestDiff(t *testing.T) {
	require := require.New(t)
	a := New[testKey, int]()
	a.Set("same", 1)
	a.Set("removed", 2)
	a.Set("changed", 3)

	b := New[testKey, int]()
	b.Set("same", 1)
	b.Set("changed", 4)
	b.Set("added", 5)

	equal := func(x, y int) bool { return x == y }
	changes := Diff(a, b, equal)

	byKind := map[ChangeKind][]testKey{}
	for _, c := range changes {
		byKind[c.Kind] = append(byKind[c.Kind], c.Key)
	}
	require.ElementsMatch([]testKey{"removed"}, byKind[Remove])
	require.ElementsMatch([]testKey{"added"}, byKind[Add])
	require.ElementsMatch([]testKey{"changed"}, byKind[Modify])
}
