// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package private

import (
	"context"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/vaultfs/accumulator"
	"github.com/luxfi/vaultfs/blockstore"
	"github.com/luxfi/vaultfs/forest"
	"github.com/luxfi/vaultfs/xerrors"
)

func testSetup(t *testing.T) accumulator.Setup {
	t.Helper()
	setup, err := accumulator.FromRSA2048(rand.Reader)
	require.NoError(t, err)
	return setup
}

func newTestRoot(t *testing.T) (*Directory, *forest.Forest) {
	t.Helper()
	setup := testSetup(t)
	f := forest.New(setup)
	root, err := NewDirectory(f, accumulator.EmptyName(setup), time.Now(), rand.Reader)
	require.NoError(t, err)
	return root, f
}

// TestBasicPrivateReadWrite is spec §8 E1.
func TestBasicPrivateReadWrite(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	root, _ := newTestRoot(t)

	require.NoError(root.Write(ctx, store, []string{"text.txt"}, []byte("Hello, World!"), time.Now(), rand.Reader))

	got, err := root.Read(ctx, store, []string{"text.txt"}, false, 0)
	require.NoError(err)
	require.Equal("Hello, World!", string(got))
}

// TestLsAfterMixedCreates is spec §8 E2.
func TestLsAfterMixedCreates(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	root, _ := newTestRoot(t)
	now := time.Now()

	require.NoError(root.Mkdir(ctx, store, []string{"tamedun", "pictures"}, now, rand.Reader))
	require.NoError(root.Write(ctx, store, []string{"tamedun", "pictures", "puppy.jpg"}, []byte("puppy"), now, rand.Reader))
	require.NoError(root.Mkdir(ctx, store, []string{"tamedun", "pictures", "cats"}, now, rand.Reader))

	entries, err := root.LsPath(ctx, store, []string{"tamedun", "pictures"}, false, 0)
	require.NoError(err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	require.Equal([]string{"cats", "puppy.jpg"}, names)
}

// TestRmDoubleFails is spec §8 E3.
func TestRmDoubleFails(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	root, _ := newTestRoot(t)
	now := time.Now()

	require.NoError(root.Mkdir(ctx, store, []string{"tamedun", "pictures"}, now, rand.Reader))

	_, err := root.Rm(ctx, store, []string{"tamedun", "pictures"})
	require.NoError(err)

	_, err = root.Rm(ctx, store, []string{"tamedun", "pictures"})
	require.ErrorIs(err, xerrors.ErrNotFound)
}

// TestConcurrentWritesProduceMultivalue is spec §8 E4: two writers share
// one root header (as concurrent writers to the same logical node
// would, having both loaded it before either stored a new revision),
// branch into independent forests, and each write a different child.
// Merging the two forests must preserve both content CIDs as a
// size-2 multivalue at the label the shared header's revision accumulates
// to.
func TestConcurrentWritesProduceMultivalue(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	setup := testSetup(t)
	rootName := accumulator.EmptyName(setup)
	now := time.Now()

	inumber, err := accumulator.NewSegment(rand.Reader)
	require.NoError(err)
	var seed [32]byte
	_, err = io.ReadFull(rand.Reader, seed[:])
	require.NoError(err)
	sharedHeader := HeaderWithSeed(rootName, seed, inumber)

	forestA := forest.New(setup)
	forestB := forest.New(setup)

	dirOne := &Directory{Header: sharedHeader, Metadata: NewMetadata(now), Entries: map[string]*Link{}, forest: forestA}
	dirTwo := &Directory{Header: sharedHeader, Metadata: NewMetadata(now), Entries: map[string]*Link{}, forest: forestB}

	require.NoError(dirOne.Write(ctx, store, []string{"from-a.txt"}, []byte("a"), now, rand.Reader))
	require.NoError(dirTwo.Write(ctx, store, []string{"from-b.txt"}, []byte("b"), now, rand.Reader))

	refOne, err := dirOne.Store(ctx, store)
	require.NoError(err)
	refTwo, err := dirTwo.Store(ctx, store)
	require.NoError(err)
	require.Equal(refOne.RevisionNameHash, refTwo.RevisionNameHash)
	require.NotEqual(refOne.ContentCID, refTwo.ContentCID)

	merged, err := forest.Merge(forestA, forestB)
	require.NoError(err)

	set, ok := merged.GetEncryptedKey(forest.Key(refOne.RevisionNameHash))
	require.True(ok)
	require.Equal(2, set.Len())
	require.True(set.Contains(refOne.ContentCID))
	require.True(set.Contains(refTwo.ContentCID))
}

// TestHistoryStepReadsOldRevision is spec §8 E5.
func TestHistoryStepReadsOldRevision(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	root, f := newTestRoot(t)
	now := time.Now()

	require.NoError(root.Write(ctx, store, []string{"p.txt"}, []byte("Hi"), now, rand.Reader))
	oldNode, ok, err := root.LookupNode(ctx, store, "p.txt")
	require.NoError(err)
	require.True(ok)
	_, err = oldNode.Store(ctx, store)
	require.NoError(err)

	require.NoError(root.Write(ctx, store, []string{"p.txt"}, []byte("World"), now, rand.Reader))
	newNode, ok, err := root.LookupNode(ctx, store, "p.txt")
	require.NoError(err)
	require.True(ok)
	require.Equal("World", string(newNode.File.Content))
	_, err = newNode.Store(ctx, store)
	require.NoError(err)

	hist, err := NewNodeHistory(f, store, newNode, oldNode, DefaultDiscrepancyBudget)
	require.NoError(err)

	prev, ok, err := hist.GetPreviousNode(ctx)
	require.NoError(err)
	require.True(ok)
	require.NotNil(prev.File)
	content, err := prev.File.Read(ctx, store)
	require.NoError(err)
	require.Equal("Hi", string(content))

	_, ok, err = hist.GetPreviousNode(ctx)
	require.NoError(err)
	require.False(ok)
}

// TestWriteReadRoundTrip is invariant #9.
func TestWriteReadRoundTrip(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	root, _ := newTestRoot(t)

	require.NoError(root.Write(ctx, store, []string{"a", "b", "c.txt"}, []byte("payload"), time.Now(), rand.Reader))
	got, err := root.Read(ctx, store, []string{"a", "b", "c.txt"}, false, 0)
	require.NoError(err)
	require.Equal("payload", string(got))
}

// TestSearchLatestCorrectness is invariant #10.
func TestSearchLatestCorrectness(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	root, f := newTestRoot(t)
	now := time.Now()

	require.NoError(root.Write(ctx, store, []string{"p.txt"}, []byte("v1"), now, rand.Reader))
	n1, ok, err := root.LookupNode(ctx, store, "p.txt")
	require.NoError(err)
	require.True(ok)
	_, err = n1.Store(ctx, store)
	require.NoError(err)

	require.NoError(root.Write(ctx, store, []string{"p.txt"}, []byte("v2"), now, rand.Reader))
	n2, ok, err := root.LookupNode(ctx, store, "p.txt")
	require.NoError(err)
	require.True(ok)
	_, err = n2.Store(ctx, store)
	require.NoError(err)

	latest, err := SearchLatest(ctx, f, store, n1, DefaultDiscrepancyBudget)
	require.NoError(err)
	require.NotNil(latest.File)
	content, err := latest.File.Read(ctx, store)
	require.NoError(err)
	require.Equal("v2", string(content))
}

// TestKeyRotationOnMove is invariant #7: after basic_mv, the node's
// pre-move TemporalKey no longer matches the key protecting its
// post-move revision.
func TestKeyRotationOnMove(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := blockstore.NewMemStore()
	root, _ := newTestRoot(t)
	now := time.Now()

	require.NoError(root.Write(ctx, store, []string{"a.txt"}, []byte("hi"), now, rand.Reader))
	preMoveNode, ok, err := root.LookupNode(ctx, store, "a.txt")
	require.NoError(err)
	require.True(ok)
	preMoveRef, err := preMoveNode.Store(ctx, store)
	require.NoError(err)

	require.NoError(root.BasicMv(ctx, store, []string{"a.txt"}, []string{"dir", "b.txt"}, now, rand.Reader))

	_, ok, err = root.LookupNode(ctx, store, "a.txt")
	require.NoError(err)
	require.False(ok)

	postMoveNode, err := root.GetNode(ctx, store, []string{"dir", "b.txt"}, false, 0)
	require.NoError(err)
	require.NotNil(postMoveNode.File)
	postMoveRef, err := postMoveNode.Store(ctx, store)
	require.NoError(err)

	require.NotEqual(preMoveRef.TemporalKey, postMoveRef.TemporalKey)
	require.NotEqual(preMoveRef.RevisionNameHash, postMoveRef.RevisionNameHash)
}
