// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accumulator

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSetup(t *testing.T) Setup {
	t.Helper()
	setup, err := FromRSA2048(rand.Reader)
	require.NoError(t, err)
	return setup
}

func TestSegmentFromSeedIsDeterministic(t *testing.T) {
	require := require.New(t)
	a, err := SegmentFromSeed([]byte("docs"))
	require.NoError(err)
	b, err := SegmentFromSeed([]byte("docs"))
	require.NoError(err)
	c, err := SegmentFromSeed([]byte("pics"))
	require.NoError(err)

	require.True(a.Equal(b))
	require.False(a.Equal(c))
}

func TestAddChangesAccumulatorState(t *testing.T) {
	require := require.New(t)
	setup := testSetup(t)
	acc := Empty(setup)
	before := acc.Label()

	seg, err := NewSegment(rand.Reader)
	require.NoError(err)
	acc.Add([]Segment{seg}, setup)

	require.NotEqual(before, acc.Label())
}

func TestSingleProofVerifies(t *testing.T) {
	require := require.New(t)
	setup := testSetup(t)

	base := Empty(setup)
	seg, err := NewSegment(rand.Reader)
	require.NoError(err)

	commitment := base
	proof := commitment.Add([]Segment{seg}, setup)

	batched := NewBatchedProofPart()
	batched.Add(proof, setup)

	verify := NewBatchedProofVerification(setup)
	require.NoError(verify.Add(base, commitment, proof.Part))
	require.NoError(verify.Verify(batched))
}

func TestBatchedProofOfTwoNamesVerifies(t *testing.T) {
	require := require.New(t)
	setup := testSetup(t)

	rootSeg, err := NewSegment(rand.Reader)
	require.NoError(err)
	docsSeg, err := NewSegment(rand.Reader)
	require.NoError(err)
	picsSeg, err := NewSegment(rand.Reader)
	require.NoError(err)
	noteSeg, err := NewSegment(rand.Reader)
	require.NoError(err)
	imageSeg, err := NewSegment(rand.Reader)
	require.NoError(err)

	base := Empty(setup)

	nameNote := NewName(base, nil).WithSegmentsAdded([]Segment{rootSeg, docsSeg, noteSeg})
	nameImage := NewName(base, nil).WithSegmentsAdded([]Segment{rootSeg, picsSeg, imageSeg})

	accumNote, proofNote := nameNote.AsProvenAccumulator(setup)
	accumImage, proofImage := nameImage.AsProvenAccumulator(setup)

	batched := NewBatchedProofPart()
	batched.Add(proofNote, setup)
	batched.Add(proofImage, setup)

	verify := NewBatchedProofVerification(setup)
	require.NoError(verify.Add(base, accumNote, proofNote.Part))
	require.NoError(verify.Add(base, accumImage, proofImage.Part))
	require.NoError(verify.Verify(batched))
}

func TestBatchedProofMissingFromBatchFails(t *testing.T) {
	require := require.New(t)
	setup := testSetup(t)

	base := Empty(setup)
	segA, err := NewSegment(rand.Reader)
	require.NoError(err)
	segB, err := NewSegment(rand.Reader)
	require.NoError(err)

	accA := base
	proofA := accA.Add([]Segment{segA}, setup)
	accB := base
	proofB := accB.Add([]Segment{segB}, setup)

	batched := NewBatchedProofPart()
	batched.Add(proofA, setup)
	// Omit proofB from the batch, but still try to verify it.

	verify := NewBatchedProofVerification(setup)
	require.NoError(verify.Add(base, accB, proofB.Part))
	require.Error(verify.Verify(batched))
}

func TestNameParentAndUp(t *testing.T) {
	require := require.New(t)
	setup := testSetup(t)
	base := Empty(setup)

	seg1, _ := NewSegment(rand.Reader)
	seg2, _ := NewSegment(rand.Reader)
	name := NewName(base, nil).WithSegmentsAdded([]Segment{seg1, seg2})
	require.False(name.IsRoot())

	parent, ok := name.Parent()
	require.True(ok)
	require.Len(parent.segments, 1)

	root := EmptyName(setup)
	require.True(root.IsRoot())
	_, ok = root.Parent()
	require.False(ok)
}

func TestLabelRoundTrip(t *testing.T) {
	require := require.New(t)
	setup := testSetup(t)
	acc := Empty(setup)
	seg, _ := NewSegment(rand.Reader)
	acc.Add([]Segment{seg}, setup)

	label := acc.Label()
	parsed := ParseLabel(label)
	require.True(acc.Equal(parsed))
}
