// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ratchet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/vaultfs/xerrors"
)

func TestPreviousIteratorYieldsNewestFirst(t *testing.T) {
	require := require.New(t)
	past := Zero(seed(11))
	current := past.IncBy(4)

	it, err := NewPreviousIterator(past, current, 16)
	require.NoError(err)

	var got []Ratchet
	for {
		r, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, r)
	}

	require.Len(got, 3)
	require.True(got[0].Equal(past.IncBy(3)))
	require.True(got[1].Equal(past.IncBy(2)))
	require.True(got[2].Equal(past.IncBy(1)))
}

func TestPreviousIteratorEqualStatesYieldNothing(t *testing.T) {
	require := require.New(t)
	r := Zero(seed(12))

	it, err := NewPreviousIterator(r, r, 16)
	require.NoError(err)

	_, ok := it.Next()
	require.False(ok)
}

func TestPreviousIteratorBudgetExceeded(t *testing.T) {
	require := require.New(t)
	past := Zero(seed(13))
	current := past.IncBy(20)

	_, err := NewPreviousIterator(past, current, 5)
	require.True(errors.Is(err, xerrors.ErrNoIntermediateRatchet))
}
