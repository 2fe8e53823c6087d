// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ratchet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func seed(b byte) [32]byte {
	var s [32]byte
	for i := range s {
		s[i] = b
	}
	return s
}

func TestZeroIsDeterministic(t *testing.T) {
	require := require.New(t)
	a := Zero(seed(1))
	b := Zero(seed(1))
	require.True(a.Equal(b))

	c := Zero(seed(2))
	require.False(a.Equal(c))
}

func TestIncChangesKeyEveryStep(t *testing.T) {
	require := require.New(t)
	r := Zero(seed(7))
	key0 := r.DeriveKey()

	for i := 0; i < 512; i++ {
		r = r.Inc()
		key1 := r.DeriveKey()
		require.NotEqual(key0, key1)
		key0 = key1
	}
}

func TestIncBySmallRolloverAdvancesMedium(t *testing.T) {
	require := require.New(t)
	r := Zero(seed(3))
	before := r.IncBy(255)
	after := before.Inc()

	require.NotEqual(before.Medium, after.Medium)
	require.Equal(uint8(0), after.SmallCounter)
}

func TestIncByMediumRolloverAdvancesLarge(t *testing.T) {
	require := require.New(t)
	r := Zero(seed(4))
	before := r.IncBy(255*256 + 255)
	after := before.Inc()

	require.NotEqual(before.Large, after.Large)
}

func TestIncByIsEquivalentToRepeatedInc(t *testing.T) {
	require := require.New(t)
	r := Zero(seed(9))

	viaIncBy := r.IncBy(300)

	viaInc := r
	for i := 0; i < 300; i++ {
		viaInc = viaInc.Inc()
	}

	require.True(viaIncBy.Equal(viaInc))
}

func TestDeriveKeyIgnoresCounters(t *testing.T) {
	require := require.New(t)
	a := Zero(seed(5))
	b := a
	b.SmallCounter = 200
	b.MediumCounter = 100

	require.Equal(a.DeriveKey(), b.DeriveKey())
	require.True(a.Equal(b))
}
