// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOf(t *testing.T) {
	require := require.New(t)

	s1 := Of[int]()
	require.Equal(0, s1.Len())

	s2 := Of(1, 2, 3)
	require.Equal(3, s2.Len())
	require.True(s2.Contains(1))
	require.True(s2.Contains(2))
	require.True(s2.Contains(3))

	s3 := Of(1, 2, 2, 3, 3, 3)
	require.Equal(3, s3.Len())
}

func TestAddRemove(t *testing.T) {
	require := require.New(t)

	s := make(Set[string])
	s.Add("a", "b")
	require.Equal(2, s.Len())

	s.Remove("a")
	require.Equal(1, s.Len())
	require.False(s.Contains("a"))
	require.True(s.Contains("b"))
}

func TestUnion(t *testing.T) {
	require := require.New(t)

	a := Of(1, 2)
	b := Of(2, 3)
	u := a.Union(b)
	require.Equal(3, u.Len())
	require.True(u.Contains(1))
	require.True(u.Contains(2))
	require.True(u.Contains(3))

	// originals untouched
	require.Equal(2, a.Len())
	require.Equal(2, b.Len())
}

func TestIntersectionDifference(t *testing.T) {
	require := require.New(t)

	a := Of(1, 2, 3)
	b := Of(2, 3, 4)

	require.True(a.Intersection(b).Equals(Of(2, 3)))
	require.True(a.Difference(b).Equals(Of(1)))
	require.True(b.Difference(a).Equals(Of(4)))
}

func TestCloneIsIndependent(t *testing.T) {
	require := require.New(t)

	a := Of(1, 2)
	b := a.Clone()
	b.Add(3)

	require.Equal(2, a.Len())
	require.Equal(3, b.Len())
}
