// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ratchet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// indexOracle builds an Oracle over a precomputed table of states
// start.IncBy(0..bound), used so tests can assert exact bracketing without
// duplicating the ratchet's rollover logic.
func indexOracle(t *testing.T, start Ratchet, bound, target int) Oracle {
	t.Helper()
	states := make([]Ratchet, bound+1)
	cur := start
	states[0] = cur
	for i := 1; i <= bound; i++ {
		cur = cur.Inc()
		states[i] = cur
	}

	return func(probe Ratchet) Ordering {
		for i, s := range states {
			if s.Equal(probe) {
				switch {
				case i < target:
					return Less
				case i == target:
					return Equal
				default:
					return Greater
				}
			}
		}
		// probe is beyond the table; treat as overshoot.
		return Greater
	}
}

func TestSeekFindsExactTarget(t *testing.T) {
	require := require.New(t)
	start := Zero(seed(21))

	for _, target := range []int{1, 5, 17, 300, 257} {
		oracle := indexOracle(t, start, 1000, target)
		found, steps, err := Seek(start, JumpSmall, 64, oracle)
		require.NoError(err, "target %d", target)
		require.True(found.Equal(start.IncBy(target)), "target %d", target)
		require.Greater(steps, 0)
	}
}

func TestSeekRespectsBudget(t *testing.T) {
	require := require.New(t)
	start := Zero(seed(22))
	oracle := indexOracle(t, start, 10000, 9000)

	_, _, err := Seek(start, JumpSmall, 3, oracle)
	require.Error(err)
}

func TestRatchetSeekerStepNarrowsToEqual(t *testing.T) {
	require := require.New(t)
	start := Zero(seed(23))
	target := start.IncBy(42)

	seeker := NewRatchetSeeker(start, JumpMedium)
	for i := 0; i < 64 && !seeker.Done(); i++ {
		probe := seeker.Current()
		switch {
		case probe.Equal(target):
			seeker.Step(Equal)
		default:
			// Walk forward from probe to see if target is still ahead.
			ahead := false
			cur := probe
			for j := 0; j < 10000; j++ {
				if cur.Equal(target) {
					ahead = true
					break
				}
				cur = cur.Inc()
			}
			if ahead {
				seeker.Step(Less)
			} else {
				seeker.Step(Greater)
			}
		}
	}

	require.True(seeker.Done())
}
