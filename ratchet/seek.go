// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ratchet

import "github.com/luxfi/vaultfs/xerrors"

// JumpSize is the seeker's initial exponential step size.
type JumpSize int

const (
	JumpSmall  JumpSize = 1
	JumpMedium JumpSize = 256
	JumpLarge  JumpSize = 256 * 256
)

// RatchetSeeker implements the spec's exponential search (§4.1): given an
// oracle that can only say whether a probe ratchet is Less, Equal, or
// Greater than a sought target, it brackets the target with an expanding
// jump and then narrows by halving, the same shape as Go's own
// sort.Search but adapted to a one-directional, non-indexable sequence.
type RatchetSeeker struct {
	base      Ratchet // last confirmed <= target state
	baseSteps int     // steps of base from the seeker's starting ratchet
	jump      int
	done      bool
}

// NewRatchetSeeker starts a search rooted at current, with the given
// initial jump size.
func NewRatchetSeeker(current Ratchet, jump JumpSize) *RatchetSeeker {
	j := int(jump)
	if j < 1 {
		j = 1
	}
	return &RatchetSeeker{base: current, jump: j}
}

// Current returns the probe the caller should evaluate next.
func (s *RatchetSeeker) Current() Ratchet {
	return s.base.IncBy(s.jump)
}

// Done reports whether the seeker has bracketed the target exactly.
func (s *RatchetSeeker) Done() bool { return s.done }

// Step advances the search given the oracle's verdict on Current().
//
//   - Less: the probe is still behind the target; accept it as the new
//     base and double the jump (exponential growth phase).
//   - Equal: the probe *is* the target; done.
//   - Greater: the probe overshot; halve the jump and probe again from
//     the same base (binary-narrowing phase). Once the jump reaches 0
//     the base itself is the exact last-known-good state.
func (s *RatchetSeeker) Step(ord Ordering) {
	switch ord {
	case Equal:
		s.base = s.base.IncBy(s.jump)
		s.done = true
	case Less:
		s.base = s.base.IncBy(s.jump)
		s.baseSteps += s.jump
		if s.jump < (1 << 30) {
			s.jump *= 2
		}
	case Greater:
		s.jump /= 2
		if s.jump == 0 {
			s.done = true
		}
	}
}

// Oracle compares a probe ratchet against a discoverable predicate,
// typically "is this label present in the forest". search_latest (spec
// §4.7.4) supplies an oracle of the shape: Greater once the forest no
// longer has the probe's label, Less while it still does.
type Oracle func(probe Ratchet) Ordering

// Seek drives a RatchetSeeker to completion using oracle, bounded by a
// discrepancy budget on the total number of probes made.
func Seek(start Ratchet, jump JumpSize, budget int, oracle Oracle) (Ratchet, int, error) {
	seeker := NewRatchetSeeker(start, jump)
	for steps := 0; steps < budget; steps++ {
		probe := seeker.Current()
		ord := oracle(probe)
		seeker.Step(ord)
		if seeker.Done() {
			return seeker.base, steps + 1, nil
		}
	}
	return Ratchet{}, budget, xerrors.ErrNoIntermediateRatchet
}
