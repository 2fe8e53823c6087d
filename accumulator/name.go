// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accumulator

import (
	"math/big"
)

const labelBytes = 256 // 2048-bit accumulator state (spec §9)

// Label is the fixed-size, comparable wire form of a NameAccumulator,
// used as the private forest's HAMT key (spec §9 "NameAccumulator = 256
// bytes big-endian"). math/big.Int is not comparable, so every place the
// accumulator state needs to be a map key works on Label instead.
type Label [labelBytes]byte

// NameAccumulator is the RSA-group element g^(Π segments) mod N that
// commits to a set of name Segments.
type NameAccumulator struct {
	state  *big.Int
	cached *Label
}

// Empty returns the accumulator for the empty segment set, i.e. the
// setup's generator itself.
func Empty(setup Setup) NameAccumulator {
	return NameAccumulator{state: new(big.Int).Set(setup.Generator)}
}

// FromState wraps an already-computed accumulator state. state must be a
// value in the setup's RSA group.
func FromState(state *big.Int) NameAccumulator {
	return NameAccumulator{state: new(big.Int).Set(state)}
}

// WithSegments builds the accumulator for exactly the given segments,
// discarding the membership proof. Used where only the resulting label
// is needed.
func WithSegments(segments []Segment, setup Setup) NameAccumulator {
	acc := Empty(setup)
	_ = acc.Add(segments, setup)
	return acc
}

// Add commits segments into the accumulator in place, advancing
// state = state^(Π segments) mod N, and returns an ElementsProof
// attesting to that transition (spec §4.3 PoKE*).
func (a *NameAccumulator) Add(segments []Segment, setup Setup) ElementsProof {
	a.cached = nil

	product := big.NewInt(1)
	for _, s := range segments {
		product.Mul(product, s.value)
	}

	witness := new(big.Int).Set(a.state)
	a.state = new(big.Int).Exp(a.state, product, setup.Modulus)

	lSeed := fiatShamirLHashSeed(setup.Modulus, witness, a.state)
	l, lHashInc, err := primeDigest(lSeed, 16)
	if err != nil {
		// Only reachable if maxPrimeAttempts is exhausted, which would
		// require an astronomically unlucky hash chain; surfacing a
		// malformed, never-verifying proof is preferable to a panic.
		return ElementsProof{Base: witness, BigQ: big.NewInt(0)}
	}

	q, r := new(big.Int), new(big.Int)
	q.DivMod(product, l, r)

	bigQ := new(big.Int).Exp(witness, q, setup.Modulus)

	return ElementsProof{
		Base: witness,
		BigQ: bigQ,
		Part: UnbatchableProofPart{LHashInc: lHashInc, R: r},
	}
}

// Label returns the accumulator's fixed-size, comparable wire form.
func (a *NameAccumulator) Label() Label {
	if a.cached != nil {
		return *a.cached
	}
	var l Label
	a.state.FillBytes(l[:])
	a.cached = &l
	return l
}

// Bytes returns the label's big-endian byte representation, satisfying
// hamt.Keyer so a Label can be used directly as a HAMT key.
func (l Label) Bytes() []byte { return l[:] }

// ParseLabel reconstructs a NameAccumulator from its wire form.
func ParseLabel(l Label) NameAccumulator {
	state := new(big.Int).SetBytes(l[:])
	return NameAccumulator{state: state, cached: &l}
}

// Equal reports whether two accumulators commit to the same state.
func (a NameAccumulator) Equal(o NameAccumulator) bool {
	return a.state.Cmp(o.state) == 0
}

func fiatShamirLHashSeed(modulus, base, commitment *big.Int) []byte {
	seed := make([]byte, 0, labelBytes*3)
	seed = append(seed, padTo(modulus, labelBytes)...)
	seed = append(seed, padTo(base, labelBytes)...)
	seed = append(seed, padTo(commitment, labelBytes)...)
	return seed
}

func padTo(n *big.Int, size int) []byte {
	out := make([]byte, size)
	n.FillBytes(out)
	return out
}

// Name is a path of Segments accumulated relative to some base
// accumulator, e.g. the forest root. Building the accumulated state and
// its membership proof is memoized: calling AsProvenAccumulator twice on
// an unmodified Name does not redo the modular exponentiations.
type Name struct {
	relativeTo NameAccumulator
	segments   []Segment

	proven *provenAccumulator
}

type provenAccumulator struct {
	accumulator NameAccumulator
	proof       ElementsProof
}

// EmptyName returns the name with no segments, relative to the setup's
// empty accumulator.
func EmptyName(setup Setup) Name {
	return Name{relativeTo: Empty(setup)}
}

// NewName builds a name relative to relativeTo with the given segments.
func NewName(relativeTo NameAccumulator, segments []Segment) Name {
	cp := make([]Segment, len(segments))
	copy(cp, segments)
	return Name{relativeTo: relativeTo, segments: cp}
}

// IsRoot reports whether the name has no segments of its own.
func (n Name) IsRoot() bool { return len(n.segments) == 0 }

// RelativeTo returns the accumulator state the name's segments are
// accumulated onto, used when serializing a Name for storage in a
// private node header.
func (n Name) RelativeTo() NameAccumulator { return n.relativeTo }

// Segments returns a copy of the name's own segments (not including its
// base accumulator).
func (n Name) Segments() []Segment {
	cp := make([]Segment, len(n.segments))
	copy(cp, n.segments)
	return cp
}

// Up drops the name's last segment, invalidating any memoized proof.
func (n *Name) Up() {
	if len(n.segments) == 0 {
		return
	}
	n.segments = n.segments[:len(n.segments)-1]
	n.proven = nil
}

// Parent returns the name with its last segment dropped, or false if the
// name is already root.
func (n Name) Parent() (Name, bool) {
	if n.IsRoot() {
		return Name{}, false
	}
	cp := n
	cp.segments = append([]Segment(nil), n.segments...)
	cp.proven = nil
	cp.Up()
	return cp, true
}

// WithSegmentsAdded returns a new name with segments appended, leaving n
// unmodified.
func (n Name) WithSegmentsAdded(segments []Segment) Name {
	cp := make([]Segment, 0, len(n.segments)+len(segments))
	cp = append(cp, n.segments...)
	cp = append(cp, segments...)
	return Name{relativeTo: n.relativeTo, segments: cp}
}

// AsProvenAccumulator accumulates the name's segments into its base
// accumulator and returns the resulting state plus a membership proof.
// Memoized per Name value.
func (n *Name) AsProvenAccumulator(setup Setup) (NameAccumulator, ElementsProof) {
	if n.proven != nil {
		return n.proven.accumulator, n.proven.proof
	}
	acc := n.relativeTo
	proof := acc.Add(n.segments, setup)
	n.proven = &provenAccumulator{accumulator: acc, proof: proof}
	return acc, proof
}

// AsAccumulator is AsProvenAccumulator without the proof.
func (n *Name) AsAccumulator(setup Setup) NameAccumulator {
	acc, _ := n.AsProvenAccumulator(setup)
	return acc
}
