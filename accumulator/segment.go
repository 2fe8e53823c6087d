// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accumulator

import (
	"crypto/rand"
	"io"
	"math/big"

	vcid "github.com/luxfi/vaultfs/cid"
)

const segmentBytes = 32 // 256-bit name segments (spec §4.3)

// Segment is a single element accumulated into a Name: a 256-bit prime.
type Segment struct {
	value *big.Int
}

// NewSegment draws a random 256-bit prime.
func NewSegment(rng io.Reader) (Segment, error) {
	p, err := rand.Prime(rng, segmentBytes*8)
	if err != nil {
		return Segment{}, err
	}
	return Segment{value: p}, nil
}

// SegmentFromDigest hashes seed into a 256-bit prime via hash-to-prime,
// returning the segment. Two calls with the same seed always produce
// the same segment, so it can be used to derive stable, otherwise
// unguessable path-component labels.
func SegmentFromDigest(seed []byte) (Segment, error) {
	p, _, err := primeDigest(seed, segmentBytes)
	if err != nil {
		return Segment{}, err
	}
	return Segment{value: p}, nil
}

// SegmentFromSeed is a convenience wrapper over SegmentFromDigest that
// hashes an arbitrary byte seed first.
func SegmentFromSeed(seed []byte) (Segment, error) {
	digest := vcid.Sum256(seed)
	return SegmentFromDigest(digest[:])
}

// Equal reports whether two segments are the same prime.
func (s Segment) Equal(o Segment) bool {
	return s.value.Cmp(o.value) == 0
}

// Bytes returns the segment's 256-bit big-endian encoding, used to
// persist a Segment (e.g. inside a private node header) as an opaque
// wire field.
func (s Segment) Bytes() []byte {
	b := make([]byte, segmentBytes)
	s.value.FillBytes(b)
	return b
}

// SegmentFromBytes reconstructs a Segment from its big-endian encoding,
// as produced by Bytes. The caller is responsible for only feeding back
// bytes that originated from a valid prime Segment; no primality check
// is redone here, mirroring NameSegment's "from_digest returns the
// increment so verifiers replay without re-primality-testing" design.
func SegmentFromBytes(b []byte) Segment {
	return Segment{value: new(big.Int).SetBytes(b)}
}
