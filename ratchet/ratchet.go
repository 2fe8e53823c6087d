// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ratchet implements the skip-ratchet key schedule (spec §4.1): a
// forward-secure, constant-space symmetric key schedule with O(log n)
// forward seeking. It has no teacher analogue in github.com/luxfi/consensus
// — it is grounded directly on spec.md §3/§4.1 and on
// original_source/wnfs/src/private/node.rs's use of the Rust
// skip_ratchet crate (`Ratchet::zero`, `.inc()`, `RatchetSeeker`,
// `PreviousIterator`), reimplemented in Go using blake3 (package cid)
// as the hash primitive per SPEC_FULL.md §5.
package ratchet

import (
	vcid "github.com/luxfi/vaultfs/cid"
)

// Ratchet is the spec's (large, medium, small, salt) triple, plus the two
// small counters needed to know when a small/medium step rolls its parent
// state over. Two ratchets with equal Large/Medium/Small/Salt are the
// same revision regardless of how their counters got there, so Equal and
// DeriveKey deliberately ignore the counters.
type Ratchet struct {
	Large         [32]byte
	Medium        [32]byte
	MediumCounter uint8
	Small         [32]byte
	SmallCounter  uint8
	Salt          [32]byte
}

// Zero returns the initial ratchet state derived from a 32-byte seed
// (spec §4.1 "zero(seed) -> Ratchet").
func Zero(seed [32]byte) Ratchet {
	return Ratchet{
		Large:  hashLabel(seed, "large"),
		Medium: hashLabel(seed, "medium"),
		Small:  hashLabel(seed, "small"),
		Salt:   hashLabel(seed, "salt"),
	}
}

func hashLabel(seed [32]byte, label string) [32]byte {
	buf := make([]byte, 0, 32+len(label))
	buf = append(buf, seed[:]...)
	buf = append(buf, label...)
	return vcid.Sum256(buf)
}

// Inc advances the ratchet by one small step. The small and medium
// counters are plain uint8s: a small-counter wraparound (255 -> 0) marks
// the 256th small step, at which point medium also advances; a medium
// wraparound similarly marks the 256th medium step (65536th small step),
// at which point large also advances (spec §4.1 "inc").
func (r Ratchet) Inc() Ratchet {
	next := r
	next.SmallCounter++
	if next.SmallCounter != 0 {
		next.Small = vcid.Sum256(r.Small[:])
		return next
	}

	next.MediumCounter++
	if next.MediumCounter != 0 {
		next.Medium = vcid.Sum256(r.Medium[:])
		next.Small = vcid.Sum256(append(append([]byte{}, next.Medium[:]...), r.Salt[:]...))
		return next
	}

	next.Large = vcid.Sum256(r.Large[:])
	next.Medium = vcid.Sum256(append(append([]byte{}, next.Large[:]...), r.Salt[:]...))
	next.Small = vcid.Sum256(append(append([]byte{}, next.Medium[:]...), r.Salt[:]...))
	return next
}

// IncBy advances the ratchet n times.
func (r Ratchet) IncBy(n int) Ratchet {
	cur := r
	for i := 0; i < n; i++ {
		cur = cur.Inc()
	}
	return cur
}

// DeriveKey hashes the full ratchet state into a 32-byte symmetric key
// (spec's TemporalKey = derive_key(R)).
func (r Ratchet) DeriveKey() [32]byte {
	buf := make([]byte, 0, 32*4)
	buf = append(buf, r.Large[:]...)
	buf = append(buf, r.Medium[:]...)
	buf = append(buf, r.Small[:]...)
	buf = append(buf, r.Salt[:]...)
	return vcid.Sum256(buf)
}

// Equal reports whether two ratchets are in the identical state.
func (r Ratchet) Equal(o Ratchet) bool {
	return r.Large == o.Large && r.Medium == o.Medium && r.Small == o.Small && r.Salt == o.Salt
}

// Bytes returns the ratchet's full state (Large‖Medium‖Small‖Salt) as an
// opaque 128-byte string, used both to persist a ratchet inside a
// private node header and to derive the per-revision name segment
// (spec §4.6 "ratchet-segment ... derived by hash-to-prime from the
// full ratchet state").
func (r Ratchet) Bytes() []byte {
	buf := make([]byte, 0, 32*4)
	buf = append(buf, r.Large[:]...)
	buf = append(buf, r.Medium[:]...)
	buf = append(buf, r.Small[:]...)
	buf = append(buf, r.Salt[:]...)
	return buf
}

// FromBytes reconstructs a Ratchet from the encoding produced by Bytes.
// The small/medium step counters are not part of the wire form (they
// only matter while advancing in memory, see the Ratchet doc comment);
// a ratchet loaded this way reports zero for both.
func FromBytes(b []byte) (Ratchet, bool) {
	if len(b) != 128 {
		return Ratchet{}, false
	}
	var r Ratchet
	copy(r.Large[:], b[0:32])
	copy(r.Medium[:], b[32:64])
	copy(r.Small[:], b[64:96])
	copy(r.Salt[:], b[96:128])
	return r, true
}

// Ordering is the three-way comparator RatchetSeeker needs to bracket a
// target ratchet via an oracle that only knows whether a probe ratchet is
// before, at, or after the sought one (spec §4.1).
type Ordering int

const (
	Less Ordering = iota
	Equal
	Greater
)
