// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accumulator

import (
	"encoding/binary"
	"math/big"

	vcid "github.com/luxfi/vaultfs/cid"
)

// maxPrimeAttempts bounds the hash-to-prime retry loop (SPEC_FULL.md §7 /
// spec §9 "implementation-chosen safety bound"). The probability that a
// random numBytes*8-bit odd number is prime is on the order of
// 1/(numBytes*8*ln(2)), so a few hundred attempts succeed with
// overwhelming probability; this bound exists purely to fail loudly
// instead of spinning forever on an adversarial or malformed seed.
const maxPrimeAttempts = 4096

// primeDigest hashes seed with a little-endian uint32 counter appended,
// starting at 0, truncating each hash to numBytes bytes (forcing the top
// and bottom bits set so every candidate is odd and exactly numBytes*8
// bits wide), until a probable prime is found. It returns the prime and
// the winning counter so a verifier can replay the search via
// primeDigestFast without repeating the primality tests.
func primeDigest(seed []byte, numBytes int) (*big.Int, uint32, error) {
	for counter := uint32(0); counter < maxPrimeAttempts; counter++ {
		candidate := primeCandidate(seed, numBytes, counter)
		if candidate.ProbablyPrime(20) {
			return candidate, counter, nil
		}
	}
	return nil, 0, errNoPrimeFound
}

// primeDigestFast recomputes the candidate at a known counter (skipping
// the search) and confirms it really is prime, returning false if not —
// used during proof verification, where a forged or corrupted
// UnbatchableProofPart might name a counter that doesn't actually land on
// a prime.
func primeDigestFast(seed []byte, numBytes int, counter uint32) (*big.Int, bool) {
	candidate := primeCandidate(seed, numBytes, counter)
	return candidate, candidate.ProbablyPrime(20)
}

func primeCandidate(seed []byte, numBytes int, counter uint32) *big.Int {
	buf := make([]byte, 0, len(seed)+4)
	buf = append(buf, seed...)
	var counterBytes [4]byte
	binary.LittleEndian.PutUint32(counterBytes[:], counter)
	buf = append(buf, counterBytes[:]...)

	digest := vcid.Sum256(buf)
	out := make([]byte, numBytes)

	// Repeatedly hash forward to fill out numBytes > 32 (the segment case,
	// 32 bytes, fits in one digest; smaller numBytes just truncates it).
	produced := 0
	block := digest
	for produced < numBytes {
		n := copy(out[produced:], block[:])
		produced += n
		if produced < numBytes {
			block = vcid.Sum256(block[:])
		}
	}

	out[0] |= 0x80              // force exact bit length
	out[numBytes-1] |= 0x01     // force odd

	return new(big.Int).SetBytes(out)
}
