// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package accumulator implements the RSA name accumulator and its PoKE*
// (Proof of Knowledge of Exponent, star variant) batched membership
// proofs (spec §4.3). Grounded directly on
// original_source/wnfs-nameaccumulator/src/name.rs, reimplemented with
// math/big in place of num-bigint-dig and blake3 (package cid) in place
// of the Rust blake3 crate (SPEC_FULL.md §7).
package accumulator

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// Setup is the public parameters of an RSA accumulator: a modulus N and
// a generator g, both treated as opaque 2048-bit integers.
type Setup struct {
	Modulus   *big.Int
	Generator *big.Int
}

func randomQuadraticResidue(modulus *big.Int, rng io.Reader) (*big.Int, error) {
	r, err := rand.Int(rng, modulus)
	if err != nil {
		return nil, fmt.Errorf("drawing random generator candidate: %w", err)
	}
	return new(big.Int).Exp(r, big.NewInt(2), modulus), nil
}

// FromRSA2048 builds a Setup on the published RSA-2048 factoring
// challenge modulus, picking a random quadratic residue as generator.
// Fast, and sound as long as that modulus's factorization stays
// unpublished. Good for tests and for deployments willing to rely on the
// public challenge.
func FromRSA2048(rng io.Reader) (Setup, error) {
	modulus := rsa2048()
	g, err := randomQuadraticResidue(modulus, rng)
	if err != nil {
		return Setup{}, err
	}
	return Setup{Modulus: modulus, Generator: g}, nil
}

// Trusted generates a fresh RSA modulus from two random 1024-bit primes
// and discards them immediately. The factors are the setup's "toxic
// waste": whoever learns them can forge accumulator membership proofs,
// so the big.Int backing arrays holding them are overwritten with zeros
// as soon as the modulus is computed.
func Trusted(rng io.Reader) (Setup, error) {
	p, err := rand.Prime(rng, 1024)
	if err != nil {
		return Setup{}, fmt.Errorf("generating first rsa prime: %w", err)
	}
	q, err := rand.Prime(rng, 1024)
	if err != nil {
		return Setup{}, fmt.Errorf("generating second rsa prime: %w", err)
	}

	modulus := new(big.Int).Mul(p, q)
	zeroizeBigInt(p)
	zeroizeBigInt(q)

	g, err := randomQuadraticResidue(modulus, rng)
	if err != nil {
		return Setup{}, err
	}
	return Setup{Modulus: modulus, Generator: g}, nil
}

// WithModulus builds a Setup on an externally supplied 2048-bit
// big-endian modulus, picking a random quadratic residue as generator.
func WithModulus(modulusBigEndian [256]byte, rng io.Reader) (Setup, error) {
	modulus := new(big.Int).SetBytes(modulusBigEndian[:])
	g, err := randomQuadraticResidue(modulus, rng)
	if err != nil {
		return Setup{}, err
	}
	return Setup{Modulus: modulus, Generator: g}, nil
}

// zeroizeBigInt overwrites a big.Int's backing words in place. math/big
// offers no zeroize primitive of its own; this reaches into the public
// Bits()/SetBits() accessors rather than the unexported internals, the
// same boundary the stdlib itself exposes for this purpose.
func zeroizeBigInt(n *big.Int) {
	bits := n.Bits()
	for i := range bits {
		bits[i] = 0
	}
	n.SetBits(bits)
}
