// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accumulator

import "math/big"

// ElementsProof is a PoKE* (Proof of Knowledge of Exponent, star
// variant) that commitment = base^(Π segments) mod N for some set of
// segments, without revealing the product (spec §4.3).
type ElementsProof struct {
	// Base is the accumulator state before the segments were added, u.
	Base *big.Int
	// BigQ = base^q mod N, where product = q*l + r. Batchable: combining
	// N proofs' BigQ values into one product lets a verifier check all N
	// relations with a single large exponentiation plus N small ones.
	BigQ *big.Int
	Part UnbatchableProofPart
}

// UnbatchableProofPart is the small, per-proof piece of a PoKE* that
// cannot be folded into a batch: the hash-to-prime increment for l, and
// the residue r = product mod l.
type UnbatchableProofPart struct {
	LHashInc uint32
	R        *big.Int
}
