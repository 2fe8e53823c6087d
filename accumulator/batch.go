// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accumulator

import (
	"math/big"

	"github.com/luxfi/vaultfs/xerrors"
)

// BatchedProofPart accumulates the batchable big_q parts of many
// ElementsProofs into a single 2048-bit value, independent of how many
// proofs were folded in.
type BatchedProofPart struct {
	bigQProduct *big.Int
}

// NewBatchedProofPart returns an empty batch.
func NewBatchedProofPart() *BatchedProofPart {
	return &BatchedProofPart{bigQProduct: big.NewInt(1)}
}

// Add folds proof's batchable part into the running product.
func (b *BatchedProofPart) Add(proof ElementsProof, setup Setup) {
	b.bigQProduct.Mul(b.bigQProduct, proof.BigQ)
	b.bigQProduct.Mod(b.bigQProduct, setup.Modulus)
}

type baseExponent struct {
	base *big.Int
	l    *big.Int
}

// BatchedProofVerification accumulates the (base, commitment,
// unbatchable part) relations to be checked against one BatchedProofPart.
type BatchedProofVerification struct {
	relations []baseExponent
	setup     Setup
}

// NewBatchedProofVerification starts a verification session against
// setup.
func NewBatchedProofVerification(setup Setup) *BatchedProofVerification {
	return &BatchedProofVerification{setup: setup}
}

// Add registers one (base, commitment) relation and its unbatchable
// proof part. It fails fast with ErrLHashNonPrime or
// ErrResidueOutsideRange if part does not correspond to a valid l/r pair
// for base and commitment, before any batched work is done.
func (v *BatchedProofVerification) Add(base, commitment NameAccumulator, part UnbatchableProofPart) error {
	seed := fiatShamirLHashSeed(v.setup.Modulus, base.state, commitment.state)
	l, ok := primeDigestFast(seed, 16, part.LHashInc)
	if !ok {
		return xerrors.ErrLHashNonPrime
	}
	if part.R.Cmp(l) >= 0 {
		return xerrors.ErrResidueOutsideRange
	}

	baseInverse := new(big.Int).ModInverse(base.state, v.setup.Modulus)
	if baseInverse == nil {
		return xerrors.ErrValidationFailed
	}

	// kcrBase = commitment * base^(-r) mod N
	kcrBase := new(big.Int).Exp(baseInverse, part.R, v.setup.Modulus)
	kcrBase.Mul(kcrBase, commitment.state)
	kcrBase.Mod(kcrBase, v.setup.Modulus)

	v.relations = append(v.relations, baseExponent{base: kcrBase, l: l})
	return nil
}

// Verify checks the full set of relations registered via Add against
// batched, returning ErrValidationFailed on mismatch.
func (v *BatchedProofVerification) Verify(batched *BatchedProofPart) error {
	if len(v.relations) == 0 {
		return nil
	}

	ls := make([]*big.Int, len(v.relations))
	for i, r := range v.relations {
		ls[i] = r.l
	}
	lStar := nlognProduct(ls)

	lhs := new(big.Int).Exp(batched.bigQProduct, lStar, v.setup.Modulus)
	rhs := v.multiExp(lStar)

	if lhs.Cmp(rhs) != 0 {
		return xerrors.ErrValidationFailed
	}
	return nil
}

// multiExp computes Π base_i^(lStar/l_i) mod N over the registered
// relations.
func (v *BatchedProofVerification) multiExp(lStar *big.Int) *big.Int {
	acc := big.NewInt(1)
	for _, r := range v.relations {
		exp := new(big.Int).Div(lStar, r.l)
		term := new(big.Int).Exp(r.base, exp, v.setup.Modulus)
		acc.Mul(acc, term)
		acc.Mod(acc, v.setup.Modulus)
	}
	return acc
}

// nlognProduct multiplies values via balanced pairwise merging rather
// than a single running accumulator, keeping operand bit-lengths even
// across the multiplication tree.
func nlognProduct(values []*big.Int) *big.Int {
	switch len(values) {
	case 0:
		return big.NewInt(1)
	case 1:
		return new(big.Int).Set(values[0])
	}

	mid := len(values) / 2
	left := nlognProduct(values[:mid])
	right := nlognProduct(values[mid:])
	return left.Mul(left, right)
}
