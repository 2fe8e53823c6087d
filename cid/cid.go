// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cid gives the engine a single content-address type. It wraps
// github.com/ipfs/go-cid the way the rest of the content-addressed-storage
// ecosystem does: a CIDv1, blake3 multihash, raw-binary codec by default.
package cid

import (
	"fmt"

	gocid "github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
	"github.com/zeebo/blake3"
)

// CodecRaw and CodecDagCBOR mirror the two block shapes the engine writes:
// opaque ciphertext (raw) and CBOR-encoded HAMT/root records (dag-cbor).
const (
	CodecRaw     = gocid.Raw
	CodecDagCBOR = gocid.DagCBOR
)

// multicodecBlake3 is the multicodec table entry for blake3-256.
// See https://github.com/multiformats/multicodec/blob/master/table.csv.
const multicodecBlake3 = 0x1e

func init() {
	mh.Register(multicodecBlake3, newBlake3)
}

func newBlake3() mh.Hash { return blake3.New() }

// Cid is the engine's content address: a CIDv1 built from a blake3-256
// multihash of the block's serialized bytes.
type Cid = gocid.Cid

// Undef is the zero-value, invalid Cid, matching gocid.Undef.
var Undef = gocid.Undef

// Sum256 returns the raw 32-byte blake3 digest of data, used wherever the
// spec calls for the opaque hash function H(...) (accumulator label
// derivation, HAMT key hashing, ratchet key derivation).
func Sum256(data []byte) [32]byte {
	return blake3.Sum256(data)
}

// New builds a Cid over data using the given IPLD codec.
func New(codec uint64, data []byte) (Cid, error) {
	digest := Sum256(data)
	mhash, err := mh.Encode(digest[:], multicodecBlake3)
	if err != nil {
		return Undef, fmt.Errorf("encoding multihash: %w", err)
	}
	return gocid.NewCidV1(codec, mhash), nil
}

// Parse decodes a Cid from its binary representation.
func Parse(b []byte) (Cid, error) {
	_, c, err := gocid.CidFromBytes(b)
	if err != nil {
		return Undef, fmt.Errorf("parsing cid: %w", err)
	}
	return c, nil
}

// Decode parses a Cid from its string representation (used by access keys
// and CLI output).
func Decode(s string) (Cid, error) {
	c, err := gocid.Decode(s)
	if err != nil {
		return Undef, fmt.Errorf("decoding cid %q: %w", s, err)
	}
	return c, nil
}
