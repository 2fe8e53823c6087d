// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package forest

import vcid "github.com/luxfi/vaultfs/cid"

// wireVersion is the forest record's "0.2.x"-style version gate (spec
// §6): readers must reject a record whose version does not match.
const wireVersion = "0.2.0"

// forestWire is the on-block shape of a forest root record (spec §6 "A
// forest record holds { hamt_root_cid, setup, version, structure_tag =
// 'hamt' }"). The accumulator setup's modulus/generator are carried as
// raw big-endian bytes rather than Setup directly, since *big.Int has no
// cbor (un)marshaler of its own.
type forestWire struct {
	HamtRoot     vcid.Cid `cbor:"hamt_root_cid"`
	Modulus      []byte   `cbor:"modulus"`
	Generator    []byte   `cbor:"generator"`
	Version      string   `cbor:"version"`
	StructureTag string   `cbor:"structure_tag"`
}
