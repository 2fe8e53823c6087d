// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package hamt implements a 16-way hash array mapped trie (spec §4.4),
// generic over a comparable, byte-representable key type and any
// value type. Grounded on
// original_source/wnfs-hamt/src/node.rs (`Node::set_value`,
// `get_value`, `remove_value`, canonicalization on remove) and
// original_source/wnfs-hamt/src/diff.rs, reimplemented with Go
// generics in place of Rust's K/V/H type parameters and
// github.com/fxamacker/cbor/v2 in place of libipld's DagCbor.
package hamt

// nibbleCursor walks the hex nibbles (4-bit groups) of a 32-byte digest,
// one per try_next call, giving 16-way branching and a maximum trie
// depth of 64.
type nibbleCursor struct {
	digest [32]byte
	pos    int // next nibble index, 0..63
}

func newNibbleCursor(digest [32]byte) *nibbleCursor {
	return &nibbleCursor{digest: digest}
}

// tryNext returns the next nibble (0-15), or false once the 64 nibbles
// of the digest are exhausted.
func (c *nibbleCursor) tryNext() (int, bool) {
	if c.pos >= 64 {
		return 0, false
	}
	b := c.digest[c.pos/2]
	var nibble byte
	if c.pos%2 == 0 {
		nibble = b >> 4
	} else {
		nibble = b & 0x0f
	}
	c.pos++
	return int(nibble), true
}

// depth returns how many nibbles have already been consumed.
func (c *nibbleCursor) depth() int { return c.pos }
