// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package hamt

import (
	"context"

	vcid "github.com/luxfi/vaultfs/cid"
	"github.com/luxfi/vaultfs/blockstore"
)

type pairWire[K Keyer, V any] struct {
	Key   K `cbor:"k"`
	Value V `cbor:"v"`
}

type pointerWire[K Keyer, V any] struct {
	Values []pairWire[K, V] `cbor:"values,omitempty"`
	Link   *vcid.Cid        `cbor:"link,omitempty"`
}

type nodeWire[K Keyer, V any] struct {
	Bitmask  uint16             `cbor:"bitmask"`
	Pointers []pointerWire[K, V] `cbor:"pointers"`
}

// Cid persists n (and every Link child not already persisted) to store
// and returns its content address. The result is memoized on the node;
// it is invalidated by Set/Remove.
func (n *Node[K, V]) Cid(ctx context.Context, store blockstore.Store) (vcid.Cid, error) {
	if n.cid != nil {
		return *n.cid, nil
	}

	wire := nodeWire[K, V]{Bitmask: n.bitmask}
	for _, p := range n.pointers {
		if p.Link != nil {
			childID, err := p.Link.Cid(ctx, store)
			if err != nil {
				return vcid.Undef, err
			}
			wire.Pointers = append(wire.Pointers, pointerWire[K, V]{Link: &childID})
			continue
		}
		pairs := make([]pairWire[K, V], len(p.Values))
		for i, pr := range p.Values {
			pairs[i] = pairWire[K, V]{Key: pr.Key, Value: pr.Value}
		}
		wire.Pointers = append(wire.Pointers, pointerWire[K, V]{Values: pairs})
	}

	id, err := store.PutSerializable(ctx, wire)
	if err != nil {
		return vcid.Undef, err
	}
	n.cid = &id
	return id, nil
}

// Load reconstructs a Node tree rooted at id, recursively resolving
// every Link child from store.
func Load[K Keyer, V any](ctx context.Context, id vcid.Cid, store blockstore.Store) (*Node[K, V], error) {
	var wire nodeWire[K, V]
	if err := store.GetDeserializable(ctx, id, &wire); err != nil {
		return nil, err
	}

	n := &Node[K, V]{bitmask: wire.Bitmask, cid: &id}
	for _, pw := range wire.Pointers {
		if pw.Link != nil {
			child, err := Load[K, V](ctx, *pw.Link, store)
			if err != nil {
				return nil, err
			}
			n.pointers = append(n.pointers, pointer[K, V]{Link: child})
			continue
		}
		values := make([]Pair[K, V], len(pw.Values))
		for i, pr := range pw.Values {
			values[i] = Pair[K, V]{Key: pr.Key, Value: pr.Value}
		}
		n.pointers = append(n.pointers, pointer[K, V]{Values: values})
	}
	return n, nil
}
