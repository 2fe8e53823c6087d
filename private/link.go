// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package private

import (
	"context"
	"fmt"

	"github.com/luxfi/vaultfs/blockstore"
	"github.com/luxfi/vaultfs/forest"
)

// Link is a directory child entry: either already persisted
// (Encrypted-by-reference) or held only in memory (Resolved-node), or
// both once a resolved node has also been stored (spec §4.7 "entries:
// ... a PrivateLink (an enum of {Encrypted-by-reference,
// Resolved-node-in-memory})").
type Link struct {
	ref  *Ref
	node *Node
}

// NewResolvedLink wraps an in-memory node that has not yet been stored.
func NewResolvedLink(n Node) *Link { return &Link{node: &n} }

// NewRefLink wraps a Ref to a node that has not yet been loaded.
func NewRefLink(ref Ref) *Link { return &Link{ref: &ref} }

// Resolve returns the link's node, loading it from the store on first
// use if the link only carries a Ref.
func (l *Link) Resolve(ctx context.Context, f *forest.Forest, store blockstore.Store) (Node, error) {
	if l.node != nil {
		return *l.node, nil
	}
	if l.ref == nil {
		return Node{}, fmt.Errorf("private: empty link")
	}
	n, err := LoadNode(ctx, f, store, *l.ref)
	if err != nil {
		return Node{}, err
	}
	l.node = &n
	return n, nil
}

// store persists whatever the link currently holds and returns its Ref,
// recording that Ref on the link. A link holding a node stores the node
// again on every call, even when the subtree is unchanged, adding a new
// header and content CID to the forest each time; only a link that holds
// just a Ref returns it without storing anything.
func (l *Link) store(ctx context.Context, store blockstore.Store) (Ref, error) {
	if l.node != nil {
		ref, err := l.node.Store(ctx, store)
		if err != nil {
			return Ref{}, err
		}
		l.ref = &ref
		return ref, nil
	}
	if l.ref != nil {
		return *l.ref, nil
	}
	return Ref{}, fmt.Errorf("private: empty link")
}

// previousEntry is one `(step_count, Encrypt_TemporalKey(old_content_CID))`
// back-pointer (spec §4.7.2).
type previousEntry struct {
	StepCount uint64
	Sealed    []byte
}

type previousEntryWire struct {
	StepCount uint64 `cbor:"step_count"`
	Encrypted []byte `cbor:"encrypted"`
}

func previousToWire(p []previousEntry) []previousEntryWire {
	out := make([]previousEntryWire, len(p))
	for i, e := range p {
		out[i] = previousEntryWire{StepCount: e.StepCount, Encrypted: e.Sealed}
	}
	return out
}

func previousFromWire(w []previousEntryWire) []previousEntry {
	out := make([]previousEntry, len(w))
	for i, e := range w {
		out[i] = previousEntry{StepCount: e.StepCount, Sealed: e.Encrypted}
	}
	return out
}

// singleStepPrevious finds the back-pointer with StepCount 1, the
// per-revision link consulted by history traversal (spec §4.7.5 step 2).
func singleStepPrevious(p []previousEntry) ([]byte, bool) {
	for _, e := range p {
		if e.StepCount == 1 {
			return e.Sealed, true
		}
	}
	return nil, false
}
