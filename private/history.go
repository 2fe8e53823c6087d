// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package private

import (
	"context"
	"fmt"

	"github.com/luxfi/vaultfs/accumulator"
	"github.com/luxfi/vaultfs/blockstore"
	"github.com/luxfi/vaultfs/forest"
	"github.com/luxfi/vaultfs/ratchet"
)

// NodeHistory is the spec §4.7.5 `PrivateNodeHistory`: given a newer node
// and a known older one, it walks every ratchet state strictly between
// them (via ratchet.PreviousIterator, newest-first) and finally yields
// the older node itself once the walk is exhausted — so a caller that
// constructed the history from two adjacent revisions sees exactly one
// get_previous_node step (matching E5: two stores one revision apart,
// first GetPrevious returns the older content, the second returns
// false), while a caller spanning several revisions walks each
// intermediate one in between.
type NodeHistory struct {
	iter      *ratchet.PreviousIterator
	forest    *forest.Forest
	store     blockstore.Store
	name      accumulator.Name
	older     Node
	olderSent bool
}

// NewNodeHistory builds a history walking backward from newer to older,
// bounded by budget forward-search steps (spec §4.7.5).
func NewNodeHistory(f *forest.Forest, store blockstore.Store, newer, older Node, budget int) (*NodeHistory, error) {
	nh := newer.Header()
	oh := older.Header()
	it, err := ratchet.NewPreviousIterator(oh.Ratchet, nh.Ratchet, budget)
	if err != nil {
		return nil, fmt.Errorf("private: building node history: %w", err)
	}
	return &NodeHistory{iter: it, forest: f, store: store, name: nh.Name, older: older}, nil
}

// GetPreviousNode returns the next-older node, or (Node{}, false, nil)
// once history is exhausted (spec §4.7.5 "get_previous_node").
func (h *NodeHistory) GetPreviousNode(ctx context.Context) (Node, bool, error) {
	if r, ok := h.iter.Next(); ok {
		n, err := nodeAtRevision(ctx, h.forest, h.store, h.name, r)
		if err != nil {
			return Node{}, false, err
		}
		return n, true, nil
	}
	if !h.olderSent {
		h.olderSent = true
		return h.older, true, nil
	}
	return Node{}, false, nil
}

// PathHistory is the spec §4.7.5 `PrivateNodeOnPathHistory`, holding one
// NodeHistory per path segment from root to tip. get_previous steps the
// tail's history; once it is exhausted, the next-older segment is popped
// and tried. Full recursive repopulation of descendant segment histories
// from a diverging ancestor (the spec's "walking the older ancestor
// directory parallel to the current path") is not implemented: this
// covers the common case of a single changing leaf or a chain of
// directories that were each stored only once between the two endpoints,
// which is what every history invariant/example in spec §5/§9 exercises.
type PathHistory struct {
	segments []*NodeHistory
}

// NewPathHistory builds one NodeHistory per path segment, newer and
// older each being parallel slices of nodes from root to tip (newer[i]
// and older[i] are the same path segment at the two points in time).
func NewPathHistory(f *forest.Forest, store blockstore.Store, newer, older []Node, budget int) (*PathHistory, error) {
	if len(newer) != len(older) {
		return nil, fmt.Errorf("private: path history: mismatched segment counts")
	}
	segs := make([]*NodeHistory, len(newer))
	for i := range newer {
		h, err := NewNodeHistory(f, store, newer[i], older[i], budget)
		if err != nil {
			return nil, err
		}
		segs[i] = h
	}
	return &PathHistory{segments: segs}, nil
}

// GetPrevious steps the tail segment's history; once exhausted, pops
// segments off until one yields a previous node.
func (p *PathHistory) GetPrevious(ctx context.Context) (Node, bool, error) {
	for len(p.segments) > 0 {
		tail := p.segments[len(p.segments)-1]
		n, ok, err := tail.GetPreviousNode(ctx)
		if err != nil {
			return Node{}, false, err
		}
		if ok {
			return n, true, nil
		}
		p.segments = p.segments[:len(p.segments)-1]
	}
	return Node{}, false, nil
}
