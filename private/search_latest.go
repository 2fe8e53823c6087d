// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package private

import (
	"context"
	"fmt"

	"github.com/luxfi/vaultfs/accumulator"
	"github.com/luxfi/vaultfs/blockstore"
	vcid "github.com/luxfi/vaultfs/cid"
	"github.com/luxfi/vaultfs/forest"
	"github.com/luxfi/vaultfs/ratchet"
	"github.com/luxfi/vaultfs/xerrors"
)

// revisionNameAt returns name.with_segments_added([ratchet-segment]) for
// an arbitrary ratchet value, the same derivation Header.RevisionName
// performs for its own current ratchet (spec §4.6).
func revisionNameAt(name accumulator.Name, r ratchet.Ratchet) (accumulator.Name, error) {
	seg, err := accumulator.SegmentFromDigest(r.Bytes())
	if err != nil {
		return accumulator.Name{}, fmt.Errorf("private: deriving ratchet segment: %w", err)
	}
	return name.WithSegmentsAdded([]accumulator.Segment{seg}), nil
}

func revisionNameHashOf(setup accumulator.Setup, revName accumulator.Name) [32]byte {
	acc := revName.AsAccumulator(setup)
	label := acc.Label()
	return vcid.Sum256(label[:])
}

// searchLatestRatchet runs the spec §4.7.4 exponential-then-binary search
// for the last ratchet value whose RevisionName has any presence in the
// forest, starting from start.
func searchLatestRatchet(f *forest.Forest, name accumulator.Name, start ratchet.Ratchet, budget int) (ratchet.Ratchet, error) {
	oracle := func(probe ratchet.Ratchet) ratchet.Ordering {
		revName, err := revisionNameAt(name, probe)
		if err != nil {
			return ratchet.Greater
		}
		if f.Has(&revName) {
			return ratchet.Less
		}
		return ratchet.Greater
	}
	return ratchetSeekAny(start, budget, oracle)
}

// ratchetSeekAny is a thin, named wrapper over ratchet.Seek: it always
// starts from JumpSmall and lets the seeker's own doubling reach larger
// jumps, and it drops the probe count Seek reports.
func ratchetSeekAny(start ratchet.Ratchet, budget int, oracle ratchet.Oracle) (ratchet.Ratchet, error) {
	r, _, err := ratchet.Seek(start, ratchet.JumpSmall, budget, oracle)
	return r, err
}

// nodesAtRevision returns every node in the forest's CID set at name's
// revision under ratchet r that both exists in the forest and decrypts
// and decodes successfully as a PrivateNode (spec §4.7.4 step 3).
func nodesAtRevision(ctx context.Context, f *forest.Forest, store blockstore.Store, name accumulator.Name, r ratchet.Ratchet) ([]Node, error) {
	revName, err := revisionNameAt(name, r)
	if err != nil {
		return nil, err
	}
	cids, ok := f.GetEncrypted(&revName)
	if !ok {
		return nil, fmt.Errorf("private: %w", xerrors.ErrNotFound)
	}
	revHash := revisionNameHashOf(f.Setup, revName)
	key := TemporalKey(r.DeriveKey())

	var out []Node
	for _, c := range cids.List() {
		ref := Ref{RevisionNameHash: revHash, TemporalKey: key, ContentCID: c}
		n, err := LoadNode(ctx, f, store, ref)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("private: no candidate at revision decrypted: %w", xerrors.ErrNotFound)
	}
	return out, nil
}

// nodeAtRevision returns the first node at name's revision under ratchet
// r, used by history traversal where only one candidate is expected
// (spec §4.7.5).
func nodeAtRevision(ctx context.Context, f *forest.Forest, store blockstore.Store, name accumulator.Name, r ratchet.Ratchet) (Node, error) {
	nodes, err := nodesAtRevision(ctx, f, store, name, r)
	if err != nil {
		return Node{}, err
	}
	return nodes[0], nil
}

// SearchLatestNodes implements search_latest_nodes (spec §4.7.4): every
// node that decrypts successfully at the newest revision discoverable
// from n's current ratchet, or just {n} if n's own revision has no
// forest presence yet (an unpersisted or not-yet-observed-concurrently
// node).
func SearchLatestNodes(ctx context.Context, f *forest.Forest, store blockstore.Store, n Node, budget int) ([]Node, error) {
	h := n.Header()
	ownRevName, err := h.RevisionName()
	if err != nil {
		return nil, err
	}
	if !f.Has(&ownRevName) {
		return []Node{n}, nil
	}
	latest, err := searchLatestRatchet(f, h.Name, h.Ratchet, budget)
	if err != nil {
		return nil, err
	}
	return nodesAtRevision(ctx, f, store, h.Name, latest)
}

// SearchLatest implements search_latest: the first of SearchLatestNodes
// (spec §4.7.4 "search_latest returns the first").
func SearchLatest(ctx context.Context, f *forest.Forest, store blockstore.Store, n Node, budget int) (Node, error) {
	nodes, err := SearchLatestNodes(ctx, f, store, n, budget)
	if err != nil {
		return Node{}, err
	}
	return nodes[0], nil
}
