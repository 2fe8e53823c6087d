// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package private implements the private node header/reference (spec
// §4.6, C6) and the private directory/file operations built on top of
// it (spec §4.7, C7): path algorithms, copy-on-write revision
// advancement, search_latest, and history traversal.
//
// Grounded on original_source/wnfs/src/private/node.rs (`PrivateNodeHeader`,
// `PrivateRef`, `PrivateDirectory`, `PrivateFile`) and the wnfs-go
// reference port (other_examples/05f05903_qri-io-wnfs-go__private-private.go.go),
// reimplemented over package ratchet/accumulator/aead/forest in place of
// the Rust/Go originals' skip_ratchet/wnfs-nameaccumulator/AES-GCM/HAMT
// stack.
package private

import (
	"context"
	"fmt"
	"io"

	"github.com/luxfi/vaultfs/accumulator"
	"github.com/luxfi/vaultfs/aead"
	"github.com/luxfi/vaultfs/blockstore"
	vcid "github.com/luxfi/vaultfs/cid"
	"github.com/luxfi/vaultfs/forest"
	"github.com/luxfi/vaultfs/ratchet"
	"github.com/luxfi/vaultfs/xcodec"
)

// Header is the spec §4.6 `PrivateNodeHeader`: the identity and key
// schedule of one private node, constant in inumber across every
// revision of that node.
type Header struct {
	Inumber accumulator.Segment
	Ratchet ratchet.Ratchet
	Name    accumulator.Name
}

// NewHeader creates a fresh header under parentName: a random inumber
// and a ratchet zeroed from random salt (spec §4.6 "new(parent_name,
// rng)").
func NewHeader(parentName accumulator.Name, rng io.Reader) (Header, error) {
	inumber, err := accumulator.NewSegment(rng)
	if err != nil {
		return Header{}, fmt.Errorf("drawing inumber: %w", err)
	}
	var seed [32]byte
	if _, err := io.ReadFull(rng, seed[:]); err != nil {
		return Header{}, fmt.Errorf("drawing ratchet seed: %w", err)
	}
	return HeaderWithSeed(parentName, seed, inumber), nil
}

// HeaderWithSeed deterministically builds a header from an explicit
// ratchet seed and inumber (spec §4.6 "with_seed", used for tests and
// cross-implementation interop).
func HeaderWithSeed(parentName accumulator.Name, ratchetSeed [32]byte, inumber accumulator.Segment) Header {
	return Header{
		Inumber: inumber,
		Ratchet: ratchet.Zero(ratchetSeed),
		Name:    parentName.WithSegmentsAdded([]accumulator.Segment{inumber}),
	}
}

// TemporalKey derives the header's current read-and-ratchet-forward key.
func (h Header) TemporalKey() TemporalKey {
	return TemporalKey(h.Ratchet.DeriveKey())
}

// SnapshotKey derives the header's current read-only key, H(TemporalKey).
func (h Header) SnapshotKey() SnapshotKey {
	return TemporalKey(h.Ratchet.DeriveKey()).SnapshotKey()
}

// AdvanceRatchet steps the header's ratchet forward by one revision
// (spec §4.6 "advance_ratchet").
func (h *Header) AdvanceRatchet() {
	h.Ratchet = h.Ratchet.Inc()
}

// ResetRatchet replaces the header's ratchet with a freshly-zeroed one
// from random salt (spec §4.6 "reset_ratchet(rng)"), used by key
// rotation on move/attach (spec §4.7.3 "Attach semantics").
func (h *Header) ResetRatchet(rng io.Reader) error {
	var seed [32]byte
	if _, err := io.ReadFull(rng, seed[:]); err != nil {
		return fmt.Errorf("drawing ratchet seed: %w", err)
	}
	h.Ratchet = ratchet.Zero(seed)
	return nil
}

// UpdateName recomputes the header's Name as parentName plus its own
// inumber segment (spec §4.6 "update_name(parent_name)"), used when a
// node is regrafted under a new parent.
func (h *Header) UpdateName(parentName accumulator.Name) {
	h.Name = parentName.WithSegmentsAdded([]accumulator.Segment{h.Inumber})
}

// ratchetSegment derives the per-revision name segment by hash-to-prime
// over the ratchet's full state (spec §4.6 "RevisionName = ...
// ratchet-segment is derived by hash-to-prime from the full ratchet
// state").
func (h Header) ratchetSegment() (accumulator.Segment, error) {
	seg, err := accumulator.SegmentFromDigest(h.Ratchet.Bytes())
	if err != nil {
		return accumulator.Segment{}, fmt.Errorf("deriving ratchet segment: %w", err)
	}
	return seg, nil
}

// RevisionName returns name.with_segments_added([ratchet-segment]) (spec
// §4.6).
func (h Header) RevisionName() (accumulator.Name, error) {
	seg, err := h.ratchetSegment()
	if err != nil {
		return accumulator.Name{}, err
	}
	return h.Name.WithSegmentsAdded([]accumulator.Segment{seg}), nil
}

// RevisionNameHash returns H(accumulate(RevisionName)) (spec §4.6).
func (h Header) RevisionNameHash(setup accumulator.Setup) ([32]byte, error) {
	revName, err := h.RevisionName()
	if err != nil {
		return [32]byte{}, err
	}
	acc := revName.AsAccumulator(setup)
	label := acc.Label()
	return vcid.Sum256(label[:]), nil
}

// headerWire is the header's encrypted-and-stored encoding (spec §4.6
// "store(store, setup) -> CID: encrypts the header ... under
// TemporalKey"). The Inumber-derived label itself is not part of this
// payload — it lives only implicitly, as the forest's HAMT key — but the
// Inumber value is, so a loaded header can keep deriving further
// revisions and child names.
type headerWire struct {
	Inumber        []byte `cbor:"inumber"`
	Ratchet        []byte `cbor:"ratchet"`
	NameRelativeTo []byte `cbor:"name_relative_to"`
	NameSegments   [][]byte `cbor:"name_segments"`
}

func (h Header) toWire() headerWire {
	relTo := h.Name.RelativeTo().Label()
	segs := h.Name.Segments()
	out := headerWire{
		Inumber:        h.Inumber.Bytes(),
		Ratchet:        h.Ratchet.Bytes(),
		NameRelativeTo: append([]byte(nil), relTo[:]...),
		NameSegments:   make([][]byte, len(segs)),
	}
	for i, s := range segs {
		out.NameSegments[i] = s.Bytes()
	}
	return out
}

func headerFromWire(w headerWire) (Header, error) {
	r, ok := ratchet.FromBytes(w.Ratchet)
	if !ok {
		return Header{}, fmt.Errorf("decoding header: malformed ratchet encoding")
	}
	var relLabel accumulator.Label
	copy(relLabel[:], w.NameRelativeTo)
	relativeTo := accumulator.ParseLabel(relLabel)

	segs := make([]accumulator.Segment, len(w.NameSegments))
	for i, b := range w.NameSegments {
		segs[i] = accumulator.SegmentFromBytes(b)
	}
	return Header{
		Inumber: accumulator.SegmentFromBytes(w.Inumber),
		Ratchet: r,
		Name:    accumulator.NewName(relativeTo, segs),
	}, nil
}

// storeHeader encrypts h under its own TemporalKey and stores it as a
// raw block, returning the block's CID. Called once per revision as
// stage 1 of storing a private node (spec §4.7.1).
func storeHeader(ctx context.Context, store blockstore.Store, h Header) (vcid.Cid, error) {
	plain, err := xcodec.Marshal(h.toWire())
	if err != nil {
		return vcid.Undef, fmt.Errorf("encoding header: %w", err)
	}
	sealed, err := aead.Seal(h.TemporalKey(), plain)
	if err != nil {
		return vcid.Undef, fmt.Errorf("sealing header: %w", err)
	}
	return store.PutBlock(ctx, vcid.CodecRaw, sealed)
}

// loadHeader is storeHeader's inverse, given the TemporalKey that
// unseals it.
func loadHeader(ctx context.Context, store blockstore.Store, id vcid.Cid, key TemporalKey) (Header, error) {
	sealed, err := store.GetBlock(ctx, id)
	if err != nil {
		return Header{}, err
	}
	plain, err := aead.Open(key, sealed)
	if err != nil {
		return Header{}, err
	}
	var w headerWire
	if err := xcodec.Unmarshal(plain, &w); err != nil {
		return Header{}, fmt.Errorf("decoding header: %w", err)
	}
	return headerFromWire(w)
}

// forestInsert inserts cids under name's accumulated label (spec §4.7.1
// stage 3). Directory.Store and File.Store do not use it; they call
// Forest.PutEncrypted directly.
func forestInsert(f *forest.Forest, name accumulator.Name, cids []vcid.Cid) accumulator.NameAccumulator {
	n := name
	return f.PutEncrypted(&n, cids)
}
