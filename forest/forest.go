// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package forest implements the private forest (spec §4.5): a HAMT
// (package hamt) keyed by 2048-bit accumulator labels (package
// accumulator), whose values are sets of encrypted-block CIDs. Multiple
// CIDs at one label are a "multivalue" — concurrent writes under the
// same logical name — resolved by the caller (package private) trying
// each candidate CID against the key it holds.
//
// Grounded on original_source/wnfs/src/private/forest/hamt.rs
// (`HamtForest::put_encrypted`/`get_encrypted`/`remove_encrypted`/
// `diff`/`merge`), reimplemented over the generic package hamt in place
// of the Rust crate's libipld-backed `Hamt<NameAccumulator, BTreeSet<Cid>>`.
package forest

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/luxfi/vaultfs/accumulator"
	"github.com/luxfi/vaultfs/blockstore"
	vcid "github.com/luxfi/vaultfs/cid"
	"github.com/luxfi/vaultfs/hamt"
	"github.com/luxfi/vaultfs/xerrors"
	"github.com/luxfi/vaultfs/xlog"
	"github.com/luxfi/vaultfs/xmetrics"
	"github.com/luxfi/vaultfs/xset"
)

// cidSlice is the on-forest wire form of a label's CID multivalue: a
// slice sorted by binary CID representation so that, per xset's package
// comment, a Set[Cid] persists history-independently regardless of
// insertion order or Go map iteration.
type cidSlice []vcid.Cid

func sortedCids(s xset.Set[vcid.Cid]) cidSlice {
	out := make(cidSlice, 0, s.Len())
	for _, c := range s.List() {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].Bytes(), out[j].Bytes()) < 0 })
	return out
}

func (s cidSlice) toSet() xset.Set[vcid.Cid] {
	return xset.Of(([]vcid.Cid)(s)...)
}

// Key is the forest's HAMT key: the hash of a name's accumulated label
// rather than the raw 2048-bit accumulator state (spec §4.6
// "RevisionNameHash = H(accumulate(RevisionName))"). This is the
// specification's own documented ambiguity between §3 ("Accumulator
// label ... used as the HAMT key") and §4.6 (the hashed form embedded in
// every PrivateRef/AccessKey): resolved here in favor of the hash, since
// a PrivateRef only ever carries RevisionNameHash and must be able to
// look a node up in the forest without recomputing its Name (which it
// does not carry). The raw NameAccumulator remains what PoKE* proofs
// are computed and verified over for write-access control; only the
// forest's storage key is the hash (see DESIGN.md).
type Key [32]byte

// Bytes satisfies hamt.Keyer.
func (k Key) Bytes() []byte { return k[:] }

// KeyOf hashes an accumulator's label into its forest Key.
func KeyOf(acc accumulator.NameAccumulator) Key {
	label := acc.Label()
	return Key(vcid.Sum256(label[:]))
}

// Option configures a Forest.
type Option func(*Forest)

// WithLogger sets the forest's logger, defaulting to a no-op.
func WithLogger(l xlog.Logger) Option { return func(f *Forest) { f.logger = l } }

// WithMetrics registers the forest's metrics sink, defaulting to nil
// (disabled).
func WithMetrics(m xmetrics.Metrics) Option { return func(f *Forest) { f.metrics = m } }

// WithNameCacheSize bounds the Name -> accumulator memoization cache.
// The zero value (default) disables the cache.
func WithNameCacheSize(n int) Option {
	return func(f *Forest) { f.cache = newNameCache(n) }
}

// Forest is the spec §4.5 `{ hamt, setup, name_cache }` state.
type Forest struct {
	root  *hamt.Node[Key, cidSlice]
	Setup accumulator.Setup

	cache   *nameCache
	logger  xlog.Logger
	metrics xmetrics.Metrics
}

// New returns an empty forest over setup.
func New(setup accumulator.Setup, opts ...Option) *Forest {
	f := &Forest{
		root:   hamt.New[Key, cidSlice](),
		Setup:  setup,
		logger: xlog.NewNoOp(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Forest) accumulate(name *accumulator.Name) accumulator.NameAccumulator {
	if f.cache != nil {
		if acc, ok := f.cache.get(name); ok {
			return acc
		}
	}
	acc := name.AsAccumulator(f.Setup)
	if f.cache != nil {
		f.cache.put(name, acc)
	}
	return acc
}

// PutEncrypted accumulates name and read-modify-writes the forest's HAMT
// bucket at that label, unioning cids into whatever CID set is already
// there (spec §4.5 "put_encrypted"). Returns the resulting accumulator.
func (f *Forest) PutEncrypted(name *accumulator.Name, cids []vcid.Cid) accumulator.NameAccumulator {
	acc := f.accumulate(name)
	key := KeyOf(acc)

	next := xset.Of(cids...)
	if existing, ok := f.root.Get(key); ok {
		before := existing.toSet()
		if before.Len() > 0 && f.metrics != nil {
			f.metrics.ForestMultivalue().Inc()
		}
		next = before.Union(next)
	}
	f.root.Set(key, sortedCids(next))

	if f.metrics != nil {
		f.metrics.ForestPut().Inc()
	}
	f.logger.Debugw("forest put_encrypted", "key", fmt.Sprintf("%x", key[:8]), "cids", len(next))
	return acc
}

// GetEncrypted accumulates name and returns the CID set stored at its
// key, if any.
func (f *Forest) GetEncrypted(name *accumulator.Name) (xset.Set[vcid.Cid], bool) {
	return f.GetEncryptedKey(KeyOf(f.accumulate(name)))
}

// GetEncryptedKey looks up an already-computed Key directly, letting
// callers that hold a PrivateRef's RevisionNameHash (itself a Key) skip
// recomputing the accumulator from a Name they may not have.
func (f *Forest) GetEncryptedKey(key Key) (xset.Set[vcid.Cid], bool) {
	v, ok := f.root.Get(key)
	if !ok {
		return nil, false
	}
	return v.toSet(), true
}

// RemoveEncrypted deletes name's entry entirely, returning its
// accumulator and former CID set.
func (f *Forest) RemoveEncrypted(name *accumulator.Name) (accumulator.NameAccumulator, xset.Set[vcid.Cid], bool) {
	acc := f.accumulate(name)
	v, ok := f.root.Remove(KeyOf(acc))
	if !ok {
		return acc, nil, false
	}
	return acc, v.toSet(), true
}

// Has reports whether name has any entry in the forest.
func (f *Forest) Has(name *accumulator.Name) bool {
	_, ok := f.GetEncrypted(name)
	return ok
}

// Diff reports every accumulator label that differs between a and b,
// failing if their accumulator setups are incompatible (spec §4.5).
func Diff(a, b *Forest) ([]hamt.KeyValueChange[Key, cidSlice], error) {
	if a.Setup.Modulus.Cmp(b.Setup.Modulus) != 0 || a.Setup.Generator.Cmp(b.Setup.Generator) != 0 {
		return nil, xerrors.ErrIncompatibleAccumulatorSetups
	}
	equal := func(x, y cidSlice) bool { return x.toSet().Equals(y.toSet()) }
	return hamt.Diff(a.root, b.root, equal), nil
}

// Merge reconciles two forests by taking the union of CID sets at every
// shared label — exactly how independently-produced concurrent writes
// under the same logical name both survive as a multivalue (spec §4.5,
// §5 merge laws: commutative, associative, idempotent).
func Merge(a, b *Forest) (*Forest, error) {
	if a.Setup.Modulus.Cmp(b.Setup.Modulus) != 0 || a.Setup.Generator.Cmp(b.Setup.Generator) != 0 {
		return nil, xerrors.ErrIncompatibleAccumulatorSetups
	}
	combine := func(x, y cidSlice) cidSlice {
		return sortedCids(x.toSet().Union(y.toSet()))
	}
	merged := hamt.Merge(a.root, b.root, combine)
	return &Forest{root: merged, Setup: a.Setup, logger: xlog.NewNoOp()}, nil
}

// Cid persists the forest's HAMT spine and returns the root record's
// content address (spec §6 "A forest record holds { hamt_root_cid,
// setup, version, structure_tag = \"hamt\" }").
func (f *Forest) Cid(ctx context.Context, store blockstore.Store) (vcid.Cid, error) {
	hamtRoot, err := f.root.Cid(ctx, store)
	if err != nil {
		return vcid.Undef, fmt.Errorf("persisting forest hamt: %w", err)
	}
	wire := forestWire{
		HamtRoot:     hamtRoot,
		Modulus:      f.Setup.Modulus.Bytes(),
		Generator:    f.Setup.Generator.Bytes(),
		Version:      wireVersion,
		StructureTag: "hamt",
	}
	return store.PutSerializable(ctx, wire)
}

// Load reconstructs a Forest from its root-record CID.
func Load(ctx context.Context, id vcid.Cid, store blockstore.Store) (*Forest, error) {
	var wire forestWire
	if err := store.GetDeserializable(ctx, id, &wire); err != nil {
		return nil, fmt.Errorf("loading forest record: %w", err)
	}
	if wire.Version != wireVersion {
		return nil, xerrors.ErrUnexpectedVersion
	}
	root, err := hamt.Load[Key, cidSlice](ctx, wire.HamtRoot, store)
	if err != nil {
		return nil, fmt.Errorf("loading forest hamt: %w", err)
	}
	setup := accumulator.Setup{
		Modulus:   new(big.Int).SetBytes(wire.Modulus),
		Generator: new(big.Int).SetBytes(wire.Generator),
	}
	return &Forest{root: root, Setup: setup, logger: xlog.NewNoOp()}, nil
}
