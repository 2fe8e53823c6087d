// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rootfs implements the root container (spec §4.9, C9): the
// top-level record binding a public tree, an exchange tree (a second,
// plain public tree per spec §9's open-question resolution), and a
// private forest into one container, plus the "public"/"exchange"/
// "private" path-prefix routing layer spec §4.9 describes.
//
// Grounded on original_source/wnfs/src/root_tree.rs's `RootTree`
// (public_root/exchange_root/forest triple, `path.split_first()`
// prefix dispatch, `create_private_root`/`load_private_root`),
// reimplemented over packages public/private/forest/accumulator in
// place of the original's libipld-backed trees.
package rootfs

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/luxfi/vaultfs/accumulator"
	"github.com/luxfi/vaultfs/blockstore"
	vcid "github.com/luxfi/vaultfs/cid"
	"github.com/luxfi/vaultfs/forest"
	"github.com/luxfi/vaultfs/private"
	"github.com/luxfi/vaultfs/public"
	"github.com/luxfi/vaultfs/xerrors"
	"github.com/luxfi/vaultfs/xlog"
	"github.com/luxfi/vaultfs/xmath"
)

// wireVersion is the root record's "0.2.x"-style version gate (spec §6).
const wireVersion = "0.2.0"

// majorMinor returns the "major.minor" prefix of a "major.minor.patch"
// version string. Spec §6 requires readers to reject only on a major or
// minor mismatch; a trailing patch component never gates loading.
func majorMinor(v string) string {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return v
	}
	return parts[0] + "." + parts[1]
}

const (
	prefixPublic   = "public"
	prefixExchange = "exchange"
	prefixPrivate  = "private"
)

// Option configures a Root.
type Option func(*Root)

// WithLogger sets the container's logger, defaulting to a no-op.
func WithLogger(l xlog.Logger) Option { return func(r *Root) { r.logger = l } }

// WithDiscrepancyBudget overrides the budget every private-partition
// search_latest/history call uses when one isn't supplied explicitly.
// Defaults to private.DefaultDiscrepancyBudget. A budget below 1 is
// clamped to 1: ratchet.Seek's probe loop runs `for steps < budget`, so
// a zero or negative budget would make every seeking search_latest call
// fail with xerrors.ErrNoIntermediateRatchet before probing once.
func WithDiscrepancyBudget(budget int) Option {
	return func(r *Root) { r.budget = xmath.Max(budget, 1) }
}

// Root is the spec §4.9 `RootContainer`: `{ public_root, exchange_root,
// forest, version }`, plus the in-memory routing table of mounted
// private partitions the spec describes but does not itself persist —
// each mount is recovered by a recipient via load_private_root and an
// AccessKey, not by walking the container record.
type Root struct {
	Public   *public.Directory
	Exchange *public.Directory
	Forest   *forest.Forest

	partitions map[string]*private.Directory

	logger xlog.Logger
	budget int
}

// New returns an empty root container over setup, with empty public and
// exchange trees and an empty forest.
func New(setup accumulator.Setup, now time.Time, opts ...Option) *Root {
	r := &Root{
		Public:     public.NewDirectory(now),
		Exchange:   public.NewDirectory(now),
		Forest:     forest.New(setup),
		partitions: map[string]*private.Directory{},
		logger:     xlog.NewNoOp(),
		budget:     private.DefaultDiscrepancyBudget,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// splitPrefix separates path's routing prefix ("public"/"exchange"/
// "private") from the remainder the underlying tree operates on (spec
// §4.9 "routing layer over a path prefixed by public|exchange|private").
func splitPrefix(path []string) (string, []string, error) {
	if len(path) == 0 {
		return "", nil, xerrors.ErrInvalidPath
	}
	return path[0], path[1:], nil
}

// treeFor resolves path's prefix to the public or exchange tree,
// returning the rest of path as the tree-relative path. Private prefixes
// are not handled here; callers that want a private partition must use
// the Private* methods, which additionally need the partition's mount
// name and (for writes) an unlocked Directory handle.
func (r *Root) treeFor(prefix string) (*public.Directory, bool) {
	switch prefix {
	case prefixPublic:
		return r.Public, true
	case prefixExchange:
		return r.Exchange, true
	default:
		return nil, false
	}
}

// Ls dispatches a public/exchange/private ls by path prefix (spec §4.9).
func (r *Root) Ls(ctx context.Context, store blockstore.Store, path []string) ([]ListEntry, error) {
	prefix, rest, err := splitPrefix(path)
	if err != nil {
		return nil, err
	}
	if tree, ok := r.treeFor(prefix); ok {
		dir := tree
		if len(rest) > 0 {
			n, err := tree.GetNode(ctx, store, rest)
			if err != nil {
				return nil, err
			}
			if n.Dir == nil {
				return nil, xerrors.ErrNotADirectory
			}
			dir = n.Dir
		}
		entries, err := dir.Ls(ctx, store)
		if err != nil {
			return nil, err
		}
		out := make([]ListEntry, len(entries))
		for i, e := range entries {
			out[i] = ListEntry{Name: e.Name, IsDir: e.IsDir}
		}
		return out, nil
	}
	if prefix == prefixPrivate {
		part, partRest, err := r.resolvePrivatePartition(rest)
		if err != nil {
			return nil, err
		}
		entries, err := part.LsPath(ctx, store, partRest, true, r.budget)
		if err != nil {
			return nil, err
		}
		out := make([]ListEntry, len(entries))
		for i, e := range entries {
			out[i] = ListEntry{Name: e.Name, IsDir: e.IsDir}
		}
		return out, nil
	}
	return nil, fmt.Errorf("rootfs: unknown path prefix %q: %w", prefix, xerrors.ErrInvalidPath)
}

// ListEntry is one routed ls result, uniform across public/exchange/
// private dispatch.
type ListEntry struct {
	Name  string
	IsDir bool
}

// Read dispatches a public/exchange/private read by path prefix.
func (r *Root) Read(ctx context.Context, store blockstore.Store, path []string) ([]byte, error) {
	prefix, rest, err := splitPrefix(path)
	if err != nil {
		return nil, err
	}
	if tree, ok := r.treeFor(prefix); ok {
		n, err := tree.GetNode(ctx, store, rest)
		if err != nil {
			return nil, err
		}
		if n.File == nil {
			return nil, xerrors.ErrNotAFile
		}
		return n.File.Content, nil
	}
	if prefix == prefixPrivate {
		part, partRest, err := r.resolvePrivatePartition(rest)
		if err != nil {
			return nil, err
		}
		return part.Read(ctx, store, partRest, true, r.budget)
	}
	return nil, fmt.Errorf("rootfs: unknown path prefix %q: %w", prefix, xerrors.ErrInvalidPath)
}

// Write dispatches a public/exchange/private write by path prefix.
func (r *Root) Write(ctx context.Context, store blockstore.Store, path []string, content []byte, now time.Time, rng io.Reader) error {
	prefix, rest, err := splitPrefix(path)
	if err != nil {
		return err
	}
	switch prefix {
	case prefixPublic:
		return r.Public.Write(ctx, store, rest, content, now)
	case prefixExchange:
		return r.Exchange.Write(ctx, store, rest, content, now)
	case prefixPrivate:
		part, partRest, err := r.resolvePrivatePartition(rest)
		if err != nil {
			return err
		}
		return part.Write(ctx, store, partRest, content, now, rng)
	default:
		return fmt.Errorf("rootfs: unknown path prefix %q: %w", prefix, xerrors.ErrInvalidPath)
	}
}

// Mkdir dispatches mkdir by path prefix.
func (r *Root) Mkdir(ctx context.Context, store blockstore.Store, path []string, now time.Time, rng io.Reader) error {
	prefix, rest, err := splitPrefix(path)
	if err != nil {
		return err
	}
	switch prefix {
	case prefixPublic:
		return r.Public.Mkdir(ctx, store, rest, now)
	case prefixExchange:
		return r.Exchange.Mkdir(ctx, store, rest, now)
	case prefixPrivate:
		part, partRest, err := r.resolvePrivatePartition(rest)
		if err != nil {
			return err
		}
		return part.Mkdir(ctx, store, partRest, now, rng)
	default:
		return fmt.Errorf("rootfs: unknown path prefix %q: %w", prefix, xerrors.ErrInvalidPath)
	}
}

// resolvePrivatePartition looks up the mounted private partition named
// by rest's first component (spec §4.9 "a registered (prefix ->
// PrivateDirectory) entry"), returning the remaining path relative to
// that partition's root.
func (r *Root) resolvePrivatePartition(rest []string) (*private.Directory, []string, error) {
	if len(rest) == 0 {
		return nil, nil, xerrors.ErrInvalidPath
	}
	part, ok := r.partitions[rest[0]]
	if !ok {
		return nil, nil, fmt.Errorf("rootfs: %q: %w", rest[0], xerrors.ErrPartitionNotFound)
	}
	return part, rest[1:], nil
}

// CreatePrivateRoot mounts a fresh, empty private partition at name and
// returns an AccessKey capability to it (spec §4.9 "Private partitions
// are created via create_private_root (returns an AccessKey
// capability)").
func (r *Root) CreatePrivateRoot(ctx context.Context, store blockstore.Store, name string, now time.Time, rng io.Reader) (private.AccessKey, error) {
	if _, exists := r.partitions[name]; exists {
		return private.AccessKey{}, fmt.Errorf("rootfs: %q: %w", name, xerrors.ErrDirectoryAlreadyExists)
	}
	root := accumulator.EmptyName(r.Forest.Setup)
	dir, err := private.NewDirectory(r.Forest, root, now, rng)
	if err != nil {
		return private.AccessKey{}, fmt.Errorf("rootfs: creating private root %q: %w", name, err)
	}
	ref, err := dir.Store(ctx, store)
	if err != nil {
		return private.AccessKey{}, fmt.Errorf("rootfs: storing private root %q: %w", name, err)
	}
	r.partitions[name] = dir
	r.logger.Infow("created private root", "name", name)
	return private.AccessKey{
		ForestModulus:   r.Forest.Setup.Modulus.Bytes(),
		ForestGenerator: r.Forest.Setup.Generator.Bytes(),
		Ref:             ref,
	}, nil
}

// LoadPrivateRoot mounts a private partition at name from an AccessKey
// previously returned by CreatePrivateRoot/granted by another party
// (spec §4.9 "mounted via load_private_root(path, access_key)"). The
// access key's forest setup must match this container's forest.
func (r *Root) LoadPrivateRoot(ctx context.Context, store blockstore.Store, name string, key private.AccessKey) error {
	if r.Forest.Setup.Modulus.Cmp(new(big.Int).SetBytes(key.ForestModulus)) != 0 {
		return xerrors.ErrIncompatibleAccumulatorSetups
	}
	dir, err := private.LoadDirectory(ctx, r.Forest, store, key.Ref)
	if err != nil {
		return fmt.Errorf("rootfs: loading private root %q: %w", name, err)
	}
	r.partitions[name] = dir
	r.logger.Infow("loaded private root", "name", name)
	return nil
}

// Partition returns the mounted private directory at name, if any —
// an escape hatch for callers that need direct access to history
// traversal, search_latest, mv/cp, etc. beyond the routed Ls/Read/
// Write/Mkdir surface above.
func (r *Root) Partition(name string) (*private.Directory, bool) {
	d, ok := r.partitions[name]
	return d, ok
}

// rootWire is the on-block shape of the container record (spec §4.9
// "Binds { public_root, exchange_root, forest, version } as a single
// serializable record whose CID is the top-level pointer").
type rootWire struct {
	PublicRoot   vcid.Cid `cbor:"public_root"`
	ExchangeRoot vcid.Cid `cbor:"exchange_root"`
	ForestRoot   vcid.Cid `cbor:"forest_root"`
	Version      string   `cbor:"version"`
}

// Store persists the public tree, exchange tree, and forest, then writes
// and returns the CID of the binding root record.
func (r *Root) Store(ctx context.Context, store blockstore.Store) (vcid.Cid, error) {
	publicCID, err := r.Public.Store(ctx, store)
	if err != nil {
		return vcid.Undef, fmt.Errorf("rootfs: storing public tree: %w", err)
	}
	exchangeCID, err := r.Exchange.Store(ctx, store)
	if err != nil {
		return vcid.Undef, fmt.Errorf("rootfs: storing exchange tree: %w", err)
	}
	forestCID, err := r.Forest.Cid(ctx, store)
	if err != nil {
		return vcid.Undef, fmt.Errorf("rootfs: storing forest: %w", err)
	}
	wire := rootWire{PublicRoot: publicCID, ExchangeRoot: exchangeCID, ForestRoot: forestCID, Version: wireVersion}
	id, err := store.PutSerializable(ctx, wire)
	if err != nil {
		return vcid.Undef, err
	}
	r.logger.Infow("stored root container", "cid", id.String())
	return id, nil
}

// Load reconstructs a Root from a container record CID. Private
// partitions are not re-mounted automatically: a loader must call
// LoadPrivateRoot with each partition's AccessKey, since the container
// record itself carries no capability material (spec §4.9's
// prefix-table is populated by out-of-band AccessKey delivery, not by
// the persisted record).
func Load(ctx context.Context, id vcid.Cid, store blockstore.Store, opts ...Option) (*Root, error) {
	var wire rootWire
	if err := store.GetDeserializable(ctx, id, &wire); err != nil {
		return nil, fmt.Errorf("rootfs: loading root record: %w", err)
	}
	if majorMinor(wire.Version) != majorMinor(wireVersion) {
		return nil, xerrors.ErrUnexpectedVersion
	}
	publicNode, err := public.LoadNode(ctx, store, wire.PublicRoot)
	if err != nil {
		return nil, fmt.Errorf("rootfs: loading public tree: %w", err)
	}
	if publicNode.Dir == nil {
		return nil, xerrors.ErrNotADirectory
	}
	exchangeNode, err := public.LoadNode(ctx, store, wire.ExchangeRoot)
	if err != nil {
		return nil, fmt.Errorf("rootfs: loading exchange tree: %w", err)
	}
	if exchangeNode.Dir == nil {
		return nil, xerrors.ErrNotADirectory
	}
	f, err := forest.Load(ctx, wire.ForestRoot, store)
	if err != nil {
		return nil, fmt.Errorf("rootfs: loading forest: %w", err)
	}
	r := &Root{
		Public:     publicNode.Dir,
		Exchange:   exchangeNode.Dir,
		Forest:     f,
		partitions: map[string]*private.Directory{},
		logger:     xlog.NewNoOp(),
		budget:     private.DefaultDiscrepancyBudget,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewRNG returns crypto/rand's Reader, the default randomness source for
// every CLI/demo call site that needs one (key generation, inumbers,
// ratchet salts). Exported so cmd/vaultfs and tests share one obvious
// default rather than each importing crypto/rand directly.
func NewRNG() io.Reader { return rand.Reader }
