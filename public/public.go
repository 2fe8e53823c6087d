// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package public implements the spec §4.8/§11 public tree (C8): a plain
// CID-linked directory/file tree with no encryption and `previous`
// back-links, mirroring package private's structure without the
// ratchet/accumulator key schedule. Mutations edit nodes in place (see
// prepareMut); they do not clone them.
//
// Grounded on original_source/wnfs/src/public/{directory.rs,file.rs} and
// the teacher-adjacent wnfs-go reference port's plain-tree half of
// other_examples/05f05903_qri-io-wnfs-go__private-private.go.go (the
// non-encrypted counterpart described in that port's sibling `public`
// package), reimplemented over package blockstore/xcodec/xset in place
// of the Rust crate's libipld `PublicDirectory`/`PublicFile`.
package public

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/luxfi/vaultfs/blockstore"
	vcid "github.com/luxfi/vaultfs/cid"
	"github.com/luxfi/vaultfs/xcodec"
	"github.com/luxfi/vaultfs/xerrors"
	"github.com/luxfi/vaultfs/xset"
)

// Metadata mirrors package private's Metadata without the encryption
// concerns: created/modified timestamps plus a free-form key/value map.
type Metadata struct {
	Created  time.Time
	Modified time.Time
	Extra    map[string]any
}

func newMetadata(now time.Time) Metadata {
	return Metadata{Created: now, Modified: now, Extra: map[string]any{}}
}

func (m Metadata) touch(now time.Time) Metadata {
	cp := m
	cp.Modified = now
	return cp
}

type metadataWire struct {
	Created  int64          `cbor:"created"`
	Modified int64          `cbor:"modified"`
	Extra    map[string]any `cbor:"extra,omitempty"`
}

func (m Metadata) toWire() metadataWire {
	return metadataWire{Created: m.Created.UnixMicro(), Modified: m.Modified.UnixMicro(), Extra: m.Extra}
}

func metadataFromWire(w metadataWire) Metadata {
	extra := w.Extra
	if extra == nil {
		extra = map[string]any{}
	}
	return Metadata{Created: time.UnixMicro(w.Created), Modified: time.UnixMicro(w.Modified), Extra: extra}
}

// Link is a public directory's child entry: either a resolved in-memory
// node or a plain CID reference, analogous to package private's Link but
// with no decryption step (spec §4.8 "PublicLink").
type Link struct {
	cid  *vcid.Cid
	node *Node
}

// NewResolvedLink wraps an in-memory node not yet stored.
func NewResolvedLink(n Node) *Link { return &Link{node: &n} }

// NewCIDLink wraps a plain CID reference.
func NewCIDLink(id vcid.Cid) *Link { return &Link{cid: &id} }

func (l *Link) resolve(ctx context.Context, store blockstore.Store) (Node, error) {
	if l.node != nil {
		return *l.node, nil
	}
	if l.cid == nil {
		return Node{}, fmt.Errorf("public: empty link")
	}
	n, err := LoadNode(ctx, store, *l.cid)
	if err != nil {
		return Node{}, err
	}
	l.node = &n
	return n, nil
}

func (l *Link) store(ctx context.Context, store blockstore.Store) (vcid.Cid, error) {
	if l.node != nil {
		id, err := l.node.Store(ctx, store)
		if err != nil {
			return vcid.Undef, err
		}
		l.cid = &id
		return id, nil
	}
	if l.cid != nil {
		return *l.cid, nil
	}
	return vcid.Undef, fmt.Errorf("public: empty link")
}

// Node is the public-tree sum type over Directory/File (mirroring
// package private's Node).
type Node struct {
	Dir  *Directory
	File *File
}

func (n Node) IsDir() bool { return n.Dir != nil }

func (n Node) Metadata() Metadata {
	if n.Dir != nil {
		return n.Dir.Metadata
	}
	return n.File.Metadata
}

func (n Node) Store(ctx context.Context, store blockstore.Store) (vcid.Cid, error) {
	switch {
	case n.Dir != nil:
		return n.Dir.Store(ctx, store)
	case n.File != nil:
		return n.File.Store(ctx, store)
	default:
		return vcid.Undef, fmt.Errorf("public: empty node")
	}
}

func (d *Directory) AsNode() Node { return Node{Dir: d} }
func (f *File) AsNode() Node      { return Node{File: f} }

type nodeWire struct {
	Kind string `cbor:"kind"`
}

const (
	kindDirectory = "directory"
	kindFile      = "file"
)

// LoadNode decodes whichever kind of node id points at.
func LoadNode(ctx context.Context, store blockstore.Store, id vcid.Cid) (Node, error) {
	data, err := store.GetBlock(ctx, id)
	if err != nil {
		return Node{}, err
	}
	var tag nodeWire
	if err := xcodec.Unmarshal(data, &tag); err != nil {
		return Node{}, fmt.Errorf("public: decoding node kind: %w", err)
	}
	switch tag.Kind {
	case kindDirectory:
		var wire directoryWire
		if err := xcodec.Unmarshal(data, &wire); err != nil {
			return Node{}, fmt.Errorf("public: decoding directory: %w", err)
		}
		d := directoryFromWire(wire)
		return Node{Dir: d}, nil
	case kindFile:
		var wire fileWire
		if err := xcodec.Unmarshal(data, &wire); err != nil {
			return Node{}, fmt.Errorf("public: decoding file: %w", err)
		}
		return Node{File: fileFromWire(wire)}, nil
	default:
		return Node{}, fmt.Errorf("public: unknown node kind %q: %w", tag.Kind, xerrors.ErrUnexpectedNodeType)
	}
}

// Directory is the spec §4.8/§11 `PublicDirectory`: metadata, a child
// map (listed in name order by Ls), and a `previous` set of CIDs.
type Directory struct {
	Metadata Metadata
	Entries  map[string]*Link
	Previous xset.Set[vcid.Cid]

	persistedAs *vcid.Cid
}

// NewDirectory creates an empty public directory.
func NewDirectory(now time.Time) *Directory {
	return &Directory{Metadata: newMetadata(now), Entries: map[string]*Link{}, Previous: xset.Of[vcid.Cid]()}
}

// prepareMut is the public-tree analogue of prepare_next_revision: if d
// has been stored, it adds the stored CID to d.Previous and clears d's
// stored CID. It changes d in place; it does not clone d, so every
// handle to d sees the change.
func (d *Directory) prepareMut() {
	if d.persistedAs == nil {
		return
	}
	d.Previous.Add(*d.persistedAs)
	d.persistedAs = nil
}

type directoryWire struct {
	Kind     string            `cbor:"kind"`
	Metadata metadataWire      `cbor:"metadata"`
	Entries  map[string]vcid.Cid `cbor:"entries"`
	Previous []vcid.Cid        `cbor:"previous"`
}

// Store persists the directory, recursively storing any unstored
// children.
func (d *Directory) Store(ctx context.Context, store blockstore.Store) (vcid.Cid, error) {
	entries := make(map[string]vcid.Cid, len(d.Entries))
	for name, link := range d.Entries {
		id, err := link.store(ctx, store)
		if err != nil {
			return vcid.Undef, fmt.Errorf("public: storing child %q: %w", name, err)
		}
		entries[name] = id
	}
	prev := sortedCids(d.Previous)
	wire := directoryWire{Kind: kindDirectory, Metadata: d.Metadata.toWire(), Entries: entries, Previous: prev}
	id, err := store.PutSerializable(ctx, wire)
	if err != nil {
		return vcid.Undef, err
	}
	d.persistedAs = &id
	return id, nil
}

func directoryFromWire(w directoryWire) *Directory {
	entries := make(map[string]*Link, len(w.Entries))
	for name, id := range w.Entries {
		entries[name] = NewCIDLink(id)
	}
	id := vcid.Undef
	d := &Directory{
		Metadata: metadataFromWire(w.Metadata),
		Entries:  entries,
		Previous: xset.Of(w.Previous...),
	}
	_ = id
	return d
}

// Entry is one (name, metadata) pair returned by Ls.
type Entry struct {
	Name     string
	Metadata Metadata
	IsDir    bool
}

// Ls lists children in canonical (sorted-by-name) order (spec §4.8
// "ls").
func (d *Directory) Ls(ctx context.Context, store blockstore.Store) ([]Entry, error) {
	names := make([]string, 0, len(d.Entries))
	for name := range d.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		n, err := d.Entries[name].resolve(ctx, store)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Name: name, Metadata: n.Metadata(), IsDir: n.IsDir()})
	}
	return out, nil
}

// GetNode walks path from the directory, failing NotFound/NotADirectory
// on a missing or wrong-kind hop (spec §4.8 "get_node").
func (d *Directory) GetNode(ctx context.Context, store blockstore.Store, path []string) (Node, error) {
	cur := d
	for i, name := range path {
		link, ok := cur.Entries[name]
		if !ok {
			return Node{}, fmt.Errorf("public: %q: %w", name, xerrors.ErrNotFound)
		}
		n, err := link.resolve(ctx, store)
		if err != nil {
			return Node{}, err
		}
		if i == len(path)-1 {
			return n, nil
		}
		if n.Dir == nil {
			return Node{}, fmt.Errorf("public: %q: %w", name, xerrors.ErrNotADirectory)
		}
		cur = n.Dir
	}
	return cur.AsNode(), nil
}

func (d *Directory) getOrCreateLeafDir(ctx context.Context, store blockstore.Store, name string, now time.Time) (*Directory, error) {
	if link, ok := d.Entries[name]; ok {
		n, err := link.resolve(ctx, store)
		if err != nil {
			return nil, err
		}
		if n.Dir == nil {
			return nil, fmt.Errorf("public: %q: %w", name, xerrors.ErrNotADirectory)
		}
		return n.Dir, nil
	}
	child := NewDirectory(now)
	d.Entries[name] = NewResolvedLink(child.AsNode())
	return child, nil
}

func (d *Directory) getOrCreateParentDir(ctx context.Context, store blockstore.Store, path []string, now time.Time) (*Directory, string, error) {
	if len(path) == 0 {
		return nil, "", xerrors.ErrInvalidPath
	}
	cur := d
	cur.prepareMut()
	for _, name := range path[:len(path)-1] {
		next, err := cur.getOrCreateLeafDir(ctx, store, name, now)
		if err != nil {
			return nil, "", err
		}
		next.prepareMut()
		cur = next
	}
	return cur, path[len(path)-1], nil
}

// Write creates or updates the file at path (spec §4.8 "write").
func (d *Directory) Write(ctx context.Context, store blockstore.Store, path []string, content []byte, now time.Time) error {
	parent, leaf, err := d.getOrCreateParentDir(ctx, store, path, now)
	if err != nil {
		return err
	}
	if link, ok := parent.Entries[leaf]; ok {
		n, err := link.resolve(ctx, store)
		if err != nil {
			return err
		}
		if n.File == nil {
			return fmt.Errorf("public: %q: %w", leaf, xerrors.ErrNotAFile)
		}
		n.File.prepareMut()
		n.File.Content = append([]byte(nil), content...)
		n.File.Metadata = n.File.Metadata.touch(now)
		parent.Entries[leaf] = NewResolvedLink(n)
		return nil
	}
	file := NewFile(now)
	file.Content = append([]byte(nil), content...)
	parent.Entries[leaf] = NewResolvedLink(file.AsNode())
	return nil
}

// Mkdir creates every missing intermediate directory along path (spec
// §4.8 "mkdir").
func (d *Directory) Mkdir(ctx context.Context, store blockstore.Store, path []string, now time.Time) error {
	if len(path) == 0 {
		return nil
	}
	parent, leaf, err := d.getOrCreateParentDir(ctx, store, path, now)
	if err != nil {
		return err
	}
	if _, ok := parent.Entries[leaf]; ok {
		return nil
	}
	_, err = parent.getOrCreateLeafDir(ctx, store, leaf, now)
	return err
}

// Rm removes the child entry at path and returns it (spec §4.8 "rm").
func (d *Directory) Rm(ctx context.Context, store blockstore.Store, path []string) (Node, error) {
	if len(path) == 0 {
		return Node{}, xerrors.ErrInvalidPath
	}
	cur := d
	cur.prepareMut()
	for _, name := range path[:len(path)-1] {
		n, err := cur.GetNode(ctx, store, []string{name})
		if err != nil {
			return Node{}, err
		}
		if n.Dir == nil {
			return Node{}, fmt.Errorf("public: %q: %w", name, xerrors.ErrNotADirectory)
		}
		n.Dir.prepareMut()
		cur.Entries[name] = NewResolvedLink(n)
		cur = n.Dir
	}
	leaf := path[len(path)-1]
	link, ok := cur.Entries[leaf]
	if !ok {
		return Node{}, fmt.Errorf("public: %q: %w", leaf, xerrors.ErrNotFound)
	}
	n, err := link.resolve(ctx, store)
	if err != nil {
		return Node{}, err
	}
	delete(cur.Entries, leaf)
	return n, nil
}

// Mv removes the node at from and re-attaches it at to (spec §4.8 "mv":
// unlike the private tree there is no key rotation, since there is no
// key schedule to rotate).
func (d *Directory) Mv(ctx context.Context, store blockstore.Store, from, to []string, now time.Time) error {
	n, err := d.Rm(ctx, store, from)
	if err != nil {
		return err
	}
	parent, leaf, err := d.getOrCreateParentDir(ctx, store, to, now)
	if err != nil {
		return err
	}
	parent.Entries[leaf] = NewResolvedLink(n)
	return nil
}

// baseHistoryOn rewrites d's previous-links recursively so d logically
// descends from base (spec §4.8 "base_history_on(base): rewrites
// previous links recursively so a newly-constructed tree logically
// descends from an older one").
func (d *Directory) baseHistoryOn(ctx context.Context, store blockstore.Store, base *Directory) error {
	baseCID, err := base.Store(ctx, store)
	if err != nil {
		return err
	}
	d.Previous = xset.Of(baseCID)
	for name, link := range d.Entries {
		n, err := link.resolve(ctx, store)
		if err != nil {
			return err
		}
		baseLink, ok := base.Entries[name]
		if !ok || n.Dir == nil {
			continue
		}
		baseNode, err := baseLink.resolve(ctx, store)
		if err != nil || baseNode.Dir == nil {
			continue
		}
		if err := n.Dir.baseHistoryOn(ctx, store, baseNode.Dir); err != nil {
			return err
		}
		d.Entries[name] = NewResolvedLink(n)
	}
	return nil
}

// File is the spec §4.8/§11 `PublicFile`: metadata, a `previous` set of
// CIDs, and plain userland content.
type File struct {
	Metadata Metadata
	Content  []byte
	Previous xset.Set[vcid.Cid]

	persistedAs *vcid.Cid
}

// NewFile creates an empty public file.
func NewFile(now time.Time) *File {
	return &File{Metadata: newMetadata(now), Previous: xset.Of[vcid.Cid]()}
}

func (f *File) prepareMut() {
	if f.persistedAs == nil {
		return
	}
	f.Previous.Add(*f.persistedAs)
	f.persistedAs = nil
}

type fileWire struct {
	Kind     string       `cbor:"kind"`
	Metadata metadataWire `cbor:"metadata"`
	Userland []byte       `cbor:"userland"`
	Previous []vcid.Cid   `cbor:"previous"`
}

// Store persists the file.
func (f *File) Store(ctx context.Context, store blockstore.Store) (vcid.Cid, error) {
	wire := fileWire{Kind: kindFile, Metadata: f.Metadata.toWire(), Userland: f.Content, Previous: sortedCids(f.Previous)}
	id, err := store.PutSerializable(ctx, wire)
	if err != nil {
		return vcid.Undef, err
	}
	f.persistedAs = &id
	return id, nil
}

func fileFromWire(w fileWire) *File {
	return &File{Metadata: metadataFromWire(w.Metadata), Content: w.Userland, Previous: xset.Of(w.Previous...)}
}

func sortedCids(s xset.Set[vcid.Cid]) []vcid.Cid {
	out := s.List()
	sort.Slice(out, func(i, j int) bool {
		return fmt.Sprintf("%s", out[i]) < fmt.Sprintf("%s", out[j])
	})
	return out
}
