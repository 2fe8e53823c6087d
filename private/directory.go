// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package private

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/luxfi/vaultfs/accumulator"
	"github.com/luxfi/vaultfs/blockstore"
	vcid "github.com/luxfi/vaultfs/cid"
	"github.com/luxfi/vaultfs/forest"
	"github.com/luxfi/vaultfs/xcodec"
	"github.com/luxfi/vaultfs/xerrors"
)

// Directory is the spec §4.7 `PrivateDirectory`: a header, metadata, the
// previous-revision back-pointer set, and a name-keyed map of child
// links. Grounded on original_source/wnfs/src/private/directory.rs and
// the wnfs-go reference port's `Tree` type.
type Directory struct {
	Header   Header
	Metadata Metadata
	Previous []previousEntry
	Entries  map[string]*Link

	forest      *forest.Forest
	persistedAs *Ref
}

// NewDirectory creates an empty directory as a fresh child of parentName
// (spec §4.6 "new").
func NewDirectory(f *forest.Forest, parentName accumulator.Name, now time.Time, rng io.Reader) (*Directory, error) {
	h, err := NewHeader(parentName, rng)
	if err != nil {
		return nil, fmt.Errorf("private: creating directory header: %w", err)
	}
	return &Directory{
		Header:   h,
		Metadata: NewMetadata(now),
		Entries:  map[string]*Link{},
		forest:   f,
	}, nil
}

// cloneShallow copies d's fields into a fresh *Directory, sharing the
// forest handle and the Link pointers of unchanged entries but giving
// the returned directory its own Entries map and Previous slice, so
// that mutating the clone can never corrupt a handle some earlier
// LookupNode/Resolve call already returned for d (spec §4.7.2's
// copy-on-write discipline; ground truth is
// original_source/wnfs/src/private/directory.rs:431-448's
// `Rc::make_mut`, which clones whenever the Rc is aliased).
func (d *Directory) cloneShallow() *Directory {
	entries := make(map[string]*Link, len(d.Entries))
	for name, link := range d.Entries {
		entries[name] = link
	}
	var persisted *Ref
	if d.persistedAs != nil {
		r := *d.persistedAs
		persisted = &r
	}
	return &Directory{
		Header:      d.Header,
		Metadata:    d.Metadata,
		Previous:    append([]previousEntry(nil), d.Previous...),
		Entries:     entries,
		forest:      d.forest,
		persistedAs: persisted,
	}
}

// prepareNextRevision implements copy-on-write revision advancement
// (spec §4.7.2). It always returns a fresh *Directory distinct from the
// receiver: a never-stored directory's clone is otherwise untouched (no
// ratchet advance, no previous entry — matching
// original_source/wnfs/src/private/directory.rs:432-435's early
// `Rc::make_mut` return); a stored directory's clone additionally clears
// its persisted slot, records an encrypted back-pointer to its old
// content CID under the *new* revision's TemporalKey, and advances its
// ratchet. Sealing under the post-advance key (rather than the
// pre-advance one, which the prose alone leaves ambiguous) follows the
// design note in spec §9: "Each node records its own previous CID
// encrypted under the new revision's TemporalKey." Callers must use the
// returned directory going forward — see path.go's
// getOrCreateParentDir/prepareExistingAncestors for how the clone is
// threaded back into the parent's Entries map (or, for the path root,
// published back into the caller's own handle).
func (d *Directory) prepareNextRevision() (*Directory, error) {
	clone := d.cloneShallow()
	if clone.persistedAs == nil {
		return clone, nil
	}
	oldContentCID := clone.persistedAs.ContentCID
	clone.persistedAs = nil
	clone.Header.AdvanceRatchet()
	sealed, err := sealBytes(clone.Header.TemporalKey(), oldContentCID.Bytes())
	if err != nil {
		return nil, fmt.Errorf("private: sealing previous pointer: %w", err)
	}
	clone.Previous = append(clone.Previous, previousEntry{StepCount: 1, Sealed: sealed})
	return clone, nil
}

// directoryContentWire is the canonical byte string a directory's
// content block holds, sealed whole under SnapshotKey (spec §4.7.1
// stage 2). Header is embedded here (rather than requiring Load to
// separately re-fetch the stage-1 header block) so that a loaded
// Directory carries the full Ratchet/Name needed to keep producing
// future revisions and RevisionNames; the stage-1 header block is still
// written and still inserted into the forest's CID set, matching the
// spec's storage stages, but this implementation never needs to read it
// back.
type directoryContentWire struct {
	Kind     string              `cbor:"kind"`
	Header   headerWire          `cbor:"header"`
	Metadata metadataWire        `cbor:"metadata"`
	Previous []previousEntryWire `cbor:"previous"`
	Entries  map[string][]byte   `cbor:"entries"`
}

// Store persists the directory (spec §4.7.1 "Storing and loading"): it
// recursively stores any unstored children, seals their Refs under this
// directory's TemporalKey, seals the whole content under SnapshotKey,
// and inserts both the header and content CIDs into the forest at this
// revision's label.
func (d *Directory) Store(ctx context.Context, store blockstore.Store) (Ref, error) {
	headerCID, err := storeHeader(ctx, store, d.Header)
	if err != nil {
		return Ref{}, err
	}

	parentKey := d.Header.TemporalKey()
	entries := make(map[string][]byte, len(d.Entries))
	for name, link := range d.Entries {
		ref, err := link.store(ctx, store)
		if err != nil {
			return Ref{}, fmt.Errorf("private: storing child %q: %w", name, err)
		}
		sealed, err := sealRef(parentKey, ref)
		if err != nil {
			return Ref{}, fmt.Errorf("private: sealing child ref %q: %w", name, err)
		}
		entries[name] = sealed
	}

	wire := directoryContentWire{
		Kind:     kindDirectory,
		Header:   d.Header.toWire(),
		Metadata: d.Metadata.toWire(),
		Previous: previousToWire(d.Previous),
		Entries:  entries,
	}
	plain, err := xcodec.Marshal(wire)
	if err != nil {
		return Ref{}, fmt.Errorf("private: encoding directory content: %w", err)
	}
	sealedContent, err := sealBytes(d.Header.SnapshotKey(), plain)
	if err != nil {
		return Ref{}, fmt.Errorf("private: sealing directory content: %w", err)
	}
	contentCID, err := store.PutBlock(ctx, vcid.CodecRaw, sealedContent)
	if err != nil {
		return Ref{}, err
	}

	revName, err := d.Header.RevisionName()
	if err != nil {
		return Ref{}, err
	}
	revHash, err := d.Header.RevisionNameHash(d.forest.Setup)
	if err != nil {
		return Ref{}, err
	}
	d.forest.PutEncrypted(&revName, []vcid.Cid{headerCID, contentCID})

	ref := Ref{RevisionNameHash: revHash, TemporalKey: parentKey, ContentCID: contentCID}
	d.persistedAs = &ref
	return ref, nil
}

func directoryFromContent(plain []byte, ref Ref, f *forest.Forest) (*Directory, error) {
	var wire directoryContentWire
	if err := xcodec.Unmarshal(plain, &wire); err != nil {
		return nil, fmt.Errorf("private: decoding directory content: %w", err)
	}
	header, err := headerFromWire(wire.Header)
	if err != nil {
		return nil, err
	}
	entries := make(map[string]*Link, len(wire.Entries))
	for name, sealed := range wire.Entries {
		childRef, err := openRef(header.TemporalKey(), sealed)
		if err != nil {
			return nil, fmt.Errorf("private: opening child ref %q: %w", name, err)
		}
		entries[name] = NewRefLink(childRef)
	}
	refCopy := ref
	return &Directory{
		Header:      header,
		Metadata:    metadataFromWire(wire.Metadata),
		Previous:    previousFromWire(wire.Previous),
		Entries:     entries,
		forest:      f,
		persistedAs: &refCopy,
	}, nil
}

// LoadDirectory loads a Directory given its Ref, failing NotADirectory
// if the revision decodes as a File.
func LoadDirectory(ctx context.Context, f *forest.Forest, store blockstore.Store, ref Ref) (*Directory, error) {
	n, err := LoadNode(ctx, f, store, ref)
	if err != nil {
		return nil, err
	}
	if n.Dir == nil {
		return nil, xerrors.ErrNotADirectory
	}
	return n.Dir, nil
}

// LookupNode resolves a single child by name (spec §4.7.3
// "lookup_node"). It returns (nil, false, nil) rather than an error when
// the name is absent, matching the spec's "the explicitly-optional
// read-by-name case".
func (d *Directory) LookupNode(ctx context.Context, store blockstore.Store, name string) (Node, bool, error) {
	link, ok := d.Entries[name]
	if !ok {
		return Node{}, false, nil
	}
	n, err := link.Resolve(ctx, d.forest, store)
	if err != nil {
		return Node{}, false, err
	}
	return n, true, nil
}

// DirEntry is one (name, metadata) pair returned by Ls.
type DirEntry struct {
	Name     string
	Metadata Metadata
	IsDir    bool
}

// Ls lists the directory's children in canonical (sorted-by-name) order
// (spec §4.7.3 "ls(path): resolve directory; return (name, metadata)
// pairs").
func (d *Directory) Ls(ctx context.Context, store blockstore.Store) ([]DirEntry, error) {
	names := make([]string, 0, len(d.Entries))
	for name := range d.Entries {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]DirEntry, 0, len(names))
	for _, name := range names {
		n, err := d.Entries[name].Resolve(ctx, d.forest, store)
		if err != nil {
			return nil, fmt.Errorf("private: resolving %q: %w", name, err)
		}
		out = append(out, DirEntry{Name: name, Metadata: n.Metadata(), IsDir: n.IsDir()})
	}
	return out, nil
}

// getOrCreateLeafDir returns the child directory at name, creating an
// empty one (as a fresh child with this directory's Name as parent) if
// absent, failing NotADirectory if a file occupies the name (spec
// §4.7.3 "get_or_create_leaf_dir_mut").
func (d *Directory) getOrCreateLeafDir(ctx context.Context, store blockstore.Store, name string, now time.Time, rng io.Reader) (*Directory, error) {
	if link, ok := d.Entries[name]; ok {
		n, err := link.Resolve(ctx, d.forest, store)
		if err != nil {
			return nil, err
		}
		if n.Dir == nil {
			return nil, fmt.Errorf("private: %q: %w", name, xerrors.ErrNotADirectory)
		}
		return n.Dir, nil
	}
	child, err := NewDirectory(d.forest, d.Header.Name, now, rng)
	if err != nil {
		return nil, err
	}
	d.Entries[name] = NewResolvedLink(child.AsNode())
	return child, nil
}

// Remove detaches name's child entry and returns it (spec §4.7.3 "rm").
// d must already be the prepared (freshly cloned, not-yet-stored)
// directory for this revision — path.go's Rm obtains it via
// prepareExistingAncestors before calling Remove, so no further
// cloning is needed here.
func (d *Directory) Remove(ctx context.Context, store blockstore.Store, name string) (Node, error) {
	link, ok := d.Entries[name]
	if !ok {
		return Node{}, fmt.Errorf("private: %q: %w", name, xerrors.ErrNotFound)
	}
	n, err := link.Resolve(ctx, d.forest, store)
	if err != nil {
		return Node{}, err
	}
	delete(d.Entries, name)
	d.Metadata = d.Metadata.Touch(d.Metadata.Modified)
	return n, nil
}

// attach grafts node under d at name, re-rooting the whole subtree under
// a fresh Name with a re-randomized inumber and reset ratchet at every
// level (spec §4.7.3 "Attach semantics" / "update_ancestry"): this key
// rotation makes the move indistinguishable from a fresh write and is
// what satisfies invariant #7 ("after basic_mv(from, to), no PrivateRef
// computable from the node's pre-move header decrypts any post-move
// revision"). d must already be the prepared directory for this
// revision (see Remove's comment above; attach's only callers,
// BasicMv/Cp, obtain d via getOrCreateParentDir).
func (d *Directory) attach(ctx context.Context, store blockstore.Store, name string, node Node, rng io.Reader) error {
	if existing, ok := d.Entries[name]; ok {
		existingNode, err := existing.Resolve(ctx, d.forest, store)
		if err != nil {
			return err
		}
		if existingNode.IsDir() != node.IsDir() {
			if node.IsDir() {
				return xerrors.ErrFileAlreadyExists
			}
			return xerrors.ErrNotADirectory
		}
	}
	rotated, err := updateAncestry(ctx, store, node, d.Header.Name, rng)
	if err != nil {
		return err
	}
	d.Entries[name] = NewResolvedLink(rotated)
	return nil
}

// updateAncestry re-randomizes node's inumber, resets its ratchet, and
// rewrites its Name relative to parentName, recursing into every child
// of a directory (spec §4.7.3 "each node's header is updated so that its
// name becomes parent.name.with_segments_added([new_inumber]), its
// inumber is re-randomized, and its ratchet is reset").
func updateAncestry(ctx context.Context, store blockstore.Store, n Node, parentName accumulator.Name, rng io.Reader) (Node, error) {
	inumber, err := accumulator.NewSegment(rng)
	if err != nil {
		return Node{}, fmt.Errorf("private: re-randomizing inumber: %w", err)
	}
	var seed [32]byte
	if _, err := io.ReadFull(rng, seed[:]); err != nil {
		return Node{}, fmt.Errorf("private: resetting ratchet: %w", err)
	}
	newHeader := HeaderWithSeed(parentName, seed, inumber)

	switch {
	case n.Dir != nil:
		clone := &Directory{
			Header:   newHeader,
			Metadata: n.Dir.Metadata,
			Entries:  make(map[string]*Link, len(n.Dir.Entries)),
			forest:   n.Dir.forest,
		}
		for name, link := range n.Dir.Entries {
			childNode, err := link.Resolve(ctx, n.Dir.forest, store)
			if err != nil {
				return Node{}, err
			}
			rotatedChild, err := updateAncestry(ctx, store, childNode, newHeader.Name, rng)
			if err != nil {
				return Node{}, err
			}
			clone.Entries[name] = NewResolvedLink(rotatedChild)
		}
		return clone.AsNode(), nil
	case n.File != nil:
		// Materialize any externally-chunked content before rotating keys:
		// a pending chunk root was encrypted under the pre-rotation
		// TemporalKey and would be unreadable once the header's ratchet is
		// reset.
		content, err := n.File.Read(ctx, store)
		if err != nil {
			return Node{}, err
		}
		clone := &File{
			Header:   newHeader,
			Metadata: n.File.Metadata,
			Content:  content,
			forest:   n.File.forest,
			chunker:  n.File.chunker,
		}
		return clone.AsNode(), nil
	default:
		return Node{}, fmt.Errorf("private: empty node")
	}
}
