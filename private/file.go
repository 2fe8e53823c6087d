// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package private

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/luxfi/vaultfs/accumulator"
	"github.com/luxfi/vaultfs/blockstore"
	vcid "github.com/luxfi/vaultfs/cid"
	"github.com/luxfi/vaultfs/forest"
	"github.com/luxfi/vaultfs/xcodec"
)

// inlineThreshold is the spec §10 cutoff: content at or below this size
// is stored inline in the file record; larger content goes through a
// ContentChunker.
const inlineThreshold = 4096

// ContentChunker splits file content too large to inline into an
// externally-chunked blob tree and reassembles it, encrypting whatever
// it stores the same way a file's inline bytes are sealed. The chunking
// algorithm itself is out of scope (spec §1 "out of scope: ...
// unixfs-style chunking"); this is the interface point a concrete
// chunker plugs into (spec §10 "private.ContentChunker").
type ContentChunker interface {
	Chunk(ctx context.Context, store blockstore.Store, key TemporalKey, content []byte) (vcid.Cid, error)
	Reassemble(ctx context.Context, store blockstore.Store, key TemporalKey, root vcid.Cid) ([]byte, error)
}

// singleBlockChunker is the default ContentChunker: it seals the entire
// blob as one raw block. A real multi-chunk balanced tree is out of
// scope; this satisfies the interface with the simplest valid
// implementation.
type singleBlockChunker struct{}

func (singleBlockChunker) Chunk(ctx context.Context, store blockstore.Store, key TemporalKey, content []byte) (vcid.Cid, error) {
	sealed, err := sealBytes(key, content)
	if err != nil {
		return vcid.Undef, fmt.Errorf("private: sealing chunked content: %w", err)
	}
	return store.PutBlock(ctx, vcid.CodecRaw, sealed)
}

func (singleBlockChunker) Reassemble(ctx context.Context, store blockstore.Store, key TemporalKey, root vcid.Cid) ([]byte, error) {
	sealed, err := store.GetBlock(ctx, root)
	if err != nil {
		return nil, err
	}
	return openBytes(key, sealed)
}

// DefaultChunker is the package-level ContentChunker used when a File is
// not explicitly configured with one.
var DefaultChunker ContentChunker = singleBlockChunker{}

// File is the spec §4.7 `PrivateFile`: metadata, previous-set, and
// either inline content or a pointer into an externally-chunked blob
// tree. Grounded on original_source/wnfs/src/private/file.rs.
type File struct {
	Header   Header
	Metadata Metadata
	Previous []previousEntry
	Content  []byte

	forest           *forest.Forest
	chunker          ContentChunker
	persistedAs      *Ref
	pendingChunkRoot *vcid.Cid
}

// NewFile creates an empty file as a fresh child of parentName.
func NewFile(f *forest.Forest, parentName accumulator.Name, now time.Time, rng io.Reader) (*File, error) {
	h, err := NewHeader(parentName, rng)
	if err != nil {
		return nil, fmt.Errorf("private: creating file header: %w", err)
	}
	return &File{
		Header:   h,
		Metadata: NewMetadata(now),
		forest:   f,
		chunker:  DefaultChunker,
	}, nil
}

// cloneShallow mirrors Directory.cloneShallow, applied to a file (spec
// §4.7.2's copy-on-write discipline).
func (f *File) cloneShallow() *File {
	var persisted *Ref
	if f.persistedAs != nil {
		r := *f.persistedAs
		persisted = &r
	}
	var pendingRoot *vcid.Cid
	if f.pendingChunkRoot != nil {
		c := *f.pendingChunkRoot
		pendingRoot = &c
	}
	return &File{
		Header:           f.Header,
		Metadata:         f.Metadata,
		Previous:         append([]previousEntry(nil), f.Previous...),
		Content:          append([]byte(nil), f.Content...),
		forest:           f.forest,
		chunker:          f.chunker,
		persistedAs:      persisted,
		pendingChunkRoot: pendingRoot,
	}
}

// prepareNextRevision mirrors Directory.prepareNextRevision (spec
// §4.7.2), applied to a file at the tip of a path: it always returns a
// fresh *File distinct from the receiver, so a handle obtained by an
// earlier LookupNode is never corrupted by a later write through the
// parent's entry (ground truth:
// original_source/wnfs/src/private/directory.rs:431-448's
// `Rc::make_mut`, mirrored for PrivateFile).
func (f *File) prepareNextRevision() (*File, error) {
	clone := f.cloneShallow()
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

// SetContent replaces the file's content and bumps its modified time
// (spec §4.7.3 "write(path, content, time): ... if a file exists, update
// its content and mtime").
func (f *File) SetContent(content []byte, now time.Time) {
	f.Content = append([]byte(nil), content...)
	f.Metadata = f.Metadata.Touch(now)
}

type fileContentWire struct {
	Kind     string              `cbor:"kind"`
	Header   headerWire          `cbor:"header"`
	Metadata metadataWire        `cbor:"metadata"`
	Previous []previousEntryWire `cbor:"previous"`
	Inline   []byte              `cbor:"inline,omitempty"`
	ChunkCID *vcid.Cid           `cbor:"chunk_cid,omitempty"`
}

// Store persists the file (spec §4.7.1): content at or under
// inlineThreshold is embedded directly; larger content is handed to the
// configured ContentChunker, keyed by the file's own TemporalKey, which
// is derived from the file's current ratchet. No separate content key is
// derived from the file's Name.
func (f *File) Store(ctx context.Context, store blockstore.Store) (Ref, error) {
	headerCID, err := storeHeader(ctx, store, f.Header)
	if err != nil {
		return Ref{}, err
	}

	contentKey := f.Header.TemporalKey()
	wire := fileContentWire{
		Kind:     kindFile,
		Header:   f.Header.toWire(),
		Metadata: f.Metadata.toWire(),
		Previous: previousToWire(f.Previous),
	}
	if len(f.Content) <= inlineThreshold {
		wire.Inline = f.Content
	} else {
		chunker := f.chunker
		if chunker == nil {
			chunker = DefaultChunker
		}
		root, err := chunker.Chunk(ctx, store, contentKey, f.Content)
		if err != nil {
			return Ref{}, fmt.Errorf("private: chunking file content: %w", err)
		}
		wire.ChunkCID = &root
	}

	plain, err := xcodec.Marshal(wire)
	if err != nil {
		return Ref{}, fmt.Errorf("private: encoding file content: %w", err)
	}
	sealedContent, err := sealBytes(f.Header.SnapshotKey(), plain)
	if err != nil {
		return Ref{}, fmt.Errorf("private: sealing file content: %w", err)
	}
	contentCID, err := store.PutBlock(ctx, vcid.CodecRaw, sealedContent)
	if err != nil {
		return Ref{}, err
	}

	revName, err := f.Header.RevisionName()
	if err != nil {
		return Ref{}, err
	}
	revHash, err := f.Header.RevisionNameHash(f.forest.Setup)
	if err != nil {
		return Ref{}, err
	}
	f.forest.PutEncrypted(&revName, []vcid.Cid{headerCID, contentCID})

	ref := Ref{RevisionNameHash: revHash, TemporalKey: contentKey, ContentCID: contentCID}
	f.persistedAs = &ref
	return ref, nil
}

func fileFromContent(plain []byte, ref Ref, f *forest.Forest) (*File, error) {
	var wire fileContentWire
	if err := xcodec.Unmarshal(plain, &wire); err != nil {
		return nil, fmt.Errorf("private: decoding file content: %w", err)
	}
	header, err := headerFromWire(wire.Header)
	if err != nil {
		return nil, err
	}
	refCopy := ref
	out := &File{
		Header:      header,
		Metadata:    metadataFromWire(wire.Metadata),
		Previous:    previousFromWire(wire.Previous),
		forest:      f,
		chunker:     DefaultChunker,
		persistedAs: &refCopy,
	}
	if wire.ChunkCID != nil {
		out.Content = nil
		out.pendingChunkRoot = wire.ChunkCID
	} else {
		out.Content = wire.Inline
	}
	return out, nil
}

// Read returns the file's content, reassembling it from its chunk tree
// on first access if it was stored externally chunked (spec §4.7.3
// "read(path): resolve file; reconstruct content (in-line or via
// external chunk tree)").
func (f *File) Read(ctx context.Context, store blockstore.Store) ([]byte, error) {
	if f.pendingChunkRoot == nil {
		return f.Content, nil
	}
	chunker := f.chunker
	if chunker == nil {
		chunker = DefaultChunker
	}
	content, err := chunker.Reassemble(ctx, store, f.Header.TemporalKey(), *f.pendingChunkRoot)
	if err != nil {
		return nil, fmt.Errorf("private: reassembling file content: %w", err)
	}
	f.Content = content
	f.pendingChunkRoot = nil
	return content, nil
}
