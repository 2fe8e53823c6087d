// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package private

import (
	"context"
	"fmt"

	"github.com/luxfi/vaultfs/blockstore"
	"github.com/luxfi/vaultfs/forest"
	"github.com/luxfi/vaultfs/xcodec"
	"github.com/luxfi/vaultfs/xerrors"
)

// Node is the spec §4.7 `PrivateNode` sum type: a private tree node is
// either a Directory or a File, distinguished by a tag on the wire so a
// loader that only holds a Ref can tell which kind of content it just
// decrypted. Grounded on original_source/wnfs/src/private/node.rs's
// `PrivateNode` enum.
type Node struct {
	Dir  *Directory
	File *File
}

// IsDir reports whether the node wraps a Directory.
func (n Node) IsDir() bool { return n.Dir != nil }

// Header returns the wrapped node's header, regardless of kind.
func (n Node) Header() Header {
	if n.Dir != nil {
		return n.Dir.Header
	}
	return n.File.Header
}

// Metadata returns the wrapped node's metadata, regardless of kind.
func (n Node) Metadata() Metadata {
	if n.Dir != nil {
		return n.Dir.Metadata
	}
	return n.File.Metadata
}

// Store persists whichever of Dir/File is set and returns its Ref (spec
// §4.7.1 "store").
func (n Node) Store(ctx context.Context, store blockstore.Store) (Ref, error) {
	switch {
	case n.Dir != nil:
		return n.Dir.Store(ctx, store)
	case n.File != nil:
		return n.File.Store(ctx, store)
	default:
		return Ref{}, fmt.Errorf("private: empty node")
	}
}

// AsNode wraps d as a Node.
func (d *Directory) AsNode() Node { return Node{Dir: d} }

// AsNode wraps f as a Node.
func (f *File) AsNode() Node { return Node{File: f} }

// nodeContentWire is the tagged envelope every stored node content blob
// carries, letting LoadNode pick Directory vs. File decoding without a
// separate out-of-band type hint (spec §4.7.1 "content is tagged by
// kind").
type nodeContentWire struct {
	Kind string `cbor:"kind"`
}

const (
	kindDirectory = "directory"
	kindFile      = "file"
)

// loadContent looks up ref's revision in the forest, checks ContentCID
// is among the CIDs recorded there, and decrypts the content block under
// SnapshotKey (spec §4.7.1 "Loading, given a PrivateRef").
func loadContent(ctx context.Context, f *forest.Forest, store blockstore.Store, ref Ref) ([]byte, error) {
	cids, ok := f.GetEncryptedKey(forest.Key(ref.RevisionNameHash))
	if !ok {
		return nil, fmt.Errorf("private: revision not present in forest: %w", xerrors.ErrNotFound)
	}
	if !cids.Contains(ref.ContentCID) {
		return nil, fmt.Errorf("private: content cid not recorded for revision: %w", xerrors.ErrNotFound)
	}
	sealed, err := store.GetBlock(ctx, ref.ContentCID)
	if err != nil {
		return nil, err
	}
	plain, err := openBytes(ref.TemporalKey.SnapshotKey(), sealed)
	if err != nil {
		return nil, fmt.Errorf("private: decrypting content: %w", err)
	}
	return plain, nil
}

// LoadNode decrypts and decodes whichever kind of node ref points at.
func LoadNode(ctx context.Context, f *forest.Forest, store blockstore.Store, ref Ref) (Node, error) {
	plain, err := loadContent(ctx, f, store, ref)
	if err != nil {
		return Node{}, err
	}
	var tag nodeContentWire
	if err := xcodec.Unmarshal(plain, &tag); err != nil {
		return Node{}, fmt.Errorf("private: decoding node kind: %w", err)
	}
	switch tag.Kind {
	case kindDirectory:
		d, err := directoryFromContent(plain, ref, f)
		if err != nil {
			return Node{}, err
		}
		return Node{Dir: d}, nil
	case kindFile:
		file, err := fileFromContent(plain, ref, f)
		if err != nil {
			return Node{}, err
		}
		return Node{File: file}, nil
	default:
		return Node{}, fmt.Errorf("private: unknown node kind %q: %w", tag.Kind, xerrors.ErrUnexpectedNodeType)
	}
}
