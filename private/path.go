// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package private

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/luxfi/vaultfs/blockstore"
	"github.com/luxfi/vaultfs/xerrors"
)

// DefaultDiscrepancyBudget bounds every search_latest/history seek this
// package performs unless a caller supplies its own (spec §4.1 "an
// explicit int parameter on every seeking operation").
const DefaultDiscrepancyBudget = 1 << 20

func resolveHop(ctx context.Context, store blockstore.Store, dir *Directory, name string, searchLatest bool, budget int) (Node, error) {
	n, ok, err := dir.LookupNode(ctx, store, name)
	if err != nil {
		return Node{}, err
	}
	if !ok {
		return Node{}, fmt.Errorf("private: %q: %w", name, xerrors.ErrNotFound)
	}
	if searchLatest {
		latest, err := SearchLatest(ctx, dir.forest, store, n, budget)
		if err != nil {
			return Node{}, err
		}
		n = latest
		dir.Entries[name] = NewResolvedLink(n)
	}
	return n, nil
}

// GetNode walks path from root, failing NotFound/NotADirectory on a
// missing or wrong-kind hop (spec §4.7.3 "get_node(path)").
func (d *Directory) GetNode(ctx context.Context, store blockstore.Store, path []string, searchLatest bool, budget int) (Node, error) {
	cur := d
	for i, name := range path {
		n, err := resolveHop(ctx, store, cur, name, searchLatest, budget)
		if err != nil {
			return Node{}, err
		}
		if i == len(path)-1 {
			return n, nil
		}
		if n.Dir == nil {
			return Node{}, fmt.Errorf("private: %q: %w", name, xerrors.ErrNotADirectory)
		}
		cur = n.Dir
	}
	return cur.AsNode(), nil
}

// prepareRoot runs prepareNextRevision on d and publishes the result
// back into d itself: the root of a path has no parent Entries map to
// redirect, and it is the one handle a caller holds directly (never
// handed out again through a Link/Resolve, which is the only aliasing
// path this package creates), so overwriting *d with the clone's
// content keeps the caller's pointer valid across revisions without
// reintroducing the aliasing bug prepareNextRevision's cloning exists
// to prevent (spec §4.7.2).
func (d *Directory) prepareRoot() error {
	clone, err := d.prepareNextRevision()
	if err != nil {
		return err
	}
	*d = *clone
	return nil
}

// getOrCreateParentDir walks all but the last path component, creating
// missing intermediate directories (spec §4.7.3
// "get_or_create_leaf_dir_mut"), and returns the parent directory plus
// the leaf name. prepare_next_revision is invoked on every directory
// along the way — root included — since a mutation at the tip changes
// every ancestor's content (spec §4.7.2 "Every mutating operation calls
// prepare_next_revision on every directory along the path"). Each
// intermediate directory's clone is written back into its parent's
// Entries map so the tree actually advances, instead of mutating a
// possibly-aliased handle in place.
func (d *Directory) getOrCreateParentDir(ctx context.Context, store blockstore.Store, path []string, now time.Time, rng io.Reader) (*Directory, string, error) {
	if len(path) == 0 {
		return nil, "", xerrors.ErrInvalidPath
	}
	if err := d.prepareRoot(); err != nil {
		return nil, "", err
	}
	cur := d
	for _, name := range path[:len(path)-1] {
		next, err := cur.getOrCreateLeafDir(ctx, store, name, now, rng)
		if err != nil {
			return nil, "", err
		}
		clone, err := next.prepareNextRevision()
		if err != nil {
			return nil, "", err
		}
		cur.Entries[name] = NewResolvedLink(clone.AsNode())
		cur = clone
	}
	return cur, path[len(path)-1], nil
}

// prepareExistingAncestors walks dirPath from d without creating
// anything, calling prepareNextRevision on every directory visited
// (root included), and returns the final directory. Used by Rm, which
// operates only on paths that must already exist. As in
// getOrCreateParentDir, each visited directory's clone is written back
// into its parent's Entries map rather than mutated in place.
func (d *Directory) prepareExistingAncestors(ctx context.Context, store blockstore.Store, dirPath []string) (*Directory, error) {
	if err := d.prepareRoot(); err != nil {
		return nil, err
	}
	cur := d
	for _, name := range dirPath {
		n, ok, err := cur.LookupNode(ctx, store, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("private: %q: %w", name, xerrors.ErrNotFound)
		}
		if n.Dir == nil {
			return nil, fmt.Errorf("private: %q: %w", name, xerrors.ErrNotADirectory)
		}
		clone, err := n.Dir.prepareNextRevision()
		if err != nil {
			return nil, err
		}
		cur.Entries[name] = NewResolvedLink(clone.AsNode())
		cur = clone
	}
	return cur, nil
}

// LsPath resolves path as a directory and returns its children (spec §4.7.3
// "ls(path)").
func (d *Directory) LsPath(ctx context.Context, store blockstore.Store, path []string, searchLatest bool, budget int) ([]DirEntry, error) {
	if len(path) == 0 {
		return d.Ls(ctx, store)
	}
	n, err := d.GetNode(ctx, store, path, searchLatest, budget)
	if err != nil {
		return nil, err
	}
	if n.Dir == nil {
		return nil, xerrors.ErrNotADirectory
	}
	return n.Dir.Ls(ctx, store)
}

// Read resolves path as a file and returns its content (spec §4.7.3
// "read(path)").
func (d *Directory) Read(ctx context.Context, store blockstore.Store, path []string, searchLatest bool, budget int) ([]byte, error) {
	n, err := d.GetNode(ctx, store, path, searchLatest, budget)
	if err != nil {
		return nil, err
	}
	if n.File == nil {
		return nil, xerrors.ErrNotAFile
	}
	return n.File.Read(ctx, store)
}

// Write walks path, creating intermediate directories as needed, and
// creates or updates the file at the tip (spec §4.7.3 "write(path,
// content, time)").
func (d *Directory) Write(ctx context.Context, store blockstore.Store, path []string, content []byte, now time.Time, rng io.Reader) error {
	parent, leaf, err := d.getOrCreateParentDir(ctx, store, path, now, rng)
	if err != nil {
		return err
	}
	if link, ok := parent.Entries[leaf]; ok {
		n, err := link.Resolve(ctx, parent.forest, store)
		if err != nil {
			return err
		}
		if n.File == nil {
			return fmt.Errorf("private: %q: %w", leaf, xerrors.ErrNotAFile)
		}
		clone, err := n.File.prepareNextRevision()
		if err != nil {
			return err
		}
		clone.SetContent(content, now)
		parent.Entries[leaf] = NewResolvedLink(clone.AsNode())
		return nil
	}
	file, err := NewFile(parent.forest, parent.Header.Name, now, rng)
	if err != nil {
		return err
	}
	file.SetContent(content, now)
	parent.Entries[leaf] = NewResolvedLink(file.AsNode())
	return nil
}

// Mkdir walks path, creating every missing intermediate directory (spec
// §4.7.3 "mkdir(path, time)").
func (d *Directory) Mkdir(ctx context.Context, store blockstore.Store, path []string, now time.Time, rng io.Reader) error {
	if len(path) == 0 {
		return nil
	}
	parent, leaf, err := d.getOrCreateParentDir(ctx, store, path, now, rng)
	if err != nil {
		return err
	}
	if _, ok := parent.Entries[leaf]; ok {
		return nil
	}
	if _, err := parent.getOrCreateLeafDir(ctx, store, leaf, now, rng); err != nil {
		return err
	}
	return nil
}

// Rm removes the node at path and returns it (spec §4.7.3 "rm(path):
// remove the child entry from its parent; return the removed node").
func (d *Directory) Rm(ctx context.Context, store blockstore.Store, path []string) (Node, error) {
	if len(path) == 0 {
		return Node{}, xerrors.ErrInvalidPath
	}
	parent, err := d.prepareExistingAncestors(ctx, store, path[:len(path)-1])
	if err != nil {
		return Node{}, err
	}
	return parent.Remove(ctx, store, path[len(path)-1])
}

func isPrefixOf(prefix, path []string) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i, s := range prefix {
		if path[i] != s {
			return false
		}
	}
	return true
}

// BasicMv removes the node at from and re-attaches it at to under a
// freshly key-rotated Name (spec §4.7.3 "basic_mv(from, to, time): rm
// followed by attaching at to under a fresh Name").
func (d *Directory) BasicMv(ctx context.Context, store blockstore.Store, from, to []string, now time.Time, rng io.Reader) error {
	if len(to) == 0 {
		return xerrors.ErrInvalidPath
	}
	if isPrefixOf(from, to) {
		return xerrors.ErrInvalidPath
	}
	node, err := d.Rm(ctx, store, from)
	if err != nil {
		return err
	}
	destParent, leaf, err := d.getOrCreateParentDir(ctx, store, to, now, rng)
	if err != nil {
		return err
	}
	return destParent.attach(ctx, store, leaf, node, rng)
}

// Cp resolves from and attaches a copy at to under a freshly key-rotated
// Name (spec §4.7.3 "cp(from, to, time): get_node followed by attach").
func (d *Directory) Cp(ctx context.Context, store blockstore.Store, from, to []string, now time.Time, rng io.Reader) error {
	if len(to) == 0 {
		return xerrors.ErrInvalidPath
	}
	node, err := d.GetNode(ctx, store, from, false, 0)
	if err != nil {
		return err
	}
	destParent, leaf, err := d.getOrCreateParentDir(ctx, store, to, now, rng)
	if err != nil {
		return err
	}
	return destParent.attach(ctx, store, leaf, node, rng)
}

// joinPath is a small debugging/logging helper; path operations
// otherwise work over []string directly per spec.
func joinPath(path []string) string { return strings.Join(path, "/") }
