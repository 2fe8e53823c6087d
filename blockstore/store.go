// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package blockstore is the engine's abstract, content-addressed block
// store (spec §1 "Out of scope: the block store itself ... treated as an
// abstract associative store: put(bytes, codec) -> CID, get(CID) ->
// bytes", and spec §6 "External Interfaces"). The interface shape is
// adapted from the teacher's crypto/database.Database — Reader/Writer
// split, explicit Close() — but keyed by content address instead of a
// caller-supplied key, and with no Delete: spec §3 "Lifecycles" states
// every record is immutable once stored.
package blockstore

import (
	"context"
	"fmt"
	"sync"

	vcid "github.com/luxfi/vaultfs/cid"
	"github.com/luxfi/vaultfs/xcodec"
	"github.com/luxfi/vaultfs/xerrors"
)

// Reader retrieves previously stored blocks.
type Reader interface {
	// Has reports whether a block is present.
	Has(ctx context.Context, id vcid.Cid) (bool, error)

	// GetBlock returns the raw bytes stored under id, or
	// xerrors.ErrNotFound if absent.
	GetBlock(ctx context.Context, id vcid.Cid) ([]byte, error)
}

// Writer stores new blocks.
type Writer interface {
	// PutBlock stores data under the given IPLD codec and returns its
	// content address.
	PutBlock(ctx context.Context, codec uint64, data []byte) (vcid.Cid, error)
}

// Store is the full block store contract consumed by forest, private,
// public, and rootfs.
type Store interface {
	Reader
	Writer

	// PutSerializable canonically encodes v (via xcodec) and stores it as
	// a dag-cbor block.
	PutSerializable(ctx context.Context, v interface{}) (vcid.Cid, error)

	// GetDeserializable retrieves the block at id and decodes it into v.
	GetDeserializable(ctx context.Context, id vcid.Cid, v interface{}) error

	// Close releases any resources held by the store.
	Close() error
}

// PutSerializable is the shared, codec-driven implementation every Store
// backend can embed via putSerializableOn, avoiding duplicating the
// marshal-then-PutBlock sequence in each backend.
func putSerializableOn(ctx context.Context, w Writer, v interface{}) (vcid.Cid, error) {
	data, err := xcodec.Marshal(v)
	if err != nil {
		return vcid.Undef, fmt.Errorf("encoding block: %w", err)
	}
	return w.PutBlock(ctx, vcid.CodecDagCBOR, data)
}

func getDeserializableOn(ctx context.Context, r Reader, id vcid.Cid, v interface{}) error {
	data, err := r.GetBlock(ctx, id)
	if err != nil {
		return err
	}
	return xcodec.Unmarshal(data, v)
}

// MemStore is an in-memory Store, used by tests and as the default
// backend for short-lived CLI invocations.
type MemStore struct {
	mu     sync.RWMutex
	blocks map[vcid.Cid][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{blocks: make(map[vcid.Cid][]byte)}
}

func (m *MemStore) Has(_ context.Context, id vcid.Cid) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blocks[id]
	return ok, nil
}

func (m *MemStore) GetBlock(_ context.Context, id vcid.Cid) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blocks[id]
	if !ok {
		return nil, fmt.Errorf("block %s: %w", id, xerrors.ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemStore) PutBlock(_ context.Context, codec uint64, data []byte) (vcid.Cid, error) {
	id, err := vcid.New(codec, data)
	if err != nil {
		return vcid.Undef, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.blocks[id]; !exists {
		stored := make([]byte, len(data))
		copy(stored, data)
		m.blocks[id] = stored
	}
	return id, nil
}

func (m *MemStore) PutSerializable(ctx context.Context, v interface{}) (vcid.Cid, error) {
	return putSerializableOn(ctx, m, v)
}

func (m *MemStore) GetDeserializable(ctx context.Context, id vcid.Cid, v interface{}) error {
	return getDeserializableOn(ctx, m, id, v)
}

func (m *MemStore) Close() error { return nil }

// Len reports the number of distinct blocks held, used by tests asserting
// on forest/HAMT write counts.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blocks)
}
