// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package private

import (
	"fmt"

	vcid "github.com/luxfi/vaultfs/cid"
	"github.com/luxfi/vaultfs/xcodec"
)

// TemporalKey grants read access to the current revision of a node and,
// via forward ratcheting, every future revision (spec §3 "TemporalKey").
type TemporalKey [32]byte

// SnapshotKey grants read access to exactly one revision (spec §3
// "SnapshotKey = H(TemporalKey)").
type SnapshotKey [32]byte

// SnapshotKey derives k's read-only counterpart.
func (k TemporalKey) SnapshotKey() SnapshotKey {
	return SnapshotKey(vcid.Sum256(k[:]))
}

// Ref is the minimal capability to decrypt one revision of one private
// node (spec §3 "PrivateRef = (RevisionNameHash, TemporalKey,
// ContentCID)").
type Ref struct {
	RevisionNameHash [32]byte
	TemporalKey      TemporalKey
	ContentCID       vcid.Cid
}

// refWire is Ref's encrypted-at-rest shape, used for a directory's child
// entries (spec §4.7.1 "entries recursively expressed as
// PrivateRefSerializable encrypted under parent's TemporalKey").
type refWire struct {
	RevisionNameHash [32]byte `cbor:"revision_name_hash"`
	TemporalKey      [32]byte `cbor:"temporal_key"`
	ContentCID       vcid.Cid `cbor:"content_cid"`
}

func (r Ref) toWire() refWire {
	return refWire{RevisionNameHash: r.RevisionNameHash, TemporalKey: [32]byte(r.TemporalKey), ContentCID: r.ContentCID}
}

func refFromWire(w refWire) Ref {
	return Ref{RevisionNameHash: w.RevisionNameHash, TemporalKey: TemporalKey(w.TemporalKey), ContentCID: w.ContentCID}
}

// sealRef encrypts ref under parentKey (spec §4.7.1), producing the
// opaque blob stored as a directory's child entry.
func sealRef(parentKey TemporalKey, ref Ref) ([]byte, error) {
	plain, err := xcodec.Marshal(ref.toWire())
	if err != nil {
		return nil, fmt.Errorf("encoding private ref: %w", err)
	}
	return sealBytes(parentKey, plain)
}

// openRef reverses sealRef.
func openRef(parentKey TemporalKey, sealed []byte) (Ref, error) {
	plain, err := openBytes(parentKey, sealed)
	if err != nil {
		return Ref{}, err
	}
	var w refWire
	if err := xcodec.Unmarshal(plain, &w); err != nil {
		return Ref{}, fmt.Errorf("decoding private ref: %w", err)
	}
	return refFromWire(w), nil
}

// AccessKey is Ref's transportable form, additionally carrying the
// forest's accumulator setup so a recipient who has never seen this
// forest before can still verify labels (spec §6 "AccessKey = canonical
// byte string containing { forest_setup, revision_name_hash,
// temporal_key, content_cid }").
type AccessKey struct {
	ForestModulus   []byte
	ForestGenerator []byte
	Ref             Ref
}

type accessKeyWire struct {
	ForestModulus   []byte   `cbor:"forest_modulus"`
	ForestGenerator []byte   `cbor:"forest_generator"`
	RevisionNameHash [32]byte `cbor:"revision_name_hash"`
	TemporalKey      [32]byte `cbor:"temporal_key"`
	ContentCID       vcid.Cid `cbor:"content_cid"`
}

// Encode canonically serializes the access key for transport.
func (a AccessKey) Encode() ([]byte, error) {
	w := accessKeyWire{
		ForestModulus:    a.ForestModulus,
		ForestGenerator:  a.ForestGenerator,
		RevisionNameHash: a.Ref.RevisionNameHash,
		TemporalKey:      [32]byte(a.Ref.TemporalKey),
		ContentCID:       a.Ref.ContentCID,
	}
	return xcodec.Marshal(w)
}

// DecodeAccessKey reverses Encode.
func DecodeAccessKey(b []byte) (AccessKey, error) {
	var w accessKeyWire
	if err := xcodec.Unmarshal(b, &w); err != nil {
		return AccessKey{}, fmt.Errorf("decoding access key: %w", err)
	}
	return AccessKey{
		ForestModulus:   w.ForestModulus,
		ForestGenerator: w.ForestGenerator,
		Ref: Ref{
			RevisionNameHash: w.RevisionNameHash,
			TemporalKey:      TemporalKey(w.TemporalKey),
			ContentCID:       w.ContentCID,
		},
	}, nil
}
