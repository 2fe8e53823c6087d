// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package private

import "time"

// metadataVersion gates the shape of the Metadata.Extra map (spec §3
// "metadata ... arbitrary key/value map, versioned").
const metadataVersion = 1

// Metadata is the created/modified timestamps and free-form key/value
// map every private node carries (spec §3 "Private directory content /
// Private file content").
type Metadata struct {
	Created  time.Time
	Modified time.Time
	Extra    map[string]any
}

// NewMetadata returns metadata stamped with now for both Created and
// Modified.
func NewMetadata(now time.Time) Metadata {
	return Metadata{Created: now, Modified: now, Extra: map[string]any{}}
}

// Touch returns a copy of m with Modified set to now.
func (m Metadata) Touch(now time.Time) Metadata {
	cp := m
	cp.Modified = now
	cp.Extra = make(map[string]any, len(m.Extra))
	for k, v := range m.Extra {
		cp.Extra[k] = v
	}
	return cp
}

type metadataWire struct {
	Version  int            `cbor:"version"`
	Created  int64          `cbor:"created"`
	Modified int64          `cbor:"modified"`
	Extra    map[string]any `cbor:"extra,omitempty"`
}

func (m Metadata) toWire() metadataWire {
	return metadataWire{
		Version:  metadataVersion,
		Created:  m.Created.UnixMicro(),
		Modified: m.Modified.UnixMicro(),
		Extra:    m.Extra,
	}
}

func metadataFromWire(w metadataWire) Metadata {
	extra := w.Extra
	if extra == nil {
		extra = map[string]any{}
	}
	return Metadata{
		Created:  time.UnixMicro(w.Created),
		Modified: time.UnixMicro(w.Modified),
		Extra:    extra,
	}
}
