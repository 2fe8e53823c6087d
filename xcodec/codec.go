// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xcodec provides the engine's canonical encode/decode step,
// adapted from the teacher's JSON codec package onto CBOR's canonical
// encoding mode. Canonical CBOR (RFC 8949 §4.2.1: map keys sorted by
// encoded byte length then value) is what gives the HAMT (package hamt)
// its history-independence property — two Go values with the same fields
// always serialize to the same bytes regardless of map iteration order.
package xcodec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CodecVersion identifies the wire encoding used for a record. Bumped only
// on a breaking change to how a record type is laid out.
type CodecVersion uint16

// CurrentVersion is the only version this build understands.
const CurrentVersion CodecVersion = 0

// Codec is the package-level canonical encoder, analogous to the teacher's
// exported codec.Codec singleton.
var Codec = &CBORCodec{enc: mustEncMode()}

func mustEncMode() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("xcodec: building canonical encode mode: %v", err))
	}
	return mode
}

// CBORCodec implements canonical CBOR marshal/unmarshal.
type CBORCodec struct {
	enc cbor.EncMode
}

// Marshal serializes v under the given version. Only CurrentVersion is
// accepted; this keeps the signature stable if a future breaking change
// needs a second code path without touching every call site.
func (c *CBORCodec) Marshal(version CodecVersion, v interface{}) ([]byte, error) {
	if version != CurrentVersion {
		return nil, fmt.Errorf("unsupported codec version: %d", version)
	}
	return c.enc.Marshal(v)
}

// Unmarshal decodes data into v, returning the version it was encoded
// with. Every record this engine writes is CurrentVersion; the return
// value exists so callers can reject a stale/future on-disk format the
// same way the spec's §6 version field is checked.
func (c *CBORCodec) Unmarshal(data []byte, v interface{}) (CodecVersion, error) {
	if err := cbor.Unmarshal(data, v); err != nil {
		return 0, err
	}
	return CurrentVersion, nil
}

// Marshal is a convenience wrapper over the package Codec at CurrentVersion.
func Marshal(v interface{}) ([]byte, error) {
	return Codec.Marshal(CurrentVersion, v)
}

// Unmarshal is a convenience wrapper over the package Codec.
func Unmarshal(data []byte, v interface{}) error {
	_, err := Codec.Unmarshal(data, v)
	return err
}
