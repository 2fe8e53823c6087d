// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package aead implements the symmetric envelope (spec §4.2) that wraps
// every plaintext block sealed under a ratchet-derived key: a random
// nonce prepended to an authenticated ciphertext. Grounded on
// qzmq.qzmq's Seal/Open framing (prepend nonce, Seal(nil, nonce, pt,
// nil), slice nonce back off on Open), adapted to the wider nonce that
// XChaCha20-Poly1305 supplies.
package aead

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/luxfi/vaultfs/xerrors"
)

// KeySize and NonceSize describe the envelope's XChaCha20-Poly1305 wire
// shape. The spec describes a 12-byte AES-GCM nonce; this is the
// reference implementation's choice, not an invariant the envelope must
// reproduce byte-for-byte, so the wider 24-byte XChaCha20 nonce (which
// removes any need to track a nonce counter across re-derivations of the
// same key) is used instead (SPEC_FULL.md §6).
const (
	KeySize   = chacha20poly1305.KeySize
	NonceSize = chacha20poly1305.NonceSizeX
)

// Seal encrypts plaintext under key, with empty associated data, and
// returns nonce‖ciphertext‖tag.
func Seal(key [KeySize]byte, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("constructing aead cipher: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	out := aead.Seal(nonce, nonce, plaintext, nil)
	return out, nil
}

// Open reverses Seal. Any failure, including ciphertext too short to
// contain a nonce and authentication tag, or a forged/corrupted
// ciphertext, surfaces as xerrors.ErrDecryptFailed.
func Open(key [KeySize]byte, envelope []byte) ([]byte, error) {
	if len(envelope) < NonceSize {
		return nil, xerrors.ErrDecryptFailed
	}

	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("constructing aead cipher: %w", err)
	}

	nonce, ciphertext := envelope[:NonceSize], envelope[NonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, xerrors.ErrDecryptFailed
	}
	return plaintext, nil
}
