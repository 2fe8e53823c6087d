// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package private

import "github.com/luxfi/vaultfs/aead"

// sealBytes/openBytes adapt package aead's [32]byte key parameter to
// whichever of TemporalKey/SnapshotKey the caller holds; both are
// distinct named [32]byte types so the compiler catches a site that
// accidentally encrypts under the wrong key class.
func sealBytes(key [32]byte, plaintext []byte) ([]byte, error) {
	return aead.Seal(key, plaintext)
}

func openBytes(key [32]byte, envelope []byte) ([]byte, error) {
	return aead.Open(key, envelope)
}
