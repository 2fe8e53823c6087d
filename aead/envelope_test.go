// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package aead

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/vaultfs/xerrors"
)

func randomKey(t *testing.T) [KeySize]byte {
	t.Helper()
	var k [KeySize]byte
	_, err := rand.Read(k[:])
	require.NoError(t, err)
	return k
}

func TestSealOpenRoundTrip(t *testing.T) {
	require := require.New(t)
	key := randomKey(t)
	plaintext := []byte("private forest block contents")

	envelope, err := Seal(key, plaintext)
	require.NoError(err)
	require.NotEqual(plaintext, envelope)

	got, err := Open(key, envelope)
	require.NoError(err)
	require.Equal(plaintext, got)
}

func TestSealProducesDistinctNoncesEachCall(t *testing.T) {
	require := require.New(t)
	key := randomKey(t)
	plaintext := []byte("same plaintext twice")

	e1, err := Seal(key, plaintext)
	require.NoError(err)
	e2, err := Seal(key, plaintext)
	require.NoError(err)

	require.NotEqual(e1, e2)
}

func TestOpenFailsWithWrongKey(t *testing.T) {
	require := require.New(t)
	key := randomKey(t)
	other := randomKey(t)

	envelope, err := Seal(key, []byte("secret"))
	require.NoError(err)

	_, err = Open(other, envelope)
	require.ErrorIs(err, xerrors.ErrDecryptFailed)
}

func TestOpenFailsOnTamperedCiphertext(t *testing.T) {
	require := require.New(t)
	key := randomKey(t)

	envelope, err := Seal(key, []byte("tamper me"))
	require.NoError(err)

	tampered := append([]byte(nil), envelope...)
	tampered[len(tampered)-1] ^= 0xff

	_, err = Open(key, tampered)
	require.ErrorIs(err, xerrors.ErrDecryptFailed)
}

func TestOpenFailsOnTruncatedInput(t *testing.T) {
	require := require.New(t)
	key := randomKey(t)

	_, err := Open(key, []byte{1, 2, 3})
	require.ErrorIs(err, xerrors.ErrDecryptFailed)
}
