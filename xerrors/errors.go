// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xerrors collects the engine's error taxonomy so call sites can
// test with errors.Is instead of string matching, and so a batch of
// independent failures (concurrent HAMT merges, batched accumulator
// verification) can be reported together.
package xerrors

import "errors"

// Path errors (spec §7).
var (
	ErrNotFound               = errors.New("not found")
	ErrNotADirectory          = errors.New("not a directory")
	ErrNotAFile               = errors.New("not a file")
	ErrFileAlreadyExists      = errors.New("file already exists")
	ErrDirectoryAlreadyExists = errors.New("directory already exists")
	ErrInvalidPath            = errors.New("invalid path")
	ErrPartitionNotFound      = errors.New("partition not found")
)

// Crypto errors.
var (
	ErrDecryptFailed    = errors.New("decrypt failed")
	ErrUnsupportedCipher = errors.New("unsupported cipher")
)

// Ratchet errors.
var (
	ErrNoIntermediateRatchet = errors.New("no intermediate ratchet within discrepancy budget")
	ErrPrevious              = errors.New("previous ratchet error")
)

// Accumulator errors.
var (
	ErrLHashNonPrime               = errors.New("l-hash is not prime")
	ErrResidueOutsideRange         = errors.New("residue outside valid range")
	ErrValidationFailed            = errors.New("accumulator proof validation failed")
	ErrIncompatibleAccumulatorSetups = errors.New("incompatible accumulator setups")
)

// Version errors.
var (
	ErrUnexpectedVersion  = errors.New("unexpected version")
	ErrUnexpectedNodeType = errors.New("unexpected node type")
	ErrMissingNodeType    = errors.New("missing node type")
)

// Share errors (payload format only; the share protocol itself is out of
// scope per spec §1, these sentinels exist so AccessKey decoding can fail
// in a way callers of the (out-of-core) share protocol recognize).
var (
	ErrSharePayloadNotFound            = errors.New("share payload not found")
	ErrUnsupportedSnapshotShareReceipt = errors.New("unsupported snapshot share receipt")
	ErrNoSharerOrRecipients            = errors.New("no sharer or recipients")
)

// Errs collects zero or more errors from independent operations. No
// other package in this module uses it.
type Errs struct {
	errs []error
}

// Add appends err to the collection. A nil err is a no-op.
func (e *Errs) Add(err error) {
	if err == nil {
		return
	}
	e.errs = append(e.errs, err)
}

// Errored reports whether any error has been added.
func (e *Errs) Errored() bool { return len(e.errs) > 0 }

// Len returns the number of collected errors.
func (e *Errs) Len() int { return len(e.errs) }

// Err returns nil if empty, the sole error if exactly one was added, or a
// joined error otherwise.
func (e *Errs) Err() error {
	switch len(e.errs) {
	case 0:
		return nil
	case 1:
		return e.errs[0]
	default:
		return errors.Join(e.errs...)
	}
}
