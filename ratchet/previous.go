// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ratchet

import (
	"fmt"

	"github.com/luxfi/vaultfs/xerrors"
)

// PreviousIterator yields ratchets strictly between past and current,
// oldest-state-last (i.e. in reverse order of age, as spec §4.1 requires),
// bounded by a discrepancy budget: the maximum number of forward
// increments it will search before giving up.
//
// Because a ratchet cannot be stepped backward, "between past and
// current" is discovered by walking forward from past, recording each
// intermediate state, until current is reached or the budget is
// exhausted.
type PreviousIterator struct {
	states []Ratchet // oldest-to-newest walk from past up to (excluding) current
	pos    int       // next index to yield, counting down from len(states)-1
}

// NewPreviousIterator walks forward from past looking for current within
// budget increments. It returns xerrors.ErrNoIntermediateRatchet if past
// is not an ancestor of current within that budget.
func NewPreviousIterator(past, current Ratchet, budget int) (*PreviousIterator, error) {
	if past.Equal(current) {
		return &PreviousIterator{}, nil
	}

	states := make([]Ratchet, 0, budget)
	cur := past
	for i := 0; i < budget; i++ {
		cur = cur.Inc()
		if cur.Equal(current) {
			return &PreviousIterator{states: states, pos: len(states)}, nil
		}
		states = append(states, cur)
	}
	return nil, fmt.Errorf("searching %d steps from past ratchet: %w", budget, xerrors.ErrNoIntermediateRatchet)
}

// Next returns the next-older ratchet, or (Ratchet{}, false) once
// exhausted.
func (it *PreviousIterator) Next() (Ratchet, bool) {
	if it.pos <= 0 {
		return Ratchet{}, false
	}
	it.pos--
	return it.states[it.pos], true
}
