// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xset implements a generic set data structure, adapted from the
// teacher's set package onto CBOR (the rest of the engine's wire format)
// instead of JSON. It backs the forest's per-label CID multivalue (spec
// §3 "Forest", §4.5) in memory and the public tree's previous-revision
// CID sets.
//
// Note on canonical encoding: List()'s order follows Go map iteration,
// which is randomized per process. Callers that persist a Set as part of
// a history-independent structure (the HAMT, package hamt) MUST sort the
// list themselves before encoding — see package forest's sortedCids,
// which sorts a CID set by binary representation before it is stored in
// the HAMT. Set defines no CBOR (un)marshalling of its own.
package xset

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
)

// Set is a set of unique elements.
type Set[T comparable] map[T]struct{}

// Of returns a Set initialized with elts.
func Of[T comparable](elts ...T) Set[T] {
	s := make(Set[T], len(elts))
	s.Add(elts...)
	return s
}

// Add adds elements to the set.
func (s Set[T]) Add(elts ...T) {
	for _, elt := range elts {
		s[elt] = struct{}{}
	}
}

// Contains returns true if the set contains elt.
func (s Set[T]) Contains(elt T) bool {
	_, ok := s[elt]
	return ok
}

// Remove removes elements from the set.
func (s Set[T]) Remove(elts ...T) {
	for _, elt := range elts {
		delete(s, elt)
	}
}

// Len returns the number of elements in the set.
func (s Set[T]) Len() int { return len(s) }

// List returns the elements of the set as a slice, in non-deterministic
// (map iteration) order.
func (s Set[T]) List() []T { return maps.Keys(s) }

// Equals returns true if the sets contain the same elements.
func (s Set[T]) Equals(other Set[T]) bool { return maps.Equal(s, other) }

// Union returns a new set containing all elements from both sets. This is
// the combiner forest.Merge uses for concurrent writes at the same
// accumulator label (spec §4.5, §5 "merge laws").
func (s Set[T]) Union(other Set[T]) Set[T] {
	result := make(Set[T], max(s.Len(), other.Len()))
	maps.Copy(result, s)
	maps.Copy(result, other)
	return result
}

// Intersection returns a new set containing only elements present in both.
func (s Set[T]) Intersection(other Set[T]) Set[T] {
	result := make(Set[T])
	small, big := s, other
	if other.Len() < s.Len() {
		small, big = other, s
	}
	for elt := range small {
		if big.Contains(elt) {
			result.Add(elt)
		}
	}
	return result
}

// Difference returns a new set containing elements in s that are not in other.
func (s Set[T]) Difference(other Set[T]) Set[T] {
	result := make(Set[T])
	for elt := range s {
		if !other.Contains(elt) {
			result.Add(elt)
		}
	}
	return result
}

// Clone returns a copy of the set.
func (s Set[T]) Clone() Set[T] {
	result := make(Set[T], s.Len())
	maps.Copy(result, s)
	return result
}

// String returns a debug representation of the set.
func (s Set[T]) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	first := true
	for elt := range s {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%v", elt)
	}
	sb.WriteString("}")
	return sb.String()
}
