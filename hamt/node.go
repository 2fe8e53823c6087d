// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package hamt

import (
	"errors"
	"sort"

	vcid "github.com/luxfi/vaultfs/cid"
)

// BucketSize is the number of key/value pairs a leaf bucket holds before
// it splits into a child node (spec §9 default, HAMT_VALUES_BUCKET_SIZE
// in the original).
const BucketSize = 3

var errNibblesExhausted = errors.New("hamt: exhausted 64-nibble digest without resolving key")

// Keyer is the constraint a HAMT key type must satisfy: comparable so
// Go's map/slice equality works for bucket lookups, and able to produce
// the bytes that get hashed to choose a trie path.
type Keyer interface {
	comparable
	Bytes() []byte
}

// Pair is one key/value entry in a bucket.
type Pair[K Keyer, V any] struct {
	Key   K
	Value V
}

// pointer is either a Values bucket or a Link to a child Node. Exactly
// one of the two fields is non-nil/non-empty at a time.
type pointer[K Keyer, V any] struct {
	Values []Pair[K, V]
	Link   *Node[K, V]
}

// Node is a single level of the trie: a 16-bit bitmask marking which of
// the 16 nibble slots are occupied, and one pointer per set bit, ordered
// by ascending nibble index.
type Node[K Keyer, V any] struct {
	bitmask  uint16
	pointers []pointer[K, V]

	cid *vcid.Cid // memoized, cleared on any mutation
}

// New returns an empty node.
func New[K Keyer, V any]() *Node[K, V] {
	return &Node[K, V]{}
}

// IsEmpty reports whether the node has no entries at all.
func (n *Node[K, V]) IsEmpty() bool { return n.bitmask == 0 }

func bitIndexOf(nibble int) uint16 { return 1 << uint(nibble) }

// pointerIndex returns the slice index in n.pointers corresponding to
// nibble, which must be the i-th set bit counting from nibble 0.
func (n *Node[K, V]) pointerIndex(nibble int) int {
	mask := bitIndexOf(nibble) - 1 // bits for all nibbles < nibble
	return popcount16(n.bitmask & mask)
}

func popcount16(x uint16) int {
	count := 0
	for x != 0 {
		x &= x - 1
		count++
	}
	return count
}

func keyHash[K Keyer](key K) [32]byte {
	return vcid.Sum256(key.Bytes())
}

// Get walks the trie for key, returning its value if present.
func (n *Node[K, V]) Get(key K) (V, bool) {
	cursor := newNibbleCursor(keyHash(key))
	return n.getValue(cursor, key)
}

func (n *Node[K, V]) getValue(cursor *nibbleCursor, key K) (V, bool) {
	var zero V
	nibble, ok := cursor.tryNext()
	if !ok {
		return zero, false
	}
	if n.bitmask&bitIndexOf(nibble) == 0 {
		return zero, false
	}

	idx := n.pointerIndex(nibble)
	p := &n.pointers[idx]
	if p.Link != nil {
		return p.Link.getValue(cursor, key)
	}
	for _, pair := range p.Values {
		if pair.Key == key {
			return pair.Value, true
		}
	}
	return zero, false
}

// Set inserts or overwrites the value at key.
func (n *Node[K, V]) Set(key K, value V) {
	cursor := newNibbleCursor(keyHash(key))
	n.setValue(cursor, key, value)
}

func (n *Node[K, V]) setValue(cursor *nibbleCursor, key K, value V) {
	n.cid = nil
	nibble, ok := cursor.tryNext()
	if !ok {
		panic(errNibblesExhausted)
	}

	if n.bitmask&bitIndexOf(nibble) == 0 {
		idx := n.pointerIndex(nibble)
		n.insertPointerAt(idx, pointer[K, V]{Values: []Pair[K, V]{{Key: key, Value: value}}})
		n.bitmask |= bitIndexOf(nibble)
		return
	}

	idx := n.pointerIndex(nibble)
	p := &n.pointers[idx]

	if p.Link != nil {
		p.Link.setValue(cursor, key, value)
		return
	}

	for i := range p.Values {
		if p.Values[i].Key == key {
			p.Values[i].Value = value
			return
		}
	}

	if len(p.Values) < BucketSize {
		target := keyHash(key)
		insertIdx := sort.Search(len(p.Values), func(i int) bool {
			return !hashLess(keyHash(p.Values[i].Key), target)
		})
		p.Values = append(p.Values, Pair[K, V]{})
		copy(p.Values[insertIdx+1:], p.Values[insertIdx:])
		p.Values[insertIdx] = Pair[K, V]{Key: key, Value: value}
		return
	}

	child := New[K, V]()
	depth := cursor.depth()
	all := append(p.Values, Pair[K, V]{Key: key, Value: value})
	for _, pair := range all {
		childCursor := &nibbleCursor{digest: keyHash(pair.Key), pos: depth}
		child.setValue(childCursor, pair.Key, pair.Value)
	}
	n.pointers[idx] = pointer[K, V]{Link: child}
}

func (n *Node[K, V]) insertPointerAt(idx int, p pointer[K, V]) {
	n.pointers = append(n.pointers, pointer[K, V]{})
	copy(n.pointers[idx+1:], n.pointers[idx:])
	n.pointers[idx] = p
}

func hashLess(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Remove deletes key from the trie, returning its value if it was
// present.
func (n *Node[K, V]) Remove(key K) (V, bool) {
	cursor := newNibbleCursor(keyHash(key))
	return n.removeValue(cursor, key)
}

func (n *Node[K, V]) removeValue(cursor *nibbleCursor, key K) (V, bool) {
	var zero V
	nibble, ok := cursor.tryNext()
	if !ok {
		return zero, false
	}
	if n.bitmask&bitIndexOf(nibble) == 0 {
		return zero, false
	}

	n.cid = nil
	idx := n.pointerIndex(nibble)
	p := &n.pointers[idx]

	if p.Link != nil {
		value, removed := p.Link.removeValue(cursor, key)
		if !removed {
			return zero, false
		}
		if canon, keep := canonicalize(p.Link); keep {
			n.pointers[idx] = canon
		} else {
			n.removePointerAt(idx, nibble)
		}
		return value, true
	}

	for i, pair := range p.Values {
		if pair.Key != key {
			continue
		}
		value := pair.Value
		if len(p.Values) == 1 {
			n.removePointerAt(idx, nibble)
		} else {
			p.Values = append(p.Values[:i], p.Values[i+1:]...)
		}
		return value, true
	}
	return zero, false
}

func (n *Node[K, V]) removePointerAt(idx int, nibble int) {
	n.pointers = append(n.pointers[:idx], n.pointers[idx+1:]...)
	n.bitmask &^= bitIndexOf(nibble)
}

// canonicalize decides what pointer should replace a Link to child after
// a removal beneath it: nothing if child is now empty, the child's sole
// bucket inlined if it has exactly one Values pointer and nothing else,
// or the Link unchanged otherwise.
func canonicalize[K Keyer, V any](child *Node[K, V]) (pointer[K, V], bool) {
	if child.IsEmpty() {
		return pointer[K, V]{}, false
	}
	if len(child.pointers) == 1 && child.pointers[0].Link == nil {
		return child.pointers[0], true
	}
	return pointer[K, V]{Link: child}, true
}

// FlatMap visits every key/value pair in the trie, in trie order.
func (n *Node[K, V]) FlatMap(f func(Pair[K, V])) {
	for _, p := range n.pointers {
		if p.Link != nil {
			p.Link.FlatMap(f)
			continue
		}
		for _, pair := range p.Values {
			f(pair)
		}
	}
}

// CountValues returns the total number of key/value pairs reachable
// from n.
func (n *Node[K, V]) CountValues() int {
	count := 0
	n.FlatMap(func(Pair[K, V]) { count++ })
	return count
}

// Merge combines a and b into a new node: where both sides have a
// value at the same key, combine(a's value, b's value) resolves the
// conflict.
func Merge[K Keyer, V any](a, b *Node[K, V], combine func(V, V) V) *Node[K, V] {
	out := New[K, V]()
	a.FlatMap(func(p Pair[K, V]) { out.Set(p.Key, p.Value) })
	b.FlatMap(func(p Pair[K, V]) {
		if existing, ok := out.Get(p.Key); ok {
			out.Set(p.Key, combine(existing, p.Value))
		} else {
			out.Set(p.Key, p.Value)
		}
	})
	return out
}
