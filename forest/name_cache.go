// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package forest

import (
	"container/list"

	"github.com/luxfi/vaultfs/accumulator"
	vcid "github.com/luxfi/vaultfs/cid"
)

// nameCache memoizes Name -> NameAccumulator, bounded by a size cap
// (spec §4.5 "name_cache memoizes Name -> (NameAccumulator,
// ElementsProof) bounded by a size cap; entries are evicted on
// pressure; cache misses are always correct, just slower"). Only the
// accumulator is cached, not its proof: the forest's own operations
// never need to replay a membership proof, only the resulting label, and
// recomputing AsProvenAccumulator on a cache miss still rebuilds both.
//
// No pack dependency supplies a bounded-arbitrary-eviction cache that
// fits this exact contract (evict on pressure, correctness independent
// of what is evicted) any better than container/list's doubly-linked
// list plus a map, so this is hand-rolled LRU-by-recency rather than an
// imported cache library (also noted in SPEC_FULL.md §9).
type nameCache struct {
	cap     int
	entries map[cacheKey]*list.Element
	order   *list.List
}

type cacheKey [32]byte

type cacheEntry struct {
	key cacheKey
	acc accumulator.NameAccumulator
}

func newNameCache(capacity int) *nameCache {
	if capacity <= 0 {
		return nil
	}
	return &nameCache{
		cap:     capacity,
		entries: make(map[cacheKey]*list.Element, capacity),
		order:   list.New(),
	}
}

func keyFor(name *accumulator.Name) cacheKey {
	relLabel := name.RelativeTo().Label()
	buf := make([]byte, 0, len(relLabel)+32*len(name.Segments()))
	buf = append(buf, relLabel[:]...)
	for _, seg := range name.Segments() {
		buf = append(buf, seg.Bytes()...)
	}
	return vcid.Sum256(buf)
}

func (c *nameCache) get(name *accumulator.Name) (accumulator.NameAccumulator, bool) {
	if c == nil {
		return accumulator.NameAccumulator{}, false
	}
	el, ok := c.entries[keyFor(name)]
	if !ok {
		return accumulator.NameAccumulator{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).acc, true
}

func (c *nameCache) put(name *accumulator.Name, acc accumulator.NameAccumulator) {
	if c == nil {
		return
	}
	key := keyFor(name)
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).acc = acc
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&cacheEntry{key: key, acc: acc})
	c.entries[key] = el

	for c.order.Len() > c.cap {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}
