package session

import (
	"cmp"
	"slices"

	"github.com/bytedance/gg/gmap"
)

// Kind selects one of the two memberships an entry holds in the index.
type Kind int

const (
	KindExpire Kind = iota // idle expiration
	KindMax                // absolute expiration
)

type bucket struct {
	at     int64
	expire map[*Entry]struct{}
	max    map[*Entry]struct{}
}

func newBucket(at int64) *bucket {
	return &bucket{
		at:     at,
		expire: make(map[*Entry]struct{}),
		max:    make(map[*Entry]struct{}),
	}
}

func (b *bucket) members(kind Kind) map[*Entry]struct{} {
	if kind == KindMax {
		return b.max
	}
	return b.expire
}

func (b *bucket) empty() bool {
	return len(b.expire) == 0 && len(b.max) == 0
}

// TimeoutIndex maps epoch seconds to the entries expiring at that second.
//
// Buckets are kept in a slice sorted strictly ascending by timestamp and are
// located by binary search. The sweeper relies on that order: once it meets
// a bucket in the future, every later bucket is in the future too. Empty
// buckets are dropped as soon as their last member leaves.
type TimeoutIndex struct {
	buckets []*bucket
}

func NewTimeoutIndex() *TimeoutIndex {
	return &TimeoutIndex{}
}

func (ix *TimeoutIndex) search(at int64) (int, bool) {
	return slices.BinarySearchFunc(ix.buckets, at, func(b *bucket, t int64) int {
		return cmp.Compare(b.at, t)
	})
}

// Insert adds e to the kind set of the bucket at. It reports whether a new
// bucket had to be created.
func (ix *TimeoutIndex) Insert(kind Kind, at int64, e *Entry) bool {
	i, found := ix.search(at)
	if !found {
		b := newBucket(at)
		b.members(kind)[e] = struct{}{}
		ix.buckets = slices.Insert(ix.buckets, i, b)
		return true
	}
	ix.buckets[i].members(kind)[e] = struct{}{}
	return false
}

// Remove drops e from the kind set at at. Missing members are ignored.
func (ix *TimeoutIndex) Remove(kind Kind, at int64, e *Entry) {
	i, found := ix.search(at)
	if !found {
		return
	}
	b := ix.buckets[i]
	delete(b.members(kind), e)
	if b.empty() {
		ix.buckets = slices.Delete(ix.buckets, i, i+1)
	}
}

// Move relocates e's kind membership from one timestamp to another.
func (ix *TimeoutIndex) Move(kind Kind, from, to int64, e *Entry) bool {
	if from == to {
		return false
	}
	ix.Remove(kind, from, e)
	return ix.Insert(kind, to, e)
}

// Due returns every entry referenced by a bucket at or before now, walking
// from the earliest bucket and stopping at the first future one.
func (ix *TimeoutIndex) Due(now int64) []*Entry {
	var due []*Entry
	seen := make(map[*Entry]struct{})
	for _, b := range ix.buckets {
		if b.at > now {
			break
		}
		for _, set := range []map[*Entry]struct{}{b.expire, b.max} {
			for _, e := range gmap.ToSlice(set, func(e *Entry, _ struct{}) *Entry { return e }) {
				if _, dup := seen[e]; dup {
					continue
				}
				seen[e] = struct{}{}
				due = append(due, e)
			}
		}
	}
	return due
}

// Len is the number of buckets.
func (ix *TimeoutIndex) Len() int {
	return len(ix.buckets)
}

// Timestamps lists bucket keys in index order.
func (ix *TimeoutIndex) Timestamps() []int64 {
	out := make([]int64, len(ix.buckets))
	for i, b := range ix.buckets {
		out[i] = b.at
	}
	return out
}

// Has reports whether e is a kind member of the bucket at.
func (ix *TimeoutIndex) Has(kind Kind, at int64, e *Entry) bool {
	i, found := ix.search(at)
	if !found {
		return false
	}
	_, ok := ix.buckets[i].members(kind)[e]
	return ok
}
