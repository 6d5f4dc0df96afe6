// Package symtab implements a hash-chained symbol table: djb2 hashing,
// initial capacity 32, rehash at load >= 0.70 by doubling, and a
// per-symbol deferred-instruction list for forward-reference
// resolution. The hash-chain is explicit rather than delegated to Go's
// built-in map so the rehash threshold and chain structure stay
// directly testable.
package symtab

import (
	"github.com/tstword/mipsasm/internal/opcode"
	"github.com/tstword/mipsasm/internal/segment"
)

// Status is a symbol's declaration state.
type Status int

const (
	Undefined Status = iota
	Defined
	Doubly
)

// Entry is one symbol table record.
type Entry struct {
	Key      string
	Status   Status
	Segment  segment.ID
	Offset   uint32
	Deferred []*opcode.PendingInstruction
	next     *Entry
}

const initialBuckets = 32
const loadFactorThreshold = 0.70

// Table is the hash-chained symbol table plus the linear ordered list
// of every entry ever inserted, used for end-of-assembly iteration.
type Table struct {
	buckets []*Entry
	length  int
	Touched []*Entry
}

func New() *Table {
	return &Table{buckets: make([]*Entry, initialBuckets)}
}

func djb2(s string) uint64 {
	var hash uint64 = 5381
	for i := 0; i < len(s); i++ {
		hash = ((hash << 5) + hash) + uint64(s[i])
	}
	return hash
}

// Insert always creates a new entry with status undefined, segment
// user-text by default, offset 0, and an empty deferred list.
func (t *Table) Insert(key string) *Entry {
	e := &Entry{Key: key, Status: Undefined, Segment: segment.Text}
	index := djb2(key) % uint64(len(t.buckets))
	t.insertAt(index, e)
	t.Touched = append(t.Touched, e)
	t.percolate()
	return e
}

func (t *Table) insertAt(index uint64, e *Entry) {
	head := t.buckets[index]
	t.length++
	if head == nil {
		t.buckets[index] = e
		return
	}
	for head.next != nil {
		head = head.next
	}
	head.next = e
}

func (t *Table) percolate() {
	load := float64(t.length) / float64(len(t.buckets))
	if load < loadFactorThreshold {
		return
	}
	prev := t.buckets
	newSize := len(prev) * 2
	t.buckets = make([]*Entry, newSize)
	t.length = 0
	for _, head := range prev {
		for head != nil {
			next := head.next
			head.next = nil
			index := djb2(head.Key) % uint64(newSize)
			t.insertAt(index, head)
			head = next
		}
	}
}

// Lookup returns the matching entry, or nil.
func (t *Table) Lookup(key string) *Entry {
	index := djb2(key) % uint64(len(t.buckets))
	for e := t.buckets[index]; e != nil; e = e.next {
		if e.Key == key {
			return e
		}
	}
	return nil
}

// Len reports the number of entries currently stored.
func (t *Table) Len() int { return t.length }
