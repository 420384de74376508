/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package peer

import (
	"errors"
	"math/rand"
)

// ErrEmpty is returned by Choose when a pool has no entries. The
// driver maps it onto a PoolError (spec §7) without opening a socket.
var ErrEmpty = errors.New("peer: pool is empty")

// Rand is the minimal random source a Pool needs. *rand.Rand satisfies
// it; tests substitute a seeded source for determinism.
type Rand interface {
	Intn(n int) int
}

// Pool is a reference-counted, append-only collection of peers. The
// loader builds one per Start/Transfer action and the driver shares it
// across every action that references the same pool (spec §3, §9).
// Duplicates are allowed and intentional: the same peer listed twice
// doubles its selection weight.
//
// Pool is not safe for concurrent writers; the loader is the single
// writer during graph construction and the driver only reads from it
// afterwards, consistent with the single-threaded core (spec §5).
type Pool struct {
	entries []Peer
	refs    int32
}

// New returns an empty Pool with a reference count of 1.
func New() *Pool {
	return &Pool{refs: 1}
}

// FromSlice returns a Pool seeded with the given peers and a reference
// count of 1.
func FromSlice(peers []Peer) *Pool {
	p := New()
	p.entries = append(p.entries, peers...)
	return p
}

// Add appends a peer to the pool. It is not safe to call concurrently
// with Choose/Len/Ref/Unref.
func (p *Pool) Add(peer Peer) {
	p.entries = append(p.entries, peer)
}

// Len returns the number of entries, duplicates included.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// Choose selects a peer uniformly at random over the entries. No
// ordering is implied or guaranteed by the underlying slice; callers
// (and tests) must not depend on which duplicate is returned.
func (p *Pool) Choose(r Rand) (Peer, error) {
	if p == nil || len(p.entries) == 0 {
		return Peer{}, ErrEmpty
	}
	if r == nil {
		r = rand.New(rand.NewSource(rand.Int63()))
	}
	return p.entries[r.Intn(len(p.entries))], nil
}

// Ref increments the reference count. The loader and driver in this
// module do not call it: each graph vertex holds its own Pool, which
// keeps the count of 1 it was created with.
func (p *Pool) Ref() {
	if p != nil {
		p.refs++
	}
}

// Unref decrements the reference count and reports whether this was the
// final reference, in which case it drops the entries so the pool reads
// as empty; the memory itself is left to the garbage collector.
func (p *Pool) Unref() bool {
	if p == nil {
		return false
	}
	p.refs--
	if p.refs <= 0 {
		p.entries = nil
		return true
	}
	return false
}

// RefCount reports the current reference count, for tests and
// diagnostics.
func (p *Pool) RefCount() int32 {
	if p == nil {
		return 0
	}
	return p.refs
}
