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

package driver

import (
	"container/heap"
	"time"

	"github.com/nabbar/tgen/action"
)

// timerEntry is one scheduled firing: a vertex to activate once its
// absolute deadline passes. seq breaks ties in enqueue order (spec §5:
// "ties broken by enqueue order (FIFO)").
type timerEntry struct {
	deadline time.Time
	seq      uint64
	vertex   action.VertexID
	index    int
}

// timerHeap is a monotonic min-heap keyed by absolute deadline (spec
// §4.5.2).
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x interface{}) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// timerQueue wraps timerHeap with the sequence counter the driver
// needs for FIFO tie-breaking.
type timerQueue struct {
	h   timerHeap
	seq uint64
}

func newTimerQueue() *timerQueue {
	q := &timerQueue{}
	heap.Init(&q.h)
	return q
}

func (q *timerQueue) schedule(deadline time.Time, vertex action.VertexID) {
	q.seq++
	heap.Push(&q.h, &timerEntry{deadline: deadline, seq: q.seq, vertex: vertex})
}

// nextDeadline reports the earliest pending deadline; ok is false when
// the queue is empty.
func (q *timerQueue) nextDeadline() (time.Time, bool) {
	if q.h.Len() == 0 {
		return time.Time{}, false
	}
	return q.h[0].deadline, true
}

// drainDue pops and returns every entry whose deadline has passed.
func (q *timerQueue) drainDue(now time.Time) []action.VertexID {
	var due []action.VertexID
	for q.h.Len() > 0 && !q.h[0].deadline.After(now) {
		e := heap.Pop(&q.h).(*timerEntry)
		due = append(due, e.vertex)
	}
	return due
}

func (q *timerQueue) len() int { return q.h.Len() }
