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

// Package action models the tagged-union Action variants and the graph
// that connects them (spec §3, §4.2). Parsing a graph file into these
// types is an external concern (spec §1); this package only holds the
// validated, in-memory shape the driver walks.
package action

import (
	"github.com/nabbar/tgen/peer"
)

// Kind distinguishes a Transfer's direction.
type Kind uint8

const (
	// Get means bytes flow server -> client.
	Get Kind = iota
	// Put means bytes flow client -> server.
	Put
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == Put {
		return "put"
	}
	return "get"
}

// Protocol is the transport a Transfer action requests. The schema
// reserves Udp, Pipe and Socketpair (spec §6.1) but the driver only
// implements Tcp; the loader must reject the others rather than the
// core silently ignoring them (spec §9 Open Questions).
type Protocol uint8

const (
	Tcp Protocol = iota
	Udp
	Pipe
	Socketpair
)

func (p Protocol) String() string {
	switch p {
	case Tcp:
		return "tcp"
	case Udp:
		return "udp"
	case Pipe:
		return "pipe"
	case Socketpair:
		return "socketpair"
	default:
		return "unknown"
	}
}

// Action is the sealed tagged union of the five vertex payloads. A
// type switch over the concrete *Start/*End/*Pause/*Synchronize/*Transfer
// pointer types replaces the void-pointer-plus-magic-word pattern the
// original schema used (spec §9 Design Notes).
type Action interface {
	action()
}

// Start is the unique graph entry point: it opens the server listener
// and seeds the pool(s) the rest of the graph draws from.
type Start struct {
	TimeS      uint64 `validate:"gte=0"`
	ServerPort uint16 `validate:"gte=1,lte=65535"`
	Peers      *peer.Pool
	SocksProxy *peer.Peer // nil: no proxy
}

func (*Start) action() {}

// End is consulted after every transfer completion and timer tick
// (spec §4.5.3). A zero field means "unconstrained"; shutdown begins
// once any non-zero field's threshold is reached.
type End struct {
	TimeS     uint64
	Count     uint64
	SizeBytes uint64
}

func (*End) action() {}

// Pause schedules a timer and, on fire, walks its successors.
type Pause struct {
	TimeS uint64
}

func (*Pause) action() {}

// Synchronize is a join vertex: its successors fire once every
// predecessor branch has completed (spec §3, §4.5.3).
type Synchronize struct{}

func (*Synchronize) action() {}

// Transfer initiates one client-side byte exchange. When Peers is nil,
// dispatch falls back to the originating Start action's pool (spec §3).
type Transfer struct {
	Direction Kind
	Protocol  Protocol `validate:"eq=0"` // Tcp; loader rejects the rest
	SizeBytes uint64
	Peers     *peer.Pool // nil: fall back to Start.Peers
}

func (*Transfer) action() {}
