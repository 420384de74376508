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

// Package transport gives the driver's reactor loop a single shape to
// poll regardless of whether a transfer's bytes cross a raw TCP socket
// or a SOCKS5-proxied one (spec §4, §6.2). Every method here is
// non-blocking: Read/Write return as soon as the kernel would block,
// reporting that fact in a Progress rather than returning io.EOF-style
// sentinel errors the caller would have to special-case.
package transport

import "github.com/nabbar/tgen/peer"

// Progress reports the outcome of a single non-blocking Read or Write
// call, mirroring how the driver's dispatch loop needs to react: how
// many bytes moved, whether the call would have blocked, and whether
// the peer is gone.
type Progress struct {
	N         int
	WouldBlock bool
	Eof       bool
	Err       error
}

// Transport is a single full-duplex, non-blocking byte stream. Bind,
// proxy-connect and TLS concerns (none of the latter exist in this
// core, spec §1 Non-goals) live behind this interface so the driver
// and transfer state machines never touch a net.Conn or a raw fd
// directly.
type Transport interface {
	// Connect starts an asynchronous connection to target, optionally
	// via a SOCKS5 proxy. It never blocks: the caller polls WantWrite
	// and drives OnWritable until Ready.
	Connect(target peer.Peer) error

	// Fd returns the underlying file descriptor for registration with
	// a Poller.
	Fd() int

	// WantRead/WantWrite report the current interest set for the
	// poller's event registration.
	WantRead() bool
	WantWrite() bool

	// OnReadable/OnWritable advance the connection/handshake state
	// machine in response to a readiness event. They never block.
	OnReadable() error
	OnWritable() error

	// Ready reports whether the transport has completed its (possibly
	// proxied) handshake and is available for Read/Write.
	Ready() bool

	// Read/Write move application bytes once Ready is true.
	Read(b []byte) Progress
	Write(b []byte) Progress

	// Close releases the underlying file descriptor. Idempotent.
	Close() error
}

// Dialer creates a Transport bound to a proxy configuration; the driver
// builds one from the Start action's proxy setting for every outbound
// connection (spec §3, §4.3).
type Dialer interface {
	Dial() Transport
}
