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

// Package tgerr defines the seven error kinds of spec §7 as a small
// coded-error type, in the shape of the teacher's own errors package
// (a numeric Code plus an Is-compatible wrapping chain) but scoped to
// this system's error taxonomy instead of the teacher's HTTP-status
// breadth.
package tgerr

import "fmt"

// Code identifies one of the seven error kinds spec §7 enumerates.
type Code uint8

const (
	// Unknown is the zero value; never deliberately returned.
	Unknown Code = iota
	// Graph marks a malformed or semantically invalid graph. Fatal, pre-boot.
	Graph
	// Bind marks a failure to open the server listener. Fatal.
	Bind
	// Connect marks a failed outbound TCP connect. Local to one transfer.
	Connect
	// Proxy marks a failed SOCKS5 negotiation. Local to one transfer.
	Proxy
	// Protocol marks a bad command line or checksum mismatch.
	Protocol
	// IO marks an unexpected EOF or OS error during payload transfer.
	IO
	// Pool marks a selection request against an empty peer pool.
	Pool
)

func (c Code) String() string {
	switch c {
	case Graph:
		return "graph"
	case Bind:
		return "bind"
	case Connect:
		return "connect"
	case Proxy:
		return "proxy"
	case Protocol:
		return "protocol"
	case IO:
		return "io"
	case Pool:
		return "pool"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this kind must abort the process
// (spec §7 policy: "Only pre-boot and poller failures are fatal").
func (c Code) Fatal() bool {
	return c == Graph || c == Bind
}

// Error is a coded error that keeps the kind alongside a message and
// an optional wrapped cause, so callers can branch with errors.Is on
// the Code rather than matching message text.
type Error struct {
	code    Code
	message string
	cause   error
}

// New builds a coded Error with a formatted message and an optional
// wrapped cause.
func New(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...), cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

// Unwrap lets errors.Is/As reach the wrapped cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Code returns the error kind.
func (e *Error) Code() Code {
	return e.code
}

// Is reports whether target is a *Error with the same Code, enabling
// errors.Is(err, otherCodedErr) comparisons by kind rather than identity.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.code == e.code
}

// CodeOf extracts the Code from err if it (or something it wraps) is a
// *Error, and reports ok=false otherwise.
func CodeOf(err error) (Code, bool) {
	var e *Error
	for err != nil {
		if c, ok := err.(*Error); ok {
			e = c
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return Unknown, false
	}
	return e.code, true
}
