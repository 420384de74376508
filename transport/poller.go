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

package transport

import "time"

// Event reports one fd's readiness after a Poller.Wait call.
type Event struct {
	Fd       int
	Readable bool
	Writable bool
	Error    bool
}

// Poller is the single multiplexing primitive the driver's reactor
// loop runs on (spec §5: "the core is driven by one poll/epoll/kqueue
// loop, never one goroutine per connection"). One implementation backs
// it per OS; both are edge-triggered so a Transport whose Progress was
// WouldBlock is guaranteed a fresh wakeup only after re-arming via
// Modify.
type Poller interface {
	// Add registers fd for the given interest set.
	Add(fd int, read, write bool) error
	// Modify updates fd's interest set, e.g. after WantWrite flips off
	// once a handshake completes.
	Modify(fd int, read, write bool) error
	// Remove deregisters fd; callers still Close it themselves.
	Remove(fd int) error
	// Wait blocks up to timeout (0 means return immediately, a
	// negative duration means block indefinitely) and returns the
	// ready events. It is the only blocking call in the whole reactor.
	Wait(timeout time.Duration) ([]Event, error)
	// Close releases the poller's own fd (epoll instance / kqueue).
	Close() error
}
