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

import (
	"fmt"

	"github.com/nabbar/tgen/peer"
	"github.com/nabbar/tgen/tgerr"

	"golang.org/x/sys/unix"
)

// TCP is a raw, non-blocking IPv4 stream socket. It is the Transport
// every action uses directly when no proxy is configured (spec §3),
// and is also what Proxy dials underneath to reach the SOCKS5 server.
type TCP struct {
	fd         int
	connecting bool
	ready      bool
}

// NewTCP returns an unconnected TCP transport.
func NewTCP() *TCP {
	return &TCP{fd: -1}
}

// NewTCPFromFD wraps an already-connected, non-blocking file
// descriptor, the shape a server listener's Accept hands the driver
// (spec §4.1, inbound Transfer role).
func NewTCPFromFD(fd int) *TCP {
	return &TCP{fd: fd, ready: true}
}

func (t *TCP) Connect(target peer.Peer) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return tgerr.New(tgerr.Connect, err, "transport: socket")
	}
	if err = unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return tgerr.New(tgerr.Connect, err, "transport: set nonblocking")
	}

	sa := &unix.SockaddrInet4{Port: int(target.Port())}
	ip := target.IP().To4()
	copy(sa.Addr[:], ip)

	t.fd = fd
	err = unix.Connect(fd, sa)
	if err != nil && err != unix.EINPROGRESS && err != unix.EALREADY {
		_ = unix.Close(fd)
		t.fd = -1
		return tgerr.New(tgerr.Connect, err, "transport: connect %s", target)
	}
	t.connecting = true
	return nil
}

func (t *TCP) Fd() int { return t.fd }

func (t *TCP) WantRead() bool { return false }

func (t *TCP) WantWrite() bool { return t.connecting && !t.ready }

func (t *TCP) OnWritable() error {
	if t.ready {
		return nil
	}
	errno, err := unix.GetsockoptInt(t.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return tgerr.New(tgerr.Connect, err, "transport: getsockopt SO_ERROR")
	}
	if errno != 0 {
		return tgerr.New(tgerr.Connect, unix.Errno(errno), "transport: connect failed")
	}
	t.connecting = false
	t.ready = true
	return nil
}

func (t *TCP) OnReadable() error { return nil }

func (t *TCP) Ready() bool { return t.ready }

func (t *TCP) Read(b []byte) Progress {
	n, err := unix.Read(t.fd, b)
	if err == unix.EAGAIN {
		return Progress{WouldBlock: true}
	}
	if err != nil {
		return Progress{Err: tgerr.New(tgerr.IO, err, "transport: read")}
	}
	if n == 0 {
		return Progress{Eof: true}
	}
	return Progress{N: n}
}

func (t *TCP) Write(b []byte) Progress {
	n, err := unix.Write(t.fd, b)
	if err == unix.EAGAIN {
		return Progress{WouldBlock: true}
	}
	if err != nil {
		return Progress{Err: tgerr.New(tgerr.IO, err, "transport: write")}
	}
	return Progress{N: n}
}

func (t *TCP) Close() error {
	if t.fd < 0 {
		return nil
	}
	fd := t.fd
	t.fd = -1
	t.ready = false
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("transport: close: %w", err)
	}
	return nil
}
