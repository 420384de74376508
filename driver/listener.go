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
	"github.com/nabbar/tgen/tgerr"

	"golang.org/x/sys/unix"
)

// openListener opens a non-blocking, reuse-address IPv4 listener on
// port, the exact shape spec §4.5.1 requires of Boot.
func openListener(port uint16) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, tgerr.New(tgerr.Bind, err, "driver: socket")
	}
	if err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, tgerr.New(tgerr.Bind, err, "driver: SO_REUSEADDR")
	}
	if err = unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return -1, tgerr.New(tgerr.Bind, err, "driver: set nonblocking")
	}
	sa := &unix.SockaddrInet4{Port: int(port)}
	if err = unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, tgerr.New(tgerr.Bind, err, "driver: bind :%d", port)
	}
	if err = unix.Listen(fd, 128); err != nil {
		_ = unix.Close(fd)
		return -1, tgerr.New(tgerr.Bind, err, "driver: listen :%d", port)
	}
	return fd, nil
}

// acceptAll drains pending connections from a non-blocking listener fd
// until EAGAIN, looping once per event the way spec §4.5.4 requires
// ("accept one connection per event (looping until WouldBlock)").
func acceptAll(listenerFd int, onAccept func(fd int, addr unix.Sockaddr)) {
	for {
		nfd, sa, err := unix.Accept(listenerFd)
		if err != nil {
			if err == unix.EAGAIN {
				return
			}
			return
		}
		if err = unix.SetNonblock(nfd, true); err != nil {
			_ = unix.Close(nfd)
			continue
		}
		onAccept(nfd, sa)
	}
}
