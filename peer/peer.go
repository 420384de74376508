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

// Package peer models a single (IPv4, port) endpoint and the reference-counted
// pool a graph's actions select from.
package peer

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Peer is an immutable (IPv4, port) endpoint. The address is kept in
// network byte order, the port in host byte order, matching the wire
// layout the SOCKS5 CONNECT request needs (spec §4.3).
type Peer struct {
	address uint32
	port    uint16
}

// New builds a Peer from a 4-byte IPv4 address (network order) and a
// host-order port.
func New(address uint32, port uint16) Peer {
	return Peer{address: address, port: port}
}

// FromTCPAddr builds a Peer from a resolved *net.TCPAddr. It returns an
// error if the address is not an IPv4 address, since the core never
// speaks IPv6 (spec §3 fixes the Peer layout at 4 bytes).
func FromTCPAddr(a *net.TCPAddr) (Peer, error) {
	ip4 := a.IP.To4()
	if ip4 == nil {
		return Peer{}, fmt.Errorf("peer: %s is not an IPv4 address", a.IP)
	}
	return Peer{
		address: binary.BigEndian.Uint32(ip4),
		port:    uint16(a.Port),
	}, nil
}

// Parse accepts "host:port" where host is a dotted-quad IPv4 literal,
// the form the Start/Transfer `peers` attribute lists (spec §6.1).
// Hostname resolution is the loader's job, not the core's (spec §1).
func Parse(hostport string) (Peer, error) {
	host, ps, err := net.SplitHostPort(hostport)
	if err != nil {
		return Peer{}, fmt.Errorf("peer: %q: %w", hostport, err)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return Peer{}, fmt.Errorf("peer: %q: not a literal IPv4 address", host)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return Peer{}, fmt.Errorf("peer: %q: not an IPv4 address", host)
	}

	port, err := strconv.ParseUint(strings.TrimSpace(ps), 10, 16)
	if err != nil {
		return Peer{}, fmt.Errorf("peer: %q: invalid port: %w", hostport, err)
	}
	if port == 0 {
		return Peer{}, fmt.Errorf("peer: %q: port must be in 1..65535", hostport)
	}

	return Peer{
		address: binary.BigEndian.Uint32(ip4),
		port:    uint16(port),
	}, nil
}

// Address returns the IPv4 address in network byte order.
func (p Peer) Address() uint32 {
	return p.address
}

// Port returns the port in host byte order.
func (p Peer) Port() uint16 {
	return p.port
}

// IP returns the standard library net.IP view of the address.
func (p Peer) IP() net.IP {
	b := make(net.IP, 4)
	binary.BigEndian.PutUint32(b, p.address)
	return b
}

// TCPAddr returns a *net.TCPAddr suitable for net.DialTCP / net.ListenTCP.
func (p Peer) TCPAddr() *net.TCPAddr {
	return &net.TCPAddr{IP: p.IP(), Port: int(p.port)}
}

// IsZero reports whether the Peer is the zero value (no address set),
// which transport.NewDialer takes to mean "no SOCKS proxy"; the driver
// passes it when the Start action's SocksProxy is nil.
func (p Peer) IsZero() bool {
	return p.address == 0 && p.port == 0
}

// String renders the peer as "a.b.c.d:port".
func (p Peer) String() string {
	return net.JoinHostPort(p.IP().String(), strconv.Itoa(int(p.port)))
}
