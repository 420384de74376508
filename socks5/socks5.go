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

// Package socks5 encodes and decodes the four RFC 1928 messages the
// no-auth CONNECT handshake needs (spec §4.3, §6.2). It holds no I/O of
// its own: transport.proxy drives these as pure byte-slice transforms
// so the non-blocking state machine can feed them partial reads without
// this package ever blocking.
package socks5

import (
	"encoding/binary"
	"fmt"

	"github.com/nabbar/tgen/peer"
)

const (
	version    = 0x05
	methodNoAuth = 0x00
	cmdConnect = 0x01
	atypIPv4   = 0x01
	repSuccess = 0x00
)

// Greeting is the client's first message: version 5, one method, no-auth.
func Greeting() []byte {
	return []byte{version, 0x01, methodNoAuth}
}

// GreetingLen is the fixed length of the server's method-selection reply.
const GreetingLen = 2

// ParseMethodSelection validates the server's 2-byte reply to Greeting.
func ParseMethodSelection(b []byte) error {
	if len(b) != GreetingLen {
		return fmt.Errorf("socks5: method selection must be %d bytes, got %d", GreetingLen, len(b))
	}
	if b[0] != version {
		return fmt.Errorf("socks5: unexpected version 0x%02x in method selection", b[0])
	}
	if b[1] != methodNoAuth {
		return fmt.Errorf("socks5: server selected method 0x%02x, only no-auth (0x00) is supported", b[1])
	}
	return nil
}

// ConnectRequestLen is the fixed length of a CONNECT request targeting
// an IPv4 address: VER CMD RSV ATYP ADDR(4) PORT(2).
const ConnectRequestLen = 10

// ConnectRequest builds the CONNECT request for the given target.
func ConnectRequest(target peer.Peer) []byte {
	b := make([]byte, ConnectRequestLen)
	b[0] = version
	b[1] = cmdConnect
	b[2] = 0x00 // reserved
	b[3] = atypIPv4
	binary.BigEndian.PutUint32(b[4:8], target.Address())
	binary.BigEndian.PutUint16(b[8:10], target.Port())
	return b
}

// ConnectReplyLen is the fixed length of a CONNECT reply carrying an
// IPv4 bound address: VER REP RSV ATYP ADDR(4) PORT(2).
const ConnectReplyLen = 10

// ParseConnectReply validates the server's CONNECT reply. Any reply
// code other than success (spec §4.3: "reply code != 0x00") is a
// ProxyError as far as the caller is concerned; this function only
// reports success/failure, the caller (transport.proxy) attaches the
// error kind.
func ParseConnectReply(b []byte) error {
	if len(b) != ConnectReplyLen {
		return fmt.Errorf("socks5: connect reply must be %d bytes, got %d", ConnectReplyLen, len(b))
	}
	if b[0] != version {
		return fmt.Errorf("socks5: unexpected version 0x%02x in connect reply", b[0])
	}
	if b[3] != atypIPv4 {
		return fmt.Errorf("socks5: unsupported address type 0x%02x in connect reply", b[3])
	}
	if b[1] != repSuccess {
		return fmt.Errorf("socks5: connect reply code 0x%02x", b[1])
	}
	return nil
}
