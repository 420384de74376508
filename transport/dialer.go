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

import "github.com/nabbar/tgen/peer"

// DirectDialer produces a plain non-blocking TCP Transport per call.
type DirectDialer struct{}

func (DirectDialer) Dial() Transport { return NewTCP() }

// ProxyDialer produces a Transport that routes every connection
// through the same SOCKS5 proxy (spec §3: a Start/Transfer action
// names at most one proxy peer).
type ProxyDialer struct {
	Proxy peer.Peer
}

func (d ProxyDialer) Dial() Transport { return NewProxy(d.Proxy) }

// NewDialer picks DirectDialer or ProxyDialer depending on whether a
// proxy peer was configured (spec §3: zero Peer means no proxy).
func NewDialer(proxy peer.Peer) Dialer {
	if proxy.IsZero() {
		return DirectDialer{}
	}
	return ProxyDialer{Proxy: proxy}
}
