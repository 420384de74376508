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
	"github.com/nabbar/tgen/peer"
	"github.com/nabbar/tgen/socks5"
	"github.com/nabbar/tgen/tgerr"
)

// proxyState walks the no-auth CONNECT handshake spec §4.3 names:
// ConnectPending, ProxyInit, ProxyAuth, ProxyRequest, ProxyResponse, Ready.
type proxyState int

const (
	stateConnectPending proxyState = iota
	stateProxyInit
	stateProxyAuth
	stateProxyRequest
	stateProxyResponse
	stateReady
	stateFailed
)

// Proxy is a Transport that reaches its target through a SOCKS5 proxy
// (spec §4.3). It drives an inner TCP connection to the proxy itself
// and layers the handshake state machine on top, so from the driver's
// point of view a Proxy looks exactly like a direct TCP transport: one
// fd, one WantRead/WantWrite pair, one Ready gate.
type Proxy struct {
	inner     *TCP
	proxyAddr peer.Peer
	target    peer.Peer
	state     proxyState
	out       []byte
	in        []byte
	want      int
}

// NewProxy returns a Transport that connects to proxyAddr and then
// issues a CONNECT for whatever target is later passed to Connect.
func NewProxy(proxyAddr peer.Peer) *Proxy {
	return &Proxy{inner: NewTCP(), proxyAddr: proxyAddr}
}

func (p *Proxy) Connect(target peer.Peer) error {
	p.target = target
	if err := p.inner.Connect(p.proxyAddr); err != nil {
		return err
	}
	p.state = stateConnectPending
	return nil
}

func (p *Proxy) Fd() int { return p.inner.Fd() }

func (p *Proxy) WantRead() bool {
	return p.state == stateProxyAuth || p.state == stateProxyResponse
}

func (p *Proxy) WantWrite() bool {
	switch p.state {
	case stateConnectPending, stateProxyInit, stateProxyRequest:
		return true
	default:
		return false
	}
}

func (p *Proxy) Ready() bool { return p.state == stateReady }

func (p *Proxy) OnWritable() error {
	switch p.state {
	case stateConnectPending:
		if err := p.inner.OnWritable(); err != nil {
			p.state = stateFailed
			return err
		}
		if !p.inner.Ready() {
			return nil
		}
		p.out = socks5.Greeting()
		p.state = stateProxyInit
		return p.drainOut(stateProxyAuth, socks5.GreetingLen)

	case stateProxyInit:
		return p.drainOut(stateProxyAuth, socks5.GreetingLen)

	case stateProxyRequest:
		return p.drainOut(stateProxyResponse, socks5.ConnectReplyLen)
	}
	return nil
}

// drainOut writes whatever remains of p.out; once empty it switches to
// next and arms the inbound buffer to collect wantLen bytes.
func (p *Proxy) drainOut(next proxyState, wantLen int) error {
	if len(p.out) > 0 {
		pr := p.inner.Write(p.out)
		if pr.Err != nil {
			p.state = stateFailed
			return pr.Err
		}
		if pr.WouldBlock {
			return nil
		}
		p.out = p.out[pr.N:]
		if len(p.out) > 0 {
			return nil
		}
	}
	p.state = next
	p.in = p.in[:0]
	p.want = wantLen
	return nil
}

func (p *Proxy) OnReadable() error {
	switch p.state {
	case stateProxyAuth:
		return p.fill(func() error {
			if err := socks5.ParseMethodSelection(p.in); err != nil {
				p.state = stateFailed
				return tgerr.New(tgerr.Proxy, err, "socks5 handshake")
			}
			p.out = socks5.ConnectRequest(p.target)
			p.state = stateProxyRequest
			return nil
		})

	case stateProxyResponse:
		return p.fill(func() error {
			if err := socks5.ParseConnectReply(p.in); err != nil {
				p.state = stateFailed
				return tgerr.New(tgerr.Proxy, err, "socks5 connect reply")
			}
			p.state = stateReady
			return nil
		})
	}
	return nil
}

func (p *Proxy) fill(onComplete func() error) error {
	buf := make([]byte, p.want-len(p.in))
	pr := p.inner.Read(buf)
	if pr.Err != nil {
		p.state = stateFailed
		return pr.Err
	}
	if pr.Eof {
		p.state = stateFailed
		return tgerr.New(tgerr.Proxy, nil, "proxy closed connection during handshake")
	}
	if pr.WouldBlock {
		return nil
	}
	p.in = append(p.in, buf[:pr.N]...)
	if len(p.in) < p.want {
		return nil
	}
	return onComplete()
}

func (p *Proxy) Read(b []byte) Progress {
	if !p.Ready() {
		return Progress{Err: tgerr.New(tgerr.Proxy, nil, "read before proxy handshake completed")}
	}
	return p.inner.Read(b)
}

func (p *Proxy) Write(b []byte) Progress {
	if !p.Ready() {
		return Progress{Err: tgerr.New(tgerr.Proxy, nil, "write before proxy handshake completed")}
	}
	return p.inner.Write(b)
}

func (p *Proxy) Close() error { return p.inner.Close() }
