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

package transport_test

import (
	"net"
	"time"

	libpeer "github.com/nabbar/tgen/peer"
	"github.com/nabbar/tgen/transport"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// driveUntilReady pumps poller events into tr until Ready() or the
// deadline passes, the same loop shape the driver's reactor runs.
func driveUntilReady(p transport.Poller, tr transport.Transport, deadline time.Duration) {
	end := time.Now().Add(deadline)
	Expect(p.Add(tr.Fd(), tr.WantRead(), tr.WantWrite())).To(Succeed())
	for !tr.Ready() && time.Now().Before(end) {
		events, err := p.Wait(20 * time.Millisecond)
		Expect(err).ToNot(HaveOccurred())
		for _, e := range events {
			if e.Fd != tr.Fd() {
				continue
			}
			if e.Writable {
				Expect(tr.OnWritable()).To(Succeed())
			}
			if e.Readable {
				Expect(tr.OnReadable()).To(Succeed())
			}
		}
		_ = p.Modify(tr.Fd(), tr.WantRead(), tr.WantWrite())
	}
}

var _ = Describe("TCP", func() {
	It("connects to a real listener and exchanges bytes", func() {
		ln, err := net.Listen("tcp4", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())
		defer ln.Close()

		accepted := make(chan net.Conn, 1)
		go func() {
			c, aerr := ln.Accept()
			if aerr == nil {
				accepted <- c
			}
		}()

		addr := ln.Addr().(*net.TCPAddr)
		target, err := libpeer.FromTCPAddr(addr)
		Expect(err).ToNot(HaveOccurred())

		poller, err := transport.NewPoller()
		Expect(err).ToNot(HaveOccurred())
		defer poller.Close()

		tr := transport.NewTCP()
		Expect(tr.Connect(target)).To(Succeed())

		driveUntilReady(poller, tr, 2*time.Second)
		Expect(tr.Ready()).To(BeTrue())

		var srv net.Conn
		Eventually(accepted, time.Second).Should(Receive(&srv))
		defer srv.Close()

		pr := tr.Write([]byte("hello"))
		Expect(pr.Err).ToNot(HaveOccurred())
		Expect(pr.N).To(Equal(5))

		buf := make([]byte, 5)
		Expect(srv.SetReadDeadline(time.Now().Add(time.Second))).To(Succeed())
		_, err = srv.Read(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(buf)).To(Equal("hello"))

		_, err = srv.Write([]byte("world"))
		Expect(err).ToNot(HaveOccurred())

		Eventually(func() int {
			out := make([]byte, 5)
			got := tr.Read(out)
			if got.N > 0 {
				copy(buf, out)
			}
			return got.N
		}, time.Second, 10*time.Millisecond).Should(Equal(5))

		Expect(tr.Close()).To(Succeed())
	})

	It("reports WouldBlock rather than a hard error with nothing to read", func() {
		ln, err := net.Listen("tcp4", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())
		defer ln.Close()

		go func() {
			c, _ := ln.Accept()
			if c != nil {
				defer c.Close()
				time.Sleep(200 * time.Millisecond)
			}
		}()

		addr := ln.Addr().(*net.TCPAddr)
		target, err := libpeer.FromTCPAddr(addr)
		Expect(err).ToNot(HaveOccurred())

		poller, err := transport.NewPoller()
		Expect(err).ToNot(HaveOccurred())
		defer poller.Close()

		tr := transport.NewTCP()
		Expect(tr.Connect(target)).To(Succeed())
		driveUntilReady(poller, tr, 2*time.Second)
		Expect(tr.Ready()).To(BeTrue())

		out := make([]byte, 16)
		pr := tr.Read(out)
		Expect(pr.WouldBlock).To(BeTrue())
		Expect(pr.Err).ToNot(HaveOccurred())

		Expect(tr.Close()).To(Succeed())
	})
})
