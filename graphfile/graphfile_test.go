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

package graphfile_test

import (
	"os"
	"path/filepath"

	libact "github.com/nabbar/tgen/action"
	"github.com/nabbar/tgen/graphfile"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func writeTemp(dir, contents string) string {
	p := filepath.Join(dir, "graph.json")
	Expect(os.WriteFile(p, []byte(contents), 0o600)).To(Succeed())
	return p
}

var _ = Describe("Load", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "graphfile")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(dir)
	})

	It("decodes a direct GET graph (spec scenario 1)", func() {
		path := writeTemp(dir, `{
			"vertices": [
				{"id": 1, "type": "start", "time": 0, "serverport": 9000, "peers": "127.0.0.1:9000", "successors": [2]},
				{"id": 2, "type": "transfer", "kind": "get", "protocol": "tcp", "size": "1mib"}
			]
		}`)

		g, err := graphfile.Load(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(g.StartVertex()).To(Equal(libact.VertexID(1)))

		act, ok := g.ActionOf(2)
		Expect(ok).To(BeTrue())
		xfer, ok := act.(*libact.Transfer)
		Expect(ok).To(BeTrue())
		Expect(xfer.SizeBytes).To(Equal(uint64(1 << 20)))
		Expect(xfer.Direction).To(Equal(libact.Get))
	})

	It("wires an End vertex's thresholds", func() {
		path := writeTemp(dir, `{
			"vertices": [
				{"id": 1, "type": "start", "serverport": 9000, "peers": "127.0.0.1:9000", "successors": [2]},
				{"id": 2, "type": "end", "count": 2}
			]
		}`)

		g, err := graphfile.Load(path)
		Expect(err).ToNot(HaveOccurred())
		act, ok := g.ActionOf(2)
		Expect(ok).To(BeTrue())
		end, ok := act.(*libact.End)
		Expect(ok).To(BeTrue())
		Expect(end.Count).To(Equal(uint64(2)))
	})

	It("rejects an unreadable path", func() {
		_, err := graphfile.Load(filepath.Join(dir, "missing.json"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects a reserved, unimplemented protocol", func() {
		path := writeTemp(dir, `{
			"vertices": [
				{"id": 1, "type": "start", "serverport": 9000, "peers": "127.0.0.1:9000", "successors": [2]},
				{"id": 2, "type": "transfer", "kind": "get", "protocol": "udp", "size": "1kb"}
			]
		}`)
		_, err := graphfile.Load(path)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an unknown action type", func() {
		path := writeTemp(dir, `{"vertices": [{"id": 1, "type": "bogus"}]}`)
		_, err := graphfile.Load(path)
		Expect(err).To(HaveOccurred())
	})
})
