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

package action_test

import (
	libact "github.com/nabbar/tgen/action"
	libpeer "github.com/nabbar/tgen/peer"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func simpleStartEnd() map[libact.VertexID]libact.Vertex {
	pool := libpeer.New()
	return map[libact.VertexID]libact.Vertex{
		1: {ID: 1, Action: &libact.Start{TimeS: 0, ServerPort: 9000, Peers: pool}, Successors: []libact.VertexID{2}},
		2: {ID: 2, Action: &libact.End{Count: 1}},
	}
}

var _ = Describe("Graph", func() {
	It("accepts a valid Start-then-End graph", func() {
		g, err := libact.NewGraph(simpleStartEnd())
		Expect(err).ToNot(HaveOccurred())
		Expect(g.StartVertex()).To(Equal(libact.VertexID(1)))
		Expect(g.Successors(1)).To(Equal([]libact.VertexID{2}))
	})

	It("rejects a graph with no Start vertex", func() {
		vs := map[libact.VertexID]libact.Vertex{
			1: {ID: 1, Action: &libact.End{}},
		}
		_, err := libact.NewGraph(vs)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a graph with two Start vertices", func() {
		pool := libpeer.New()
		vs := map[libact.VertexID]libact.Vertex{
			1: {ID: 1, Action: &libact.Start{ServerPort: 9000, Peers: pool}},
			2: {ID: 2, Action: &libact.Start{ServerPort: 9001, Peers: pool}},
		}
		_, err := libact.NewGraph(vs)
		Expect(err).To(HaveOccurred())
	})

	It("rejects incoming edges to Start", func() {
		pool := libpeer.New()
		vs := map[libact.VertexID]libact.Vertex{
			1: {ID: 1, Action: &libact.Start{ServerPort: 9000, Peers: pool}},
			2: {ID: 2, Action: &libact.Pause{TimeS: 1}, Successors: []libact.VertexID{1}},
		}
		_, err := libact.NewGraph(vs)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an edge to an unknown vertex", func() {
		pool := libpeer.New()
		vs := map[libact.VertexID]libact.Vertex{
			1: {ID: 1, Action: &libact.Start{ServerPort: 9000, Peers: pool}, Successors: []libact.VertexID{99}},
		}
		_, err := libact.NewGraph(vs)
		Expect(err).To(HaveOccurred())
	})

	Describe("PredecessorCount", func() {
		It("counts a Synchronize join's arrivals", func() {
			pool := libpeer.New()
			vs := map[libact.VertexID]libact.Vertex{
				1: {ID: 1, Action: &libact.Start{ServerPort: 9000, Peers: pool}, Successors: []libact.VertexID{2, 3}},
				2: {ID: 2, Action: &libact.Pause{TimeS: 1}, Successors: []libact.VertexID{4}},
				3: {ID: 3, Action: &libact.Pause{TimeS: 3}, Successors: []libact.VertexID{4}},
				4: {ID: 4, Action: &libact.Synchronize{}},
			}
			g, err := libact.NewGraph(vs)
			Expect(err).ToNot(HaveOccurred())
			Expect(g.PredecessorCount()[4]).To(Equal(2))
		})
	})

	Describe("IDs", func() {
		It("lists every vertex regardless of edge reachability", func() {
			g, err := libact.NewGraph(simpleStartEnd())
			Expect(err).ToNot(HaveOccurred())
			Expect(g.IDs()).To(ConsistOf(libact.VertexID(1), libact.VertexID(2)))
		})
	})

	Describe("Validate", func() {
		It("rejects a non-tcp Transfer protocol", func() {
			pool := libpeer.New()
			vs := map[libact.VertexID]libact.Vertex{
				1: {ID: 1, Action: &libact.Start{ServerPort: 9000, Peers: pool}, Successors: []libact.VertexID{2}},
				2: {ID: 2, Action: &libact.Transfer{Protocol: libact.Udp, SizeBytes: 1024}},
			}
			g, err := libact.NewGraph(vs)
			Expect(err).ToNot(HaveOccurred())
			Expect(libact.Validate(g)).To(HaveOccurred())
		})

		It("rejects a Synchronize with no predecessors", func() {
			vs := map[libact.VertexID]libact.Vertex{
				1: {ID: 1, Action: &libact.Start{ServerPort: 9000, Peers: libpeer.New()}, Successors: []libact.VertexID{2}},
				2: {ID: 2, Action: &libact.Synchronize{}},
				3: {ID: 3, Action: &libact.Synchronize{}},
			}
			g, err := libact.NewGraph(vs)
			Expect(err).ToNot(HaveOccurred())
			Expect(libact.Validate(g)).To(HaveOccurred())
		})

		It("rejects a Start with an invalid server port", func() {
			vs := map[libact.VertexID]libact.Vertex{
				1: {ID: 1, Action: &libact.Start{ServerPort: 0, Peers: libpeer.New()}},
			}
			g, err := libact.NewGraph(vs)
			Expect(err).ToNot(HaveOccurred())
			Expect(libact.Validate(g)).To(HaveOccurred())
		})

		It("accepts a well-formed graph", func() {
			g, err := libact.NewGraph(simpleStartEnd())
			Expect(err).ToNot(HaveOccurred())
			Expect(libact.Validate(g)).ToNot(HaveOccurred())
		})
	})
})
