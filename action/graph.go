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

package action

import (
	"fmt"

	"github.com/nabbar/tgen/tgerr"
)

// VertexID is the opaque vertex identifier the loader assigns (spec §3:
// "vertices keyed by opaque identifier"). The core never interprets it
// beyond equality and map lookup.
type VertexID uint32

// Vertex pairs one Action with the deterministic, loader-fixed order of
// its outgoing edges (spec §4.2: "the loader fixes that order and the
// driver preserves it").
type Vertex struct {
	ID         VertexID
	Action     Action
	Successors []VertexID
}

// Graph is the read-only, validated surface the driver walks. It is
// immutable after construction (spec §3 Lifecycle).
type Graph struct {
	start    VertexID
	vertices map[VertexID]Vertex
}

// NewGraph validates and wraps a set of vertices into a Graph. It
// enforces the structural invariants spec §3 lists: exactly one Start
// vertex, and Start has no incoming edges. Scalar/field-level
// validation (port ranges, etc.) is Validate's job, run separately so a
// loader can choose to validate before or after graph assembly.
func NewGraph(vertices map[VertexID]Vertex) (*Graph, error) {
	var (
		startID     VertexID
		startCount  int
		hasIncoming = make(map[VertexID]bool, len(vertices))
	)

	for id, v := range vertices {
		if _, ok := v.Action.(*Start); ok {
			startID = id
			startCount++
		}
		for _, s := range v.Successors {
			if _, ok := vertices[s]; !ok {
				return nil, tgerr.New(tgerr.Graph, nil, "edge %d -> %d: unknown successor", id, s)
			}
			hasIncoming[s] = true
		}
	}

	if startCount == 0 {
		return nil, tgerr.New(tgerr.Graph, nil, "graph has no Start vertex")
	}
	if startCount > 1 {
		return nil, tgerr.New(tgerr.Graph, nil, "graph has %d Start vertices, want exactly one", startCount)
	}
	if hasIncoming[startID] {
		return nil, tgerr.New(tgerr.Graph, nil, "Start vertex %d has incoming edges", startID)
	}

	g := &Graph{start: startID, vertices: make(map[VertexID]Vertex, len(vertices))}
	for id, v := range vertices {
		g.vertices[id] = v
	}
	return g, nil
}

// StartVertex returns the graph's unique entry point.
func (g *Graph) StartVertex() VertexID {
	return g.start
}

// Successors returns v's outgoing edges in the loader's fixed order.
// It returns nil for an unknown vertex.
func (g *Graph) Successors(v VertexID) []VertexID {
	return g.vertices[v].Successors
}

// ActionOf returns the Action held at v, and whether v exists.
func (g *Graph) ActionOf(v VertexID) (Action, bool) {
	vx, ok := g.vertices[v]
	if !ok {
		return nil, false
	}
	return vx.Action, true
}

// Len returns the number of vertices, for diagnostics and tests.
func (g *Graph) Len() int {
	return len(g.vertices)
}

// IDs returns every vertex identifier in the graph, in no particular
// order. The driver uses it once at boot to collect every End vertex's
// thresholds (spec §4.5.3: End is "consulted after every transfer
// completion and timer tick", independent of where in the graph it
// sits), not to walk edges.
func (g *Graph) IDs() []VertexID {
	ids := make([]VertexID, 0, len(g.vertices))
	for id := range g.vertices {
		ids = append(ids, id)
	}
	return ids
}

// PredecessorCount returns, for every vertex, how many distinct
// vertices list it as a successor. The driver uses this to know how
// many arrivals a Synchronize join must see before firing (spec §3,
// §4.5.3) without walking the whole graph on every event.
func (g *Graph) PredecessorCount() map[VertexID]int {
	counts := make(map[VertexID]int, len(g.vertices))
	for _, v := range g.vertices {
		for _, s := range v.Successors {
			counts[s]++
		}
	}
	return counts
}

func (g *Graph) String() string {
	return fmt.Sprintf("Graph{vertices=%d, start=%d}", len(g.vertices), g.start)
}
