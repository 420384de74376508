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

// Package graphfile is the one concrete action.Loader this module
// ships. Graph-file parsing is explicitly out of scope for the core
// (spec §1: "we assume a loader yields a validated in-memory graph"),
// but cmd/tgen needs something to point --graph at, so this package
// decodes the attribute set spec §6.1 lists from a plain JSON document
// into an *action.Graph, going through the same action.Validate pass
// any other loader would.
package graphfile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/nabbar/tgen/action"
	"github.com/nabbar/tgen/peer"
	"github.com/nabbar/tgen/tgerr"
)

// doc is the on-disk shape: a flat list of vertices, each carrying the
// attributes spec §6.1 requires for its Type, plus the fixed edge list
// the loader preserves verbatim (spec §4.2).
type doc struct {
	Vertices []vertexDoc `json:"vertices"`
}

type vertexDoc struct {
	ID         uint32   `json:"id"`
	Type       string   `json:"type"`
	Successors []uint32 `json:"successors"`

	// Start
	Time       uint64 `json:"time"`
	ServerPort uint16 `json:"serverport"`
	Peers      string `json:"peers"`
	SocksProxy string `json:"socksproxy"`

	// End
	Count uint64 `json:"count"`
	Size  string `json:"size"`

	// Transfer
	Kind     string `json:"kind"`
	Protocol string `json:"protocol"`
}

// Load reads and decodes the JSON document at path into an
// action.Graph, running action.Validate before returning it. Every
// failure is a *tgerr.Error with Code Graph (spec §6.4: fatal
// initialization failure, exit code 1).
func Load(path string) (*action.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tgerr.New(tgerr.Graph, err, "graphfile: opening %s", path)
	}
	defer func() { _ = f.Close() }()

	var d doc
	if err = json.NewDecoder(f).Decode(&d); err != nil {
		return nil, tgerr.New(tgerr.Graph, err, "graphfile: decoding %s", path)
	}

	return build(d)
}

func build(d doc) (*action.Graph, error) {
	vertices := make(map[action.VertexID]action.Vertex, len(d.Vertices))

	for _, vd := range d.Vertices {
		id := action.VertexID(vd.ID)
		succ := make([]action.VertexID, len(vd.Successors))
		for i, s := range vd.Successors {
			succ[i] = action.VertexID(s)
		}

		act, err := buildAction(vd)
		if err != nil {
			return nil, tgerr.New(tgerr.Graph, err, "graphfile: vertex %d", vd.ID)
		}

		vertices[id] = action.Vertex{ID: id, Action: act, Successors: succ}
	}

	g, err := action.NewGraph(vertices)
	if err != nil {
		return nil, err
	}
	if err = action.Validate(g); err != nil {
		return nil, err
	}
	return g, nil
}

func buildAction(vd vertexDoc) (action.Action, error) {
	switch strings.ToLower(vd.Type) {
	case "start":
		pool, err := parsePeers(vd.Peers)
		if err != nil {
			return nil, err
		}
		var proxy *peer.Peer
		if vd.SocksProxy != "" {
			p, err := peer.Parse(vd.SocksProxy)
			if err != nil {
				return nil, fmt.Errorf("socksproxy: %w", err)
			}
			proxy = &p
		}
		return &action.Start{
			TimeS:      vd.Time,
			ServerPort: vd.ServerPort,
			Peers:      pool,
			SocksProxy: proxy,
		}, nil

	case "end":
		var size uint64
		if vd.Size != "" {
			s, err := action.ParseSize(vd.Size)
			if err != nil {
				return nil, err
			}
			size = s
		}
		return &action.End{TimeS: vd.Time, Count: vd.Count, SizeBytes: size}, nil

	case "pause":
		return &action.Pause{TimeS: vd.Time}, nil

	case "synchronize":
		return &action.Synchronize{}, nil

	case "transfer":
		kind, err := parseKind(vd.Kind)
		if err != nil {
			return nil, err
		}
		proto, err := parseProtocol(vd.Protocol)
		if err != nil {
			return nil, err
		}
		size, err := action.ParseSize(vd.Size)
		if err != nil {
			return nil, err
		}
		var pool *peer.Pool
		if vd.Peers != "" {
			pool, err = parsePeers(vd.Peers)
			if err != nil {
				return nil, err
			}
		}
		return &action.Transfer{
			Direction: kind,
			Protocol:  proto,
			SizeBytes: size,
			Peers:     pool,
		}, nil

	default:
		return nil, fmt.Errorf("unknown action type %q", vd.Type)
	}
}

// parsePeers splits a comma-separated "host:port" list (spec §6.1)
// into a fresh, unshared peer.Pool. Vertices that are meant to share
// one pool reference the same Peers string and each resolve to their
// own Pool here; the loader does not attempt cross-vertex pool
// deduplication, matching the "Peers Option<PeerPool>" field being a
// per-action attribute in the schema rather than an indirect handle.
func parsePeers(csv string) (*peer.Pool, error) {
	pool := peer.New()
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return pool, nil
	}
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, err := peer.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("peers: %w", err)
		}
		pool.Add(p)
	}
	return pool, nil
}

func parseKind(s string) (action.Kind, error) {
	switch strings.ToLower(s) {
	case "get":
		return action.Get, nil
	case "put":
		return action.Put, nil
	default:
		return 0, fmt.Errorf("kind: %q must be get or put", s)
	}
}

func parseProtocol(s string) (action.Protocol, error) {
	switch strings.ToLower(s) {
	case "", "tcp":
		return action.Tcp, nil
	case "udp":
		return action.Udp, nil
	case "pipe":
		return action.Pipe, nil
	case "socketpair":
		return action.Socketpair, nil
	default:
		return 0, fmt.Errorf("protocol: unknown %q", s)
	}
}
