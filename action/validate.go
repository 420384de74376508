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
	"github.com/go-playground/validator/v10"

	"github.com/nabbar/tgen/tgerr"
)

var structValidator = validator.New()

// Validate checks the Start vertex's scalar fields with struct tags
// (go-playground/validator, the same library the teacher uses for its
// own config structs); the other actions' fields are not tag-checked.
// It also checks the structural invariants NewGraph cannot
// express as tags: Protocol must be Tcp (spec §9 Open Questions — the
// schema reserves udp/pipe/socketpair but the core only implements
// tcp), and a Synchronize vertex must have at least one predecessor
// (spec §3: it is a join, not a source).
func Validate(g *Graph) error {
	preds := g.PredecessorCount()

	for id, vx := range g.vertices {
		a, _ := g.ActionOf(id)
		switch act := a.(type) {
		case *Start:
			if err := structValidator.Struct(act); err != nil {
				return tgerr.New(tgerr.Graph, err, "vertex %d: invalid Start action", id)
			}
		case *Transfer:
			if act.Protocol != Tcp {
				return tgerr.New(tgerr.Graph, nil, "vertex %d: protocol %q is reserved by the schema but not implemented by this driver", id, act.Protocol)
			}
		case *Synchronize:
			if preds[id] == 0 {
				return tgerr.New(tgerr.Graph, nil, "vertex %d: Synchronize has no predecessors", id)
			}
		}
		_ = vx
	}
	return nil
}
