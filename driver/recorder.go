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

package driver

import "github.com/nabbar/tgen/transfer"

// Recorder observes completed transfers for aggregate counters. The
// metrics package's prometheus-backed implementation is the intended
// consumer; tests and a bare CLI run use noopRecorder.
type Recorder interface {
	TransferCompleted(role transfer.Role, kind string, success bool, bytes uint64)
	TransfersInFlight(delta int)
}

// ProgressReporter surfaces per-transfer liveness to a human-facing
// sink (cmd/tgen wires this to an mpb bar set); the driver core only
// ever calls it, never renders anything itself.
type ProgressReporter interface {
	TransferStarted(id uint64, size uint64)
	TransferAdvanced(id uint64, n int)
	TransferFinished(id uint64, success bool)
}

type noopRecorder struct{}

func (noopRecorder) TransferCompleted(transfer.Role, string, bool, uint64) {}
func (noopRecorder) TransfersInFlight(int)                                {}

type noopProgress struct{}

func (noopProgress) TransferStarted(uint64, uint64)   {}
func (noopProgress) TransferAdvanced(uint64, int)     {}
func (noopProgress) TransferFinished(uint64, bool)    {}
