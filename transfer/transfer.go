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

package transfer

import (
	"crypto/md5"
	"encoding/hex"
	"hash"
	"time"

	"github.com/nabbar/tgen/action"
	"github.com/nabbar/tgen/peer"
	"github.com/nabbar/tgen/tgerr"
	"github.com/nabbar/tgen/transport"
)

// Role distinguishes which side of the socket a Transfer occupies.
type Role uint8

const (
	Client Role = iota
	Server
)

func (r Role) String() string {
	if r == Server {
		return "server"
	}
	return "client"
}

// State is the coarse, spec-visible lifecycle (spec §4.4): New, Open,
// Command, Payload, Checksum, Success, Error.
type State uint8

const (
	New State = iota
	Open
	Command
	Payload
	Checksum
	Success
	Error
)

func (s State) String() string {
	switch s {
	case New:
		return "new"
	case Open:
		return "open"
	case Command:
		return "command"
	case Payload:
		return "payload"
	case Checksum:
		return "checksum"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// step is the fine-grained internal cursor the Command/Payload/Checksum
// states are built from; it is not exposed, only State() is.
type step uint8

const (
	stepHandshake step = iota
	stepWriteCommand
	stepReadCommand
	stepWriteResponse
	stepReadResponse
	stepWritePayload
	stepReadPayload
	stepWriteChecksum
	stepReadChecksum
	stepDone
	stepFailed
)

// Stats records the timestamps spec §6.3's log line reports.
type Stats struct {
	ConnectedAt   time.Time
	CommandAt     time.Time
	PayloadDoneAt time.Time
	CompleteAt    time.Time
}

// Transfer drives one TGEN wire-protocol exchange over a single
// transport.Transport, edge-triggered: every OnReadable/OnWritable call
// drains progress until the transport reports WouldBlock (spec §4.4,
// §5).
type Transfer struct {
	ID        uint64
	Role      Role
	Kind      action.Kind
	SizeBytes uint64
	Peer      peer.Peer

	tr   transport.Transport
	step step

	out []byte
	in  []byte

	payloadDone uint64
	hasher      hash.Hash
	wantSum     string

	stats Stats
	err   error
}

// NewClient builds the client side of a transfer. tr must already have
// had Connect called against the chosen peer; the Transfer drives its
// handshake to completion before writing the command line.
func NewClient(id uint64, kind action.Kind, size uint64, target peer.Peer, tr transport.Transport) *Transfer {
	return &Transfer{
		ID:        id,
		Role:      Client,
		Kind:      kind,
		SizeBytes: size,
		Peer:      target,
		tr:        tr,
		step:      stepHandshake,
		hasher:    md5.New(),
	}
}

// NewServer builds the server side of a transfer from a freshly
// accepted, already-Ready transport (spec §4.5.4); the id, kind and
// size are only known once the command line is parsed.
func NewServer(tr transport.Transport, from peer.Peer) *Transfer {
	return &Transfer{
		Role:   Server,
		Peer:   from,
		tr:     tr,
		step:   stepReadCommand,
		hasher: md5.New(),
		stats:  Stats{ConnectedAt: time.Now()},
	}
}

// State maps the internal step to the spec-visible coarse state.
func (t *Transfer) State() State {
	switch t.step {
	case stepHandshake:
		if t.Role == Client {
			return New
		}
		return Open
	case stepWriteCommand, stepReadCommand, stepWriteResponse, stepReadResponse:
		return Command
	case stepWritePayload, stepReadPayload:
		return Payload
	case stepWriteChecksum, stepReadChecksum:
		return Checksum
	case stepDone:
		return Success
	default:
		return Error
	}
}

// Err returns the failure reason once State is Error.
func (t *Transfer) Err() error { return t.err }

// Stats returns the recorded timestamps.
func (t *Transfer) Stats() Stats { return t.stats }

// BytesTransferred reports how many payload bytes have actually
// crossed the wire so far, for the driver's aggregate counters and
// metrics recorder (distinct from SizeBytes, the target, which the
// per-transfer log line reports).
func (t *Transfer) BytesTransferred() uint64 { return t.payloadDone }

// isSender reports whether this side writes the payload.
func (t *Transfer) isSender() bool {
	return (t.Role == Client && t.Kind == action.Put) || (t.Role == Server && t.Kind == action.Get)
}

func (t *Transfer) fail(code tgerr.Code, cause error, format string, args ...interface{}) error {
	t.err = tgerr.New(code, cause, format, args...)
	t.step = stepFailed
	t.stats.CompleteAt = time.Now()
	return t.err
}

// Fd exposes the underlying descriptor for poller registration.
func (t *Transfer) Fd() int { return t.tr.Fd() }

func (t *Transfer) WantRead() bool {
	if !t.tr.Ready() {
		return t.tr.WantRead()
	}
	switch t.step {
	case stepReadCommand, stepReadResponse, stepReadPayload, stepReadChecksum:
		return true
	default:
		return false
	}
}

func (t *Transfer) WantWrite() bool {
	if !t.tr.Ready() {
		return t.tr.WantWrite()
	}
	switch t.step {
	case stepWriteCommand, stepWriteResponse, stepWritePayload, stepWriteChecksum:
		return true
	default:
		return false
	}
}

// OnWritable advances the state machine in response to a writable
// event, draining the current phase until it completes or the
// transport reports WouldBlock.
func (t *Transfer) OnWritable() error {
	if !t.tr.Ready() {
		if err := t.tr.OnWritable(); err != nil {
			return t.fail(codeFor(err), err, "transport handshake")
		}
		if t.tr.Ready() {
			t.onConnected()
		}
		return nil
	}

	for {
		switch t.step {
		case stepWriteCommand:
			if !t.drainOut() {
				return nil
			}
			t.step = stepReadResponse
			t.in = t.in[:0]
		case stepWriteResponse:
			if !t.drainOut() {
				return nil
			}
			t.stats.CommandAt = time.Now()
			if t.SizeBytes == 0 {
				t.step = t.afterPayloadStep()
				continue
			}
			t.step = t.payloadStepFor()
		case stepWritePayload:
			if !t.writePayload() {
				return nil
			}
		case stepWriteChecksum:
			if !t.drainOut() {
				return nil
			}
			t.stats.CompleteAt = time.Now()
			t.step = stepDone
			return nil
		default:
			return nil
		}
	}
}

// OnReadable advances the state machine in response to a readable
// event, same drain-to-WouldBlock discipline as OnWritable.
func (t *Transfer) OnReadable() error {
	if !t.tr.Ready() {
		if err := t.tr.OnReadable(); err != nil {
			return t.fail(codeFor(err), err, "transport handshake")
		}
		if t.tr.Ready() {
			t.onConnected()
		}
		return nil
	}

	for {
		switch t.step {
		case stepReadCommand:
			line, ok, err := t.readLine()
			if err != nil {
				return t.fail(tgerr.Protocol, err, "reading command line")
			}
			if !ok {
				return nil
			}
			id, kind, size, derr := DecodeCommand(line)
			if derr != nil {
				return t.fail(tgerr.Protocol, derr, "decoding command line")
			}
			t.ID, t.Kind, t.SizeBytes = id, kind, size
			t.stats.CommandAt = time.Now()
			t.out = EncodeOK(t.ID)
			t.step = stepWriteResponse

		case stepReadResponse:
			line, ok, err := t.readLine()
			if err != nil {
				return t.fail(tgerr.Protocol, err, "reading response line")
			}
			if !ok {
				return nil
			}
			_, accepted, reason, derr := DecodeResponse(line)
			if derr != nil {
				return t.fail(tgerr.Protocol, derr, "decoding response line")
			}
			if !accepted {
				return t.fail(tgerr.Protocol, nil, "server rejected transfer: %s", reason)
			}
			t.stats.CommandAt = time.Now()
			if t.SizeBytes == 0 {
				t.step = t.afterPayloadStep()
				continue
			}
			t.step = t.payloadStepFor()

		case stepReadPayload:
			if !t.readPayload() {
				return nil
			}

		case stepReadChecksum:
			line, ok, err := t.readLine()
			if err != nil {
				return t.fail(tgerr.Protocol, err, "reading checksum line")
			}
			if !ok {
				return nil
			}
			got, derr := DecodeChecksum(line)
			if derr != nil {
				return t.fail(tgerr.Protocol, derr, "decoding checksum line")
			}
			want := hex.EncodeToString(t.hasher.Sum(nil))
			if got != want {
				return t.fail(tgerr.Protocol, nil, "checksum mismatch: got %s want %s", got, want)
			}
			t.stats.CompleteAt = time.Now()
			t.step = stepDone
			return nil

		default:
			return nil
		}
	}
}

func (t *Transfer) onConnected() {
	t.stats.ConnectedAt = time.Now()
	if t.Role == Client {
		t.out = EncodeCommand(t.ID, t.Kind, t.SizeBytes)
		t.step = stepWriteCommand
	}
}

// payloadStepFor picks which side of the payload exchange this
// transfer drives once the command/response handshake is settled.
func (t *Transfer) payloadStepFor() step {
	if t.isSender() {
		return stepWritePayload
	}
	return stepReadPayload
}

// afterPayloadStep is reached directly for a zero-size transfer (spec
// §8 boundary: "command+OK+checksum with empty payload, must Succeed").
func (t *Transfer) afterPayloadStep() step {
	t.stats.PayloadDoneAt = time.Now()
	if t.isSender() {
		sum := t.hasher.Sum(nil)
		var arr [16]byte
		copy(arr[:], sum)
		t.out = EncodeChecksum(arr)
		return stepWriteChecksum
	}
	t.in = t.in[:0]
	return stepReadChecksum
}

// drainOut writes whatever remains of t.out, returning true once fully
// flushed so the caller can advance to the next phase.
func (t *Transfer) drainOut() bool {
	if len(t.out) == 0 {
		return true
	}
	pr := t.tr.Write(t.out)
	if pr.Err != nil {
		t.fail(tgerr.IO, pr.Err, "writing")
		return false
	}
	if pr.WouldBlock {
		return false
	}
	t.out = t.out[pr.N:]
	return len(t.out) == 0
}

// readLine accumulates bytes into t.in until a '\n' is found. ok is
// false if more data is still needed. It reads one byte at a time so
// that no byte past the '\n' is taken from the socket: the payload or
// checksum line that follows is left for the next step to read.
func (t *Transfer) readLine() (line string, ok bool, err error) {
	buf := make([]byte, 1)
	for {
		for i, b := range t.in {
			if b == '\n' {
				line = string(t.in[:i])
				t.in = t.in[i+1:]
				return line, true, nil
			}
		}
		if len(t.in) > maxLineLen {
			return "", false, tgerr.New(tgerr.Protocol, nil, "line too long")
		}
		pr := t.tr.Read(buf)
		if pr.Err != nil {
			return "", false, pr.Err
		}
		if pr.Eof {
			return "", false, tgerr.New(tgerr.Protocol, nil, "connection closed mid-line")
		}
		if pr.WouldBlock {
			return "", false, nil
		}
		t.in = append(t.in, buf[:pr.N]...)
	}
}

// writePayload generates and writes deterministic payload bytes until
// SizeBytes have been sent, then emits the checksum line.
func (t *Transfer) writePayload() bool {
	buf := make([]byte, 4096)
	for t.payloadDone < t.SizeBytes {
		n := len(buf)
		if remain := t.SizeBytes - t.payloadDone; remain < uint64(n) {
			n = int(remain)
		}
		for i := 0; i < n; i++ {
			buf[i] = patternByte(t.payloadDone + uint64(i))
		}
		pr := t.tr.Write(buf[:n])
		if pr.Err != nil {
			t.fail(tgerr.IO, pr.Err, "writing payload")
			return false
		}
		if pr.N > 0 {
			t.hasher.Write(buf[:pr.N])
			t.payloadDone += uint64(pr.N)
		}
		if pr.WouldBlock || pr.N < n {
			return false
		}
	}
	t.stats.PayloadDoneAt = time.Now()
	sum := t.hasher.Sum(nil)
	var arr [16]byte
	copy(arr[:], sum)
	t.out = EncodeChecksum(arr)
	t.step = stepWriteChecksum
	return true
}

// readPayload reads up to SizeBytes, hashing as it goes, then arms the
// checksum-line read.
func (t *Transfer) readPayload() bool {
	buf := make([]byte, 4096)
	for t.payloadDone < t.SizeBytes {
		n := len(buf)
		if remain := t.SizeBytes - t.payloadDone; remain < uint64(n) {
			n = int(remain)
		}
		pr := t.tr.Read(buf[:n])
		if pr.Err != nil {
			t.fail(tgerr.IO, pr.Err, "reading payload")
			return false
		}
		if pr.Eof {
			t.fail(tgerr.IO, nil, "connection closed mid-payload")
			return false
		}
		if pr.N > 0 {
			t.hasher.Write(buf[:pr.N])
			t.payloadDone += uint64(pr.N)
		}
		if pr.WouldBlock {
			return false
		}
	}
	t.stats.PayloadDoneAt = time.Now()
	t.in = t.in[:0]
	t.step = stepReadChecksum
	return true
}

// Close releases the underlying transport.
func (t *Transfer) Close() error { return t.tr.Close() }

func codeFor(err error) tgerr.Code {
	if c, ok := tgerr.CodeOf(err); ok {
		return c
	}
	return tgerr.Connect
}
