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

// Package transfer implements the TGEN wire protocol and the per-socket
// state machine that drives it (spec §4.4): a command line, a fixed-size
// payload, and a trailing MD5 checksum line, all pushed through a
// transport.Transport that only ever reports progress or WouldBlock.
package transfer

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/nabbar/tgen/action"
	"github.com/nabbar/tgen/tgerr"
)

// protocolVersion is the sole value ever placed in a command line's
// version field; the core never negotiates it (spec §4.4 only ever
// shows one version in the wire grammar).
const protocolVersion = 1

// maxLineLen bounds how many bytes a command/response/checksum line
// may accumulate before being rejected; well above any legitimate
// line, it exists only to keep a misbehaving peer from growing the
// inbound buffer without limit.
const maxLineLen = 256

// EncodeCommand renders the client's opening line:
// "TGEN <version> <id> <GET|PUT> <size>\n".
func EncodeCommand(id uint64, kind action.Kind, size uint64) []byte {
	return []byte(fmt.Sprintf("TGEN %d %d %s %d\n", protocolVersion, id, strings.ToUpper(kind.String()), size))
}

// DecodeCommand parses a command line, stripped of its trailing \n.
func DecodeCommand(line string) (id uint64, kind action.Kind, size uint64, err error) {
	fields := strings.Fields(line)
	if len(fields) != 5 || fields[0] != "TGEN" {
		return 0, 0, 0, tgerr.New(tgerr.Protocol, nil, "malformed command line %q", line)
	}
	if _, verr := strconv.Atoi(fields[1]); verr != nil {
		return 0, 0, 0, tgerr.New(tgerr.Protocol, verr, "bad version in command line %q", line)
	}
	id, err = strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return 0, 0, 0, tgerr.New(tgerr.Protocol, err, "bad id in command line %q", line)
	}
	switch fields[3] {
	case "GET":
		kind = action.Get
	case "PUT":
		kind = action.Put
	default:
		return 0, 0, 0, tgerr.New(tgerr.Protocol, nil, "unknown kind %q in command line", fields[3])
	}
	size, err = strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return 0, 0, 0, tgerr.New(tgerr.Protocol, err, "bad size in command line %q", line)
	}
	return id, kind, size, nil
}

// EncodeOK renders the responder's acceptance line: "TGEN OK <id>\n".
func EncodeOK(id uint64) []byte {
	return []byte(fmt.Sprintf("TGEN OK %d\n", id))
}

// EncodeRejection renders the responder's rejection line:
// "TGEN ERR <id> <reason>\n".
func EncodeRejection(id uint64, reason string) []byte {
	return []byte(fmt.Sprintf("TGEN ERR %d %s\n", id, reason))
}

// DecodeResponse parses a "TGEN OK <id>" or "TGEN ERR <id> <reason>"
// line. reason is empty on acceptance.
func DecodeResponse(line string) (id uint64, accepted bool, reason string, err error) {
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != "TGEN" {
		return 0, false, "", tgerr.New(tgerr.Protocol, nil, "malformed response line %q", line)
	}
	id, err = strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return 0, false, "", tgerr.New(tgerr.Protocol, err, "bad id in response line %q", line)
	}
	switch fields[1] {
	case "OK":
		return id, true, "", nil
	case "ERR":
		return id, false, strings.Join(fields[3:], " "), nil
	default:
		return 0, false, "", tgerr.New(tgerr.Protocol, nil, "unknown response %q", fields[1])
	}
}

// EncodeChecksum renders the trailing checksum line: "MD5 <hex32>\n".
func EncodeChecksum(sum [16]byte) []byte {
	return []byte(fmt.Sprintf("MD5 %s\n", hex.EncodeToString(sum[:])))
}

// DecodeChecksum extracts the 32-character hex digest from a checksum
// line, stripped of its trailing \n.
func DecodeChecksum(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != "MD5" {
		return "", tgerr.New(tgerr.Protocol, nil, "malformed checksum line %q", line)
	}
	if len(fields[1]) != 32 {
		return "", tgerr.New(tgerr.Protocol, nil, "checksum %q is not 32 hex characters", fields[1])
	}
	if _, err := hex.DecodeString(fields[1]); err != nil {
		return "", tgerr.New(tgerr.Protocol, err, "checksum %q is not valid hex", fields[1])
	}
	return fields[1], nil
}

// patternByte returns the deterministic payload content at absolute
// offset off. Both ends of a transfer compute it independently, which
// is what lets a Put immediately followed by a Get of the same size
// observe identical bytes without either side having to buffer and
// replay what it saw (spec §4.4, §8 round-trip property).
func patternByte(off uint64) byte {
	return byte(off)
}
