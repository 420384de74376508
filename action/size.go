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
	"strconv"
	"strings"
)

// byte-size multipliers. SI uses powers of 1000, IEC uses powers of
// 1024; the graph file may spell either and the core must not conflate
// them (spec §3: "SI ... or IEC ... multipliers exactly").
const (
	siKilo = 1_000
	siMega = siKilo * 1_000
	siGiga = siMega * 1_000
	siTera = siGiga * 1_000

	iecKibi = 1 << 10
	iecMebi = 1 << 20
	iecGibi = 1 << 30
	iecTebi = 1 << 40
)

// suffixes, longest first, so "kib" is never mistaken for a "kb" typo
// and "kb" is never mistaken for a bare trailing "b".
var suffixes = []struct {
	suf  string
	mult uint64
}{
	{"kib", iecKibi}, {"mib", iecMebi}, {"gib", iecGibi}, {"tib", iecTebi},
	{"kb", siKilo}, {"mb", siMega}, {"gb", siGiga}, {"tb", siTera},
	{"b", 1},
}

// ParseSize parses a byte count with an optional SI ("kb", "mb", ...)
// or IEC ("kib", "mib", ...) suffix, case-insensitively, per spec §3
// and §6.1. A bare number is taken as a byte count. Unlike a generic
// humanizer, suffixes are matched exactly: "k" alone is not accepted,
// since the graph format distinguishes "kb" from "kib" and a sloppy
// parser would silently pick the wrong one.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("action: empty size")
	}

	lower := strings.ToLower(s)

	for _, sx := range suffixes {
		if !strings.HasSuffix(lower, sx.suf) {
			continue
		}
		numPart := strings.TrimSpace(lower[:len(lower)-len(sx.suf)])
		if numPart == "" {
			continue
		}
		n, err := strconv.ParseUint(numPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("action: invalid size %q: %w", s, err)
		}
		return n * sx.mult, nil
	}

	n, err := strconv.ParseUint(lower, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("action: invalid size %q: %w", s, err)
	}
	return n, nil
}
