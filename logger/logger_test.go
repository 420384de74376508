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

package logger_test

import (
	"bytes"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/tgen/logger"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("New", func() {
	It("parses a known level", func() {
		var out bytes.Buffer
		l := logger.New("warn", &out)
		Expect(l.GetLevel()).To(Equal(logrus.WarnLevel))
	})

	It("falls back to info on an unknown level name", func() {
		var out bytes.Buffer
		l := logger.New("not-a-level", &out)
		Expect(l.GetLevel()).To(Equal(logrus.InfoLevel))
	})

	It("never colorizes a non-terminal writer", func() {
		var out bytes.Buffer
		l := logger.New("info", &out)
		tf, ok := l.Formatter.(*logrus.TextFormatter)
		Expect(ok).To(BeTrue())
		Expect(tf.ForceColors).To(BeFalse())
	})

	It("writes through to the given writer", func() {
		var out bytes.Buffer
		l := logger.New("info", &out)
		l.Info("hello")
		Expect(out.String()).To(ContainSubstring("hello"))
	})
})

var _ = Describe("SetLevel", func() {
	It("updates the level in place", func() {
		var out bytes.Buffer
		l := logger.New("info", &out)
		logger.SetLevel(l, "error")
		Expect(l.GetLevel()).To(Equal(logrus.ErrorLevel))
	})
})

var _ = Describe("Banner", func() {
	It("writes a single-line greeting containing the run id and port", func() {
		var out bytes.Buffer
		logger.Banner(&out, "run-123", 9000)
		Expect(out.String()).To(ContainSubstring("run-123"))
		Expect(out.String()).To(ContainSubstring("9000"))
	})
})
