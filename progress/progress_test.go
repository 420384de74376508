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

package progress_test

import (
	"bytes"

	"github.com/nabbar/tgen/progress"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reporter", func() {
	It("tracks a started transfer through to completion without panicking", func() {
		var out bytes.Buffer
		r := progress.New(&out)

		r.TransferStarted(1, 4096)
		r.TransferAdvanced(1, 2048)
		r.TransferAdvanced(1, 2048)
		r.TransferFinished(1, true)

		r.Wait()
	})

	It("ignores a zero-size transfer (server role, size unknown yet)", func() {
		var out bytes.Buffer
		r := progress.New(&out)

		r.TransferStarted(2, 0)
		r.TransferAdvanced(2, 128)
		r.TransferFinished(2, false)

		r.Wait()
	})

	It("ignores advance/finish for an id it never started", func() {
		var out bytes.Buffer
		r := progress.New(&out)

		r.TransferAdvanced(99, 10)
		r.TransferFinished(99, true)

		r.Wait()
	})
})
