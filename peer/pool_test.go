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

package peer_test

import (
	libpeer "github.com/nabbar/tgen/peer"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fixedRand always returns the same index; deterministic duplicate-weighting test.
type fixedRand struct{ n int }

func (f fixedRand) Intn(int) int { return f.n }

var _ = Describe("Pool", func() {
	It("starts empty with refcount 1", func() {
		p := libpeer.New()
		Expect(p.Len()).To(Equal(0))
		Expect(p.RefCount()).To(Equal(int32(1)))
	})

	It("fails to choose from an empty pool", func() {
		p := libpeer.New()
		_, err := p.Choose(nil)
		Expect(err).To(MatchError(libpeer.ErrEmpty))
	})

	It("treats duplicate entries as extra selection weight", func() {
		a, _ := libpeer.Parse("10.0.0.1:1")
		b, _ := libpeer.Parse("10.0.0.2:2")
		p := libpeer.FromSlice([]libpeer.Peer{a, a, b})
		Expect(p.Len()).To(Equal(3))

		got, err := p.Choose(fixedRand{n: 1})
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(a))
	})

	It("releases entries once the last reference is dropped", func() {
		a, _ := libpeer.Parse("10.0.0.1:1")
		p := libpeer.FromSlice([]libpeer.Peer{a})
		p.Ref()
		Expect(p.RefCount()).To(Equal(int32(2)))

		Expect(p.Unref()).To(BeFalse())
		Expect(p.Len()).To(Equal(1))

		Expect(p.Unref()).To(BeTrue())
		Expect(p.Len()).To(Equal(0))
	})
})
