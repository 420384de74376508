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

package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/nabbar/tgen/metrics"
	"github.com/nabbar/tgen/transfer"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func scrape(url string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}

var _ = Describe("Recorder", func() {
	It("exposes tgen_transfers_total, tgen_bytes_total and tgen_transfers_in_flight", func() {
		r := metrics.New()
		r.TransferCompleted(transfer.Client, "get", true, 1024)
		r.TransferCompleted(transfer.Server, "get", false, 0)
		r.TransfersInFlight(1)
		r.TransfersInFlight(-1)

		srv := httptest.NewServer(r.Handler())
		defer srv.Close()

		resp, err := scrape(srv.URL)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp).To(ContainSubstring("tgen_transfers_total"))
		Expect(resp).To(ContainSubstring(`role="client"`))
		Expect(resp).To(ContainSubstring(`result="success"`))
		Expect(resp).To(ContainSubstring("tgen_bytes_total"))
		Expect(resp).To(ContainSubstring("tgen_transfers_in_flight 0"))
	})

	It("never collides across independent instances", func() {
		a := metrics.New()
		b := metrics.New()
		a.TransferCompleted(transfer.Client, "put", true, 1)
		b.TransferCompleted(transfer.Client, "put", true, 1)
	})
})
