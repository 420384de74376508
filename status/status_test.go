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

package status_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/nabbar/tgen/driver"
	"github.com/nabbar/tgen/status"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func httpGet(url string) (*http.Response, error) {
	return http.Get(url)
}

type fakeSnapshotter struct {
	snap driver.Snapshot
}

func (f fakeSnapshotter) Snapshot() driver.Snapshot { return f.snap }

var _ = Describe("NewRouter", func() {
	It("answers /healthz with 200", func() {
		r := status.NewRouter(fakeSnapshotter{})
		srv := httptest.NewServer(r)
		defer srv.Close()

		resp, err := httpGet(srv.URL + "/healthz")
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(200))
	})

	It("serves the driver's snapshot as JSON on /status", func() {
		snap := driver.Snapshot{
			RunID:    "run-1",
			InFlight: 3,
			Uptime:   2 * time.Second,
			Counters: driver.Counters{
				ClientAttempted: 5,
				ClientSucceeded: 4,
				ClientFailed:    1,
				BytesTotal:      4096,
			},
		}
		r := status.NewRouter(fakeSnapshotter{snap: snap})
		srv := httptest.NewServer(r)
		defer srv.Close()

		resp, err := httpGet(srv.URL + "/status")
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(200))

		var body status.Response
		Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		_ = resp.Body.Close()

		Expect(body.RunID).To(Equal("run-1"))
		Expect(body.InFlight).To(Equal(3))
		Expect(body.ClientAttempted).To(Equal(uint64(5)))
		Expect(body.ClientSucceeded).To(Equal(uint64(4)))
		Expect(body.ClientFailed).To(Equal(uint64(1)))
		Expect(body.BytesTotal).To(Equal(uint64(4096)))
	})
})
