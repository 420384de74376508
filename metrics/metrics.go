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

// Package metrics exposes the driver's aggregate counters (spec
// §4.5.5's shutdown summary, kept live instead of only printed once at
// the end) over Prometheus, the same client library the teacher wires
// into its own services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nabbar/tgen/transfer"
)

// Recorder implements driver.Recorder against a private prometheus
// registry, so multiple Drivers in one process (tests, mostly) never
// collide on global metric registration.
type Recorder struct {
	registry *prometheus.Registry

	transfersTotal *prometheus.CounterVec
	bytesTotal     *prometheus.CounterVec
	inFlight       prometheus.Gauge
}

// New builds a Recorder with its own registry, ready for Handler.
func New() *Recorder {
	reg := prometheus.NewRegistry()

	r := &Recorder{
		registry: reg,
		transfersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tgen_transfers_total",
			Help: "Completed transfers by role, kind and result.",
		}, []string{"role", "kind", "result"}),
		bytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tgen_bytes_total",
			Help: "Payload bytes transferred by role and kind.",
		}, []string{"role", "kind"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tgen_transfers_in_flight",
			Help: "Transfers currently open.",
		}),
	}
	reg.MustRegister(r.transfersTotal, r.bytesTotal, r.inFlight)
	return r
}

// TransferCompleted implements driver.Recorder.
func (r *Recorder) TransferCompleted(role transfer.Role, kind string, success bool, bytes uint64) {
	result := "success"
	if !success {
		result = "error"
	}
	r.transfersTotal.WithLabelValues(role.String(), kind, result).Inc()
	r.bytesTotal.WithLabelValues(role.String(), kind).Add(float64(bytes))
}

// TransfersInFlight implements driver.Recorder.
func (r *Recorder) TransfersInFlight(delta int) {
	r.inFlight.Add(float64(delta))
}

// Handler serves the registry in the Prometheus text exposition
// format, for cmd/tgen to mount at /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
