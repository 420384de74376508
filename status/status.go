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

// Package status exposes the driver's live Snapshot over HTTP
// (SPEC_FULL's status/metrics surface), the same gin-gonic/gin router
// the teacher mounts its own operational endpoints on.
package status

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nabbar/tgen/driver"
)

// Snapshotter is the subset of *driver.Driver this package depends on,
// so tests can exercise the handlers against a fake.
type Snapshotter interface {
	Snapshot() driver.Snapshot
}

// Response is the JSON body served at /status.
type Response struct {
	RunID            string `json:"run_id"`
	InFlight         int    `json:"in_flight"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
	ClientAttempted  uint64 `json:"client_attempted"`
	ClientSucceeded  uint64 `json:"client_succeeded"`
	ClientFailed     uint64 `json:"client_failed"`
	ServerSucceeded  uint64 `json:"server_succeeded"`
	ServerFailed     uint64 `json:"server_failed"`
	BytesTotal       uint64 `json:"bytes_total"`
}

// NewRouter builds a gin.Engine serving /status and /healthz against
// snap. gin.ReleaseMode is forced: this surface never needs gin's own
// debug request logging, the driver's logger already covers it.
func NewRouter(snap Snapshotter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/status", func(c *gin.Context) {
		s := snap.Snapshot()
		c.JSON(http.StatusOK, Response{
			RunID:           s.RunID,
			InFlight:        s.InFlight,
			UptimeSeconds:   s.Uptime.Round(time.Millisecond).Seconds(),
			ClientAttempted: s.Counters.ClientAttempted,
			ClientSucceeded: s.Counters.ClientSucceeded,
			ClientFailed:    s.Counters.ClientFailed,
			ServerSucceeded: s.Counters.ServerSucceeded,
			ServerFailed:    s.Counters.ServerFailed,
			BytesTotal:      s.Counters.BytesTotal,
		})
	})

	return r
}

// Serve starts the router on its own goroutine and returns the server,
// which runs until the caller shuts it down; it is a thin wrapper so cmd/tgen doesn't need to know
// about http.Server directly.
func Serve(bind string, snap Snapshotter) *http.Server {
	srv := &http.Server{
		Addr:    bind,
		Handler: NewRouter(snap),
	}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
