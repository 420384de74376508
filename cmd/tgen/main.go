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

// Command tgen is the traffic generator's entry point: it parses the
// graph file, boots the driver, and exits with the code spec §6.4
// assigns to the failure that stopped it.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/nabbar/tgen/action"
	"github.com/nabbar/tgen/config"
	"github.com/nabbar/tgen/driver"
	"github.com/nabbar/tgen/graphfile"
	"github.com/nabbar/tgen/logger"
	"github.com/nabbar/tgen/metrics"
	"github.com/nabbar/tgen/progress"
	"github.com/nabbar/tgen/status"
	"github.com/nabbar/tgen/tgerr"
)

func main() {
	os.Exit(run())
}

// run wires the command, boots the driver, and maps the outcome to the
// exit codes spec §6.4 defines: 0 clean, 1 fatal init (Graph/Bind), 2
// runtime fatal (poller failure).
func run() int {
	cmd := &cobra.Command{
		Use:   "tgen",
		Short: "programmable TCP traffic generator",
	}
	getRuntime, v := config.Bind(cmd)

	exitCode := 0
	cmd.RunE = func(*cobra.Command, []string) error {
		rt := getRuntime()
		if rt.ConfigPath != "" {
			if err := config.LoadFile(v, rt.ConfigPath); err != nil {
				exitCode = 1
				return fmt.Errorf("loading config file: %w", err)
			}
			rt = getRuntime()
		}

		code, err := boot(rt, v)
		exitCode = code
		return err
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tgen:", err)
		if exitCode == 0 {
			exitCode = 1
		}
	}
	return exitCode
}

func boot(rt config.Runtime, v *viper.Viper) (int, error) {
	log := logger.New(rt.LogLevel, os.Stderr)

	if rt.GraphPath == "" {
		return 1, errors.New("--graph is required")
	}

	graph, err := graphfile.Load(rt.GraphPath)
	if err != nil {
		log.WithError(err).Error("graph load failed")
		return 1, err
	}

	config.WatchLogLevel(v, func(level string) { logger.SetLevel(log, level) })

	runID := uuid.New().String()
	rec := metrics.New()
	prog := progress.New(os.Stdout)

	d, err := driver.New(driver.Config{
		Graph:    graph,
		Recorder: rec,
		Progress: prog,
		Log:      log,
		RunID:    runID,
		Grace:    rt.Grace,
	})
	if err != nil {
		log.WithError(err).Error("driver init failed")
		return 1, err
	}

	logger.Banner(os.Stdout, runID, startPort(graph))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var servers []*http.Server
	if rt.MetricsBind != "" {
		srv := &http.Server{Addr: rt.MetricsBind, Handler: metricsHandler(rec)}
		go func() { _ = srv.ListenAndServe() }()
		servers = append(servers, srv)
	}
	if rt.StatusBind != "" {
		servers = append(servers, status.Serve(rt.StatusBind, d))
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return d.Run(gctx) })

	runErr := group.Wait()
	prog.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		_ = srv.Shutdown(shutdownCtx)
	}

	if runErr == nil || errors.Is(runErr, context.Canceled) {
		log.Info("tgen: clean shutdown")
		return 0, nil
	}

	if code, ok := tgerr.CodeOf(runErr); ok && code.Fatal() {
		log.WithError(runErr).Error("tgen: fatal initialization error")
		return 1, runErr
	}

	log.WithError(runErr).Error("tgen: runtime fatal error")
	return 2, runErr
}

func metricsHandler(r *metrics.Recorder) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	return mux
}

// startPort pulls the listening port out of the graph's Start vertex
// purely for the startup banner; the driver itself re-derives it from
// the same Start action.
func startPort(g *action.Graph) uint16 {
	act, ok := g.ActionOf(g.StartVertex())
	if !ok {
		return 0
	}
	start, ok := act.(*action.Start)
	if !ok {
		return 0
	}
	return start.ServerPort
}
