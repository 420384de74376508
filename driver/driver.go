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

// Package driver is the event loop: the single thread that walks the
// action graph, owns the poller and timer heap, and drives every live
// transfer to completion (spec §4.5, §5). Nothing here blocks except
// the poller's own Wait call.
package driver

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/nabbar/tgen/action"
	"github.com/nabbar/tgen/peer"
	"github.com/nabbar/tgen/tgerr"
	"github.com/nabbar/tgen/transfer"
	"github.com/nabbar/tgen/transport"
)

// role distinguishes a live transfer's place in the graph walk: a
// Client transfer was dispatched by activating a Transfer vertex and
// its completion resumes that vertex's walk; a Server transfer was
// accepted on the listener and completes independently (spec §4.5.4).
type role uint8

const (
	roleClient role = iota
	roleServer
)

// liveTransfer pairs a running transfer.Transfer with the bookkeeping
// the driver needs once it reaches Success/Error.
type liveTransfer struct {
	xfer   *transfer.Transfer
	role   role
	origin action.VertexID // the Transfer vertex that spawned it (roleClient only)
}

// Counters is the aggregate, spec §4.5.5 shutdown-summary snapshot.
type Counters struct {
	ClientAttempted, ClientSucceeded, ClientFailed uint64
	ServerAttempted, ServerSucceeded, ServerFailed uint64
	BytesTotal                                     uint64
	WallTime                                       time.Duration
}

// Config assembles everything Run needs beyond the graph itself.
// Every field but Graph has a usable zero value.
type Config struct {
	Graph *action.Graph

	// Rand backs every PeerPool.Choose call; nil seeds from the clock.
	Rand peer.Rand

	// Recorder and Progress are optional observers; nil means no-op.
	Recorder Recorder
	Progress ProgressReporter

	// Log receives one structured entry per completed transfer (spec
	// §6.3) plus dispatch/error diagnostics. nil means logrus.StandardLogger().
	Log logrus.FieldLogger

	// RunID tags every log line so multiple runs aggregated centrally
	// can be told apart; it plays no role in core semantics.
	RunID string

	// Grace bounds how long Shutdown lets in-flight transfers finish
	// once an End condition fires before force-closing them (spec
	// §4.5.5: "default: shutdown immediately; implementer may add
	// grace"). Zero means immediate.
	Grace time.Duration
}

// Driver is the single-threaded event loop of spec §4.5. It is not
// safe for concurrent use: Run must only ever be called from one
// goroutine, matching the cooperative scheduling model of spec §5.
type Driver struct {
	graph *action.Graph
	rnd   peer.Rand
	rec   Recorder
	prog  ProgressReporter
	log   logrus.FieldLogger
	runID string
	grace time.Duration

	poller     transport.Poller
	timers     *timerQueue
	listenerFd int
	startV     action.VertexID
	start      *action.Start
	ends       []*action.End

	predCount   map[action.VertexID]int
	syncArrived map[action.VertexID]int
	syncFired   *bitset.BitSet

	live   map[int]*liveTransfer
	nextID uint64

	stopping      bool
	stopAccepting bool
	bootTime      time.Time

	counters Counters
	snap     atomic.Pointer[Snapshot]
}

// Snapshot is a point-in-time, race-free view of the driver's
// progress, meant for the status/metrics HTTP surfaces (SPEC_FULL's
// domain-stack additions) that run on their own goroutine outside the
// single-threaded core (spec §5). The driver publishes a new Snapshot
// at safe points in its own loop; readers only ever atomic.Load it.
type Snapshot struct {
	RunID    string
	Counters Counters
	InFlight int
	Uptime   time.Duration
}

// Snapshot returns the most recently published state. It is safe to
// call from any goroutine.
func (d *Driver) Snapshot() Snapshot {
	if s := d.snap.Load(); s != nil {
		return *s
	}
	return Snapshot{}
}

func (d *Driver) publishSnapshot() {
	c := d.counters
	c.WallTime = time.Since(d.bootTime)
	d.snap.Store(&Snapshot{
		RunID:    d.runID,
		Counters: c,
		InFlight: len(d.live),
		Uptime:   c.WallTime,
	})
}

// forceStopVertex is a sentinel timer key, the largest VertexID (the
// loader takes ids verbatim and does not reserve it), used to schedule
// the grace-window deadline on the same timer heap as ordinary Pause
// vertices rather than inventing a second clock.
const forceStopVertex action.VertexID = ^action.VertexID(0)

// endCheckVertex is a second sentinel, scheduled once per distinct
// non-zero End.TimeS at boot so checkEnd runs on its own timer tick
// (spec §4.5.3: End is consulted "after every transfer completion and
// timer tick") rather than only as a side effect of graph activity
// that happens to land on an End vertex. Without it a graph whose only
// End condition is TimeS, reached with no other Pause/Transfer timer
// pending, leaves computeTimeout blocking indefinitely and the
// deadline is never rechecked.
const endCheckVertex action.VertexID = ^action.VertexID(0) - 1

// New builds a Driver ready to Run. It does not touch the network
// until Run is called.
func New(cfg Config) (*Driver, error) {
	if cfg.Graph == nil {
		return nil, tgerr.New(tgerr.Graph, nil, "driver: nil graph")
	}
	startAct, ok := cfg.Graph.ActionOf(cfg.Graph.StartVertex())
	if !ok {
		return nil, tgerr.New(tgerr.Graph, nil, "driver: graph has no Start vertex action")
	}
	start, ok := startAct.(*action.Start)
	if !ok {
		return nil, tgerr.New(tgerr.Graph, nil, "driver: StartVertex does not hold a Start action")
	}

	d := &Driver{
		graph:       cfg.Graph,
		rnd:         cfg.Rand,
		rec:         cfg.Recorder,
		prog:        cfg.Progress,
		log:         cfg.Log,
		runID:       cfg.RunID,
		grace:       cfg.Grace,
		timers:      newTimerQueue(),
		startV:      cfg.Graph.StartVertex(),
		start:       start,
		predCount:   cfg.Graph.PredecessorCount(),
		syncArrived: make(map[action.VertexID]int),
		syncFired:   bitset.New(uint(cfg.Graph.Len() + 1)),
		live:        make(map[int]*liveTransfer),
		listenerFd:  -1,
	}
	if d.rec == nil {
		d.rec = noopRecorder{}
	}
	if d.prog == nil {
		d.prog = noopProgress{}
	}
	if d.log == nil {
		d.log = logrus.StandardLogger()
	}
	if d.runID != "" {
		d.log = d.log.WithField("run_id", d.runID)
	}
	if d.rnd == nil {
		d.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	for _, id := range cfg.Graph.IDs() {
		if act, ok := cfg.Graph.ActionOf(id); ok {
			if e, ok := act.(*action.End); ok {
				d.ends = append(d.ends, e)
			}
		}
	}

	return d, nil
}

// Counters returns a snapshot of the aggregate counters, safe to call
// only after Run has returned.
func (d *Driver) Counters() Counters { return d.counters }

// Run executes spec §4.5's Boot, then the main loop, until an End
// condition fires, ctx is cancelled, or a fatal error occurs. The
// returned error is nil on a clean End-triggered shutdown; a *tgerr.Error
// with Code Bind/Graph means a fatal initialization failure (exit code
// 1 per spec §6.4), anything else from the poller means a runtime
// fatal (exit code 2).
func (d *Driver) Run(ctx context.Context) error {
	d.bootTime = time.Now()

	poller, err := transport.NewPoller()
	if err != nil {
		return tgerr.New(tgerr.Bind, err, "driver: creating poller")
	}
	d.poller = poller

	fd, err := openListener(d.start.ServerPort)
	if err != nil {
		_ = d.poller.Close()
		return err
	}
	d.listenerFd = fd
	if err = d.poller.Add(d.listenerFd, true, false); err != nil {
		_ = unix.Close(d.listenerFd)
		_ = d.poller.Close()
		return tgerr.New(tgerr.Bind, err, "driver: registering listener with poller")
	}

	d.log.WithFields(logrus.Fields{
		"run_id": d.runID,
		"port":   d.start.ServerPort,
	}).Info("driver boot: listening")

	d.timers.schedule(d.bootTime.Add(time.Duration(d.start.TimeS)*time.Second), d.startV)
	d.scheduleEndChecks()
	d.publishSnapshot()

	for {
		if ctx.Err() != nil {
			d.teardown()
			return ctx.Err()
		}
		if d.stopping && len(d.live) == 0 {
			break
		}

		timeout := d.computeTimeout()
		events, werr := d.poller.Wait(timeout)
		if werr != nil {
			d.teardown()
			return fmt.Errorf("driver: poller wait: %w", werr)
		}
		for _, ev := range events {
			d.handleEvent(ev)
		}
		d.drainTimers(time.Now())
		d.publishSnapshot()
	}

	d.teardown()
	d.publishSnapshot()
	d.logSummary()
	return nil
}

// computeTimeout saturates at zero and reports "block indefinitely"
// (spec §4.5.2) by returning a negative duration when no timer is
// pending and no in-flight transfer would otherwise be quiescent.
func (d *Driver) computeTimeout() time.Duration {
	deadline, ok := d.timers.nextDeadline()
	if !ok {
		if d.stopping {
			// grace window has no timer left but transfers remain:
			// poll with a short bound so the loop keeps noticing
			// newly-idle transfers without spinning.
			return 50 * time.Millisecond
		}
		return -1
	}
	rem := time.Until(deadline)
	if rem < 0 {
		return 0
	}
	return rem
}

func (d *Driver) handleEvent(ev transport.Event) {
	if ev.Fd == d.listenerFd {
		if !d.stopAccepting {
			d.acceptInbound()
		}
		return
	}

	lt, ok := d.live[ev.Fd]
	if !ok {
		return
	}

	if ev.Readable && lt.xfer.WantRead() {
		if err := lt.xfer.OnReadable(); err != nil {
			d.log.WithError(err).Debug("transfer readable callback")
		}
	}
	if lt.xfer.State() < transfer.Success && ev.Writable && lt.xfer.WantWrite() {
		if err := lt.xfer.OnWritable(); err != nil {
			d.log.WithError(err).Debug("transfer writable callback")
		}
	}

	if st := lt.xfer.State(); st == transfer.Success || st == transfer.Error {
		d.finalize(ev.Fd, lt)
		return
	}
	_ = d.poller.Modify(ev.Fd, lt.xfer.WantRead(), lt.xfer.WantWrite())
}

// acceptInbound drains every pending connection from the listener
// (spec §4.5.4) and starts a Server-role Transfer for each.
func (d *Driver) acceptInbound() {
	acceptAll(d.listenerFd, func(fd int, sa unix.Sockaddr) {
		from := peerFromSockaddr(sa)
		tr := transport.NewTCPFromFD(fd)
		xfer := transfer.NewServer(tr, from)
		if err := d.poller.Add(fd, xfer.WantRead(), xfer.WantWrite()); err != nil {
			d.log.WithError(err).Warn("inbound transfer: poller registration failed")
			_ = tr.Close()
			return
		}
		d.live[fd] = &liveTransfer{xfer: xfer, role: roleServer}
		d.counters.ServerAttempted++
		d.rec.TransfersInFlight(1)
		d.prog.TransferStarted(0, 0)
	})
}

// peerFromSockaddr converts the accept(2) result to a Peer. Only
// IPv4 is ever produced here: the listener is opened AF_INET (spec
// §4.5.1), so *unix.SockaddrInet4 is the only variant Accept returns.
func peerFromSockaddr(sa unix.Sockaddr) peer.Peer {
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return peer.Peer{}
	}
	var addr uint32
	addr = uint32(sa4.Addr[0])<<24 | uint32(sa4.Addr[1])<<16 | uint32(sa4.Addr[2])<<8 | uint32(sa4.Addr[3])
	return peer.New(addr, uint16(sa4.Port))
}

// drainTimers fires every due deadline. A due entry's vertex is the
// one whose pause/boot delay just elapsed; per spec §4.5.3 that means
// walking its successors (Start and Pause share this shape exactly).
func (d *Driver) drainTimers(now time.Time) {
	for _, v := range d.timers.drainDue(now) {
		if v == forceStopVertex {
			d.forceCloseAll()
			continue
		}
		if v == endCheckVertex {
			d.checkEnd()
			continue
		}
		d.walkSuccessors(v)
	}
}

// scheduleEndChecks arranges one timer tick per distinct non-zero
// End.TimeS so a purely time-based End fires on its own, independent
// of where the End vertex sits in the graph or whether any other
// timer/transfer activity happens to touch it.
func (d *Driver) scheduleEndChecks() {
	seen := make(map[uint64]bool)
	for _, e := range d.ends {
		if e.TimeS == 0 || seen[e.TimeS] {
			continue
		}
		seen[e.TimeS] = true
		d.timers.schedule(d.bootTime.Add(time.Duration(e.TimeS)*time.Second), endCheckVertex)
	}
}

func (d *Driver) walkSuccessors(v action.VertexID) {
	if d.stopping {
		return
	}
	for _, s := range d.graph.Successors(v) {
		d.activateVertex(s)
	}
}

// activateVertex dispatches one successor vertex (spec §4.5.3).
func (d *Driver) activateVertex(v action.VertexID) {
	if d.stopping {
		return
	}
	act, ok := d.graph.ActionOf(v)
	if !ok {
		return
	}
	switch t := act.(type) {
	case *action.Pause:
		deadline := time.Now().Add(time.Duration(t.TimeS) * time.Second)
		d.log.WithField("vertex", v).Debug("dispatch: pause scheduled")
		d.timers.schedule(deadline, v)

	case *action.Synchronize:
		d.syncArrived[v]++
		need := d.predCount[v]
		if d.syncArrived[v] >= need && !d.syncFired.Test(uint(v)) {
			d.syncFired.Set(uint(v))
			d.log.WithField("vertex", v).Debug("dispatch: synchronize fired")
			d.walkSuccessors(v)
		}

	case *action.Transfer:
		d.log.WithFields(logrus.Fields{"vertex": v, "kind": t.Direction.String(), "size": t.SizeBytes}).Debug("dispatch: transfer")
		d.startClientTransfer(v, t)

	case *action.End:
		d.checkEnd()

	case *action.Start:
		// Start has no incoming edges (NewGraph enforces this); never
		// reachable as a successor.
	}
}

// startClientTransfer chooses a peer, dials it (optionally through the
// Start action's SOCKS5 proxy), and begins a Client-role Transfer
// (spec §4.4, §4.5.3). Peer-pool and connect failures are local,
// non-fatal errors (spec §7): the graph walk still continues from the
// originating vertex once the failure is recorded.
func (d *Driver) startClientTransfer(origin action.VertexID, t *action.Transfer) {
	pool := t.Peers
	if pool == nil {
		pool = d.start.Peers
	}

	d.counters.ClientAttempted++

	target, err := pool.Choose(d.rnd)
	if err != nil {
		d.log.WithError(tgerr.New(tgerr.Pool, err, "transfer dispatch")).Warn("transfer dispatch: empty peer pool")
		d.counters.ClientFailed++
		d.checkEnd()
		d.walkSuccessors(origin)
		return
	}

	dialer := transport.NewDialer(d.proxyFor())
	tr := dialer.Dial()
	if err = tr.Connect(target); err != nil {
		d.log.WithError(err).WithField("peer", target.String()).Warn("transfer dispatch: connect failed")
		d.counters.ClientFailed++
		d.checkEnd()
		d.walkSuccessors(origin)
		return
	}

	id := d.nextID
	d.nextID++

	xfer := transfer.NewClient(id, t.Direction, t.SizeBytes, target, tr)
	if err = d.poller.Add(xfer.Fd(), xfer.WantRead(), xfer.WantWrite()); err != nil {
		d.log.WithError(err).Warn("transfer dispatch: poller registration failed")
		_ = tr.Close()
		d.counters.ClientFailed++
		d.checkEnd()
		d.walkSuccessors(origin)
		return
	}

	d.live[xfer.Fd()] = &liveTransfer{xfer: xfer, role: roleClient, origin: origin}
	d.rec.TransfersInFlight(1)
	d.prog.TransferStarted(id, t.SizeBytes)
}

func (d *Driver) proxyFor() peer.Peer {
	if d.start.SocksProxy != nil {
		return *d.start.SocksProxy
	}
	return peer.Peer{}
}

// finalize retires a completed (Success or Error) transfer: it
// deregisters the socket, updates counters and observers, logs the
// spec §6.3 summary line, and — for Client transfers — resumes the
// graph walk from the vertex that dispatched it.
func (d *Driver) finalize(fd int, lt *liveTransfer) {
	success := lt.xfer.State() == transfer.Success
	bytes := lt.xfer.BytesTransferred()

	_ = d.poller.Remove(fd)
	_ = lt.xfer.Close()
	delete(d.live, fd)

	d.rec.TransferCompleted(lt.xfer.Role, lt.xfer.Kind.String(), success, bytes)
	d.rec.TransfersInFlight(-1)
	d.prog.TransferFinished(lt.xfer.ID, success)
	d.counters.BytesTotal += bytes

	result := "success"
	if !success {
		result = "error"
		if e := lt.xfer.Err(); e != nil {
			result = "error:" + e.Error()
		}
	}

	stats := lt.xfer.Stats()
	d.log.WithFields(logrus.Fields{
		"id":         lt.xfer.ID,
		"role":       lt.xfer.Role.String(),
		"kind":       lt.xfer.Kind.String(),
		"peer":       lt.xfer.Peer.String(),
		"size":       lt.xfer.SizeBytes,
		"payload_ms": stats.PayloadDoneAt.Sub(stats.CommandAt).Milliseconds(),
		"total_ms":   stats.CompleteAt.Sub(stats.ConnectedAt).Milliseconds(),
		"result":     result,
	}).Info("transfer-complete")

	switch lt.role {
	case roleClient:
		if success {
			d.counters.ClientSucceeded++
		} else {
			d.counters.ClientFailed++
		}
		d.checkEnd()
		d.walkSuccessors(lt.origin)
	case roleServer:
		if success {
			d.counters.ServerSucceeded++
		} else {
			d.counters.ServerFailed++
		}
		d.checkEnd()
	}
}

// checkEnd implements spec §4.5.3's End semantics: a zero field is
// unconstrained; shutdown begins once any non-zero field's threshold
// on any End vertex is reached.
func (d *Driver) checkEnd() {
	if d.stopping {
		return
	}
	elapsed := time.Since(d.bootTime)
	completed := d.counters.ClientSucceeded + d.counters.ClientFailed +
		d.counters.ServerSucceeded + d.counters.ServerFailed

	for _, e := range d.ends {
		if e.TimeS != 0 && elapsed >= time.Duration(e.TimeS)*time.Second {
			d.beginShutdown()
			return
		}
		if e.Count != 0 && completed >= e.Count {
			d.beginShutdown()
			return
		}
		if e.SizeBytes != 0 && d.counters.BytesTotal >= e.SizeBytes {
			d.beginShutdown()
			return
		}
	}
}

// beginShutdown implements spec §4.5.5: stop accepting new actions and
// new inbound connections, close the listener, and give in-flight
// transfers up to Grace before force-closing them.
func (d *Driver) beginShutdown() {
	if d.stopping {
		return
	}
	d.stopping = true
	d.stopAccepting = true
	d.log.WithField("grace", d.grace).Info("shutdown: End condition satisfied")

	if d.listenerFd >= 0 {
		_ = d.poller.Remove(d.listenerFd)
		_ = unix.Close(d.listenerFd)
		d.listenerFd = -1
	}

	if d.grace <= 0 {
		d.forceCloseAll()
		return
	}
	d.timers.schedule(time.Now().Add(d.grace), forceStopVertex)
}

func (d *Driver) forceCloseAll() {
	for fd, lt := range d.live {
		_ = d.poller.Remove(fd)
		_ = lt.xfer.Close()
		d.rec.TransfersInFlight(-1)
		delete(d.live, fd)
	}
}

// teardown releases every resource Run acquired, idempotent so it is
// safe to call from every Run exit path.
func (d *Driver) teardown() {
	d.forceCloseAll()
	if d.listenerFd >= 0 {
		_ = d.poller.Remove(d.listenerFd)
		_ = unix.Close(d.listenerFd)
		d.listenerFd = -1
	}
	if d.poller != nil {
		_ = d.poller.Close()
	}
	d.counters.WallTime = time.Since(d.bootTime)
}

func (d *Driver) logSummary() {
	c := d.counters
	d.log.WithFields(logrus.Fields{
		"run_id":           d.runID,
		"client_attempted": c.ClientAttempted,
		"client_succeeded": c.ClientSucceeded,
		"client_failed":    c.ClientFailed,
		"server_succeeded": c.ServerSucceeded,
		"server_failed":    c.ServerFailed,
		"bytes":            c.BytesTotal,
		"wall_time":        c.WallTime,
	}).Info("driver shutdown complete")
}
