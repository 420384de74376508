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

// Package progress renders the driver's per-transfer liveness on a
// terminal (spec §1: the generator "reports progress"). It implements
// driver.ProgressReporter against github.com/vbauerster/mpb/v8, one bar
// per concurrently-open transfer, exactly the shape that library is
// built for.
package progress

import (
	"io"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Reporter implements driver.ProgressReporter with one mpb bar per
// open transfer. It is safe for concurrent use even though the driver
// itself only ever calls it from its single loop goroutine, because
// mpb's own Progress container is.
type Reporter struct {
	p *mpb.Progress

	mu   sync.Mutex
	bars map[uint64]*mpb.Bar
}

// New attaches a Reporter to out (typically os.Stdout); pass nil to
// use mpb's default (os.Stdout).
func New(out io.Writer) *Reporter {
	opts := []mpb.ContainerOption{mpb.WithAutoRefresh()}
	if out != nil {
		opts = append(opts, mpb.WithOutput(out))
	}
	return &Reporter{
		p:    mpb.New(opts...),
		bars: make(map[uint64]*mpb.Bar),
	}
}

// TransferStarted implements driver.ProgressReporter. A zero size
// (server transfers, whose size is only known once the command line
// is parsed) gets no bar.
func (r *Reporter) TransferStarted(id uint64, size uint64) {
	if size == 0 {
		return
	}
	name := humanize.Bytes(size)
	bar := r.p.AddBar(int64(size),
		mpb.PrependDecorators(decor.Name("transfer "+name)),
		mpb.AppendDecorators(decor.Percentage()),
	)
	r.mu.Lock()
	r.bars[id] = bar
	r.mu.Unlock()
}

// TransferAdvanced implements driver.ProgressReporter.
func (r *Reporter) TransferAdvanced(id uint64, n int) {
	r.mu.Lock()
	bar := r.bars[id]
	r.mu.Unlock()
	if bar != nil {
		bar.IncrBy(n)
	}
}

// TransferFinished implements driver.ProgressReporter.
func (r *Reporter) TransferFinished(id uint64, success bool) {
	r.mu.Lock()
	bar, ok := r.bars[id]
	delete(r.bars, id)
	r.mu.Unlock()
	if !ok {
		return
	}
	if success {
		bar.SetCurrent(bar.Current())
	}
	bar.Abort(false)
}

// Wait blocks until every bar has been rendered and removed, for
// cmd/tgen to call after the driver's Run returns.
func (r *Reporter) Wait() {
	r.p.Wait()
}
