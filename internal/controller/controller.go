// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package controller keeps a view in sync with a periodically refreshed
// market snapshot and performs single-flight report submission against it.
//
// All state lives behind one mutex that is never held across network I/O.
// Every completion checks the lifecycle epoch it captured before the request;
// completions that outlive a Stop are discarded.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bcem/marketmail/internal/delivery"
	"github.com/bcem/marketmail/internal/models"
	"github.com/google/uuid"
)

// Sentinel errors returned by Submit.
var (
	ErrNoData         = errors.New("no market data available")
	ErrInvalidForm    = errors.New("form is incomplete")
	ErrSubmitInFlight = errors.New("a submission is already in progress")
)

// SnapshotSource fetches the current snapshot; nil, nil means no data yet.
type SnapshotSource interface {
	Fetch(ctx context.Context) (*models.Snapshot, error)
}

// Sender delivers a payload.
type Sender interface {
	Send(ctx context.Context, p *models.Payload) (*delivery.Receipt, error)
}

// Options configures a Controller. Zero durations take the defaults.
type Options struct {
	PollInterval   time.Duration
	RequestTimeout time.Duration
	SuccessDisplay time.Duration

	StrictRecipient bool
	// Defaults is the initial and post-success form. Subject and SenderName
	// may contain models.DatePlaceholder.
	Defaults   models.FormState
	DateLayout string

	IncludeSnapshot bool
	Source          string

	Recorder Recorder

	Now   func() time.Time
	NewID func() string
}

const (
	defaultPollInterval   = 30 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultSuccessDisplay = 5 * time.Second
	recordTimeout         = 5 * time.Second
)

// Controller is the refreshable form controller.
type Controller struct {
	source SnapshotSource
	sender Sender
	opts   Options

	mu sync.Mutex

	snap      *models.Snapshot
	conn      ConnectionStatus
	connErr   string
	lastFetch time.Time

	form     models.FormState
	formRev  uint64
	defaults models.FormState
	filled   bool

	phase    SubmissionPhase
	reason   string
	note     *Notification
	noteSeq  uint64
	dismiss  *time.Timer
	inFlight bool
	stats    Stats

	// epoch changes on Stop; completions carrying an older epoch are dropped.
	epoch      uint64
	fetchSeq   uint64
	appliedSeq uint64

	// life is cancelled on Stop to abort outstanding requests.
	life       context.Context
	lifeCancel context.CancelFunc

	running    bool
	loopGen    uint64
	cancelLoop context.CancelFunc
	wg         sync.WaitGroup

	subs    map[int]chan State
	nextSub int
}

// New creates a controller. It does nothing until Start, FetchSnapshot or
// Submit is called.
func New(source SnapshotSource, sender Sender, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.SuccessDisplay <= 0 {
		opts.SuccessDisplay = defaultSuccessDisplay
	}
	if opts.DateLayout == "" {
		opts.DateLayout = "2006-01-02"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	life, cancel := context.WithCancel(context.Background())
	return &Controller{
		source:     source,
		sender:     sender,
		opts:       opts,
		conn:       ConnLoading,
		form:       opts.Defaults,
		defaults:   opts.Defaults,
		phase:      PhaseIdle,
		life:       life,
		lifeCancel: cancel,
		subs:       make(map[int]chan State),
	}
}

// Start fills date placeholders once, fetches immediately and then polls every
// PollInterval until ctx is cancelled or Stop is called. Calling Start while
// the controller is running has no effect.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		slog.Debug("controller already running")
		return
	}
	c.running = true
	c.loopGen++
	gen := c.loopGen
	epoch := c.epoch
	c.fillDefaultsLocked()

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancelLoop = cancel
	c.publishLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	go c.run(loopCtx, gen, epoch)
}

// Stop ends polling, aborts outstanding requests and makes any of their late
// completions no-ops. It is safe to call more than once, and Start may be
// called again afterwards.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.epoch++
	cancel := c.cancelLoop
	c.cancelLoop = nil
	c.running = false
	c.loopGen++

	c.lifeCancel()
	c.life, c.lifeCancel = context.WithCancel(context.Background())

	c.clearNoteLocked()
	if c.inFlight {
		c.inFlight = false
		c.phase = PhaseIdle
	}
	c.publishLocked()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

// run is the poll loop. Its polls carry the epoch of the Start that launched
// them, so a poll that only gets scheduled after Stop is dropped.
func (c *Controller) run(ctx context.Context, gen, epoch uint64) {
	defer c.wg.Done()
	defer func() {
		c.mu.Lock()
		if c.loopGen == gen {
			c.running = false
			c.cancelLoop = nil
			c.publishLocked()
		}
		c.mu.Unlock()
	}()

	slog.Info("snapshot poller starting", "interval", c.opts.PollInterval)

	c.poll(ctx, epoch)

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("snapshot poller stopping")
			return
		case <-ticker.C:
			c.poll(ctx, epoch)
		}
	}
}

func (c *Controller) poll(ctx context.Context, epoch uint64) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("snapshot poll panicked", "panic", r)
		}
	}()

	if err := c.fetch(ctx, epoch); err != nil && ctx.Err() == nil {
		slog.Warn("snapshot poll failed", "error", err)
	}
}

// FetchSnapshot fetches once and applies the result. It is the only writer of
// the snapshot and the connection status. The returned error is informational;
// it has already been reflected in the state. A fetch that outlives ctx or a
// Stop leaves the state untouched.
func (c *Controller) FetchSnapshot(ctx context.Context) error {
	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()
	return c.fetch(ctx, epoch)
}

// fetch runs one fetch on behalf of the lifecycle epoch.
func (c *Controller) fetch(ctx context.Context, epoch uint64) error {
	c.mu.Lock()
	c.fetchSeq++
	seq := c.fetchSeq
	life := c.life
	c.mu.Unlock()

	reqCtx, cancel := c.requestContext(ctx, life)
	snap, err := c.source.Fetch(reqCtx)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		slog.Debug("dropping snapshot fetch after stop", "seq", seq)
		return err
	}
	if ctx.Err() != nil {
		slog.Debug("dropping snapshot fetch after cancel", "seq", seq)
		return err
	}
	if seq < c.appliedSeq {
		slog.Debug("dropping stale snapshot fetch", "seq", seq, "applied", c.appliedSeq)
		return err
	}
	c.appliedSeq = seq
	c.lastFetch = c.opts.Now()

	switch {
	case err != nil:
		c.snap = nil
		c.conn = ConnError
		c.connErr = err.Error()
	case !snap.Present():
		c.snap = nil
		c.conn = ConnWaiting
		c.connErr = ""
	default:
		c.snap = snap
		c.conn = ConnConnected
		c.connErr = ""
	}
	c.publishLocked()
	return err
}

// Refresh is the manual retry control.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.FetchSnapshot(ctx)
}

// requestContext bounds a request by RequestTimeout, the caller's ctx and the
// controller lifetime.
func (c *Controller) requestContext(ctx context.Context, life context.Context) (context.Context, context.CancelFunc) {
	reqCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	stop := context.AfterFunc(life, cancel)
	return reqCtx, func() {
		stop()
		cancel()
	}
}

// Today is the current date in the configured layout.
func (c *Controller) Today() string {
	return c.opts.Now().Format(c.opts.DateLayout)
}

// fillDefaultsLocked replaces date placeholders in the defaults and the
// current form. It runs once per controller.
func (c *Controller) fillDefaultsLocked() {
	if c.filled {
		return
	}
	c.filled = true
	date := c.Today()
	c.defaults = c.defaults.FillDate(date)
	c.form = c.form.FillDate(date)
	c.formRev++
}
