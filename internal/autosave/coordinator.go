// Package autosave persists an open document in the background. Edits are
// debounced, unchanged content is never written, and at most one save per
// document is in flight at a time.
package autosave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackzampolin/folio/internal/clock"
	"github.com/jackzampolin/folio/internal/document"
)

const (
	DefaultDebounce = 2 * time.Second
	DefaultTimeout  = 10 * time.Second
)

// ErrTimeout is reported when a save does not finish within the timeout.
var ErrTimeout = errors.New("save timed out")

// Status is the save indicator shown to the editor.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusUnsaved Status = "unsaved"
	StatusSaving  Status = "saving"
	StatusError   Status = "error"
)

type state int

const (
	stateIdle state = iota
	stateEditing
	stateSaving
	stateError
)

// Draft is what gets written on each save.
type Draft struct {
	Title   string
	Content *document.Node
	Excerpt string
}

// Saver writes a draft to the persistence boundary.
type Saver interface {
	Save(ctx context.Context, d Draft) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, d Draft) error

func (f SaverFunc) Save(ctx context.Context, d Draft) error { return f(ctx, d) }

// Config configures a Coordinator.
type Config struct {
	Saver Saver
	// Clock defaults to the wall clock.
	Clock clock.Clock
	// Debounce is the quiet period before a save (default 2s).
	Debounce time.Duration
	// Timeout bounds each save (default 10s).
	Timeout time.Duration
	// Title and Content are the already-persisted baseline.
	Title   string
	Content *document.Node
	Logger  *slog.Logger
}

type snapshot struct {
	title   string
	content *document.Node
}

func (s snapshot) key() []byte {
	b, _ := json.Marshal(struct {
		Title   string         `json:"title"`
		Content *document.Node `json:"content"`
	}{s.title, s.content})
	return b
}

// Coordinator is the autosave state machine for one open document.
type Coordinator struct {
	saver    Saver
	clock    clock.Clock
	debounce time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     state
	status    Status
	current   snapshot
	lastSaved []byte
	excerpt   string
	lastErr   error
	timer     clock.Timer
	timerGen  int
	pending   bool
	closed    bool
	done      chan struct{}
	listeners []func(Status)
	queued    []Status
}

// New creates a coordinator whose baseline is the given persisted content.
func New(cfg Config) *Coordinator {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Content == nil {
		cfg.Content = document.Doc()
	}

	ctx, cancel := context.WithCancel(context.Background())
	base := snapshot{title: cfg.Title, content: cfg.Content.Clone()}
	return &Coordinator{
		saver:     cfg.Saver,
		clock:     cfg.Clock,
		debounce:  cfg.Debounce,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
		ctx:       ctx,
		cancel:    cancel,
		status:    StatusIdle,
		current:   base,
		lastSaved: base.key(),
		excerpt:   document.Excerpt(base.content, document.ExcerptLength),
	}
}

// OnStatus registers a callback for status transitions.
func (c *Coordinator) OnStatus(fn func(Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Status returns the current save status.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the error of the last failed save, or nil after a success.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Excerpt returns the excerpt of the last saved content.
func (c *Coordinator) Excerpt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.excerpt
}

// Update records an edit. Outside of a save it restarts the debounce timer;
// during a save it is buffered and the newest edit wins.
func (c *Coordinator) Update(title string, content *document.Node) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.current = snapshot{title: title, content: content.Clone()}
	if c.state == stateSaving {
		c.pending = true
	} else {
		c.state = stateEditing
		c.setStatus(StatusUnsaved)
		c.resetTimer()
	}
	c.unlockAndNotify()
}

// SaveNow saves without waiting for the debounce timer. If a save is in
// flight the request becomes its follow-up.
func (c *Coordinator) SaveNow() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopTimer()
	if c.state == stateSaving {
		c.pending = true
	} else {
		c.startLocked()
	}
	c.unlockAndNotify()
}

// Wait blocks until no save is in flight or queued.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush saves immediately and waits for the result.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.SaveNow()
	if err := c.Wait(ctx); err != nil {
		return err
	}
	return c.Err()
}

// Close stops the timer and aborts an in-flight save. Later edits are ignored.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.pending = false
	c.stopTimer()
	c.mu.Unlock()
	c.cancel()
}

func (c *Coordinator) resetTimer() {
	c.stopTimer()
	gen := c.timerGen
	c.timer = c.clock.AfterFunc(c.debounce, func() { c.onTimer(gen) })
}

func (c *Coordinator) stopTimer() {
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) onTimer(gen int) {
	c.mu.Lock()
	if gen != c.timerGen || c.closed {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	if c.state == stateSaving {
		c.pending = true
	} else {
		c.startLocked()
	}
	c.unlockAndNotify()
}

// startLocked begins a save of the current snapshot unless it matches what
// was last saved. c.mu must be held.
func (c *Coordinator) startLocked() {
	snap := c.current
	key := snap.key()
	if bytes.Equal(key, c.lastSaved) {
		c.lastErr = nil
		c.state = stateIdle
		c.setStatus(StatusIdle)
		return
	}

	c.state = stateSaving
	c.setStatus(StatusSaving)
	if c.done == nil {
		c.done = make(chan struct{})
	}
	go c.run(snap, key)
}

func (c *Coordinator) run(snap snapshot, key []byte) {
	draft := Draft{
		Title:   snap.title,
		Content: snap.content,
		Excerpt: document.Excerpt(snap.content, document.ExcerptLength),
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	err := c.saver.Save(ctx, draft)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %v", ErrTimeout, c.timeout, err)
	}
	cancel()

	c.mu.Lock()
	if err != nil {
		c.lastErr = err
		c.state = stateError
		c.setStatus(StatusError)
		c.logger.Warn("autosave failed", "title", snap.title, "error", err)
	} else {
		c.lastErr = nil
		c.lastSaved = key
		c.excerpt = draft.Excerpt
		c.state = stateIdle
		c.setStatus(StatusIdle)
		c.logger.Debug("autosave complete", "title", snap.title)
	}

	if c.pending && !c.closed {
		c.pending = false
		c.startLocked()
	}
	var finished chan struct{}
	if c.state != stateSaving {
		finished, c.done = c.done, nil
	}
	c.unlockAndNotify()
	if finished != nil {
		close(finished)
	}
}

func (c *Coordinator) setStatus(s Status) {
	if s == c.status {
		return
	}
	c.status = s
	c.queued = append(c.queued, s)
}

// unlockAndNotify releases c.mu and then delivers queued status changes.
func (c *Coordinator) unlockAndNotify() {
	events := c.queued
	c.queued = nil
	listeners := make([]func(Status), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, s := range events {
		for _, fn := range listeners {
			fn(s)
		}
	}
}
