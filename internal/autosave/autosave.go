// Package autosave drives the debounced autosave protocol for the one
// currently open writing.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yusufhabibalfatha/nulis/internal/model"
)

var autosaveLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	autosaveLogger = l
}

// Saver performs the lightweight content-only save. Satisfied by
// store.WritingsStore.
type Saver interface {
	Autosave(ctx context.Context, id model.WritingID, content string) error
}

// Coordinator is a small state machine: saved -> unsaved -> saving -> saved,
// falling back to unsaved when a save fails so no edit is silently lost.
// It is scoped to one open writing at a time; at most one autosave request is
// in flight.
type Coordinator struct {
	mu sync.Mutex

	saver    Saver
	interval time.Duration

	id       model.WritingID
	snapshot func() string

	state      model.SaveState
	timer      *time.Timer
	inFlight   bool
	inFlightID model.WritingID

	// dirty records an edit that arrived while a save of the same writing
	// was in flight. The state flips back to unsaved once the in-flight
	// call resolves.
	dirty bool

	onState func(model.SaveState)
}

func NewCoordinator(saver Saver, interval time.Duration) *Coordinator {
	return &Coordinator{
		saver:    saver,
		interval: interval,
		state:    model.StateSaved,
	}
}

// SetOnState installs an observer invoked after every state transition. Must
// be set before Open.
func (c *Coordinator) SetOnState(fn func(model.SaveState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

// Open scopes the coordinator to a writing. snapshot must return the current
// content of the editing surface on demand. An empty id marks a brand-new,
// never-saved document: edits will not arm autosave until the document exists
// remotely (use Adopt after the first explicit save).
func (c *Coordinator) Open(id model.WritingID, snapshot func() string) {
	c.mu.Lock()
	c.stopTimerLocked()
	c.id = id
	c.snapshot = snapshot
	c.dirty = false
	notify := c.setStateLocked(model.StateSaved)
	c.mu.Unlock()
	notify()
}

// Adopt attaches a remote id to the open document once it has been created,
// so subsequent edits start arming autosave.
func (c *Coordinator) Adopt(id model.WritingID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
}

// Close leaves the editing context: the pending timer is dropped and the
// state resets to saved.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.id = ""
	c.snapshot = nil
	c.dirty = false
	notify := c.setStateLocked(model.StateSaved)
	c.mu.Unlock()
	notify()
}

func (c *Coordinator) State() model.SaveState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Edit records a local edit. The debounce timer restarts on every call, so a
// burst of edits produces a single save carrying the last content. Edits to a
// never-saved document are ignored; there is nothing to autosave against.
func (c *Coordinator) Edit() {
	c.mu.Lock()
	if c.id == "" {
		c.mu.Unlock()
		return
	}

	// An in-flight save defers the transition only when it targets this
	// writing; a leftover save for a previously open one does not.
	notify := func() {}
	if c.inFlight && c.inFlightID == c.id {
		c.dirty = true
	} else {
		notify = c.setStateLocked(model.StateUnsaved)
	}
	c.restartTimerLocked()
	c.mu.Unlock()
	notify()
}

// MarkSaved forces the saved state, for after an explicit save or publish
// succeeded outside the autosave path.
func (c *Coordinator) MarkSaved() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.dirty = false
	notify := c.setStateLocked(model.StateSaved)
	c.mu.Unlock()
	notify()
}

// CanDiscard reports whether it is safe to navigate away. With unsaved edits
// the decision is delegated to confirm; a confirmed discard does not autosave
// first.
func (c *Coordinator) CanDiscard(confirm func() bool) bool {
	c.mu.Lock()
	state := c.state
	dirty := c.dirty
	c.mu.Unlock()

	if state == model.StateSaved && !dirty {
		return true
	}
	return confirm()
}

// Flush runs the autosave immediately, as if the debounce had elapsed.
// Mostly useful on shutdown.
func (c *Coordinator) Flush() {
	c.fire()
}

func (c *Coordinator) restartTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.interval, c.fire)
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// setStateLocked changes the state and returns the observer call to run once
// the lock is released.
func (c *Coordinator) setStateLocked(state model.SaveState) func() {
	if c.state == state {
		return func() {}
	}
	c.state = state
	fn := c.onState
	if fn == nil {
		return func() {}
	}
	return func() { fn(state) }
}

func (c *Coordinator) fire() {
	c.mu.Lock()
	if c.inFlight || c.state != model.StateUnsaved || c.id == "" || c.snapshot == nil {
		c.mu.Unlock()
		return
	}

	id := c.id
	content := c.snapshot()
	c.inFlight = true
	c.inFlightID = id
	c.dirty = false
	notify := c.setStateLocked(model.StateSaving)
	c.mu.Unlock()
	notify()

	err := c.saver.Autosave(context.Background(), id, content)

	c.mu.Lock()
	c.inFlight = false

	// The document may have been switched while the request was in flight.
	// Edits to the new one keep their unsaved state and pending timer; the
	// timer is re-armed here because it no-ops while a save is in flight.
	if c.id != id {
		if c.state == model.StateUnsaved {
			c.restartTimerLocked()
		}
		c.mu.Unlock()
		return
	}

	var after func()
	switch {
	case err != nil:
		// The edit is not lost; the next debounce cycle retries.
		autosaveLogger.Debug().Err(err).Str("id", string(id)).Msg("Autosave failed, will retry")
		after = c.setStateLocked(model.StateUnsaved)
		c.restartTimerLocked()
	case c.dirty:
		c.dirty = false
		after = c.setStateLocked(model.StateUnsaved)
		c.restartTimerLocked()
	default:
		after = c.setStateLocked(model.StateSaved)
	}
	c.mu.Unlock()
	after()
}
