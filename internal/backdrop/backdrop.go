// Package backdrop renders the animated full-window background.
//
// A backdrop prefers a shader program on an accelerated surface. The
// program is acquired in the background: a passive load of the remote
// pair, a direct fetch when that is slow, and the bundled program when
// both fail. Once the accelerated path cannot be used the backdrop draws a
// procedural 2D animation instead, for the rest of the session.
//
// All methods must be called from the render thread.
package backdrop

import (
	"fmt"
	"time"
)

// Backdrop is the rendering component. It owns the surface, the fallback
// state and the acquirer.
type Backdrop struct {
	opts    Options
	backend Backend

	surface *Surface
	state   *State
	acq     *Acquirer
	pointer Pointer
	closed  bool
}

// New creates a backdrop drawing through backend.
func New(backend Backend, opts Options) *Backdrop {
	if opts.Fetcher == nil {
		opts.Fetcher = NewHTTPFetcher(FetchTimeout)
	}
	if !opts.Local.Complete() {
		opts.Local = BundledSource
	}
	return &Backdrop{opts: opts, backend: backend, state: NewState()}
}

// Open creates the surface and, when it is accelerated, starts acquiring
// the program. n and p may be nil.
func (b *Backdrop) Open(width, height int, n ResizeNotifier, p Pointer) error {
	if b.closed {
		return ErrClosed
	}
	if b.surface != nil {
		return fmt.Errorf("backdrop already open")
	}
	s, err := OpenSurface(b.backend, width, height)
	if err != nil {
		return fmt.Errorf("open surface: %w", err)
	}
	b.surface = s
	b.pointer = p
	b.acq = NewAcquirer(b.opts, b.state, s)

	if n != nil {
		if err := s.Watch(n); err != nil {
			return fmt.Errorf("watch resize: %w", err)
		}
	}
	if !s.Accelerated() {
		b.state.FallBack("accelerated surface unavailable", nil)
		return nil
	}
	b.acq.Start(0)
	return nil
}

// Tick advances acquisition and draws one frame. elapsed is measured from
// Open.
func (b *Backdrop) Tick(elapsed time.Duration) {
	if b.closed || b.surface == nil {
		return
	}
	if b.state.Accelerating() {
		b.acq.Pump(elapsed)
	}
	renderFrame(b.surface, b.state, b.acq, b.pointer, elapsed)
}

// Resize forwards a viewport change to the surface.
func (b *Backdrop) Resize(width, height int) {
	if b.surface != nil {
		b.surface.Resize(width, height)
	}
}

// Flags returns a copy of the fallback flags.
func (b *Backdrop) Flags() Flags { return b.state.Flags }

// Origin reports where the active program came from.
func (b *Backdrop) Origin() Origin { return b.state.Origin }

// Surface returns the drawing surface, nil before Open.
func (b *Backdrop) Surface() *Surface { return b.surface }

// Close stops acquisition and releases the surface and its resize
// listener. It is idempotent.
func (b *Backdrop) Close() {
	if b.closed {
		return
	}
	b.closed = true
	if b.acq != nil {
		b.acq.Close()
	}
	if b.surface != nil {
		b.surface.Close()
	}
}
