package backdrop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"
)

var errNoDevice = errors.New("backdrop: no accelerated device")

// passiveLoad collects the remote pair in the background. Each stage is
// published once, when its download succeeds.
type passiveLoad struct {
	vert atomic.Pointer[string]
	frag atomic.Pointer[string]
}

func (l *passiveLoad) source() (Source, bool) {
	v, f := l.vert.Load(), l.frag.Load()
	if v == nil || f == nil {
		return Source{}, false
	}
	return Source{Vertex: *v, Fragment: *f}, true
}

// Acquirer obtains the accelerated program. It is a state machine fed by
// discrete events: timer events are raised by Pump, fetch completions are
// queued by background goroutines and also applied by Pump. Every
// transition runs on the render thread.
type Acquirer struct {
	opts    Options
	state   *State
	surface *Surface
	queue   *eventQueue
	spawn   func(func())

	ctx    context.Context
	cancel context.CancelFunc

	start         time.Duration
	passive       *passiveLoad
	pollActive    bool
	nextPoll      time.Duration
	deferredArmed bool
	fetching      bool
}

// NewAcquirer creates an acquirer compiling into surface's device and
// recording outcomes in state.
func NewAcquirer(opts Options, state *State, surface *Surface) *Acquirer {
	ctx, cancel := context.WithCancel(context.Background())
	spawn := opts.spawn
	if spawn == nil {
		spawn = func(f func()) { go f() }
	}
	return &Acquirer{
		opts:    opts,
		state:   state,
		surface: surface,
		queue:   newEventQueue(4),
		spawn:   spawn,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins acquisition at elapsed. It does nothing unless the state is
// accelerated and not yet started.
func (a *Acquirer) Start(elapsed time.Duration) {
	if !a.state.Begin() {
		return
	}
	a.start = elapsed
	a.deferredArmed = true
	Logger().Info("backdrop: acquiring remote program",
		slog.String("vertex", a.opts.VertexURL), slog.String("fragment", a.opts.FragmentURL))

	if err := a.issuePassive(); err != nil {
		Logger().Warn("backdrop: passive load not issued, fetching directly", slog.Any("err", err))
		a.deferredArmed = false
		a.startDirectFetch()
		return
	}
	a.pollActive = true
	a.nextPoll = elapsed + a.opts.PollInterval
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q in %s", u.Scheme, raw)
	}
	return nil
}

// issuePassive starts downloading both stages concurrently.
func (a *Acquirer) issuePassive() error {
	for _, raw := range []string{a.opts.VertexURL, a.opts.FragmentURL} {
		if err := checkURL(raw); err != nil {
			return err
		}
	}
	load := &passiveLoad{}
	a.passive = load
	for _, st := range []struct {
		url  string
		slot *atomic.Pointer[string]
	}{
		{a.opts.VertexURL, &load.vert},
		{a.opts.FragmentURL, &load.frag},
	} {
		ctx, f := a.ctx, a.opts.Fetcher
		a.spawn(func() {
			text, err := f.Fetch(ctx, st.url)
			if err != nil {
				Logger().Debug("backdrop: passive load failed", slog.String("url", st.url), slog.Any("err", err))
				return
			}
			st.slot.Store(&text)
		})
	}
	return nil
}

// Pump applies queued completions, then raises the timer events that are
// due at elapsed. It never blocks.
func (a *Acquirer) Pump(elapsed time.Duration) {
	for {
		ev, ok := a.queue.poll()
		if !ok {
			break
		}
		a.handle(ev, elapsed)
	}

	if a.pollActive && elapsed >= a.nextPoll {
		a.nextPoll += a.opts.PollInterval
		if a.nextPoll <= elapsed {
			a.nextPoll = elapsed + a.opts.PollInterval
		}
		a.handle(Event{Kind: EventPollTick}, elapsed)
	}
	if a.deferredArmed && elapsed-a.start >= a.opts.DirectFetchDelay {
		a.deferredArmed = false
		a.handle(Event{Kind: EventDeferredCheck}, elapsed)
	}
}

func (a *Acquirer) handle(ev Event, elapsed time.Duration) {
	Logger().Debug("backdrop: event", slog.String("kind", ev.Kind.String()),
		slog.Duration("elapsed", elapsed-a.start))

	switch ev.Kind {
	case EventPollTick:
		a.onPollTick(elapsed)
	case EventDeferredCheck:
		a.onDeferredCheck()
	case EventFetchCompleted:
		a.onFetchCompleted(ev, elapsed)
	case EventLocalCompileCompleted:
		a.onLocalCompiled(ev)
	}
}

func (a *Acquirer) onPollTick(elapsed time.Duration) {
	if !a.pollActive {
		return
	}
	if elapsed-a.start > a.opts.AcquireTimeout {
		a.pollActive = false
		if !a.state.Settled() {
			Logger().Warn("backdrop: remote program timed out, using local program")
			a.compileLocal(elapsed)
		}
		return
	}
	src, ok := a.passive.source()
	if !ok {
		return
	}
	a.stopTimers()
	if a.state.Settled() {
		return
	}
	p, err := a.compile(src)
	if err != nil {
		Logger().Warn("backdrop: remote program rejected, using local program", slog.Any("err", err))
		a.compileLocal(elapsed)
		return
	}
	a.adopt(p, OriginRemote)
}

func (a *Acquirer) onDeferredCheck() {
	if a.state.Settled() {
		Logger().Debug("backdrop: deferred check skipped", slog.String("acquisition", a.state.Acquisition.String()))
		return
	}
	a.pollActive = false
	Logger().Info("backdrop: remote program not ready, fetching directly")
	a.startDirectFetch()
}

func (a *Acquirer) startDirectFetch() {
	if a.fetching {
		return
	}
	a.fetching = true
	ctx, f, vert, frag := a.ctx, a.opts.Fetcher, a.opts.VertexURL, a.opts.FragmentURL
	a.spawn(func() {
		src, err := fetchPair(ctx, f, vert, frag)
		a.queue.post(ctx, Event{Kind: EventFetchCompleted, Source: src, Err: err})
	})
}

func (a *Acquirer) onFetchCompleted(ev Event, elapsed time.Duration) {
	a.fetching = false
	if a.state.Settled() {
		Logger().Debug("backdrop: late fetch discarded", slog.String("acquisition", a.state.Acquisition.String()))
		return
	}
	if ev.Err != nil {
		Logger().Warn("backdrop: direct fetch failed, using local program", slog.Any("err", ev.Err))
		a.compileLocal(elapsed)
		return
	}
	p, err := a.compile(ev.Source)
	if err != nil {
		Logger().Warn("backdrop: fetched program rejected, using local program", slog.Any("err", err))
		a.compileLocal(elapsed)
		return
	}
	a.adopt(p, OriginDirect)
}

func (a *Acquirer) onLocalCompiled(ev Event) {
	if ev.Err != nil {
		a.state.FailAcquisition(fmt.Errorf("local program: %w", ev.Err))
		return
	}
	a.adopt(ev.Program, OriginLocal)
}

// compileLocal builds the bundled program synchronously at elapsed. It
// reports whether a program is loaded afterwards.
func (a *Acquirer) compileLocal(elapsed time.Duration) bool {
	a.stopTimers()
	if a.state.Acquisition == Loaded {
		return a.state.Drawable()
	}
	if !a.state.Accelerating() {
		return false
	}
	Logger().Info("backdrop: creating local program")
	p, err := a.compile(a.opts.Local)
	a.handle(Event{Kind: EventLocalCompileCompleted, Program: p, Err: err}, elapsed)
	return a.state.Drawable()
}

// ForceLocal is the frame loop's deadline path: it cancels pending timers
// and builds the bundled program now.
func (a *Acquirer) ForceLocal(elapsed time.Duration) bool {
	Logger().Warn("backdrop: program still missing at deadline, forcing local program")
	return a.compileLocal(elapsed)
}

func (a *Acquirer) compile(src Source) (Program, error) {
	dev := a.surface.Device()
	if dev == nil {
		return 0, errNoDevice
	}
	return dev.Compile(src)
}

// adopt hands p to the state; a program that loses the race is released
// so exactly one stays alive.
func (a *Acquirer) adopt(p Program, origin Origin) {
	if a.state.Adopt(p, origin) {
		return
	}
	if dev := a.surface.Device(); dev != nil && p != 0 {
		dev.Release(p)
	}
}

func (a *Acquirer) stopTimers() {
	a.pollActive = false
	a.deferredArmed = false
}

// Pending reports whether a poll or deferred check is still scheduled.
func (a *Acquirer) Pending() bool {
	return a.pollActive || a.deferredArmed
}

// Close cancels in-flight downloads and timers. Late completions are
// dropped.
func (a *Acquirer) Close() {
	a.stopTimers()
	a.cancel()
}
