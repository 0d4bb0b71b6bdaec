package backdrop

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestAcquirer(t *testing.T, opts Options) (*Acquirer, *State, *fakeDevice) {
	t.Helper()
	b := newFakeBackend()
	s, err := OpenSurface(b, 640, 480)
	if err != nil {
		t.Fatalf("OpenSurface() error = %v", err)
	}
	st := NewState()
	a := NewAcquirer(opts, st, s)
	t.Cleanup(a.Close)
	return a, st, b.device
}

func pumpUntil(a *Acquirer, from, to, step time.Duration) {
	for e := from; e <= to; e += step {
		a.Pump(e)
	}
}

func TestAcquirePassiveLoadWinsBeforeDeferredCheck(t *testing.T) {
	f := newFakeFetcher()
	f.serve(testVertURL, fetchResult{text: remoteSource.Vertex})
	f.serve(testFragURL, fetchResult{text: remoteSource.Fragment})
	a, st, dev := newTestAcquirer(t, testOptions(f))

	a.Start(0)
	if st.Acquisition != InFlight {
		t.Fatalf("Acquisition = %v, want %v", st.Acquisition, InFlight)
	}
	a.Pump(ms(500))
	if st.Acquisition != Loaded || st.Origin != OriginRemote {
		t.Fatalf("after first poll: acquisition=%v origin=%v, want loaded/remote", st.Acquisition, st.Origin)
	}
	if a.Pending() {
		t.Error("timers still pending after the poll succeeded")
	}

	pumpUntil(a, ms(1000), ms(6000), ms(500))

	if got := f.total(); got != 2 {
		t.Errorf("fetch calls = %d, want 2 (no direct fetch)", got)
	}
	if len(dev.compiled) != 1 {
		t.Errorf("compiles = %d, want 1", len(dev.compiled))
	}
	if len(dev.live) != 1 {
		t.Errorf("live programs = %d, want 1", len(dev.live))
	}
}

func TestAcquireBothNotFoundFallsBackToLocal(t *testing.T) {
	f := newFakeFetcher()
	a, st, dev := newTestAcquirer(t, testOptions(f))

	a.Start(0)
	pumpUntil(a, ms(500), ms(2500), ms(500))
	if st.Acquisition != InFlight {
		t.Fatalf("before deferred check: acquisition = %v, want %v", st.Acquisition, InFlight)
	}

	a.Pump(ms(3000))
	if st.Acquisition != InFlight {
		t.Fatalf("deferred check tick: acquisition = %v, want %v", st.Acquisition, InFlight)
	}

	a.Pump(ms(3016))
	if st.Acquisition != Loaded || st.Origin != OriginLocal {
		t.Fatalf("one tick after deferred check: acquisition=%v origin=%v, want loaded/local", st.Acquisition, st.Origin)
	}
	if len(dev.compiled) != 1 || dev.compiled[0] != BundledSource {
		t.Errorf("compiled = %v, want only the bundled source", dev.compiled)
	}
	f.mu.Lock()
	fragCalls := f.calls[testFragURL]
	f.mu.Unlock()
	if fragCalls != 1 {
		t.Errorf("fragment fetches = %d, want 1 (direct fetch stops at the vertex 404)", fragCalls)
	}
}

func TestAcquireDirectFetchAfterFailedPassiveLoad(t *testing.T) {
	f := newFakeFetcher()
	f.serve(testVertURL, fetchResult{err: errBoom}, fetchResult{text: remoteSource.Vertex})
	f.serve(testFragURL, fetchResult{err: errBoom}, fetchResult{text: remoteSource.Fragment})
	a, st, dev := newTestAcquirer(t, testOptions(f))

	a.Start(0)
	pumpUntil(a, ms(500), ms(3000), ms(500))
	a.Pump(ms(3016))

	if st.Acquisition != Loaded || st.Origin != OriginDirect {
		t.Fatalf("acquisition=%v origin=%v, want loaded/direct", st.Acquisition, st.Origin)
	}
	if len(dev.compiled) != 1 || dev.compiled[0] != remoteSource {
		t.Errorf("compiled = %v, want only the remote source", dev.compiled)
	}
}

func TestAcquireLateFetchDiscardedAfterForcedLocal(t *testing.T) {
	f := newFakeFetcher()
	sp := &manualSpawner{}
	opts := testOptions(f)
	opts.spawn = sp.spawn
	a, st, dev := newTestAcquirer(t, opts)

	a.Start(0)
	pumpUntil(a, ms(500), ms(3000), ms(500))
	if len(sp.pending) != 3 {
		t.Fatalf("pending background jobs = %d, want 3 (two passive, one direct)", len(sp.pending))
	}

	if !a.ForceLocal(ms(3050)) {
		t.Fatal("ForceLocal(3050ms) = false, want true")
	}
	f.serve(testVertURL, fetchResult{text: remoteSource.Vertex})
	f.serve(testFragURL, fetchResult{text: remoteSource.Fragment})
	sp.run()
	pumpUntil(a, ms(3100), ms(4000), ms(100))

	if st.Origin != OriginLocal {
		t.Errorf("Origin = %v, want %v", st.Origin, OriginLocal)
	}
	if len(dev.compiled) != 1 {
		t.Errorf("compiles = %d, want 1", len(dev.compiled))
	}
	if len(dev.live) != 1 {
		t.Errorf("live programs = %d, want 1", len(dev.live))
	}
}

func TestAcquireRejectedRemoteProgramUsesLocal(t *testing.T) {
	f := newFakeFetcher()
	f.serve(testVertURL, fetchResult{text: remoteSource.Vertex})
	f.serve(testFragURL, fetchResult{text: remoteSource.Fragment})
	a, st, dev := newTestAcquirer(t, testOptions(f))
	dev.compileErr = func(src Source) error {
		if src == remoteSource {
			return errBoom
		}
		return nil
	}

	a.Start(0)
	a.Pump(ms(500))

	if st.Acquisition != Loaded || st.Origin != OriginLocal {
		t.Fatalf("acquisition=%v origin=%v, want loaded/local", st.Acquisition, st.Origin)
	}
	if len(dev.live) != 1 {
		t.Errorf("live programs = %d, want 1", len(dev.live))
	}
}

func TestAcquireLocalFailureFallsBack(t *testing.T) {
	f := newFakeFetcher()
	a, st, dev := newTestAcquirer(t, testOptions(f))
	dev.compileErr = func(Source) error { return errBoom }

	a.Start(0)
	pumpUntil(a, ms(500), ms(3000), ms(500))
	a.Pump(ms(3016))

	if st.Acquisition != Failed {
		t.Errorf("Acquisition = %v, want %v", st.Acquisition, Failed)
	}
	if st.Desired != Procedural {
		t.Errorf("Desired = %v, want %v", st.Desired, Procedural)
	}
	if st.Errored {
		t.Error("Errored = true, want false (no draw failure happened)")
	}
	if st.Program != 0 {
		t.Errorf("Program = %d, want 0", st.Program)
	}
}

func TestAcquireUnissuablePassiveLoadFetchesImmediately(t *testing.T) {
	f := newFakeFetcher()
	opts := testOptions(f)
	opts.VertexURL = "file:///etc/shader.vert"
	a, st, _ := newTestAcquirer(t, opts)

	a.Start(0)
	if got := f.total(); got != 1 {
		t.Fatalf("fetch calls after Start = %d, want 1 (direct fetch)", got)
	}
	if a.Pending() {
		t.Error("poll or deferred check scheduled, want none")
	}
	a.Pump(ms(16))
	if st.Origin != OriginLocal {
		t.Errorf("Origin = %v, want %v", st.Origin, OriginLocal)
	}
}

func TestAcquirePollTimeoutUsesLocal(t *testing.T) {
	f := newFakeFetcher()
	opts := testOptions(f)
	opts.DirectFetchDelay = 10 * time.Second
	a, st, _ := newTestAcquirer(t, opts)

	a.Start(0)
	pumpUntil(a, ms(500), ms(5000), ms(500))
	if st.Acquisition != InFlight {
		t.Fatalf("at the deadline: acquisition = %v, want %v", st.Acquisition, InFlight)
	}
	a.Pump(ms(5500))
	if st.Origin != OriginLocal {
		t.Errorf("Origin = %v, want %v", st.Origin, OriginLocal)
	}
	if a.Pending() {
		t.Error("deferred check still armed after the poll timed out")
	}
}

func TestAcquireStartIgnoredOnceProcedural(t *testing.T) {
	f := newFakeFetcher()
	a, st, _ := newTestAcquirer(t, testOptions(f))
	st.FallBack("test", nil)

	a.Start(0)
	a.Pump(ms(3000))

	if st.Acquisition != NotStarted {
		t.Errorf("Acquisition = %v, want %v", st.Acquisition, NotStarted)
	}
	if got := f.total(); got != 0 {
		t.Errorf("fetch calls = %d, want 0", got)
	}
}

func TestAcquireStartTwice(t *testing.T) {
	f := newFakeFetcher()
	a, _, _ := newTestAcquirer(t, testOptions(f))

	a.Start(0)
	a.Start(ms(100))

	if got := f.total(); got != 2 {
		t.Errorf("fetch calls = %d, want 2", got)
	}
}

func TestAcquireCloseDropsCompletions(t *testing.T) {
	f := newFakeFetcher()
	f.serve(testVertURL, fetchResult{text: remoteSource.Vertex})
	f.serve(testFragURL, fetchResult{text: remoteSource.Fragment})
	sp := &manualSpawner{}
	opts := testOptions(f)
	opts.spawn = sp.spawn
	a, st, dev := newTestAcquirer(t, opts)

	a.Start(0)
	a.Pump(ms(3000))
	a.Close()
	sp.run()
	a.Pump(ms(3100))

	if st.Acquisition != InFlight {
		t.Errorf("Acquisition = %v, want %v", st.Acquisition, InFlight)
	}
	if len(dev.compiled) != 0 {
		t.Errorf("compiles = %d, want 0", len(dev.compiled))
	}
}

func TestAcquireLocalCompileLogsElapsed(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	sp := &manualSpawner{}
	opts := testOptions(newFakeFetcher())
	opts.spawn = sp.spawn
	a, st, _ := newTestAcquirer(t, opts)

	a.Start(ms(200))
	if !a.ForceLocal(ms(5300)) {
		t.Fatal("ForceLocal(5300ms) = false, want true")
	}
	if st.Origin != OriginLocal {
		t.Fatalf("Origin = %v, want %v", st.Origin, OriginLocal)
	}

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "kind=local-compile-completed") {
			line = l
		}
	}
	if line == "" {
		t.Fatalf("no local compile event logged:\n%s", buf.String())
	}
	if !strings.Contains(line, "elapsed=5.1s") {
		t.Errorf("local compile event = %q, want elapsed=5.1s since Start", line)
	}
}
