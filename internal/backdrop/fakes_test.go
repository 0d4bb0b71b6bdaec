package backdrop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gg"
)

var errBoom = errors.New("boom")

type fakeDevice struct {
	next     Program
	live     map[Program]Source
	compiled []Source
	released []Program

	compileErr func(Source) error
	useErr     error
	uniformErr error
	drawErr    error

	clears   int
	uses     int
	draws    int
	uniforms []Uniforms
	width    int
	height   int
	closed   bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{live: make(map[Program]Source)}
}

func (d *fakeDevice) Compile(src Source) (Program, error) {
	d.compiled = append(d.compiled, src)
	if d.compileErr != nil {
		if err := d.compileErr(src); err != nil {
			return 0, err
		}
	}
	d.next++
	d.live[d.next] = src
	return d.next, nil
}

func (d *fakeDevice) Release(p Program) {
	d.released = append(d.released, p)
	delete(d.live, p)
}

func (d *fakeDevice) Clear() { d.clears++ }

func (d *fakeDevice) Use(p Program) error {
	d.uses++
	if _, ok := d.live[p]; !ok {
		return fmt.Errorf("program %d not live", p)
	}
	return d.useErr
}

func (d *fakeDevice) SetUniforms(_ Program, u Uniforms) error {
	d.uniforms = append(d.uniforms, u)
	return d.uniformErr
}

func (d *fakeDevice) DrawQuad() error {
	if d.drawErr != nil {
		return d.drawErr
	}
	d.draws++
	return nil
}

func (d *fakeDevice) Resize(w, h int) { d.width, d.height = w, h }

func (d *fakeDevice) Close() {
	d.closed = true
	for p := range d.live {
		delete(d.live, p)
	}
}

type fakePresenter struct {
	presents int
	last     *gg.Pixmap
	err      error
	closed   bool
}

func (p *fakePresenter) Present(pm *gg.Pixmap) error {
	p.presents++
	p.last = pm
	return p.err
}

func (p *fakePresenter) Close() { p.closed = true }

type fakeBackend struct {
	device       *fakeDevice
	deviceErr    error
	presenter    *fakePresenter
	presenterErr error
	presenters   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{device: newFakeDevice(), presenter: &fakePresenter{}}
}

func (b *fakeBackend) OpenDevice(w, h int) (Device, error) {
	if b.deviceErr != nil {
		return nil, b.deviceErr
	}
	b.device.width, b.device.height = w, h
	return b.device, nil
}

func (b *fakeBackend) OpenPresenter(w, h int) (Presenter, error) {
	b.presenters++
	if b.presenterErr != nil {
		return nil, b.presenterErr
	}
	return b.presenter, nil
}

type fakeNotifier struct {
	fn       func(w, h int)
	releases int
}

func (n *fakeNotifier) OnResize(fn func(w, h int)) func() {
	n.fn = fn
	return func() { n.releases++ }
}

func (n *fakeNotifier) fire(w, h int) {
	if n.fn != nil {
		n.fn(w, h)
	}
}

type fixedPointer struct{ x, y float64 }

func (p fixedPointer) Cursor() (float64, float64) { return p.x, p.y }

// fakeFetcher serves canned responses per URL. Responses are consumed in
// order; the last one repeats.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string][]fetchResult
	calls     map[string]int
}

type fetchResult struct {
	text string
	err  error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: make(map[string][]fetchResult), calls: make(map[string]int)}
}

func (f *fakeFetcher) serve(url string, results ...fetchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[url] = results
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.calls[url]
	f.calls[url] = n + 1
	rs := f.responses[url]
	if len(rs) == 0 {
		return "", &StatusError{URL: url, Status: 404}
	}
	if n >= len(rs) {
		n = len(rs) - 1
	}
	return rs[n].text, rs[n].err
}

func (f *fakeFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// manualSpawner holds background work until run is called.
type manualSpawner struct {
	pending []func()
}

func (s *manualSpawner) spawn(f func()) { s.pending = append(s.pending, f) }

func (s *manualSpawner) run() {
	fs := s.pending
	s.pending = nil
	for _, f := range fs {
		f()
	}
}

func runNow(f func()) { f() }

const (
	testVertURL = "https://shaders.test/shader.vert"
	testFragURL = "https://shaders.test/shader.frag"
)

var remoteSource = Source{
	Vertex:   "attribute vec3 aPosition; void main() { gl_Position = vec4(aPosition, 1.0); }",
	Fragment: "void main() { gl_FragColor = vec4(1.0); }",
}

func testOptions(f Fetcher) Options {
	return Options{
		VertexURL:        testVertURL,
		FragmentURL:      testFragURL,
		PollInterval:     PollInterval,
		DirectFetchDelay: DirectFetchDelay,
		AcquireTimeout:   AcquireTimeout,
		Fetcher:          f,
		Local:            BundledSource,
		spawn:            runNow,
	}
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
