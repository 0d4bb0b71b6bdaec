package backdrop

import "time"

// Window defaults.
const (
	WindowWidth  = 1280
	WindowHeight = 720
	WindowTitle  = "💚🧡   B06oo7   💜💛"
)

// Shader acquisition timing.
// AcquireTimeout is the single deadline shared by the poll and the frame loop.
const (
	PollInterval     = 500 * time.Millisecond
	DirectFetchDelay = 3000 * time.Millisecond
	AcquireTimeout   = 5000 * time.Millisecond
	FetchTimeout     = 10 * time.Second
)

// Remote shader pair.
const (
	RemoteVertexURL   = "https://assets.codepen.io/108082/shader.vert"
	RemoteFragmentURL = "https://assets.codepen.io/108082/shader-1.frag"
)

// Procedural fallback.
const (
	GridSize  = 20
	GridSpeed = 20.0 // px/s
	RingCount = 3
	LineCount = 5
)

// Options carries the tunables of a Backdrop. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	VertexURL   string
	FragmentURL string

	PollInterval     time.Duration
	DirectFetchDelay time.Duration
	AcquireTimeout   time.Duration

	Fetcher Fetcher
	Local   Source

	spawn func(func()) // runs background work; nil means a goroutine
}

// DefaultOptions returns the compiled-in configuration.
func DefaultOptions() Options {
	return Options{
		VertexURL:        RemoteVertexURL,
		FragmentURL:      RemoteFragmentURL,
		PollInterval:     PollInterval,
		DirectFetchDelay: DirectFetchDelay,
		AcquireTimeout:   AcquireTimeout,
		Fetcher:          NewHTTPFetcher(FetchTimeout),
		Local:            BundledSource,
	}
}
