package backdrop

import "log/slog"

type RenderMode int

const (
	Accelerated RenderMode = iota // shader program on the GPU surface
	Procedural                    // 2D passes on the software canvas, terminal
)

func (m RenderMode) String() string {
	switch m {
	case Accelerated:
		return "accelerated"
	case Procedural:
		return "procedural"
	default:
		return "unknown"
	}
}

type AcquisitionState int

const (
	NotStarted AcquisitionState = iota
	InFlight
	Loaded
	Failed
)

func (a AcquisitionState) String() string {
	switch a {
	case NotStarted:
		return "not-started"
	case InFlight:
		return "in-flight"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Origin records which acquisition path produced the active program.
type Origin int

const (
	OriginNone   Origin = iota
	OriginRemote        // passive load of the remote pair
	OriginDirect        // direct fetch-and-compile of the remote pair
	OriginLocal         // bundled source
)

func (o Origin) String() string {
	switch o {
	case OriginRemote:
		return "remote"
	case OriginDirect:
		return "direct"
	case OriginLocal:
		return "local"
	default:
		return "none"
	}
}

// Program is an opaque handle to a compiled program owned by the Device.
// Zero means no program.
type Program uint32

// Flags is the mutable fallback record held for the lifetime of a surface.
type Flags struct {
	Desired     RenderMode
	Acquisition AcquisitionState
	Errored     bool
}

// State owns the fallback flags and the active program. It is touched only
// from the render thread.
type State struct {
	Flags
	Program Program
	Origin  Origin
}

// NewState returns the initial state: accelerated and not started.
func NewState() *State {
	return &State{Flags: Flags{Desired: Accelerated, Acquisition: NotStarted}}
}

// Accelerating reports whether the accelerated path may still be used.
func (s *State) Accelerating() bool {
	return s.Desired == Accelerated && !s.Errored
}

// Drawable reports whether a frame can be drawn with the active program.
func (s *State) Drawable() bool {
	return s.Accelerating() && s.Acquisition == Loaded && s.Program != 0
}

// Settled reports whether acquisition has reached a terminal outcome.
func (s *State) Settled() bool {
	return s.Acquisition == Loaded || s.Acquisition == Failed || s.Desired == Procedural
}

// Begin moves NotStarted to InFlight. It reports false when acquisition
// has already started or accelerated rendering is no longer wanted.
func (s *State) Begin() bool {
	if !s.Accelerating() || s.Acquisition != NotStarted {
		return false
	}
	s.Acquisition = InFlight
	return true
}

// Adopt makes p the active program. The first successful acquisition wins:
// Adopt reports false, and leaves the state untouched, once a program is
// loaded or the state has fallen back.
func (s *State) Adopt(p Program, origin Origin) bool {
	if p == 0 || !s.Accelerating() || s.Acquisition == Loaded {
		return false
	}
	s.Program = p
	s.Origin = origin
	s.Acquisition = Loaded
	Logger().Info("backdrop: program loaded", slog.String("origin", origin.String()))
	return true
}

// FailAcquisition records that even the bundled program could not be built.
func (s *State) FailAcquisition(err error) {
	s.Acquisition = Failed
	s.FallBack("acquisition exhausted", err)
}

// FallBack switches to procedural rendering for the rest of the session.
func (s *State) FallBack(reason string, err error) {
	if s.Desired == Procedural {
		return
	}
	s.Desired = Procedural
	Logger().Warn("backdrop: falling back to procedural rendering",
		slog.String("reason", reason), slog.Any("err", err))
}

// MarkErrored records a draw-time failure of the accelerated path. The
// program is dropped from the state; the caller releases it.
func (s *State) MarkErrored(err error) Program {
	s.Errored = true
	s.FallBack("draw failed", err)
	p := s.Program
	s.Program = 0
	return p
}
