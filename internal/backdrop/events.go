package backdrop

import "context"

type EventKind int

const (
	EventPollTick EventKind = iota
	EventDeferredCheck
	EventFetchCompleted
	EventLocalCompileCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventPollTick:
		return "poll-tick"
	case EventDeferredCheck:
		return "deferred-check"
	case EventFetchCompleted:
		return "fetch-completed"
	case EventLocalCompileCompleted:
		return "local-compile-completed"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind    EventKind
	Source  Source  // FetchCompleted payload
	Program Program // LocalCompileCompleted payload
	Err     error   // set on failure
}

// eventQueue hands completions from fetch goroutines to the render thread.
// Only the render thread drains it.
type eventQueue struct {
	ch chan Event
}

func newEventQueue(size int) *eventQueue {
	return &eventQueue{ch: make(chan Event, size)}
}

// post blocks until the event is queued or ctx is done. Nothing is
// queued once ctx is done.
func (q *eventQueue) post(ctx context.Context, e Event) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case q.ch <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

// poll returns the next queued event without blocking.
func (q *eventQueue) poll() (Event, bool) {
	select {
	case e := <-q.ch:
		return e, true
	default:
		return Event{}, false
	}
}
