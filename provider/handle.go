package provider

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/subgo/subrender"
	"github.com/subgo/subrender/backend"
	"github.com/subgo/subrender/internal/dispatch"
)

// waitInterval is the poll cadence of the blocking wait. The wait is a
// polling loop rather than a condition wait so the progress surface
// can tick cooperatively.
const waitInterval = 250 * time.Millisecond

// ErrRendererNotReady is returned when the wait for the background
// renderer was cancelled before initialization finished.
var ErrRendererNotReady = errors.New("provider: renderer not ready")

// rendererState is shared between the handle and the queued creation
// task, so a handle torn down before initialization completes does not
// leave the task writing into freed state. Whoever holds it last sees
// the final renderer.
type rendererState struct {
	mu       sync.Mutex
	renderer backend.Renderer
	err      error
	ready    atomic.Bool
}

func (s *rendererState) set(r backend.Renderer, err error) {
	s.mu.Lock()
	s.renderer = r
	s.err = err
	s.mu.Unlock()
	s.ready.Store(true)
}

func (s *rendererState) result() (backend.Renderer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer, s.err
}

// handle wraps a renderer instance that becomes valid asynchronously.
// Construction enqueues the renderer creation on the serial queue and
// returns immediately; get blocks until the instance is ready.
//
// State machine: Initializing, then Ready, one-way. Reinitialize is
// the only way back, and it starts a fresh Initializing cycle.
type handle struct {
	b        backend.Backend
	queue    *dispatch.Queue
	sleep    Sleeper
	progress ProgressRunner

	state *rendererState
}

func newHandle(b backend.Backend, queue *dispatch.Queue, sleep Sleeper, progress ProgressRunner) *handle {
	h := &handle{
		b:        b,
		queue:    queue,
		sleep:    sleep,
		progress: progress,
	}
	h.start()
	return h
}

// start kicks off a fresh Initializing cycle.
func (h *handle) start() {
	state := &rendererState{}
	h.state = state
	h.queue.Async(func() {
		r, err := h.b.NewRenderer()
		if err != nil {
			subrender.Logger().Error("renderer initialization failed", "error", err)
		}
		state.set(r, err)
	})
}

// ready reports whether initialization has completed (successfully or
// not).
func (h *handle) ready() bool { return h.state.ready.Load() }

// get returns the renderer, blocking until the background
// initialization completes. The fast path is a flag check; otherwise
// one bounded sleep, a re-check, and then a progress-reporting polling
// wait. A cancelled wait returns ErrRendererNotReady and leaves the
// background initialization running.
func (h *handle) get() (backend.Renderer, error) {
	state := h.state
	if state.ready.Load() {
		return state.result()
	}

	h.sleep(waitInterval)
	if state.ready.Load() {
		return state.result()
	}

	h.progress.Run(func(sink ProgressSink) {
		sink.SetTitle("Updating font index")
		sink.SetMessage("This may take several minutes")
		sink.SetIndeterminate()
		for !state.ready.Load() {
			if sink.Cancelled() {
				return
			}
			h.sleep(waitInterval)
		}
	})

	if !state.ready.Load() {
		return nil, ErrRendererNotReady
	}
	return state.result()
}

// reinitialize tears down the current renderer and starts a fresh
// cycle. Valid only once Ready; calling it while still Initializing is
// a caller error and is ignored.
func (h *handle) reinitialize() {
	if !h.state.ready.Load() {
		subrender.Logger().Warn("reinitialize ignored: renderer still initializing")
		return
	}
	old, _ := h.state.result()
	if old != nil {
		h.queue.Sync(func() { old.Close() })
	}
	h.start()
}

// close releases the renderer once the queued initialization has run.
// Enqueueing the teardown behind any pending creation keeps ownership
// with whichever side finishes last.
func (h *handle) close() {
	state := h.state
	h.queue.Async(func() {
		if r, _ := state.result(); r != nil {
			r.Close()
		}
	})
}
