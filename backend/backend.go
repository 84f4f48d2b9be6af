package backend

import (
	"errors"

	"github.com/subgo/subrender"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is
	// not available on this system (library or symbols missing).
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrBadTrack is returned when a track payload cannot be loaded.
	ErrBadTrack = errors.New("backend: track failed to load")
)

// Backend is a subtitle renderer implementation. A Backend owns
// process-wide library state; Init runs at most once per process and
// an unavailable backend fails there, which is fatal to constructing a
// provider on top of it.
type Backend interface {
	// Name returns the backend identifier (e.g. "soft", "libass").
	Name() string

	// Init initializes process-wide backend state. Safe to call more
	// than once; later calls return the first outcome.
	Init() error

	// NewTrack parses a subtitle payload into a renderable track.
	NewTrack(payload []byte) (Track, error)

	// NewRenderer creates a renderer instance. Creation can be slow
	// (font indexing); providers run it on a background worker.
	NewRenderer() (Renderer, error)
}

// Track is a loaded subtitle script, owned by whoever created it.
type Track interface {
	Close()
}

// Renderer renders a track at a point in time. Instances are confined
// to one provider; none of the methods are safe for concurrent use.
//
// A renderer that supports image override tags additionally implements
// tagimage.Target; providers probe for it and degrade gracefully.
type Renderer interface {
	// SetFrameSize sets the output frame dimensions in pixels.
	SetFrameSize(width, height int)

	// SetStorageSize sets the video storage dimensions, which affect
	// aspect-dependent scaling.
	SetStorageSize(width, height int)

	// RenderFrame renders the track at the given time.
	RenderFrame(track Track, timeMillis int64) (*subrender.RenderResult, error)

	// Close releases the renderer instance.
	Close()
}

// FontPrimer is implemented by backends whose renderer construction
// depends on a font index that can be warmed up ahead of time.
type FontPrimer interface {
	// PrimeFonts starts building the font index in the background and
	// returns immediately.
	PrimeFonts()
}
