// Package provider ties a rendering backend, the image-tag engine and
// the deferred renderer handle into the subtitle provider a video
// pipeline talks to.
//
// A Provider is confined to one goroutine. The only internal
// concurrency is the serial background queue that renderer
// initialization and teardown run on.
package provider

import (
	"fmt"
	"time"

	"github.com/subgo/subrender"
	"github.com/subgo/subrender/backend"
	"github.com/subgo/subrender/internal/dispatch"
	"github.com/subgo/subrender/tagimage"
)

// Option configures a Provider.
type Option func(*Provider)

// WithSleeper replaces the wait sleeper. Tests inject a fake to avoid
// wall-clock waits.
func WithSleeper(s Sleeper) Option {
	return func(p *Provider) { p.sleep = s }
}

// WithProgressRunner sets the surface used for the blocking
// initialization wait. The default runs the wait inline without UI.
func WithProgressRunner(r ProgressRunner) Option {
	return func(p *Provider) { p.progress = r }
}

// Provider renders subtitles onto video frames.
type Provider struct {
	b         backend.Backend
	queue     *dispatch.Queue
	handle    *handle
	registrar *tagimage.Registrar

	sleep    Sleeper
	progress ProgressRunner

	track    backend.Track
	payload  []byte
	storageW int
	storageH int
	closed   bool
}

// New builds a provider on an already-chosen backend. The backend is
// initialized here; renderer creation starts on the background queue
// immediately so it overlaps with subtitle loading.
func New(b backend.Backend, opts ...Option) (*Provider, error) {
	if err := b.Init(); err != nil {
		return nil, fmt.Errorf("provider: backend %s: %w", b.Name(), err)
	}
	p := &Provider{
		b:         b,
		registrar: tagimage.NewRegistrar(),
		sleep:     time.Sleep,
		progress:  nopRunner{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if fp, ok := b.(backend.FontPrimer); ok {
		fp.PrimeFonts()
	}
	p.queue = dispatch.New()
	p.handle = newHandle(b, p.queue, p.sleep, p.progress)
	return p, nil
}

// Open builds a provider on the best available backend.
func Open(opts ...Option) (*Provider, error) {
	b, err := backend.InitDefault()
	if err != nil {
		return nil, err
	}
	return New(b, opts...)
}

// Backend returns the backend the provider renders with.
func (p *Provider) Backend() backend.Backend { return p.b }

// LoadSubtitles loads a subtitle document: the payload is normalized
// to UTF-8, parsed into a track, scanned for image references, and the
// attachment set is rebuilt. Replaces any previously loaded document.
func (p *Provider) LoadSubtitles(doc *subrender.Document) error {
	if p.closed {
		return backend.ErrNotInitialized
	}
	payload := subrender.NormalizePayload(doc.Payload)

	track, err := p.b.NewTrack(payload)
	if err != nil {
		return fmt.Errorf("provider: load subtitles: %w", err)
	}
	if p.track != nil {
		p.track.Close()
	}
	p.track = track
	p.payload = payload

	p.registrar.SetDocument(doc)
	p.registrar.LoadReferences(payload)
	return nil
}

// SetStorageSize sets the video storage dimensions used for
// aspect-dependent scaling. Zero means "same as the frame".
func (p *Provider) SetStorageSize(width, height int) {
	p.storageW, p.storageH = width, height
}

// DrawSubtitles renders the loaded track at the given time and blends
// the result into frame. Blocks until the background renderer is
// ready; a cancelled wait returns ErrRendererNotReady and leaves the
// frame untouched.
func (p *Provider) DrawSubtitles(frame *subrender.VideoFrame, timeMillis int64) error {
	if p.closed || p.track == nil {
		return backend.ErrNotInitialized
	}
	r, err := p.handle.get()
	if err != nil {
		return err
	}
	if r == nil {
		return ErrRendererNotReady
	}

	p.registrar.Sync(r)

	r.SetFrameSize(frame.Width, frame.Height)
	if p.storageW > 0 && p.storageH > 0 {
		r.SetStorageSize(p.storageW, p.storageH)
	} else {
		r.SetStorageSize(frame.Width, frame.Height)
	}

	res, err := r.RenderFrame(p.track, timeMillis)
	if err != nil {
		return fmt.Errorf("provider: render frame: %w", err)
	}
	subrender.Composite(frame, res)
	return nil
}

// Reinitialize tears down the current renderer instance and builds a
// fresh one, then forces a full image resync on the next draw. Ignored
// while the initial renderer is still being created.
func (p *Provider) Reinitialize() {
	if p.closed {
		return
	}
	if !p.handle.ready() {
		return
	}
	p.handle.reinitialize()
	p.registrar.MarkDirty()
}

// Registrar exposes the provider's image registrar.
func (p *Provider) Registrar() *tagimage.Registrar { return p.registrar }

// Close releases the track, the renderer and the background queue.
// Teardown of a renderer still initializing is deferred behind its
// creation on the queue.
func (p *Provider) Close() {
	if p.closed {
		return
	}
	p.closed = true
	if p.track != nil {
		p.track.Close()
		p.track = nil
	}
	p.handle.close()
	p.queue.Close()
}
