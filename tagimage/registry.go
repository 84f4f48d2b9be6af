package tagimage

import (
	"sync"

	"github.com/subgo/subrender"
)

// Target is the registration capability a renderer may expose.
// Renderers without it (older backends) simply never show tag images.
type Target interface {
	// ClearImages drops every registered image.
	ClearImages()

	// RegisterImage registers rgba pixel data under key. A failure for
	// one key is non-fatal and leaves that key unregistered.
	RegisterImage(key string, format Format, width, height, stride int, rgba []byte) error
}

// missingTargetOnce gates the "no registration capability" warning to
// once per process, not once per frame.
var missingTargetOnce sync.Once

// Registrar owns the image state of one provider instance: the decoded
// attachment set, the scanned references of the current load, the
// resolver with its file cache, and the dirty flag that gates
// resynchronization with the renderer.
//
// The registered set is recomputed from scratch on every sync pass;
// renderers expose no incremental diff API.
type Registrar struct {
	resolver    *Resolver
	attachments *AttachmentSet
	refs        []string
	dirty       bool
}

// NewRegistrar creates a registrar with an empty state.
func NewRegistrar() *Registrar {
	return &Registrar{
		resolver:    NewResolver(),
		attachments: &AttachmentSet{},
	}
}

// Resolver returns the registrar's resolver.
func (g *Registrar) Resolver() *Resolver { return g.resolver }

// SetDocument rebuilds the attachment set from a document and updates
// the script directory, invalidating the file cache on a change.
// Called on every subtitle (re)load, before LoadReferences.
func (g *Registrar) SetDocument(doc *subrender.Document) {
	g.resolver.SetScriptDir(doc.ScriptDir())
	g.attachments = DecodeAttachments(doc.Attachments)
}

// LoadReferences replaces the scanned reference list with the ones in
// payload and marks the registered set dirty.
func (g *Registrar) LoadReferences(payload []byte) {
	g.refs = CollectReferences(payload)
	g.dirty = true
}

// References returns the scanned references of the current load.
func (g *Registrar) References() []string { return g.refs }

// MarkDirty flags the registered set as stale, forcing the next Sync
// to do a full pass. Called on renderer reinitialization.
func (g *Registrar) MarkDirty() { g.dirty = true }

// Dirty reports whether a sync pass is pending.
func (g *Registrar) Dirty() bool { return g.dirty }

// Sync pushes the current image set into the renderer if the state is
// dirty, and is a no-op otherwise. renderer may be any backend
// renderer value; if it does not implement Target the pass degrades to
// a no-op, logged once per process.
//
// A full pass clears the renderer's set, registers every attachment
// image, then every resolvable scanned reference, each under its
// stripped and double-quoted key variants. Any given key is registered
// at most once per pass. The dirty flag clears only after a complete
// pass.
func (g *Registrar) Sync(renderer any) {
	if !g.dirty {
		return
	}

	target, ok := renderer.(Target)
	if !ok {
		missingTargetOnce.Do(func() {
			subrender.Logger().Warn("renderer has no tag-image registration API; image tags will not render")
		})
		g.dirty = false
		return
	}

	target.ClearImages()

	registered := make(map[string]struct{})
	registerKey := func(key string, img *Image) {
		if key == "" {
			return
		}
		if _, done := registered[key]; done {
			return
		}
		err := target.RegisterImage(key, img.Format, img.Width, img.Height, img.Stride, img.RGBA)
		if err != nil {
			subrender.Logger().Debug("image registration failed", "key", key, "error", err)
			return
		}
		registered[key] = struct{}{}
	}
	registerVariants := func(key string, img *Image) {
		clean := StripQuotes(key)
		if clean == "" {
			return
		}
		registerKey(clean, img)
		registerKey(Quote(clean), img)
	}

	for _, img := range g.attachments.Images() {
		registerVariants(img.Key, img)
	}

	for _, raw := range g.refs {
		path := StripQuotes(raw)
		if path == "" {
			continue
		}
		img, ok := g.resolver.Resolve(path, g.attachments)
		if !ok {
			continue
		}
		// Both the reference spelling and the resolved key must hit at
		// render time.
		registerVariants(path, img)
		registerVariants(img.Key, img)
	}

	g.dirty = false
}
