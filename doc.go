// Package subrender provides subtitle rendering providers with support
// for image override tags.
//
// # Overview
//
// subrender renders ASS subtitle scripts onto video frames. Its main
// job beyond calling into a renderer backend is the image-tag engine:
// scanning event text for \img(...) references, resolving each
// reference to pixel data (from embedded attachments or the
// filesystem), decoding to a canonical RGBA raster, caching the
// results, and keeping the renderer's registered image set in sync.
//
// # Quick Start
//
//	import (
//	    "github.com/subgo/subrender"
//	    "github.com/subgo/subrender/provider"
//	    _ "github.com/subgo/subrender/backend/libass"
//	    _ "github.com/subgo/subrender/backend/soft"
//	)
//
//	p, err := provider.Open()
//	if err != nil { ... }
//	defer p.Close()
//
//	p.LoadSubtitles(doc)          // attachments, track, reference scan
//	p.DrawSubtitles(frame, 3500)  // composite onto a BGRA frame at 3.5s
//
// # Architecture
//
// The library is organized into:
//   - Public API: Document, VideoFrame, RenderResult, logging
//   - tagimage: reference scanning, resolution, decoding, registration
//   - backend: renderer backends (soft is pure Go, libass is dynamic)
//   - provider: the deferred renderer handle and render orchestration
//
// # Coordinate System
//
// Frames are row-major BGRA8, origin top-left unless the frame is
// marked flipped, in which case rows are addressed bottom-up.
package subrender

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2

	// VersionPatch is the patch version
	VersionPatch = 0
)
