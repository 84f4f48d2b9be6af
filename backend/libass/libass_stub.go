//go:build !linux && !darwin

// Package libass renders subtitles through a dynamically loaded
// native library. On platforms without a dynamic loader binding the
// backend registers but always reports itself unavailable, so the
// registry falls through to the software backend.
package libass

import (
	"github.com/subgo/subrender/backend"
)

func init() {
	backend.Register(backend.NameLibass, func() backend.Backend {
		return &Backend{}
	})
}

// Capability describes how much of the dynamic API was resolved.
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilityCore
	CapabilityTagImages
)

// Backend is the unavailable placeholder for unsupported platforms.
type Backend struct{}

func (*Backend) Name() string { return backend.NameLibass }

func (*Backend) Init() error { return backend.ErrBackendNotAvailable }

func (*Backend) NewTrack([]byte) (backend.Track, error) {
	return nil, backend.ErrBackendNotAvailable
}

func (*Backend) NewRenderer() (backend.Renderer, error) {
	return nil, backend.ErrBackendNotAvailable
}

// LoadedCapability always reports CapabilityNone on this platform.
func LoadedCapability() Capability { return CapabilityNone }
