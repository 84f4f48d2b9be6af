//go:build linux || darwin

package libass

import (
	"fmt"
	"sync"

	"github.com/ebitengine/purego"

	"github.com/subgo/subrender"
)

// Capability describes how much of the dynamic API was resolved.
type Capability int

const (
	// CapabilityNone: the library or a required symbol is missing.
	// The backend cannot be used at all.
	CapabilityNone Capability = iota

	// CapabilityCore: rendering works but the tag-image registration
	// symbols are absent. Image tags degrade to a logged no-op.
	CapabilityCore

	// CapabilityTagImages: the full API including tag-image
	// registration.
	CapabilityTagImages
)

// Tag-image formats as the library defines them.
const (
	tagImagePNG  int32 = 1
	tagImageJPEG int32 = 2
	tagImageWEBP int32 = 3
)

// api is the resolved function table. Process-wide, loaded once,
// never unloaded.
var api struct {
	handle     uintptr
	capability Capability

	libraryInit  func() uintptr
	libraryDone  func(uintptr)
	rendererInit func(uintptr) uintptr
	rendererDone func(uintptr)

	setFontScale   func(uintptr, float64)
	setFonts       func(uintptr, string, string, int32, string, int32)
	readMemory     func(uintptr, *byte, uintptr, *byte) uintptr
	freeTrack      func(uintptr)
	setFrameSize   func(uintptr, int32, int32)
	setStorageSize func(uintptr, int32, int32)
	renderFrame    func(uintptr, uintptr, int64, *int32) uintptr

	// optional tag-image registration
	clearTagImages  func(uintptr)
	setTagImageRGBA func(uintptr, string, int32, int32, int32, int32, *byte) int32
}

var (
	apiOnce sync.Once
	apiErr  error

	// library is the process-wide ASS_Library handle, initialized once
	// and never torn down mid-process.
	library uintptr

	// globalMu serializes every call into the library. Legacy builds
	// are unsafe for concurrent use even across unrelated renderer
	// instances.
	globalMu sync.Mutex
)

// ensureAPI loads the library and resolves symbols, once per process.
func ensureAPI() error {
	apiOnce.Do(func() {
		apiErr = loadAPI()
		if apiErr == nil {
			library = api.libraryInit()
			if library == 0 {
				apiErr = fmt.Errorf("libass: library initialization failed")
			}
		}
	})
	return apiErr
}

// loadAPI opens the first loadable library name and resolves the
// required and optional symbol sets.
func loadAPI() error {
	var handle uintptr
	var lastErr error
	for _, name := range libraryNames() {
		h, err := purego.Dlopen(name, purego.RTLD_LAZY|purego.RTLD_LOCAL)
		if err != nil {
			lastErr = err
			continue
		}
		handle = h
		subrender.Logger().Info("renderer library loaded", "library", name)
		break
	}
	if handle == 0 {
		return fmt.Errorf("libass: could not load any of %v: %w", libraryNames(), lastErr)
	}
	api.handle = handle

	required := []struct {
		name string
		fptr any
	}{
		{"ass_library_init", &api.libraryInit},
		{"ass_library_done", &api.libraryDone},
		{"ass_renderer_init", &api.rendererInit},
		{"ass_renderer_done", &api.rendererDone},
		{"ass_set_font_scale", &api.setFontScale},
		{"ass_set_fonts", &api.setFonts},
		{"ass_read_memory", &api.readMemory},
		{"ass_free_track", &api.freeTrack},
		{"ass_set_frame_size", &api.setFrameSize},
		{"ass_set_storage_size", &api.setStorageSize},
		{"ass_render_frame", &api.renderFrame},
	}
	for _, sym := range required {
		if _, err := purego.Dlsym(handle, sym.name); err != nil {
			api.capability = CapabilityNone
			return fmt.Errorf("libass: missing symbol %s: %w", sym.name, err)
		}
		purego.RegisterLibFunc(sym.fptr, handle, sym.name)
	}
	api.capability = CapabilityCore

	// Optional: tag-image registration. Absence is not a failure.
	_, errClear := purego.Dlsym(handle, "ass_clear_tag_images")
	_, errSet := purego.Dlsym(handle, "ass_set_tag_image_rgba")
	if errClear == nil && errSet == nil {
		purego.RegisterLibFunc(&api.clearTagImages, handle, "ass_clear_tag_images")
		purego.RegisterLibFunc(&api.setTagImageRGBA, handle, "ass_set_tag_image_rgba")
		api.capability = CapabilityTagImages
	} else {
		subrender.Logger().Warn("renderer library has no tag-image API; image tags will not render")
	}
	return nil
}

// libraryNames is the ordered list of library file names to try.
func libraryNames() []string {
	return platformLibraryNames
}

// LoadedCapability reports what the probe resolved. CapabilityNone
// until ensureAPI has succeeded.
func LoadedCapability() Capability {
	return api.capability
}
