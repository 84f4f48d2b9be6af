// Package soft is the built-in pure Go renderer backend.
//
// It renders dialogue text with shaped, rasterized glyphs and places
// registered \img tag images, which is enough for preview rendering
// and for exercising the full provider pipeline without any native
// library. Styling fidelity (colors, borders, positioning overrides)
// is out of its scope.
package soft

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/sfnt"

	"github.com/subgo/subrender"
	"github.com/subgo/subrender/backend"
	"github.com/subgo/subrender/internal/assparse"
	"github.com/subgo/subrender/internal/dispatch"
)

func init() {
	backend.Register(backend.NameSoft, func() backend.Backend {
		return New(Options{})
	})
}

// Options configures the soft backend.
type Options struct {
	// FontData holds in-memory fonts (TTF/OTF), tried before any
	// system font. Useful for tests and embedding.
	FontData [][]byte

	// FontDirs overrides the directories scanned for system fonts.
	FontDirs []string
}

// loadedFont pairs the two parsed views of one font file: typesetting
// for shaping, sfnt for outline extraction. Both are safe for
// concurrent use; sfnt needs a per-caller Buffer.
type loadedFont struct {
	shape   *font.Font
	outline *sfnt.Font
}

// Backend is the soft backend. Init builds the font index, which can
// take a while on a cold system; providers run renderer construction
// on a background worker for exactly that reason.
type Backend struct {
	opts Options

	initOnce sync.Once
	initErr  error
	fonts    []*loadedFont

	primeOnce sync.Once
}

// New creates a soft backend with the given options.
func New(opts Options) *Backend {
	return &Backend{opts: opts}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return backend.NameSoft }

// Init parses the configured fonts and indexes system fonts. The soft
// backend is available even with no usable font; it then renders
// images but no text.
func (b *Backend) Init() error {
	b.initOnce.Do(func() {
		for i, data := range b.opts.FontData {
			f, err := parseFont(data)
			if err != nil {
				subrender.Logger().Debug("font data rejected", "index", i, "error", err)
				continue
			}
			b.fonts = append(b.fonts, f)
		}
		if len(b.fonts) == 0 {
			if f := b.scanSystemFonts(); f != nil {
				b.fonts = append(b.fonts, f)
			}
		}
		if len(b.fonts) == 0 {
			subrender.Logger().Warn("soft backend found no usable font; text will not render")
		}
	})
	return b.initErr
}

// PrimeFonts warms the font index in the background.
func (b *Backend) PrimeFonts() {
	b.primeOnce.Do(func() {
		q := dispatch.New()
		q.Async(func() {
			_ = b.Init()
			q.Close()
		})
	})
}

// NewTrack parses a script payload into a track.
func (b *Backend) NewTrack(payload []byte) (backend.Track, error) {
	events := assparse.Events(payload)
	return &Track{events: events}, nil
}

// NewRenderer creates a renderer instance. The font index must have
// been built; Init is invoked here as a safety net for direct users.
func (b *Backend) NewRenderer() (backend.Renderer, error) {
	if err := b.Init(); err != nil {
		return nil, err
	}
	return newRenderer(b), nil
}

// defaultFont returns the font used for dialogue text, nil if none.
func (b *Backend) defaultFont() *loadedFont {
	if len(b.fonts) == 0 {
		return nil
	}
	return b.fonts[0]
}

// parseFont parses raw font bytes for both shaping and outlines.
func parseFont(data []byte) (*loadedFont, error) {
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("soft: parse font: %w", err)
	}
	out, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("soft: parse font outlines: %w", err)
	}
	return &loadedFont{shape: face.Font, outline: out}, nil
}

// scanSystemFonts walks the font directories and returns the first
// font that parses. The walk itself is the slow part on a cold cache.
func (b *Backend) scanSystemFonts() *loadedFont {
	dirs := b.opts.FontDirs
	if len(dirs) == 0 {
		dirs = systemFontDirs()
	}

	var found *loadedFont
	for _, dir := range dirs {
		if found != nil {
			break
		}
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || found != nil || d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if ext != ".ttf" && ext != ".otf" {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			f, err := parseFont(data)
			if err != nil {
				return nil
			}
			subrender.Logger().Info("soft backend font selected", "file", path)
			found = f
			return fs.SkipAll
		})
	}
	return found
}

// systemFontDirs lists the conventional font locations per platform.
// Scanning nonexistent directories is harmless.
func systemFontDirs() []string {
	dirs := []string{
		"/usr/share/fonts",
		"/usr/local/share/fonts",
		"/System/Library/Fonts",
		"/Library/Fonts",
		`C:\Windows\Fonts`,
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".fonts"),
			filepath.Join(home, ".local", "share", "fonts"),
			filepath.Join(home, "Library", "Fonts"),
		)
	}
	return dirs
}

// Track is a parsed script.
type Track struct {
	events []assparse.Event
}

// Events returns the track's dialogue events in file order.
func (t *Track) Events() []assparse.Event { return t.events }

// Close releases the track. The soft track holds no native state.
func (t *Track) Close() {}
