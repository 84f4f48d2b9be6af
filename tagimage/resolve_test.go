package tagimage

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/subgo/subrender"
)

// writePNGFile writes a small PNG of the given size into dir.
func writePNGFile(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, encodePNG(t, src), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// TestResolveFromScriptDir tests resolution of a relative reference
// against the script directory.
func TestResolveFromScriptDir(t *testing.T) {
	dir := t.TempDir()
	path := writePNGFile(t, dir, "logo.png", 2, 2)

	r := NewResolver()
	r.SetScriptDir(dir)

	img, ok := r.Resolve("logo.png", nil)
	if !ok {
		t.Fatal("Expected logo.png to resolve from the script directory")
	}
	if img.Key != path {
		t.Errorf("Expected key to be the resolved path %q, got %q", path, img.Key)
	}
	if img.Format != FormatPNG {
		t.Errorf("Expected FormatPNG, got %v", img.Format)
	}
}

// TestResolveCachedOnce tests that a reference touches the filesystem
// at most once per load, hits and misses alike.
func TestResolveCachedOnce(t *testing.T) {
	dir := t.TempDir()
	writePNGFile(t, dir, "logo.png", 2, 2)

	r := NewResolver()
	r.SetScriptDir(dir)

	r.Resolve("logo.png", nil)
	r.Resolve("logo.png", nil)
	if got := r.FileLookups(); got != 1 {
		t.Errorf("Expected 1 filesystem pass for a repeated reference, got %d", got)
	}

	// Misses are cached too.
	r.Resolve("absent.png", nil)
	r.Resolve("absent.png", nil)
	if got := r.FileLookups(); got != 2 {
		t.Errorf("Expected 2 filesystem passes total, got %d", got)
	}

	stats := r.CacheStats()
	if stats.Hits != 2 {
		t.Errorf("Expected 2 cache hits, got %d", stats.Hits)
	}
}

// TestResolveScriptDirChange tests that changing the script directory
// invalidates the file cache.
func TestResolveScriptDirChange(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writePNGFile(t, dirA, "logo.png", 2, 2)
	writePNGFile(t, dirB, "logo.png", 4, 4)

	r := NewResolver()
	r.SetScriptDir(dirA)
	img, ok := r.Resolve("logo.png", nil)
	if !ok || img.Width != 2 {
		t.Fatalf("Expected the 2x2 image from dirA, got ok=%v", ok)
	}

	r.SetScriptDir(dirB)
	img, ok = r.Resolve("logo.png", nil)
	if !ok {
		t.Fatal("Expected logo.png to resolve after directory change")
	}
	if img.Width != 4 {
		t.Errorf("Expected the 4x4 image from dirB after invalidation, got %dx%d", img.Width, img.Height)
	}

	// Setting the same directory again must keep the cache.
	lookups := r.FileLookups()
	r.SetScriptDir(dirB)
	r.Resolve("logo.png", nil)
	if got := r.FileLookups(); got != lookups {
		t.Errorf("Expected no new lookup after a no-op directory set, got %d -> %d", lookups, got)
	}
}

// TestResolveCaseInsensitiveScan tests the directory-scan fallback for
// case-mismatched references.
func TestResolveCaseInsensitiveScan(t *testing.T) {
	dir := t.TempDir()
	path := writePNGFile(t, dir, "Logo.PNG", 2, 2)

	r := NewResolver()
	r.SetScriptDir(dir)

	img, ok := r.Resolve("logo.png", nil)
	if !ok {
		t.Fatal("Expected case-insensitive scan to find Logo.PNG")
	}
	if img.Key != path {
		t.Errorf("Expected key %q from the scan, got %q", path, img.Key)
	}
}

// TestResolveAttachmentFallback tests falling through to the
// attachment set when no file exists.
func TestResolveAttachmentFallback(t *testing.T) {
	set := DecodeAttachments([]subrender.Attachment{pngAttachment(t, "pic.png")})

	r := NewResolver()
	r.SetScriptDir(t.TempDir())

	img, ok := r.Resolve("pic.png", set)
	if !ok {
		t.Fatal("Expected attachment fallback to resolve pic.png")
	}
	if img.Key != "pic.png" {
		t.Errorf("Expected attachment key pic.png, got %q", img.Key)
	}

	// Subdirectory references match attachments by basename.
	if _, ok := r.Resolve("art/pic.png", set); !ok {
		t.Error("Expected basename matching for a subdirectory reference")
	}
}

// TestResolveFormatMismatch tests that an attachment of one format
// never satisfies a reference of another: a pic.jpg reference must not
// resolve to a pic.png attachment, even though a renderer could decode
// either.
func TestResolveFormatMismatch(t *testing.T) {
	set := DecodeAttachments([]subrender.Attachment{pngAttachment(t, "pic.png")})

	r := NewResolver()
	if _, ok := r.Resolve("pic.jpg", set); ok {
		t.Error("Expected pic.jpg to miss a set containing only pic.png")
	}
	if _, ok := r.Resolve("pic.png", set); !ok {
		t.Error("Expected pic.png to resolve")
	}
}

// TestResolveAbsoluteSkipsAttachments tests that absolute references
// never match attachments.
func TestResolveAbsoluteSkipsAttachments(t *testing.T) {
	set := DecodeAttachments([]subrender.Attachment{pngAttachment(t, "pic.png")})

	r := NewResolver()
	abs := filepath.Join(t.TempDir(), "pic.png") // absolute, file absent
	if _, ok := r.Resolve(abs, set); ok {
		t.Error("Expected an absolute reference to skip the attachment set")
	}
	// Windows-style absolute forms count on every platform.
	if _, ok := r.Resolve(`C:\pics\pic.png`, set); ok {
		t.Error("Expected a drive-letter reference to skip the attachment set")
	}
	if _, ok := r.Resolve(`\\server\share\pic.png`, set); ok {
		t.Error("Expected a UNC reference to skip the attachment set")
	}
}

// TestResolveQuotedForms tests that quoted and unquoted spellings
// resolve identically.
func TestResolveQuotedForms(t *testing.T) {
	dir := t.TempDir()
	writePNGFile(t, dir, "logo.png", 2, 2)

	r := NewResolver()
	r.SetScriptDir(dir)

	plain, ok := r.Resolve("logo.png", nil)
	if !ok {
		t.Fatal("Expected unquoted reference to resolve")
	}
	quoted, ok := r.Resolve(`"logo.png"`, nil)
	if !ok {
		t.Fatal("Expected quoted reference to resolve")
	}
	if plain != quoted {
		t.Error("Expected both spellings to share one cache entry")
	}
	if got := r.FileLookups(); got != 1 {
		t.Errorf("Expected one lookup for both spellings, got %d", got)
	}
}

// TestResolveUnsupported tests rejection of non-image references.
func TestResolveUnsupported(t *testing.T) {
	r := NewResolver()
	if _, ok := r.Resolve("movie.mkv", nil); ok {
		t.Error("Expected non-image extension to be rejected")
	}
	if _, ok := r.Resolve("", nil); ok {
		t.Error("Expected empty reference to be rejected")
	}
	if got := r.FileLookups(); got != 0 {
		t.Errorf("Expected no filesystem passes for rejected references, got %d", got)
	}
}
