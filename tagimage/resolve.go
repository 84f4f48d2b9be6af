package tagimage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/subgo/subrender"
	"github.com/subgo/subrender/cache"
)

// Resolver turns reference strings into decoded images. Resolution
// order: the per-load file cache, then the filesystem (the reference
// as given, then resolved against the script directory), then a
// case-insensitive scan of the script directory, then the attachment
// set by case-folded basename.
//
// Filesystem outcomes — including failures — are cached under the
// reference key so a reference is resolved at most once per load.
// A Resolver belongs to one provider instance and is not safe for
// concurrent use.
type Resolver struct {
	scriptDir   string
	files       *cache.Cache[string, *Image] // nil value records a miss
	fileLookups int
}

// NewResolver creates a resolver with an empty file cache and no
// script directory.
func NewResolver() *Resolver {
	return &Resolver{files: cache.New[string, *Image](0)}
}

// SetScriptDir updates the script directory used for relative
// references. Changing it invalidates the file cache: entries resolved
// against the old directory must never be served stale.
func (r *Resolver) SetScriptDir(dir string) {
	if dir != r.scriptDir {
		r.files.Clear()
	}
	r.scriptDir = dir
}

// ScriptDir returns the current script directory, empty if unknown.
func (r *Resolver) ScriptDir() string { return r.scriptDir }

// FileLookups returns how many filesystem resolution passes have run.
// Cache hits do not count.
func (r *Resolver) FileLookups() int { return r.fileLookups }

// CacheStats exposes the file cache counters.
func (r *Resolver) CacheStats() cache.Stats { return r.files.Stats() }

// Resolve resolves a reference to a decoded image, or reports
// not-found. Not-found is a normal outcome, not an error: the
// reference is simply never registered.
func (r *Resolver) Resolve(ref string, attachments *AttachmentSet) (*Image, bool) {
	path := StripQuotes(ref)
	if path == "" {
		return nil, false
	}
	format, ok := ParseFormat(path)
	if !ok {
		return nil, false
	}

	img := r.files.GetOrCreate(path, func() *Image {
		r.fileLookups++
		return r.resolveFile(path, format)
	})
	if img != nil && img.Format == format {
		return img, true
	}

	// A file hit whose extension-derived format disagrees with the
	// reference falls through to the attachment set, same as a miss.
	if isAbsolutePath(path) {
		return nil, false
	}

	att, ok := attachments.Lookup(strings.ToLower(Basename(path)))
	if !ok || att.Format != format {
		return nil, false
	}
	return att, true
}

// resolveFile attempts filesystem resolution of one reference.
// Returns nil when no candidate exists and decodes.
func (r *Resolver) resolveFile(path string, format Format) *Image {
	for _, candidate := range r.fileCandidates(path) {
		if img := decodeFileAt(candidate, path, format); img != nil {
			subrender.Logger().Debug("image reference resolved",
				"reference", path, "file", candidate)
			return img
		}
	}

	// Last chance on disk: a case-insensitive match among the script
	// directory's immediate files.
	if isAbsolutePath(path) || r.scriptDir == "" {
		return nil
	}
	base := strings.ToLower(Basename(path))
	if base == "" {
		return nil
	}

	entries, err := os.ReadDir(r.scriptDir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.ToLower(entry.Name()) != base {
			continue
		}
		candidate := filepath.Join(r.scriptDir, entry.Name())
		if img := decodeFileAt(candidate, path, format); img != nil {
			subrender.Logger().Debug("image reference resolved by directory scan",
				"reference", path, "file", candidate)
			return img
		}
	}
	return nil
}

// fileCandidates builds the ordered candidate paths for a reference:
// the reference as given, then the reference resolved against the
// script directory when relative.
func (r *Resolver) fileCandidates(path string) []string {
	candidates := []string{path}
	if !isAbsolutePath(path) && r.scriptDir != "" {
		if resolved := filepath.Join(r.scriptDir, path); resolved != path {
			candidates = append(candidates, resolved)
		}
	}
	return candidates
}

// decodeFileAt reads and decodes one candidate file on behalf of a
// reference. The resulting key is the candidate path actually used,
// which is what render-time lookups of the resolved form hit.
func decodeFileAt(candidate, refPath string, format Format) *Image {
	data, err := os.ReadFile(candidate)
	if err != nil {
		return nil
	}
	img, err := Decode(data)
	if err != nil {
		subrender.Logger().Debug("image file failed to decode",
			"file", candidate, "error", err)
		return nil
	}
	img.Key = candidate
	img.BasenameLower = strings.ToLower(Basename(refPath))
	img.Format = format
	return img
}

// isAbsolutePath reports whether a reference denotes an absolute
// location. References written on one platform get rendered on
// another, so Windows drive and UNC forms count as absolute
// everywhere, alongside the host's own notion.
func isAbsolutePath(path string) bool {
	if filepath.IsAbs(path) {
		return true
	}
	if len(path) >= 3 && path[1] == ':' && (path[2] == '\\' || path[2] == '/') {
		c := path[0]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return true
		}
	}
	return len(path) >= 2 && (path[0] == '\\' || path[0] == '/') && (path[1] == '\\' || path[1] == '/')
}
