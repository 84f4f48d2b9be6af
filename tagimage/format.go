// Package tagimage implements the \img override-tag engine: scanning
// subtitle text for image references, resolving them to pixel data
// from attachments or the filesystem, decoding to RGBA rasters, and
// keeping a renderer's registered image set in sync.
package tagimage

import "strings"

// Format identifies the container format of an image reference,
// derived from its filename extension.
type Format int

// Supported reference formats. Any other extension is not an image
// reference and is left for the renderer's own tag handling.
const (
	FormatNone Format = iota
	FormatPNG
	FormatJPEG
	FormatWEBP
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatWEBP:
		return "webp"
	default:
		return "none"
	}
}

// ParseFormat classifies a reference path by its extension,
// case-insensitively. Returns (FormatNone, false) for anything that is
// not .png, .jpg, .jpeg, or .webp.
func ParseFormat(path string) (Format, bool) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return FormatPNG, true
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return FormatJPEG, true
	case strings.HasSuffix(lower, ".webp"):
		return FormatWEBP, true
	}
	return FormatNone, false
}

// Basename returns the substring after the last slash or backslash.
// References can carry either separator regardless of platform.
func Basename(path string) string {
	if cut := strings.LastIndexAny(path, `/\`); cut >= 0 {
		return path[cut+1:]
	}
	return path
}

// StripQuotes trims surrounding whitespace and a single layer of
// matching single or double quotes, then trims again. The same logical
// path can appear quoted or unquoted in tag arguments and both forms
// must resolve identically.
func StripQuotes(path string) string {
	path = strings.TrimSpace(path)
	if len(path) >= 2 {
		quoted := (path[0] == '"' && path[len(path)-1] == '"') ||
			(path[0] == '\'' && path[len(path)-1] == '\'')
		if quoted {
			path = path[1 : len(path)-1]
		}
	}
	return strings.TrimSpace(path)
}

// Quote wraps a path in double quotes.
func Quote(path string) string {
	return `"` + path + `"`
}
