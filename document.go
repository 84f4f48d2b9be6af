package subrender

import (
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Attachment is a single embedded asset from a subtitle document.
// Entry holds the raw entry block: a "filename:" header line followed
// by the UU-encoded body.
type Attachment struct {
	// Graphic reports whether the attachment came from a [Graphics]
	// section. Only graphic attachments are considered for image tags.
	Graphic bool

	// Entry is the raw entry block as stored in the document.
	Entry []byte
}

// Document is the read-only view of a loaded subtitle document that the
// provider consumes. The host application owns the underlying data.
type Document struct {
	// Filename is the path the document was loaded from, or empty if
	// the document has never been saved.
	Filename string

	// Payload is the raw serialized script content.
	Payload []byte

	// Attachments lists the document's embedded assets in order.
	Attachments []Attachment
}

// ScriptDir returns the directory containing the document, used to
// resolve relative image references. Empty if the document has no path.
func (d *Document) ScriptDir() string {
	if d == nil || d.Filename == "" {
		return ""
	}
	return filepath.Dir(d.Filename)
}

// NormalizePayload converts a raw subtitle payload to UTF-8.
//
// Scripts in the wild are UTF-8 (with or without BOM), UTF-16 with BOM,
// or a legacy single-byte codepage. BOMs win; otherwise valid UTF-8 is
// passed through unchanged and anything else is treated as
// Windows-1252, which maps every byte and therefore never fails.
func NormalizePayload(data []byte) []byte {
	if len(data) == 0 {
		return data
	}

	if hasUTFBOM(data) {
		dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		out, _, err := transform.Bytes(dec, data)
		if err == nil {
			return out
		}
		// fall through to the heuristics below
	}

	if utf8.Valid(data) {
		return data
	}

	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return data
	}
	return out
}

// hasUTFBOM reports whether data starts with a UTF-8 or UTF-16 BOM.
func hasUTFBOM(data []byte) bool {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return true
	}
	if len(data) >= 2 {
		if data[0] == 0xFF && data[1] == 0xFE {
			return true
		}
		if data[0] == 0xFE && data[1] == 0xFF {
			return true
		}
	}
	return false
}
