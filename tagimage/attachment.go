package tagimage

import (
	"bytes"
	"errors"
	"strings"

	"github.com/subgo/subrender"
	"github.com/subgo/subrender/internal/uuenc"
)

// Attachment entry errors. All of them mean "skip this attachment";
// none are surfaced past DecodeAttachments.
var (
	errNoHeader    = errors.New("tagimage: attachment entry has no header line")
	errNotFilename = errors.New("tagimage: attachment header is not filename:")
	errEmptyBody   = errors.New("tagimage: attachment body is empty")
)

// AttachmentSet holds the decoded graphic attachments of one document
// load, in document order, indexed by case-folded basename. Rebuilt
// whenever the document's attachment list changes.
type AttachmentSet struct {
	images []*Image
	byName map[string]*Image
}

// DecodeAttachments decodes every graphic attachment that parses and
// decodes cleanly. Failures are skipped silently (logged at debug);
// a self-contained document with a corrupt attachment still renders
// everything else.
func DecodeAttachments(attachments []subrender.Attachment) *AttachmentSet {
	set := &AttachmentSet{byName: make(map[string]*Image)}
	for i := range attachments {
		if !attachments[i].Graphic {
			continue
		}
		img, err := decodeAttachment(attachments[i].Entry)
		if err != nil {
			subrender.Logger().Debug("skipping attachment", "index", i, "error", err)
			continue
		}
		set.images = append(set.images, img)
		// First attachment with a given basename wins.
		if _, exists := set.byName[img.BasenameLower]; !exists {
			set.byName[img.BasenameLower] = img
		}
	}
	return set
}

// Images returns the decoded attachment images in document order.
func (s *AttachmentSet) Images() []*Image {
	if s == nil {
		return nil
	}
	return s.images
}

// Lookup finds an attachment image by case-folded basename.
func (s *AttachmentSet) Lookup(basenameLower string) (*Image, bool) {
	if s == nil {
		return nil, false
	}
	img, ok := s.byName[basenameLower]
	return img, ok
}

// Len returns the number of decoded attachment images.
func (s *AttachmentSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.images)
}

// decodeAttachment parses one raw attachment entry block: a
// "filename:" header line followed by the UU-encoded image body.
func decodeAttachment(entry []byte) (*Image, error) {
	headerEnd := bytes.IndexByte(entry, '\n')
	if headerEnd < 0 {
		return nil, errNoHeader
	}

	header := strings.TrimSpace(string(entry[:headerEnd]))
	if len(header) < len("filename:") || !strings.EqualFold(header[:len("filename:")], "filename:") {
		return nil, errNotFilename
	}

	filename := strings.TrimSpace(header[len("filename:"):])
	if filename == "" {
		return nil, errNotFilename
	}

	data := uuenc.Decode(entry[headerEnd+1:])
	if len(data) == 0 {
		return nil, errEmptyBody
	}

	return DecodeReference(filename, data)
}
