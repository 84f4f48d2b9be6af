// Package assparse extracts dialogue events from an ASS script.
//
// This is not a general subtitle parser: it reads just enough of the
// [Events] section for the built-in renderer to know what text is
// visible when. Everything else in the script is ignored.
package assparse

import (
	"strconv"
	"strings"
)

// Event is one Dialogue line of the [Events] section.
type Event struct {
	Layer int
	Start int64 // milliseconds
	End   int64 // milliseconds
	Style string
	Text  string // raw text field, override tags included
}

// defaultFormat is the field order assumed when a section carries no
// Format line, matching the standard ASS layout.
var defaultFormat = []string{
	"layer", "start", "end", "style", "name",
	"marginl", "marginr", "marginv", "effect", "text",
}

// Events parses the dialogue events of a script payload. Lines that do
// not parse are skipped. Events come back in file order.
func Events(payload []byte) []Event {
	var events []Event

	format := defaultFormat
	inEvents := false
	sawSection := false

	for _, rawLine := range strings.Split(string(payload), "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(rawLine, "\r"))
		if line == "" {
			continue
		}

		if line[0] == '[' && line[len(line)-1] == ']' {
			sawSection = true
			section := strings.TrimSpace(line[1 : len(line)-1])
			inEvents = strings.EqualFold(section, "events")
			if inEvents {
				format = defaultFormat
			}
			continue
		}
		if sawSection && !inEvents {
			continue
		}

		key, value, ok := splitDescriptor(line)
		if !ok {
			continue
		}
		switch {
		case strings.EqualFold(key, "format"):
			format = parseFormat(value)
		case strings.EqualFold(key, "dialogue"):
			if ev, ok := parseDialogue(format, value); ok {
				events = append(events, ev)
			}
		}
	}
	return events
}

// splitDescriptor splits "Key: value" at the first colon.
func splitDescriptor(line string) (key, value string, ok bool) {
	cut := strings.IndexByte(line, ':')
	if cut < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:cut]), strings.TrimLeft(line[cut+1:], " \t"), true
}

func parseFormat(value string) []string {
	fields := strings.Split(value, ",")
	format := make([]string, len(fields))
	for i, f := range fields {
		format[i] = strings.ToLower(strings.TrimSpace(f))
	}
	return format
}

// parseDialogue splits a dialogue value by the format field order. The
// final field soaks up remaining commas, which matters because Text is
// conventionally last and commonly contains commas.
func parseDialogue(format []string, value string) (Event, bool) {
	parts := strings.SplitN(value, ",", len(format))
	if len(parts) != len(format) {
		return Event{}, false
	}

	var ev Event
	haveStart, haveEnd := false, false
	for i, name := range format {
		field := parts[i]
		switch name {
		case "layer":
			ev.Layer, _ = strconv.Atoi(strings.TrimSpace(field))
		case "start":
			ms, ok := ParseTime(strings.TrimSpace(field))
			if !ok {
				return Event{}, false
			}
			ev.Start = ms
			haveStart = true
		case "end":
			ms, ok := ParseTime(strings.TrimSpace(field))
			if !ok {
				return Event{}, false
			}
			ev.End = ms
			haveEnd = true
		case "style":
			ev.Style = strings.TrimSpace(field)
		case "text":
			ev.Text = field
		}
	}
	if !haveStart || !haveEnd {
		return Event{}, false
	}
	return ev, true
}

// ParseTime parses an ASS timestamp of the form h:mm:ss.cc into
// milliseconds.
func ParseTime(s string) (int64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}

	secParts := strings.SplitN(parts[2], ".", 2)
	seconds, err := strconv.Atoi(secParts[0])
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, false
	}
	var centis int
	if len(secParts) == 2 {
		centis, err = strconv.Atoi(secParts[1])
		if err != nil || centis < 0 {
			return 0, false
		}
		// Normalize fractional digits to centiseconds.
		switch len(secParts[1]) {
		case 1:
			centis *= 10
		case 2:
			// already centiseconds
		case 3:
			centis /= 10
		default:
			return 0, false
		}
	}

	ms := int64(hours)*3600000 + int64(minutes)*60000 + int64(seconds)*1000 + int64(centis)*10
	return ms, true
}

// StripTags returns the visible text of an event: override blocks
// removed, hard breaks and hard spaces replaced. Lines in drawing mode
// would need the same treatment for \p, which the built-in renderer
// does not support.
func StripTags(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	depth := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '{':
			depth++
		case c == '}':
			if depth > 0 {
				depth--
			}
		case depth > 0:
			// inside an override block
		case c == '\\' && i+1 < len(text) && (text[i+1] == 'N' || text[i+1] == 'n'):
			b.WriteByte(' ')
			i++
		case c == '\\' && i+1 < len(text) && text[i+1] == 'h':
			b.WriteByte(' ')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}
