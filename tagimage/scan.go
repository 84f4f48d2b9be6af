package tagimage

// CollectReferences extracts the image reference strings from a raw
// script payload. The result is deduplicated and keeps first-appearance
// order.
//
// Scanning is line-scoped: only Dialogue lines inside an [Events]
// section are considered, which keeps commented-out tags and stray
// matches in other sections from triggering decode work. Until a
// section header has been seen, dialogue-prefixed lines are treated as
// in scope.
func CollectReferences(data []byte) []string {
	var refs []string
	seen := make(map[string]struct{})

	sawSection := false
	inEvents := true

	lineStart := 0
	for i := 0; i <= len(data); i++ {
		if i < len(data) && data[i] != '\n' {
			continue
		}

		start, end := lineStart, i
		lineStart = i + 1

		if end > start && data[end-1] == '\r' {
			end--
		}
		for start < end && (data[start] == ' ' || data[start] == '\t') {
			start++
		}
		for end > start && (data[end-1] == ' ' || data[end-1] == '\t') {
			end--
		}
		if end <= start {
			continue
		}

		line := data[start:end]
		if line[0] == '[' && line[len(line)-1] == ']' {
			sawSection = true
			inEvents = isEventsSection(line[1 : len(line)-1])
			continue
		}

		if sawSection && !inEvents {
			continue
		}
		if !startsWithFold(line, "dialogue:") {
			continue
		}

		scanSpan(line, func(path string) {
			if _, dup := seen[path]; dup {
				return
			}
			seen[path] = struct{}{}
			refs = append(refs, path)
		})
	}

	return refs
}

// scanSpan finds \img(...) tags within one span of text and emits each
// extracted argument. A tag whose argument is not terminated before the
// end of the span yields nothing; scanning resumes from the byte after
// the backslash either way.
func scanSpan(s []byte, emit func(string)) {
	for i := 0; i+4 < len(s); i++ {
		if s[i] != '\\' {
			continue
		}

		j := i + 1
		if j < len(s) && s[j] >= '1' && s[j] <= '4' {
			j++
		}
		if j+2 >= len(s) {
			continue
		}
		if s[j] != 'i' || s[j+1] != 'm' || s[j+2] != 'g' {
			continue
		}

		j += 3
		for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
			j++
		}
		if j >= len(s) || s[j] != '(' {
			continue
		}

		j++
		for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
			j++
		}
		if j >= len(s) {
			continue
		}

		var start, end int
		if s[j] == '"' || s[j] == '\'' {
			quote := s[j]
			j++
			start = j
			for j < len(s) && s[j] != quote {
				j++
			}
			if j >= len(s) {
				continue // unterminated quote
			}
			end = j
		} else {
			start = j
			for j < len(s) && s[j] != ',' && s[j] != ')' {
				j++
			}
			if j >= len(s) {
				continue // no closing delimiter
			}
			end = j
		}
		if end <= start {
			continue
		}

		if path := StripQuotes(string(s[start:end])); path != "" {
			emit(path)
		}
	}
}

// isEventsSection reports whether a section header body (the text
// between the brackets, untrimmed) names the Events section.
func isEventsSection(body []byte) bool {
	start, end := 0, len(body)
	for start < end && (body[start] == ' ' || body[start] == '\t') {
		start++
	}
	for end > start && (body[end-1] == ' ' || body[end-1] == '\t') {
		end--
	}
	return end-start == len("events") && startsWithFold(body[start:end], "events")
}

// startsWithFold reports whether text begins with prefix, comparing
// ASCII case-insensitively. prefix must already be lower case.
func startsWithFold(text []byte, prefix string) bool {
	if len(text) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		c := text[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != prefix[i] {
			return false
		}
	}
	return true
}
