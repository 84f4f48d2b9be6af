package soft

import "strconv"

// placement is one \img occurrence in an event: the reference argument
// plus its optional x,y position arguments.
type placement struct {
	path string
	x, y int
}

// imgPlacements extracts \img(path[,x[,y]]) occurrences from one event
// text. The path argument follows the same syntax the reference
// scanner accepts; the position arguments are plain integers.
// Unterminated tags yield nothing.
func imgPlacements(s string) []placement {
	var out []placement

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
		j = skipBlank(s, j)
		if j >= len(s) || s[j] != '(' {
			continue
		}
		j = skipBlank(s, j+1)
		if j >= len(s) {
			continue
		}

		var path string
		if s[j] == '"' || s[j] == '\'' {
			quote := s[j]
			j++
			start := j
			for j < len(s) && s[j] != quote {
				j++
			}
			if j >= len(s) {
				continue
			}
			path = s[start:j]
			j++
		} else {
			start := j
			for j < len(s) && s[j] != ',' && s[j] != ')' {
				j++
			}
			if j >= len(s) {
				continue
			}
			path = s[start:j]
		}

		p := placement{path: path}
		p.x, j = parseArgInt(s, j)
		p.y, j = parseArgInt(s, j)
		if p.path != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseArgInt consumes ",<int>" at position j if present, returning
// the value (0 when absent) and the new position.
func parseArgInt(s string, j int) (int, int) {
	j = skipBlank(s, j)
	if j >= len(s) || s[j] != ',' {
		return 0, j
	}
	j = skipBlank(s, j+1)
	start := j
	for j < len(s) && (s[j] == '-' || (s[j] >= '0' && s[j] <= '9')) {
		j++
	}
	v, err := strconv.Atoi(s[start:j])
	if err != nil {
		return 0, j
	}
	return v, j
}

func skipBlank(s string, j int) int {
	for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
		j++
	}
	return j
}
