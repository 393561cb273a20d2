package compose

import "strings"

// fenceMarkers open and close literal blocks whose lines are never treated
// as headings. Backtick and tilde fences match by prefix, the AsciiDoc
// listing and literal delimiters must stand alone on their line.
var fenceMarkers = []struct {
	marker string
	prefix bool
}{
	{"```", true},
	{"~~~", true},
	{"----", false},
	{"....", false},
}

// RenumberHeadings rewrites every heading line in body so that it sits below
// a section of the given depth. A heading of level L becomes level
// min(6, max(L+1, sectionDepth+1)). Heading lines are runs of `#` or `=`
// followed by a space or tab; the marker character is kept. Lines inside
// fenced or delimited literal blocks are left alone. A fence without a
// closing delimiter is treated as ordinary text.
func RenumberHeadings(body string, sectionDepth int) string {
	if body == "" {
		return body
	}

	lines := strings.Split(body, "\n")
	open := ""
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if open != "" {
			if closesFence(line, open) {
				open = ""
			}
			continue
		}
		if m := openingFence(line); m != "" && hasClosingFence(lines[i+1:], m) {
			open = m
			continue
		}

		if marker, level, rest, ok := parseHeading(line); ok {
			lines[i] = strings.Repeat(string(marker), targetLevel(level, sectionDepth)) + rest
		}
	}
	return strings.Join(lines, "\n")
}

func targetLevel(level, sectionDepth int) int {
	return min(MaxDepth, max(level+1, sectionDepth+1))
}

// parseHeading splits a heading line into its marker rune, level and the
// remainder starting at the separating whitespace.
func parseHeading(line string) (marker byte, level int, rest string, ok bool) {
	if line == "" || (line[0] != '#' && line[0] != '=') {
		return 0, 0, "", false
	}
	marker = line[0]
	n := 0
	for n < len(line) && line[n] == marker {
		n++
	}
	if n == len(line) || (line[n] != ' ' && line[n] != '\t') {
		return 0, 0, "", false
	}
	if strings.TrimSpace(line[n:]) == "" {
		return 0, 0, "", false
	}
	return marker, n, line[n:], true
}

func openingFence(line string) string {
	trimmed := strings.TrimSpace(line)
	for _, f := range fenceMarkers {
		if f.prefix && strings.HasPrefix(trimmed, f.marker) {
			return f.marker
		}
		if !f.prefix && trimmed == f.marker {
			return f.marker
		}
	}
	return ""
}

func closesFence(line, marker string) bool {
	trimmed := strings.TrimSpace(line)
	if marker == "```" || marker == "~~~" {
		return strings.HasPrefix(trimmed, marker) && strings.Trim(trimmed, marker[:1]) == ""
	}
	return trimmed == marker
}

func hasClosingFence(lines []string, marker string) bool {
	for _, l := range lines {
		if closesFence(l, marker) {
			return true
		}
	}
	return false
}
