package ref

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// maxRangeSpan bounds range expansion; wider ranges are kept literally.
const maxRangeSpan = 1000

var rangePattern = regexp.MustCompile(`^(\d+)-(\d+)$`)

// isQuote reports whether r delimits a quoted span.
func isQuote(r rune) bool {
	return r == '"' || r == '“' || r == '”'
}

// isStripped reports whether r is removed outright during normalization
// rather than folded into a hyphen.
func isStripped(r rune) bool {
	switch r {
	case '"', '\'', '‘', '’', '“', '”', '`':
		return true
	}
	return false
}

// NormalizeIdentifier canonicalizes free-form reference text.
//
// Quotes and apostrophes are removed, letters lowercased, and every run of
// other non-alphanumeric runes collapses to a single hyphen. The result never
// starts or ends with a hyphen. The function is total and idempotent.
func NormalizeIdentifier(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))

	pendingHyphen := false
	for _, r := range text {
		switch {
		case isStripped(r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(unicode.ToLower(r))
		default:
			pendingHyphen = true
		}
	}

	return sb.String()
}

// ExpandRange expands "<int>-<int>" into the inclusive integer sequence.
// Reversed, malformed or oversized ranges are returned unchanged as a
// single-element slice.
func ExpandRange(token string) []string {
	m := rangePattern.FindStringSubmatch(token)
	if m == nil {
		return []string{token}
	}

	start, err1 := strconv.Atoi(m[1])
	end, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || start > end || end-start >= maxRangeSpan {
		return []string{token}
	}

	out := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return out
}

// ExpandRangeList splits a comma separated list and expands each part with
// ExpandRange, preserving order. Empty parts are skipped.
func ExpandRangeList(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, ExpandRange(part)...)
	}
	return out
}
