package ref

import "strings"

// segment is one pipe-delimited piece of a single reference.
type segment struct {
	text  string
	index int
	count int
}

func (s segment) multi() bool { return s.count > 1 }
func (s segment) last() bool  { return s.index == s.count-1 }

// segmentState accumulates the classification of a reference's segments.
type segmentState struct {
	inherited string // collection carried from an earlier reference

	collection    string
	collectionRaw string
	embedded      string // leading collection candidate seen while a collection is inherited
	main          []string
	versions      []string
	versionsFound bool
}

// segmentRule is one row of the disambiguation table.
type segmentRule struct {
	name  string
	match func(st *segmentState, seg segment) bool
	apply func(st *segmentState, seg segment)
}

// segmentRules is evaluated top to bottom for every segment; the first
// matching rule wins. The order is the grammar: a lone token leading a
// multi-segment reference is a collection even when it could also read as a
// one-word title.
var segmentRules = []segmentRule{
	{
		name: "collection",
		match: func(st *segmentState, seg segment) bool {
			return seg.index == 0 && seg.multi() && isCollectionCandidate(seg.text)
		},
		apply: func(st *segmentState, seg segment) {
			if st.inherited != "" {
				st.embedded = seg.text
				return
			}
			st.collection = NormalizeIdentifier(seg.text)
			st.collectionRaw = seg.text
		},
	},
	{
		name: "title-chapter",
		match: func(st *segmentState, seg segment) bool {
			if !wordDigitsPattern.MatchString(seg.text) {
				return false
			}
			// A second title-chapter shape at the tail is read as versions.
			return len(st.main) == 0 || !seg.last()
		},
		apply: appendMain,
	},
	{
		name: "version-list",
		match: func(st *segmentState, seg segment) bool {
			return seg.multi() && seg.last() && len(st.main) > 0
		},
		apply: func(st *segmentState, seg segment) {
			st.versions = parseVersions(seg.text)
			st.versionsFound = len(st.versions) > 0
		},
	},
	{
		name:  "main",
		match: func(*segmentState, segment) bool { return true },
		apply: appendMain,
	},
}

func appendMain(st *segmentState, seg segment) {
	st.main = append(st.main, seg.text)
}

// classify applies the first matching rule to seg and returns its name.
func (st *segmentState) classify(seg segment) string {
	for _, rule := range segmentRules {
		if rule.match(st, seg) {
			rule.apply(st, seg)
			return rule.name
		}
	}
	return ""
}

// finish handles a reference that named only a collection: the lone token
// becomes the title instead.
func (st *segmentState) finish() {
	if len(st.main) > 0 || st.embedded != "" {
		return
	}
	if st.collectionRaw != "" {
		st.main = []string{st.collectionRaw}
		st.collection = ""
		st.collectionRaw = ""
	}
}

// isCollectionCandidate reports whether text is a single token that cannot
// be a title-chapter pair.
func isCollectionCandidate(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, " \t\n\r") {
		return false
	}
	return !wordDigitsPattern.MatchString(text)
}
