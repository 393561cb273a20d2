package ref

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Macro delimiters.
const (
	macroOpen   = "[["
	macroClose  = "]]"
	macroPrefix = "book::"
)

var (
	// wordDigitsPattern matches the "<word> <digits>" shape of a title
	// followed by a chapter number.
	wordDigitsPattern = regexp.MustCompile(`\S\s+\d`)

	// chapterSectionPattern matches a "digit:digit" chapter:section shape.
	chapterSectionPattern = regexp.MustCompile(`\d\s*:\s*\d`)

	// mainPattern splits "<title> <chapter>[:<sections>]".
	mainPattern = regexp.MustCompile(`^(.+?)\s+(\d+[A-Za-z]?)(?:\s*:\s*(.*))?$`)

	// macroPattern finds book macros in free text.
	macroPattern = regexp.MustCompile(`\[\[\s*book::(?:[^\]]|\][^\]])*\]\]`)

	bareIntegerPattern = regexp.MustCompile(`^\d+$`)

	// numberedChapterPattern splits "<book>:<chapter>" under numbered
	// collections.
	numberedChapterPattern = regexp.MustCompile(`^(\d+)\s*:\s*(\S.*)$`)
)

// Parser turns macro text into BookReference values. A Parser is immutable
// and safe for concurrent use.
type Parser struct {
	names   *CanonicalResolver
	numeric map[string]int
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithNumericCollection registers a collection whose books are numbered
// rather than named. A bare integer title in [1, limit] under that collection
// is kept verbatim instead of going through the name table.
func WithNumericCollection(name string, limit int) ParserOption {
	return func(p *Parser) {
		if id := NormalizeIdentifier(name); id != "" && limit > 0 {
			p.numeric[id] = limit
		}
	}
}

// DefaultNumericCollection is the numbered-surah collection registered by
// NewParser.
const (
	DefaultNumericCollection    = "quran"
	DefaultNumericCollectionMax = 114
)

// NewParser creates a parser that resolves titles through names.
func NewParser(names *CanonicalResolver, opts ...ParserOption) *Parser {
	p := &Parser{
		names:   names,
		numeric: map[string]int{DefaultNumericCollection: DefaultNumericCollectionMax},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FindWikilinks returns every book macro in text, in order of appearance.
func FindWikilinks(text string) []string {
	return macroPattern.FindAllString(text, -1)
}

// ParseWikilink parses a full macro such as "[[book::John 3:16]]" into its
// references. It returns nil when no reference could be produced.
func (p *Parser) ParseWikilink(raw string) []BookReference {
	body := stripMacro(raw)
	if body == "" {
		return nil
	}

	body, global := splitGlobalVersions(body)

	var (
		refs       []BookReference
		collection string
		versions   []string
	)
	for _, part := range splitUnquoted(body, ", ") {
		inherit := versions
		if len(global) > 0 {
			inherit = global
		}
		r := p.ParseSingleReference(part, collection, inherit)
		if r == nil {
			continue
		}
		if r.Collection != "" {
			collection = r.Collection
		}
		if len(r.Versions) > 0 {
			versions = r.Versions
		}
		refs = append(refs, *r)
	}

	return refs
}

// stripMacro removes the [[ ]] delimiters and the book:: prefix.
func stripMacro(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, macroOpen)
	s = strings.TrimSuffix(s, macroClose)
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, macroPrefix)
	return strings.TrimSpace(s)
}

// splitGlobalVersions detects a trailing "| <versions>" that applies to
// every reference in the body. The suffix counts as global only when it has
// no chapter:section shape and the text before it either carries one or
// lists several references.
func splitGlobalVersions(body string) (string, []string) {
	idx := lastUnquoted(body, '|')
	if idx < 0 {
		return body, nil
	}

	before := strings.TrimSpace(body[:idx])
	after := strings.TrimSpace(body[idx+1:])
	if after == "" || before == "" || chapterSectionPattern.MatchString(after) {
		return body, nil
	}
	if !chapterSectionPattern.MatchString(before) && !strings.Contains(before, ", ") {
		return body, nil
	}

	return before, parseVersions(after)
}

// ParseSingleReference parses one reference. inheritedCollection and
// inheritedVersions come from earlier references in the same macro; a
// locally specified version list always replaces the inherited one.
// Empty input yields nil.
func (p *Parser) ParseSingleReference(text, inheritedCollection string, inheritedVersions []string) *BookReference {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	st := &segmentState{inherited: NormalizeIdentifier(inheritedCollection)}
	segments := splitUnquoted(text, "|")
	for i, raw := range segments {
		seg := segment{text: strings.TrimSpace(raw), index: i, count: len(segments)}
		if seg.text == "" {
			continue
		}
		st.classify(seg)
	}
	st.finish()

	mainText := strings.Join(st.main, " | ")
	if st.embedded != "" {
		mainText = st.embedded + " | " + mainText
	}
	if idx := firstUnquoted(mainText, '|'); idx >= 0 {
		left := strings.TrimSpace(mainText[:idx])
		if st.collection == "" && isCollectionCandidate(left) {
			st.collection = NormalizeIdentifier(left)
			mainText = strings.TrimSpace(mainText[idx+1:])
		}
	}

	collection := st.collection
	if collection == "" {
		collection = st.inherited
	}

	titleText, chapterText, sectionText := p.splitNumbered(mainText, collection)
	if titleText == "" {
		titleText, chapterText, sectionText = splitMain(mainText)
	}
	title := p.resolveTitle(titleText, collection)
	if title == "" {
		// Nothing usable in the main content; fall back to the raw text.
		title = NormalizeIdentifier(text)
		if title == "" {
			return nil
		}
	}

	var sections []string
	chapter := NormalizeIdentifier(chapterText)
	if chapter != "" && sectionText != "" {
		sections = parseSections(sectionText)
	}

	versions := inheritedVersions
	if st.versionsFound {
		versions = st.versions
	}

	r := newReference(collection, title, chapter, sections, versions)
	return &r
}

// splitMain matches "<title> <chapter>[:<sections>]". When no chapter is
// present the whole text is the title.
func splitMain(text string) (title, chapter, sections string) {
	text = strings.TrimSpace(text)
	m := mainPattern.FindStringSubmatch(text)
	if m == nil {
		return text, "", ""
	}
	return m[1], m[2], strings.TrimSpace(m[3])
}

// splitNumbered reads "<book>:<chapter>" under a numbered collection, where
// the book is an integer within the collection's limit. It returns an empty
// title when text has another shape.
func (p *Parser) splitNumbered(text, collection string) (title, chapter, sections string) {
	limit, ok := p.numeric[collection]
	if !ok {
		return "", "", ""
	}
	m := numberedChapterPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", "", ""
	}
	if n, err := strconv.Atoi(m[1]); err != nil || n < 1 || n > limit {
		return "", "", ""
	}
	rest := strings.TrimSpace(m[2])
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		return m[1], strings.TrimSpace(rest[:i]), strings.TrimSpace(rest[i+1:])
	}
	return m[1], rest, ""
}

// resolveTitle maps title text to its canonical identifier, keeping bare
// surah-style numerals verbatim under numbered collections.
func (p *Parser) resolveTitle(text, collection string) string {
	text = strings.TrimSpace(text)
	if limit, ok := p.numeric[collection]; ok && bareIntegerPattern.MatchString(text) {
		if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= limit {
			return text
		}
	}
	return p.names.Resolve(text)
}

// parseVersions splits a whitespace separated version list.
func parseVersions(text string) []string {
	var out []string
	for _, tok := range strings.Fields(text) {
		if id := NormalizeIdentifier(tok); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// splitUnquoted splits s on sep, ignoring separators inside quoted spans.
func splitUnquoted(s, sep string) []string {
	var (
		parts  []string
		start  int
		quoted bool
	)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if isQuote(r) {
			quoted = !quoted
		} else if !quoted && strings.HasPrefix(s[i:], sep) {
			parts = append(parts, s[start:i])
			i += len(sep)
			start = i
			continue
		}
		i += size
	}
	return append(parts, s[start:])
}

// lastUnquoted returns the byte index of the last b outside quoted spans,
// or -1.
func lastUnquoted(s string, b byte) int {
	last := -1
	quoted := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if isQuote(r) {
			quoted = !quoted
		} else if !quoted && s[i] == b {
			last = i
		}
		i += size
	}
	return last
}

// firstUnquoted returns the byte index of the first b outside quoted spans,
// or -1.
func firstUnquoted(s string, b byte) int {
	quoted := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if isQuote(r) {
			quoted = !quoted
		} else if !quoted && s[i] == b {
			return i
		}
		i += size
	}
	return -1
}
