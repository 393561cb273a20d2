package ref

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// sectionGrammar is the participle grammar for the section list that follows
// a chapter. Items are comma separated; each item is a colon separated
// hierarchical path.
// Examples: "16", "1-3,5", "2:4,7-9"
//
//nolint:govet // participle grammar tags are not standard struct tags
type sectionGrammar struct {
	Items []*sectionItem `parser:"@@ ( \",\" @@ )*"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type sectionItem struct {
	Path []string `parser:"@Token ( \":\" @Token )*"`
}

// sectionLexer defines the lexer for section lists.
var sectionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Sep", Pattern: `[,:]`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Token", Pattern: `[^,:\s]+`},
})

// sectionParser is the participle parser for section lists.
var sectionParser = participle.MustBuild[sectionGrammar](
	participle.Lexer(sectionLexer),
	participle.Elide("Whitespace"),
)

// parseSections flattens and expands a section list. A colon path is
// joined with hyphens first, so "2:4" expands like "2-4". Every result is
// normalized. Input the grammar rejects (stray separators) falls
// back to plain splitting so a section list always produces a result.
func parseSections(text string) []string {
	text = strings.Join(strings.Fields(text), "")
	if text == "" {
		return nil
	}

	var paths [][]string
	if parsed, err := sectionParser.ParseString("", text); err == nil {
		for _, item := range parsed.Items {
			paths = append(paths, item.Path)
		}
	} else {
		for _, part := range strings.Split(text, ",") {
			paths = append(paths, strings.Split(part, ":"))
		}
	}

	var out []string
	for _, path := range paths {
		for _, s := range ExpandRange(strings.Join(path, "-")) {
			if id := NormalizeIdentifier(s); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}
