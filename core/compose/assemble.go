package compose

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/FocuswithJustin/Bookbinder/core/content"
	"github.com/FocuswithJustin/Bookbinder/core/graph"
)

// previewRunes is the length of a content preview used as a heading.
const previewRunes = 60

// Field is one ordered key/value entry of front matter or the metadata block.
type Field struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Section is one node of the assembled document.
type Section struct {
	HeadingDepth int       `json:"heading_depth"`
	HeadingText  string    `json:"heading_text"`
	Body         string    `json:"body,omitempty"`
	NodeID       string    `json:"node_id"`
	Nested       *Document `json:"nested,omitempty"`
}

// Document is an assembled document. MetadataBlock is only set on the
// outermost document of an assembly.
type Document struct {
	Ref           string    `json:"ref"`
	FrontMatter   []Field   `json:"front_matter,omitempty"`
	MetadataBlock []Field   `json:"metadata_block,omitempty"`
	Sections      []Section `json:"sections,omitempty"`
}

// FrontMatterValue returns the value of a front matter key, or "".
func (d *Document) FrontMatterValue(key string) string {
	for _, f := range d.FrontMatter {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// MetadataBlocks counts metadata blocks in the document and every nested
// document.
func (d *Document) MetadataBlocks() int {
	n := 0
	if len(d.MetadataBlock) > 0 {
		n++
	}
	for _, s := range d.Sections {
		if s.Nested != nil {
			n += s.Nested.MetadataBlocks()
		}
	}
	return n
}

// Assemble builds a document from a resolved graph. rootRef names the root
// (usually its coordinate). Only a document assembled with isTrueRoot gets a
// metadata block; nested branches are always assembled without one.
func Assemble(rootRef string, g *graph.ResolvedGraph, isTrueRoot bool) *Document {
	doc := &Document{Ref: rootRef}
	if g == nil || g.Root == nil {
		return doc
	}

	doc.FrontMatter = frontMatter(g.Root)
	if isTrueRoot {
		doc.MetadataBlock = metadataBlock(g.Root)
	}

	for _, c := range g.Children {
		n := c.Node()
		depth := Classify(n)
		s := Section{
			HeadingDepth: depth,
			HeadingText:  HeadingText(n),
			Body:         RenumberHeadings(n.Body, depth),
			NodeID:       n.ID,
		}
		if c.Branch != nil {
			s.Nested = Assemble(NodeRef(n), c.Branch, false)
		}
		doc.Sections = append(doc.Sections, s)
	}
	return doc
}

// NodeRef returns the node's coordinate string, or its id when it has no
// d tag or owner.
func NodeRef(n *content.Node) string {
	if n.DTag() != "" && n.OwnerKey != "" {
		return n.Coordinate().String()
	}
	return n.ID
}

// HeadingText picks the heading for a node's section: its title tag, else a
// "T c:s,s" composite from its reference tags, else a preview of its body,
// else its d tag.
func HeadingText(n *content.Node) string {
	if t := strings.TrimSpace(n.Tags.Value("title")); t != "" {
		return t
	}
	if c := composite(n.Tags); c != "" {
		return c
	}
	if p := preview(n.Body); p != "" {
		return p
	}
	return n.DTag()
}

func composite(tags content.Tags) string {
	title := strings.TrimSpace(tags.Value("T"))
	if title == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(title)
	if ch := strings.TrimSpace(tags.Value("c")); ch != "" {
		b.WriteString(" ")
		b.WriteString(ch)
		if sections := tags.All("s"); len(sections) > 0 {
			b.WriteString(":")
			b.WriteString(strings.Join(sections, ","))
		}
	}
	return b.String()
}

func preview(body string) string {
	text := strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:previewRunes])) + "..."
}

// frontMatter keys in output order.
var frontMatterKeys = []string{
	"title",
	"author",
	"doctype",
	"revnumber",
	"revdate",
	"source",
	"keywords",
	"summary",
	"front-cover-image",
}

func frontMatter(root *content.Node) []Field {
	tags := root.Tags

	doctype := "article"
	if root.IsIndex() {
		doctype = "book"
	}
	if t := strings.TrimSpace(tags.Value("type")); t != "" {
		doctype = t
	}

	summary := tags.Value("summary")
	if strings.TrimSpace(summary) == "" {
		summary = tags.Value("description")
	}

	values := map[string]string{
		"title":             tags.Value("title"),
		"author":            tags.Value("author"),
		"doctype":           doctype,
		"revnumber":         tags.Value("version"),
		"revdate":           formatDate(tags.Value("published_on")),
		"source":            tags.Value("source"),
		"keywords":          strings.Join(nonBlank(tags.All("t")), ", "),
		"summary":           summary,
		"front-cover-image": tags.Value("image"),
	}

	var out []Field
	for _, k := range frontMatterKeys {
		if v := strings.TrimSpace(values[k]); v != "" {
			out = append(out, Field{Key: k, Value: v})
		}
	}
	return out
}

// metadataFields maps metadata block labels to the root tags they read.
var metadataFields = []struct {
	label string
	tag   string
}{
	{"Title", "title"},
	{"Author", "author"},
	{"Version", "version"},
	{"Published", "published_on"},
	{"Source", "source"},
	{"Publisher", "publisher"},
	{"ISBN", "isbn"},
	{"Collection", "C"},
	{"Summary", "summary"},
	{"Description", "description"},
	{"Type", "type"},
	{"Identifier", "d"},
}

func metadataBlock(root *content.Node) []Field {
	var out []Field
	for _, f := range metadataFields {
		v := strings.TrimSpace(root.Tags.Value(f.tag))
		if f.tag == "published_on" {
			v = formatDate(v)
		}
		if v != "" {
			out = append(out, Field{Key: f.label, Value: v})
		}
	}
	return out
}

// formatDate renders a unix timestamp as a calendar date. Anything else is
// returned unchanged.
func formatDate(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return v
	}
	return time.Unix(sec, 0).UTC().Format("2006-01-02")
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
