package ref

import (
	"strings"

	"github.com/FocuswithJustin/Bookbinder/core/content"
)

// Lookup tag keys emitted by BookReference.Tags.
const (
	TagCollection = "C"
	TagTitle      = "T"
	TagChapter    = "c"
	TagSection    = "s"
	TagVersion    = "v"
)

// BookReference is a parsed, normalized reference to a location in a
// published work. Values are built once by the parser and never modified;
// the slice accessors return copies.
type BookReference struct {
	// Collection is the optional collection identifier (e.g., "kjv").
	Collection string `json:"collection,omitempty"`

	// Title is the canonical book identifier. Never empty for parsed input.
	Title string `json:"title"`

	// Chapter is the optional chapter identifier.
	Chapter string `json:"chapter,omitempty"`

	// Sections lists section identifiers in order. Duplicates are kept.
	Sections []string `json:"sections,omitempty"`

	// Versions lists version identifiers in order.
	Versions []string `json:"versions,omitempty"`
}

// newReference copies the slices so the returned value shares no state with
// the parser's working buffers.
func newReference(collection, title, chapter string, sections, versions []string) BookReference {
	return BookReference{
		Collection: collection,
		Title:      title,
		Chapter:    chapter,
		Sections:   cloneStrings(sections),
		Versions:   cloneStrings(versions),
	}
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Tags projects the reference into its lookup tuple: C (0..1), T (1),
// c (0..1), then one s per section and one v per version, in order.
func (r BookReference) Tags() content.Tags {
	tags := make(content.Tags, 0, 3+len(r.Sections)+len(r.Versions))
	if r.Collection != "" {
		tags = append(tags, content.Tag{Key: TagCollection, Value: r.Collection})
	}
	tags = append(tags, content.Tag{Key: TagTitle, Value: r.Title})
	if r.Chapter != "" {
		tags = append(tags, content.Tag{Key: TagChapter, Value: r.Chapter})
	}
	for _, s := range r.Sections {
		tags = append(tags, content.Tag{Key: TagSection, Value: s})
	}
	for _, v := range r.Versions {
		tags = append(tags, content.Tag{Key: TagVersion, Value: v})
	}
	return tags
}

// ReferenceToTags is the function form of BookReference.Tags.
func ReferenceToTags(r BookReference) content.Tags {
	return r.Tags()
}

// String renders the reference back into macro body form, e.g.
// "kjv | genesis 1:1,2,3 | web".
func (r BookReference) String() string {
	var sb strings.Builder
	if r.Collection != "" {
		sb.WriteString(r.Collection)
		sb.WriteString(" | ")
	}
	sb.WriteString(r.Title)
	if r.Chapter != "" {
		sb.WriteByte(' ')
		sb.WriteString(r.Chapter)
		if len(r.Sections) > 0 {
			sb.WriteByte(':')
			sb.WriteString(strings.Join(r.Sections, ","))
		}
	}
	if len(r.Versions) > 0 {
		sb.WriteString(" | ")
		sb.WriteString(strings.Join(r.Versions, " "))
	}
	return sb.String()
}
