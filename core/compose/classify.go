// Package compose assembles a resolved content graph into a single document.
//
// Each node becomes a section whose nominal heading depth comes from Classify.
// Headings embedded in node bodies are pushed below that depth by
// RenumberHeadings so they nest under the section heading. Front matter and
// the metadata block are taken from the root's tags; the metadata block is
// only emitted for the outermost document.
package compose

import "github.com/FocuswithJustin/Bookbinder/core/content"

// Heading depth bounds.
const (
	MinDepth = 3
	MaxDepth = 6
)

// Classify returns the nominal heading depth of a node: 3 for index nodes
// and for leaves without `s` tags, 4 for leaves that carry sections.
func Classify(n *content.Node) int {
	if n == nil || n.IsIndex() {
		return MinDepth
	}
	if n.Tags.Has("s") {
		return MinDepth + 1
	}
	return MinDepth
}
