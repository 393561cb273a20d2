// Package ref parses book reference macros into normalized references.
//
// Authors cite a location inside a published work with an inline macro:
//
//	[[book::kjv | Genesis 1:1-3, Exodus 2 | web]]
//
// The macro body is a comma-space separated list of references, each of the
// form
//
//	[<collection> |] <title> [<chapter>[:<section>[,<section-range>...]]] [| <version>...]
//
// with an optional trailing "| <version>..." shared by every reference in the
// body. Collections and versions carry forward from one reference to the next
// until a later reference names its own.
//
// # Identifiers
//
// Every component of a parsed reference is an identifier: quotes stripped,
// letters lowercased, runs of anything that is not a letter or digit folded
// to a single hyphen, and leading or trailing hyphens trimmed. Titles are
// additionally mapped to a canonical book name through a CanonicalResolver.
//
// # Lookup tags
//
// A BookReference projects into the tag tuple used to look up matching
// content nodes:
//
//	C  collection   (0 or 1)
//	T  title        (exactly 1)
//	c  chapter      (0 or 1)
//	s  section      (0..n, in order)
//	v  version      (0..n, in order)
//
// # Example
//
//	p := ref.NewParser(ref.NewCanonicalResolver(ref.DefaultTable()))
//	for _, r := range p.ParseWikilink("[[book::John 3:16]]") {
//	    fmt.Println(r.Tags())
//	}
package ref
