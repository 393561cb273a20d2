package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/FocuswithJustin/Bookbinder/core/compose"
	"github.com/FocuswithJustin/Bookbinder/core/content"
	"github.com/FocuswithJustin/Bookbinder/core/graph"
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// useColor decides whether tree output to w is coloured. NO_COLOR is
// honoured through color.NoColor.
func useColor(w io.Writer, disabled bool) bool {
	return !disabled && !color.NoColor && isTerminal(w)
}

// treePrinter draws a resolved graph as an indented tree.
type treePrinter struct {
	w      io.Writer
	root   *color.Color
	branch *color.Color
	leaf   *color.Color
	ref    *color.Color
}

func newTreePrinter(w io.Writer, colorize bool) *treePrinter {
	p := &treePrinter{
		w:      w,
		root:   color.New(color.FgGreen, color.Bold),
		branch: color.New(color.FgCyan, color.Bold),
		leaf:   color.New(color.FgWhite),
		ref:    color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.root, p.branch, p.leaf, p.ref} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Print writes the root line, the tree and a one-line summary.
func (p *treePrinter) Print(g *graph.ResolvedGraph) {
	fmt.Fprintf(p.w, "%s %s\n", p.root.Sprint(compose.HeadingText(g.Root)), p.ref.Sprint(refLabel(g.Root)))
	p.children(g, "")

	branches, leaves := 0, 0
	g.Walk(func(_ int, c graph.Child) bool {
		if c.IsBranch() {
			branches++
		} else {
			leaves++
		}
		return true
	})
	fmt.Fprintf(p.w, "\n%d branch(es), %d leaf node(s)\n", branches, leaves)
}

func (p *treePrinter) children(g *graph.ResolvedGraph, prefix string) {
	for i, c := range g.Children {
		last := i == len(g.Children)-1
		connector, indent := "├── ", "│   "
		if last {
			connector, indent = "└── ", "    "
		}
		fmt.Fprintf(p.w, "%s%s%s\n", prefix, connector, p.label(c))
		if c.Branch != nil {
			p.children(c.Branch, prefix+indent)
		}
	}
}

func (p *treePrinter) label(c graph.Child) string {
	n := c.Node()
	style := p.leaf
	if c.IsBranch() {
		style = p.branch
	}
	return style.Sprint(compose.HeadingText(n)) + " " + p.ref.Sprint(refLabel(n))
}

// refLabel shows the coordinate of addressable nodes and the id otherwise.
func refLabel(n *content.Node) string {
	if r := compose.NodeRef(n); r != n.ID {
		return r
	}
	return "id:" + n.ID
}
