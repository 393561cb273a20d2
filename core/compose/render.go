package compose

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/Bookbinder/core/errors"
)

// Format is an output markup.
type Format string

// Supported formats.
const (
	FormatAsciiDoc Format = "adoc"
	FormatMarkdown Format = "md"
)

// ParseFormat accepts "adoc", "asciidoc", "md" and "markdown".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "adoc", "asciidoc":
		return FormatAsciiDoc, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", errors.NewValidation("format", fmt.Sprintf("unsupported format %q", s))
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Render writes doc to w. Nested documents are flattened into the parent
// stream right after their branch heading.
func Render(w io.Writer, doc *Document, format Format) error {
	bw := bufio.NewWriter(w)
	var err error
	switch format {
	case FormatAsciiDoc:
		err = renderAsciiDoc(bw, doc)
	case FormatMarkdown:
		err = renderMarkdown(bw, doc)
	default:
		return errors.NewValidation("format", fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

func renderAsciiDoc(w *bufio.Writer, doc *Document) error {
	if title := doc.FrontMatterValue("title"); title != "" {
		fmt.Fprintf(w, "= %s\n", title)
	}
	for _, f := range doc.FrontMatter {
		if f.Key == "title" {
			continue
		}
		fmt.Fprintf(w, ":%s: %s\n", f.Key, f.Value)
	}
	if len(doc.FrontMatter) > 0 {
		w.WriteString("\n")
	}

	if len(doc.MetadataBlock) > 0 {
		for _, f := range doc.MetadataBlock {
			fmt.Fprintf(w, "%s:: %s\n", f.Key, f.Value)
		}
		w.WriteString("\n")
	}

	writeSections(w, doc.Sections, '=')
	return nil
}

func renderMarkdown(w *bufio.Writer, doc *Document) error {
	if len(doc.FrontMatter) > 0 {
		out, err := frontMatterYAML(doc.FrontMatter)
		if err != nil {
			return errors.Wrap(err, "failed to encode front matter")
		}
		w.WriteString("---\n")
		w.Write(out)
		w.WriteString("---\n\n")
	}

	if len(doc.MetadataBlock) > 0 {
		for _, f := range doc.MetadataBlock {
			fmt.Fprintf(w, "- **%s:** %s\n", f.Key, f.Value)
		}
		w.WriteString("\n")
	}

	writeSections(w, doc.Sections, '#')
	return nil
}

// frontMatterYAML encodes fields as a YAML mapping in their given order.
func frontMatterYAML(fields []Field) ([]byte, error) {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fields {
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: f.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: f.Value},
		)
	}
	return yaml.Marshal(m)
}

func writeSections(w *bufio.Writer, sections []Section, marker byte) {
	for _, s := range sections {
		fmt.Fprintf(w, "%s %s\n\n", strings.Repeat(string(marker), s.HeadingDepth), s.HeadingText)
		if body := strings.TrimRight(s.Body, "\n"); body != "" {
			w.WriteString(body)
			w.WriteString("\n\n")
		}
		if s.Nested != nil {
			writeSections(w, s.Nested.Sections, marker)
		}
	}
}
