// Package bundle reads content node bundles from disk.
//
// A bundle is a JSON or XML file listing nodes with their ordered tags.
// Files ending in .xz are decompressed on the fly.
//
// JSON:
//
//	{"nodes": [{"id": "...", "kind": 30040, "owner_key": "...", "created_at": 0,
//	            "tags": [["d", "book"], ["a", "30041:owner:ch-1"]], "content": "..."}]}
//
// XML:
//
//	<bundle>
//	  <node id="..." kind="30040" owner="..." created_at="0">
//	    <tag key="d">book</tag>
//	    <content>...</content>
//	  </node>
//	</bundle>
package bundle

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/Bookbinder/core/content"
	"github.com/FocuswithJustin/Bookbinder/core/errors"
)

// Format is a bundle encoding.
type Format string

// Supported bundle formats.
const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// Compiled once; xmlquery evaluates them against each document.
var (
	nodeExpr    = xpath.MustCompile("/bundle/node")
	tagExpr     = xpath.MustCompile("tag")
	contentExpr = xpath.MustCompile("content")
)

// DetectFormat picks a format from a file name, ignoring a trailing .xz.
func DetectFormat(path string) (Format, error) {
	name := strings.TrimSuffix(strings.ToLower(path), ".xz")
	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, nil
	case ".xml":
		return FormatXML, nil
	}
	return "", errors.NewValidation("bundle", fmt.Sprintf("cannot tell format of %s", path))
}

// Load reads a bundle file.
func Load(path string) ([]*content.Node, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(strings.ToLower(path), ".xz") {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, errors.NewParse("xz", path, err)
		}
		r = xr
	}

	nodes, err := Decode(r, format)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	return nodes, nil
}

// Decode reads a bundle in the given format.
func Decode(r io.Reader, format Format) ([]*content.Node, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(r)
	case FormatXML:
		return decodeXML(r)
	}
	return nil, errors.NewValidation("format", fmt.Sprintf("unsupported bundle format %q", format))
}

type jsonBundle struct {
	Nodes []jsonNode `json:"nodes"`
}

type jsonNode struct {
	ID        string     `json:"id"`
	Kind      int        `json:"kind"`
	OwnerKey  string     `json:"owner_key"`
	CreatedAt int64      `json:"created_at"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
}

func decodeJSON(r io.Reader) ([]*content.Node, error) {
	var b jsonBundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, errors.NewParse("JSON", "", err)
	}

	nodes := make([]*content.Node, 0, len(b.Nodes))
	for i, jn := range b.Nodes {
		n := &content.Node{
			ID:        jn.ID,
			OwnerKey:  jn.OwnerKey,
			Kind:      content.Kind(jn.Kind),
			CreatedAt: jn.CreatedAt,
			Body:      jn.Content,
		}
		for _, t := range jn.Tags {
			if len(t) < 2 {
				continue
			}
			n.Tags = append(n.Tags, content.Tag{Key: t[0], Value: t[1]})
		}
		if err := validate(n, i); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func decodeXML(r io.Reader) ([]*content.Node, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, errors.NewParse("XML", "", err)
	}

	var nodes []*content.Node
	for i, el := range xmlquery.QuerySelectorAll(doc, nodeExpr) {
		kind, ok := content.ParseKind(el.SelectAttr("kind"))
		if !ok {
			return nil, errors.NewValidation("kind", fmt.Sprintf("node %d: bad kind %q", i, el.SelectAttr("kind")))
		}
		n := &content.Node{
			ID:       el.SelectAttr("id"),
			OwnerKey: el.SelectAttr("owner"),
			Kind:     kind,
		}
		if v := el.SelectAttr("created_at"); v != "" {
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, errors.NewValidation("created_at", fmt.Sprintf("node %d: %v", i, err))
			}
			n.CreatedAt = ts
		}
		for _, t := range xmlquery.QuerySelectorAll(el, tagExpr) {
			n.Tags = append(n.Tags, content.Tag{Key: t.SelectAttr("key"), Value: t.InnerText()})
		}
		if c := xmlquery.QuerySelector(el, contentExpr); c != nil {
			n.Body = c.InnerText()
		}
		if err := validate(n, i); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func validate(n *content.Node, i int) error {
	if n.ID == "" {
		return errors.NewValidation("id", fmt.Sprintf("node %d has no id", i))
	}
	if n.OwnerKey == "" {
		return errors.NewValidation("owner_key", fmt.Sprintf("node %s has no owner", n.ID))
	}
	return nil
}

// Encode writes nodes as a JSON bundle.
func Encode(w io.Writer, nodes []*content.Node) error {
	b := jsonBundle{Nodes: make([]jsonNode, 0, len(nodes))}
	for _, n := range nodes {
		jn := jsonNode{
			ID:        n.ID,
			Kind:      int(n.Kind),
			OwnerKey:  n.OwnerKey,
			CreatedAt: n.CreatedAt,
			Content:   n.Body,
			Tags:      make([][]string, 0, len(n.Tags)),
		}
		for _, t := range n.Tags {
			jn.Tags = append(jn.Tags, []string{t.Key, t.Value})
		}
		b.Nodes = append(b.Nodes, jn)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return errors.Wrap(err, "failed to encode bundle")
	}
	_, err := w.Write(buf.Bytes())
	return err
}
