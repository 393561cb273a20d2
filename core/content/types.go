// Package content defines the published content nodes that the resolver and
// compositor operate on.
//
// A Node is either an index (a container that aggregates other nodes through
// `a` coordinate tags and `e` id tags) or a leaf carrying prose in its Body.
package content

import (
	"strconv"
	"strings"
)

// Kind is the numeric kind of a content node.
type Kind int

// Known node kinds. Every kind other than KindIndex is treated as a leaf.
const (
	KindIndex Kind = 30040
	KindLeaf  Kind = 30041
)

// IsIndex returns true if nodes of this kind aggregate other nodes.
func (k Kind) IsIndex() bool {
	return k == KindIndex
}

// String returns "index", "leaf", or the kind number for other kinds.
func (k Kind) String() string {
	switch k {
	case KindIndex:
		return "index"
	case KindLeaf:
		return "leaf"
	default:
		return strconv.Itoa(int(k))
	}
}

// ParseKind parses a kind number or one of the names "index" and "leaf".
func ParseKind(s string) (Kind, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "index":
		return KindIndex, true
	case "leaf":
		return KindLeaf, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return Kind(n), true
}

// Tag is a single key/value entry of a node's tag list.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Tags is an ordered multimap. Order is significant: the resolver uses tag
// positions to order a node's children.
type Tags []Tag

// First returns the value of the first tag with the given key.
func (t Tags) First(key string) (string, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// Value returns the first value for key, or "" if absent.
func (t Tags) Value(key string) string {
	v, _ := t.First(key)
	return v
}

// All returns every value for key in declaration order.
func (t Tags) All(key string) []string {
	var out []string
	for _, tag := range t {
		if tag.Key == key {
			out = append(out, tag.Value)
		}
	}
	return out
}

// Has returns true if at least one tag with the key is present.
func (t Tags) Has(key string) bool {
	_, ok := t.First(key)
	return ok
}

// Node is a published content node.
type Node struct {
	// ID is the unique node identifier.
	ID string `json:"id"`

	// OwnerKey identifies the author that owns the node.
	OwnerKey string `json:"owner_key"`

	// Kind tells index nodes from leaves.
	Kind Kind `json:"kind"`

	// Tags holds the node's ordered tag list.
	Tags Tags `json:"tags,omitempty"`

	// Body is the prose content (empty for most index nodes).
	Body string `json:"content,omitempty"`

	// CreatedAt is a unix timestamp. Among nodes sharing a coordinate the
	// newest one wins.
	CreatedAt int64 `json:"created_at,omitempty"`
}

// DTag returns the node's `d` identifier tag.
func (n *Node) DTag() string {
	return n.Tags.Value("d")
}

// Coordinate returns the coordinate under which this node is addressable.
func (n *Node) Coordinate() Coordinate {
	return Coordinate{Kind: n.Kind, OwnerKey: n.OwnerKey, DTag: n.DTag()}
}

// IsIndex returns true if the node aggregates other nodes.
func (n *Node) IsIndex() bool {
	return n.Kind.IsIndex()
}

// Coordinate names a node by kind, owner and `d` identifier rather than by id.
type Coordinate struct {
	Kind     Kind
	OwnerKey string
	DTag     string
}

// ParseCoordinate parses "kind:ownerKey:d-identifier". The d-identifier may
// itself contain colons. Incomplete triples are reported with ok=false.
func ParseCoordinate(s string) (Coordinate, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	if len(parts) != 3 {
		return Coordinate{}, false
	}
	kind, ok := ParseKind(parts[0])
	if !ok {
		return Coordinate{}, false
	}
	if parts[1] == "" || parts[2] == "" {
		return Coordinate{}, false
	}
	return Coordinate{Kind: kind, OwnerKey: parts[1], DTag: parts[2]}, true
}

// String returns the coordinate in "kind:ownerKey:d" form.
func (c Coordinate) String() string {
	return strconv.Itoa(int(c.Kind)) + ":" + c.OwnerKey + ":" + c.DTag
}
