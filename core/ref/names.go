package ref

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// NameEntry is one row of a canonical name table.
type NameEntry struct {
	// Display is the human-facing name (e.g., "Song of Songs").
	Display string `yaml:"display" json:"display"`

	// Long is the canonical long name; resolved titles take its normalized form.
	Long string `yaml:"long" json:"long"`

	// Short is the canonical abbreviation (e.g., "Gen", "1John").
	Short string `yaml:"short,omitempty" json:"short,omitempty"`
}

// nameTableFile is the on-disk layout read by LoadTable.
type nameTableFile struct {
	Books []NameEntry `yaml:"books"`
}

// LoadTable reads a YAML name table of the form
//
//	books:
//	  - display: Genesis
//	    long: Genesis
//	    short: Gen
func LoadTable(r io.Reader) ([]NameEntry, error) {
	var f nameTableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode name table: %w", err)
	}

	for i, e := range f.Books {
		if strings.TrimSpace(e.Long) == "" {
			return nil, fmt.Errorf("name table entry %d (%q): long name is required", i, e.Display)
		}
	}
	return f.Books, nil
}

// nameKey is one lookup key in table order.
type nameKey struct {
	key  string
	long string
}

// CanonicalResolver maps free-form title text to a canonical identifier.
// It is immutable after construction and safe for concurrent use.
type CanonicalResolver struct {
	exact map[string]string
	keys  []nameKey
}

// NewCanonicalResolver indexes the table by normalized long, short and
// display names. When two entries produce the same key the first one wins.
func NewCanonicalResolver(table []NameEntry) *CanonicalResolver {
	r := &CanonicalResolver{
		exact: make(map[string]string, len(table)*3),
	}

	for _, e := range table {
		long := NormalizeIdentifier(e.Long)
		if long == "" {
			continue
		}
		for _, raw := range []string{e.Long, e.Short, e.Display} {
			key := NormalizeIdentifier(raw)
			if key == "" {
				continue
			}
			if _, exists := r.exact[key]; exists {
				continue
			}
			r.exact[key] = long
			r.keys = append(r.keys, nameKey{key: key, long: long})
		}
	}

	return r
}

// Resolve returns the canonical identifier for input.
//
// An exact key hit wins. Otherwise the first key, in table order, that
// contains the normalized input or is contained in it decides. Unknown
// titles come back normalized but otherwise unchanged.
func (r *CanonicalResolver) Resolve(input string) string {
	norm := NormalizeIdentifier(input)
	if norm == "" || r == nil {
		return norm
	}

	if long, ok := r.exact[norm]; ok {
		return long
	}

	for _, k := range r.keys {
		if strings.Contains(k.key, norm) || strings.Contains(norm, k.key) {
			return k.long
		}
	}

	return norm
}

// Len returns the number of distinct lookup keys.
func (r *CanonicalResolver) Len() int {
	return len(r.keys)
}
