package ref

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/Bookbinder/core/content"
)

func newTestParser() *Parser {
	return NewParser(NewCanonicalResolver(DefaultTable()))
}

func TestParseWikilink(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []BookReference
	}{
		{
			name:  "single verse",
			input: "[[book::John 3:16]]",
			want:  []BookReference{{Title: "john", Chapter: "3", Sections: []string{"16"}}},
		},
		{
			name:  "inherited collection",
			input: "[[book::kjv | Genesis 1:1-3, Exodus 2]]",
			want: []BookReference{
				{Collection: "kjv", Title: "genesis", Chapter: "1", Sections: []string{"1", "2", "3"}},
				{Collection: "kjv", Title: "exodus", Chapter: "2"},
			},
		},
		{
			name:  "local version",
			input: "[[book::John 3:16 | KJV]]",
			want:  []BookReference{{Title: "john", Chapter: "3", Sections: []string{"16"}, Versions: []string{"kjv"}}},
		},
		{
			name:  "global trailing versions",
			input: "[[book::John 3:16, Romans 8:28 | kjv drb]]",
			want: []BookReference{
				{Title: "john", Chapter: "3", Sections: []string{"16"}, Versions: []string{"kjv", "drb"}},
				{Title: "romans", Chapter: "8", Sections: []string{"28"}, Versions: []string{"kjv", "drb"}},
			},
		},
		{
			name:  "global versions fill references without a local one",
			input: "[[book::John 3:16 | niv, Romans 8:28 | kjv]]",
			want: []BookReference{
				{Title: "john", Chapter: "3", Sections: []string{"16"}, Versions: []string{"niv"}},
				{Title: "romans", Chapter: "8", Sections: []string{"28"}, Versions: []string{"kjv"}},
			},
		},
		{
			name:  "collection, reference and version",
			input: "[[book::bible | 1 John 4:7,8 | web]]",
			want: []BookReference{
				{Collection: "bible", Title: "1-john", Chapter: "4", Sections: []string{"7", "8"}, Versions: []string{"web"}},
			},
		},
		{
			name:  "versions carry forward",
			input: "[[book::Genesis 1 | kjv, Exodus 2]]",
			want: []BookReference{
				{Title: "genesis", Chapter: "1", Versions: []string{"kjv"}},
				{Title: "exodus", Chapter: "2", Versions: []string{"kjv"}},
			},
		},
		{
			name:  "bare title",
			input: "[[book::Ruth]]",
			want:  []BookReference{{Title: "ruth"}},
		},
		{
			name:  "title and chapter only",
			input: "[[book::Psalm 23]]",
			want:  []BookReference{{Title: "psalms", Chapter: "23"}},
		},
		{
			name:  "lone token before pipe is a collection",
			input: "[[book::Genesis | kjv]]",
			want:  []BookReference{{Collection: "genesis", Title: "kjv"}},
		},
		{
			name:  "lone collection without title becomes the title",
			input: "[[book::Jude |]]",
			want:  []BookReference{{Title: "jude"}},
		},
		{
			name:  "numeric surah kept verbatim",
			input: "[[book::quran | 2 255]]",
			want:  []BookReference{{Collection: "quran", Title: "2", Chapter: "255"}},
		},
		{
			name:  "numeric surah with colon chapter",
			input: "[[book::quran | 2:255]]",
			want:  []BookReference{{Collection: "quran", Title: "2", Chapter: "255"}},
		},
		{
			name:  "numeric surah with chapter and sections",
			input: "[[book::quran | 2:255:1-2]]",
			want:  []BookReference{{Collection: "quran", Title: "2", Chapter: "255", Sections: []string{"1", "2"}}},
		},
		{
			name:  "numeric surah out of range is not split",
			input: "[[book::quran | 200:1]]",
			want:  []BookReference{{Collection: "quran", Title: "200-1"}},
		},
		{
			name:  "numeric title outside surah collection resolves",
			input: "[[book::bible | 3 1]]",
			want:  []BookReference{{Collection: "bible", Title: "3-john", Chapter: "1"}},
		},
		{
			name:  "quoted title keeps its pipe",
			input: `[[book::"Letters | Essays" 2:1]]`,
			want:  []BookReference{{Title: "letters-essays", Chapter: "2", Sections: []string{"1"}}},
		},
		{
			name:  "hierarchical section path",
			input: "[[book::Sirach 44:1:2]]",
			want:  []BookReference{{Title: "sirach", Chapter: "44", Sections: []string{"1", "2"}}},
		},
		{
			name:  "section path flattened then expanded",
			input: "[[book::Genesis 1:2:4]]",
			want:  []BookReference{{Title: "genesis", Chapter: "1", Sections: []string{"2", "3", "4"}}},
		},
		{
			name:  "reversed range kept literally",
			input: "[[book::John 3:18-16]]",
			want:  []BookReference{{Title: "john", Chapter: "3", Sections: []string{"18-16"}}},
		},
		{
			name:  "duplicate sections preserved",
			input: "[[book::John 3:16,16]]",
			want:  []BookReference{{Title: "john", Chapter: "3", Sections: []string{"16", "16"}}},
		},
		{
			name:  "explicit collection replaces inherited one",
			input: "[[book::kjv | John 1:1, drb | Luke 2:1]]",
			want: []BookReference{
				{Collection: "kjv", Title: "john", Chapter: "1", Sections: []string{"1"}},
				{Collection: "drb", Title: "luke", Chapter: "2", Sections: []string{"1"}},
			},
		},
		{
			name:  "empty macro",
			input: "[[book::]]",
			want:  nil,
		},
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ParseWikilink(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseWikilink(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseSingleReference(t *testing.T) {
	p := newTestParser()

	if got := p.ParseSingleReference("   ", "", nil); got != nil {
		t.Errorf("ParseSingleReference(blank) = %+v, want nil", got)
	}

	inherited := []string{"kjv"}
	got := p.ParseSingleReference("Mark 1:1", "bible", inherited)
	want := &BookReference{Collection: "bible", Title: "mark", Chapter: "1", Sections: []string{"1"}, Versions: []string{"kjv"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("inherited context mismatch (-want +got):\n%s", diff)
	}

	// The returned reference does not alias the caller's slice.
	inherited[0] = "changed"
	if got.Versions[0] != "kjv" {
		t.Errorf("Versions aliased the inherited slice: %v", got.Versions)
	}

	got = p.ParseSingleReference("Mark 1:1 | web", "", inherited)
	if diff := cmp.Diff([]string{"web"}, got.Versions); diff != "" {
		t.Errorf("local versions should override inherited (-want +got):\n%s", diff)
	}
}

func TestParseSingleReferenceTitleNeverEmpty(t *testing.T) {
	p := newTestParser()
	inputs := []string{"x", "|", "a | b | c", "3:16", "kjv |", `""`, "-- | --"}
	for _, in := range inputs {
		got := p.ParseSingleReference(in, "", nil)
		if got == nil {
			continue
		}
		if got.Title == "" {
			t.Errorf("ParseSingleReference(%q) produced empty title: %+v", in, got)
		}
	}
}

func TestSegmentRules(t *testing.T) {
	tests := []struct {
		name      string
		inherited string
		segments  []string
		want      []string
	}{
		{"collection then main", "", []string{"kjv", "John 3:16"}, []string{"collection", "title-chapter"}},
		{"main then versions", "", []string{"John 3:16", "kjv web"}, []string{"title-chapter", "version-list"}},
		{"three segments", "", []string{"kjv", "John 3", "web"}, []string{"collection", "title-chapter", "version-list"}},
		{"tail title-chapter reads as version", "", []string{"John 3:16", "NIV 2011"}, []string{"title-chapter", "version-list"}},
		{"lone token with inherited collection", "kjv", []string{"drb", "Luke 2"}, []string{"collection", "title-chapter"}},
		{"single segment", "", []string{"Ruth"}, []string{"main"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &segmentState{inherited: tt.inherited}
			var got []string
			for i, text := range tt.segments {
				got = append(got, st.classify(segment{text: text, index: i, count: len(tt.segments)}))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("rule names mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReferenceToTags(t *testing.T) {
	r := BookReference{
		Collection: "kjv",
		Title:      "john",
		Chapter:    "3",
		Sections:   []string{"16", "17", "16"},
		Versions:   []string{"kjv", "web"},
	}

	want := content.Tags{
		{Key: "C", Value: "kjv"},
		{Key: "T", Value: "john"},
		{Key: "c", Value: "3"},
		{Key: "s", Value: "16"},
		{Key: "s", Value: "17"},
		{Key: "s", Value: "16"},
		{Key: "v", Value: "kjv"},
		{Key: "v", Value: "web"},
	}
	if diff := cmp.Diff(want, ReferenceToTags(r)); diff != "" {
		t.Errorf("ReferenceToTags mismatch (-want +got):\n%s", diff)
	}
}

func TestReferenceToTagsCardinality(t *testing.T) {
	p := newTestParser()
	macros := []string{
		"[[book::John 3:16]]",
		"[[book::kjv | Genesis 1:1-3, Exodus 2]]",
		"[[book::Ruth]]",
		"[[book::John 3:16, Romans 8:28 | kjv drb]]",
	}

	for _, m := range macros {
		for _, r := range p.ParseWikilink(m) {
			tags := r.Tags()
			if n := len(tags.All(TagTitle)); n != 1 {
				t.Errorf("%s: %d T tags, want 1", m, n)
			}
			if n := len(tags.All(TagCollection)); n > 1 {
				t.Errorf("%s: %d C tags, want at most 1", m, n)
			}
			if diff := cmp.Diff(r.Sections, tags.All(TagSection)); diff != "" {
				t.Errorf("%s: s tag order mismatch:\n%s", m, diff)
			}
			if diff := cmp.Diff(r.Versions, tags.All(TagVersion)); diff != "" {
				t.Errorf("%s: v tag order mismatch:\n%s", m, diff)
			}
		}
	}
}

func TestBookReferenceString(t *testing.T) {
	tests := []struct {
		ref  BookReference
		want string
	}{
		{BookReference{Title: "ruth"}, "ruth"},
		{BookReference{Title: "john", Chapter: "3", Sections: []string{"16", "17"}}, "john 3:16,17"},
		{BookReference{Collection: "kjv", Title: "genesis", Chapter: "1", Versions: []string{"web", "drb"}}, "kjv | genesis 1 | web drb"},
	}

	for _, tt := range tests {
		if got := tt.ref.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	p := newTestParser()
	for _, m := range []string{"[[book::kjv | John 3:16,17 | web]]", "[[book::Genesis 1]]"} {
		refs := p.ParseWikilink(m)
		if len(refs) != 1 {
			t.Fatalf("ParseWikilink(%q) returned %d refs", m, len(refs))
		}
		again := p.ParseWikilink("[[book::" + refs[0].String() + "]]")
		if diff := cmp.Diff(refs, again); diff != "" {
			t.Errorf("round trip of %q mismatch (-first +second):\n%s", m, diff)
		}
	}
}

func TestFindWikilinks(t *testing.T) {
	text := "See [[book::John 3:16]] and compare [[book::kjv | Genesis 1:1-3]]; ignore [[other::x]]."
	got := FindWikilinks(text)
	want := []string{"[[book::John 3:16]]", "[[book::kjv | Genesis 1:1-3]]"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindWikilinks mismatch (-want +got):\n%s", diff)
	}
}

func TestWithNumericCollection(t *testing.T) {
	p := NewParser(NewCanonicalResolver(DefaultTable()), WithNumericCollection("Suttas", 200))
	refs := p.ParseWikilink("[[book::suttas | 150 2]]")
	if len(refs) != 1 || refs[0].Title != "150" {
		t.Errorf("numbered collection title = %+v, want 150", refs)
	}

	p = NewParser(NewCanonicalResolver(DefaultTable()), WithNumericCollection("short", 2))
	refs = p.ParseWikilink("[[book::short | 3 1]]")
	if len(refs) != 1 || refs[0].Title != "3-john" {
		t.Errorf("out-of-range numeral should resolve through the table, got %+v", refs)
	}
}
