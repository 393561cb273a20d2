package content

import "testing"

func TestParseKind(t *testing.T) {
	tests := []struct {
		input  string
		want   Kind
		wantOK bool
	}{
		{"30040", KindIndex, true},
		{"index", KindIndex, true},
		{" Leaf ", KindLeaf, true},
		{"30023", Kind(30023), true},
		{"", 0, false},
		{"-1", 0, false},
		{"chapter", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseKind(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseKind(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindIndex.String() != "index" || KindLeaf.String() != "leaf" {
		t.Errorf("unexpected names: %s %s", KindIndex, KindLeaf)
	}
	if Kind(30023).String() != "30023" {
		t.Errorf("Kind(30023).String() = %s", Kind(30023))
	}
	if Kind(30023).IsIndex() {
		t.Error("unknown kinds are leaves")
	}
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		input  string
		want   Coordinate
		wantOK bool
	}{
		{
			input:  "30041:abc:genesis-1",
			want:   Coordinate{Kind: KindLeaf, OwnerKey: "abc", DTag: "genesis-1"},
			wantOK: true,
		},
		{
			input:  "30040:abc:bible:kjv",
			want:   Coordinate{Kind: KindIndex, OwnerKey: "abc", DTag: "bible:kjv"},
			wantOK: true,
		},
		{input: "30041:abc", wantOK: false},
		{input: "30041::d", wantOK: false},
		{input: "30041:abc:", wantOK: false},
		{input: "x:abc:d", wantOK: false},
		{input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseCoordinate(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseCoordinate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseCoordinate(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if ok && got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestTags(t *testing.T) {
	tags := Tags{
		{Key: "d", Value: "john"},
		{Key: "s", Value: "16"},
		{Key: "title", Value: "John"},
		{Key: "s", Value: "17"},
	}

	if v, ok := tags.First("s"); !ok || v != "16" {
		t.Errorf("First(s) = %q, %v", v, ok)
	}
	if _, ok := tags.First("missing"); ok {
		t.Error("First(missing) should report absence")
	}
	if got := tags.All("s"); len(got) != 2 || got[0] != "16" || got[1] != "17" {
		t.Errorf("All(s) = %v", got)
	}
	if !tags.Has("title") || tags.Has("author") {
		t.Error("Has returned wrong result")
	}
	if tags.Value("author") != "" {
		t.Error("Value of missing key should be empty")
	}
}

func TestNodeCoordinate(t *testing.T) {
	n := &Node{
		ID:       "n1",
		OwnerKey: "pk",
		Kind:     KindIndex,
		Tags:     Tags{{Key: "d", Value: "psalms"}},
	}
	want := Coordinate{Kind: KindIndex, OwnerKey: "pk", DTag: "psalms"}
	if got := n.Coordinate(); got != want {
		t.Errorf("Coordinate() = %+v, want %+v", got, want)
	}
	if !n.IsIndex() {
		t.Error("IsIndex() = false for index node")
	}
}
