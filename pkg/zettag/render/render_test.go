package render

import (
	"errors"
	"testing"

	"github.com/zettelware/zettag/pkg/zettag/tag"
)

func TestPercentEncode(t *testing.T) {
	cases := map[string]string{
		"plain":   "plain",
		"a b":     "a%20b",
		"50%":     "50%25",
		"tab\there": "tab%09here",
		"señal":   "se%c3%b1al",
		"":        "",
	}
	for in, want := range cases {
		if got := PercentEncode(in); got != want {
			t.Errorf("PercentEncode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEncodedNamePassThrough(t *testing.T) {
	enc := NewEncoder(nil)

	// identifiers and citation keys are written as-is
	id := tag.Tag{Name: "2020 01", Kind: tag.ID}
	if got := enc.EncodedName(id); got != "2020 01" {
		t.Errorf("EncodedName(id) = %q, want raw name", got)
	}
	cite := tag.Tag{Name: "@smith2020", Kind: tag.Citekey}
	if got := enc.EncodedName(cite); got != "@smith2020" {
		t.Errorf("EncodedName(citekey) = %q, want raw name", got)
	}
}

func TestEncodedNameTitle(t *testing.T) {
	enc := NewEncoder(map[tag.Kind]string{
		tag.Title:   "t ",
		tag.Keyword: "k:",
	})

	// own prefix stays verbatim, even its space
	got := enc.EncodedName(tag.Tag{Name: "t My Note", Kind: tag.Title})
	if got != "t My%20Note" {
		t.Errorf("Own prefix: got %q, want t My%%20Note", got)
	}

	// a title that merely starts like a keyword gets its head encoded
	got = enc.EncodedName(tag.Tag{Name: "k:foo", Kind: tag.Title})
	if got != "%6b:foo" {
		t.Errorf("Foreign prefix: got %q, want %%6b:foo", got)
	}

	got = enc.EncodedName(tag.Tag{Name: "plain title", Kind: tag.Title})
	if got != "plain%20title" {
		t.Errorf("No prefix: got %q", got)
	}
}

func TestEncodedNameLeadingBang(t *testing.T) {
	enc := NewEncoder(nil)

	got := enc.EncodedName(tag.Tag{Name: "!important", Kind: tag.Keyword})
	if got != "%21important" {
		t.Errorf("Got %q, want %%21important", got)
	}

	// after a configured prefix the bang is ordinary content
	enc = NewEncoder(map[tag.Kind]string{tag.Keyword: "k:"})
	got = enc.EncodedName(tag.Tag{Name: "k:!x", Kind: tag.Keyword})
	if got != "k:!x" {
		t.Errorf("Got %q, want k:!x", got)
	}
}

func TestEncodedNameRefTitle(t *testing.T) {
	enc := NewEncoder(map[tag.Kind]string{tag.Title: "t:"})

	got := enc.EncodedName(tag.Tag{Name: "t:On Queues", Kind: tag.RefTitle})
	if got != "%74:On%20Queues" {
		t.Errorf("Got %q, want the title prefix head encoded", got)
	}
}

func TestSummaryRender(t *testing.T) {
	sum, err := CompileSummary(DefaultSummaryFormat)
	if err != nil {
		t.Fatalf("CompileSummary: %v", err)
	}
	rec := tag.Tag{
		Name: "queues",
		Kind: tag.Keyword,
		Fields: map[tag.FieldID]string{
			tag.FieldIdentifier: "Z001",
			tag.FieldTitle:      "My Note",
		},
	}
	if got := sum.Render(rec); got != "Z001:My Note" {
		t.Errorf("Render = %q, want Z001:My Note", got)
	}

	// absent fields render empty
	if got := sum.Render(tag.Tag{Name: "x"}); got != ":" {
		t.Errorf("Render without fields = %q, want :", got)
	}
}

func TestSummaryEscapes(t *testing.T) {
	sum, err := CompileSummary("100%% %{identifier}")
	if err != nil {
		t.Fatalf("CompileSummary: %v", err)
	}
	got := sum.Render(tag.Tag{Fields: map[tag.FieldID]string{tag.FieldIdentifier: "Z"}})
	if got != "100% Z" {
		t.Errorf("Render = %q, want 100%% Z", got)
	}
}

func TestSummaryNameReference(t *testing.T) {
	sum, err := CompileSummary("%{name} (%{identifier})")
	if err != nil {
		t.Fatalf("CompileSummary: %v", err)
	}
	rec := tag.Tag{
		Name:   "queues",
		Kind:   tag.Keyword,
		Fields: map[tag.FieldID]string{tag.FieldIdentifier: "Z001"},
	}
	if got := sum.Render(rec); got != "queues (Z001)" {
		t.Errorf("Render = %q, want queues (Z001)", got)
	}
}

func TestSummaryBadFormats(t *testing.T) {
	for _, format := range []string{"%", "%x", "%{nope}", "%{identifier"} {
		if _, err := CompileSummary(format); !errors.Is(err, ErrBadFormat) {
			t.Errorf("CompileSummary(%q) = %v, want ErrBadFormat", format, err)
		}
	}
}

func TestTagLine(t *testing.T) {
	rec := tag.Tag{
		Name: "queues",
		Kind: tag.Keyword,
		Role: tag.Index,
		Line: 4,
		Fields: map[tag.FieldID]string{
			tag.FieldIdentifier: "Z001",
			tag.FieldTitle:      "My Note",
		},
	}
	got := TagLine(rec, "notes/z001.md")
	want := "queues\tnotes/z001.md\t4;\"\tkind:k\troles:index\tidentifier:Z001\ttitle:My%20Note"
	if got != want {
		t.Errorf("TagLine\n got: %q\nwant: %q", got, want)
	}
}

func TestTagLineWithoutRole(t *testing.T) {
	rec := tag.Tag{Name: "Z001", Kind: tag.ID, Line: 2}
	got := TagLine(rec, "a.md")
	if got != "Z001\ta.md\t2;\"\tkind:i" {
		t.Errorf("TagLine = %q", got)
	}
}

func TestXref(t *testing.T) {
	rec := tag.Tag{
		Name: "queues",
		Kind: tag.Keyword,
		Line: 4,
		Fields: map[tag.FieldID]string{
			tag.FieldSummary: "Z001:My Note",
		},
	}
	got := Xref(rec, "notes/z001.md")
	want := "queues           keyword     4 notes/z001.md    Z001:My Note"
	if got != want {
		t.Errorf("Xref\n got: %q\nwant: %q", got, want)
	}
}

func TestXrefWithoutSummary(t *testing.T) {
	rec := tag.Tag{Name: "Z001", Kind: tag.ID, Line: 2}
	got := Xref(rec, "a.md")
	if got != "Z001             id          2 a.md" {
		t.Errorf("Xref = %q", got)
	}
}
