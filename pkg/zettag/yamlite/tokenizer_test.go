package yamlite

import (
	"strings"
	"testing"

	"github.com/zettelware/zettag/pkg/zettag/metadata"
	"github.com/zettelware/zettag/pkg/zettag/tag"
)

// brief renders a token stream on one line for comparison.
func brief(toks []metadata.Token) string {
	parts := make([]string, 0, len(toks))
	for _, tk := range toks {
		if tk.Type == metadata.Scalar {
			parts = append(parts, "="+tk.Text)
		} else {
			parts = append(parts, tk.Type.String())
		}
	}
	return strings.Join(parts, " ")
}

func check(t *testing.T, src, want string) {
	t.Helper()
	got := brief(Tokenize(src, 1))
	want = "stream-start " + want + " stream-end"
	if got != want {
		t.Errorf("Tokenize(%q)\n got: %s\nwant: %s", src, got, want)
	}
}

func TestSimpleMapping(t *testing.T) {
	check(t, "id: Z001\ntitle: My Note",
		"block-mapping-start key =id =Z001 key =title =My Note block-end")
}

func TestFlowSequenceValue(t *testing.T) {
	check(t, "keywords: [alpha, beta]",
		"block-mapping-start key =keywords flow-sequence-start =alpha =beta flow-sequence-end block-end")
}

func TestBlockSequenceIndented(t *testing.T) {
	check(t, "keywords:\n  - alpha\n  - beta",
		"block-mapping-start key =keywords block-sequence-start =alpha =beta block-end block-end")
}

func TestZeroIndentSequenceEmitsNoSequenceTokens(t *testing.T) {
	src := "references:\n- id: a\n  title: T\n- id: b\nid: Z"
	want := "block-mapping-start key =references " +
		"block-mapping-start key =id =a key =title =T block-end " +
		"block-mapping-start key =id =b block-end " +
		"key =id =Z block-end"
	check(t, src, want)
}

func TestIndentedReferenceEntries(t *testing.T) {
	src := "references:\n  - id: a\n  - id: b\ntitle: Out"
	want := "block-mapping-start key =references block-sequence-start " +
		"block-mapping-start key =id =a block-end " +
		"block-mapping-start key =id =b block-end " +
		"block-end key =title =Out block-end"
	check(t, src, want)
}

func TestFlowMappingEmitsKeys(t *testing.T) {
	check(t, "references: [{id: a, title: b}]",
		"block-mapping-start key =references flow-sequence-start flow-mapping-start "+
			"key =id =a key =title =b flow-mapping-end flow-sequence-end block-end")
}

func TestFlowSpansLines(t *testing.T) {
	check(t, "keywords: [alpha,\n  beta]",
		"block-mapping-start key =keywords flow-sequence-start =alpha =beta flow-sequence-end block-end")
}

func TestQuotedScalars(t *testing.T) {
	check(t, `title: "Note: a study"`,
		"block-mapping-start key =title =Note: a study block-end")
	check(t, `title: 'it''s fine'`,
		"block-mapping-start key =title =it's fine block-end")
	check(t, `"my key": v`,
		"block-mapping-start key =my key =v block-end")
}

func TestColonInsideValueIsNotAKey(t *testing.T) {
	check(t, "url: http://example.com/x",
		"block-mapping-start key =url =http://example.com/x block-end")
}

func TestComments(t *testing.T) {
	check(t, "# leading\nid: Z001 # trailing\n  # indented comment",
		"block-mapping-start key =id =Z001 block-end")
}

func TestDocumentMarkers(t *testing.T) {
	check(t, "---\nid: a\n---\nid: b\n...",
		"document-start block-mapping-start key =id =a block-end document-start "+
			"block-mapping-start key =id =b block-end document-end")
}

func TestLiteralBlockScalar(t *testing.T) {
	check(t, "note: |\n  one\n  two\nid: Z",
		"block-mapping-start key =note =one\ntwo key =id =Z block-end")
}

func TestFoldedBlockScalar(t *testing.T) {
	check(t, "note: >\n  one\n  two",
		"block-mapping-start key =note =one two block-end")
}

func TestNestedMapping(t *testing.T) {
	check(t, "outer:\n  inner: v\nid: Z",
		"block-mapping-start key =outer block-mapping-start key =inner =v block-end key =id =Z block-end")
}

func TestUnclosedFlowIsClosedAtFinish(t *testing.T) {
	check(t, "keywords: [a, b",
		"block-mapping-start key =keywords flow-sequence-start =a =b flow-sequence-end block-end")
}

func TestScalarLineNumbers(t *testing.T) {
	toks := Tokenize("id: Z001\ntitle: T", 4)
	var lines []int
	for _, tk := range toks {
		if tk.Type == metadata.Scalar {
			lines = append(lines, tk.Line)
		}
	}
	want := []int{4, 4, 5, 5}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d scalars, got %d", len(want), len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Scalar %d on line %d, want %d", i, lines[i], want[i])
		}
	}
}

func TestTokenStreamDrivesExtraction(t *testing.T) {
	src := strings.Join([]string{
		"id: 20200106T0900",
		"title: Deferred Patching",
		"keywords:",
		"  - zettel",
		"  - parsing",
		"nocite: '@smith2020, jones2019'",
		"references:",
		"- id: doe2018",
		"  title: On Queues",
	}, "\n")

	rec := &tag.Recorder{}
	e := metadata.NewExtractor(nil, rec)
	for _, tk := range Tokenize(src, 2) {
		if err := e.Feed(tk); err != nil {
			t.Fatalf("Feed %s: %v", tk, err)
		}
	}

	got := rec.Tags()
	// id, title, 2 keywords, 2 citations, reference id + title
	if len(got) != 8 {
		t.Fatalf("Expected 8 tags, got %d", len(got))
	}
	counts := map[tag.Kind]int{}
	for _, g := range got {
		counts[g.Kind]++
	}
	if counts[tag.Keyword] != 2 || counts[tag.Citekey] != 3 || counts[tag.RefTitle] != 1 {
		t.Errorf("Kind counts off: %v", counts)
	}
	for _, g := range got {
		switch g.Name {
		case "@doe2018", "On Queues":
			if g.Field(tag.FieldIdentifier) != "doe2018" {
				t.Errorf("Reference tag %q identifier = %q", g.Name, g.Field(tag.FieldIdentifier))
			}
		default:
			if g.Field(tag.FieldIdentifier) != "20200106T0900" {
				t.Errorf("Tag %q identifier = %q", g.Name, g.Field(tag.FieldIdentifier))
			}
		}
	}
}
