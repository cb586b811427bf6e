package memindex

import (
	"context"
	"errors"
	"testing"

	"github.com/zettelware/zettag/pkg/zettag/index"
	"github.com/zettelware/zettag/pkg/zettag/tag"
)

func writeNote(t *testing.T, ix index.Index, path string, names ...string) {
	t.Helper()
	ctx := context.Background()
	w, err := ix.ReplaceFile(ctx, path)
	if err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}
	for i, name := range names {
		h, err := w.Create(name, tag.Keyword, tag.Index, i+1)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := w.Attach(h, tag.FieldIdentifier, "Z-"+path); err != nil {
			t.Fatalf("Attach: %v", err)
		}
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestReplaceAndQuery(t *testing.T) {
	ctx := context.Background()
	ix := New()
	defer ix.Close()

	writeNote(t, ix, "a.md", "alpha", "beta")
	writeNote(t, ix, "b.md", "beta")

	entries, err := ix.Entries(ctx, index.Filter{Name: "beta"})
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	// ordered by file
	if entries[0].File != "a.md" || entries[1].File != "b.md" {
		t.Errorf("Order: %s, %s", entries[0].File, entries[1].File)
	}
	if entries[0].Tag.Field(tag.FieldIdentifier) != "Z-a.md" {
		t.Errorf("Identifier = %q", entries[0].Tag.Field(tag.FieldIdentifier))
	}

	files, err := ix.Files(ctx)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 2 || files[0] != "a.md" {
		t.Errorf("Files = %v", files)
	}

	st, err := ix.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Files != 2 || st.Tags != 3 || st.ByKind[tag.Keyword] != 3 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestReplaceClearsPreviousTags(t *testing.T) {
	ctx := context.Background()
	ix := New()

	writeNote(t, ix, "a.md", "old1", "old2")
	writeNote(t, ix, "a.md", "new")

	entries, err := ix.Entries(ctx, index.Filter{File: "a.md"})
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Tag.Name != "new" {
		t.Errorf("Expected only the new tag, got %+v", entries)
	}
}

func TestDiscardLeavesIndexUntouched(t *testing.T) {
	ctx := context.Background()
	ix := New()
	writeNote(t, ix, "a.md", "keep")

	w, err := ix.ReplaceFile(ctx, "a.md")
	if err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}
	if _, err := w.Create("dropme", tag.Keyword, tag.Index, 1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}

	entries, err := ix.Entries(ctx, index.Filter{File: "a.md"})
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Tag.Name != "keep" {
		t.Errorf("Discard changed the index: %+v", entries)
	}
}

func TestRemoveFile(t *testing.T) {
	ctx := context.Background()
	ix := New()
	writeNote(t, ix, "a.md", "x")

	if err := ix.RemoveFile(ctx, "a.md"); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	if err := ix.RemoveFile(ctx, "a.md"); !errors.Is(err, index.ErrFileUnknown) {
		t.Errorf("Second remove = %v, want ErrFileUnknown", err)
	}

	entries, err := ix.Entries(ctx, index.Filter{})
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Entries after remove: %+v", entries)
	}
}

func TestFilterKindsAndLimit(t *testing.T) {
	ctx := context.Background()
	ix := New()

	w, _ := ix.ReplaceFile(ctx, "a.md")
	w.Create("Z1", tag.ID, tag.NoRole, 1)
	w.Create("kw", tag.Keyword, tag.Index, 2)
	w.Create("@c1", tag.Citekey, tag.Bibliography, 3)
	w.Create("@c2", tag.Citekey, tag.Bibliography, 4)
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	entries, err := ix.Entries(ctx, index.Filter{Kinds: []tag.Kind{tag.Citekey, tag.ID}})
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 3 entries, got %d", len(entries))
	}

	entries, err = ix.Entries(ctx, index.Filter{Kinds: []tag.Kind{tag.Citekey}, Limit: 1})
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Tag.Name != "@c1" {
		t.Errorf("Limit result: %+v", entries)
	}

	entries, err = ix.Entries(ctx, index.Filter{Roles: []tag.Role{tag.Bibliography}})
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Role filter matched %d entries", len(entries))
	}
}

func TestEntriesSortedByLine(t *testing.T) {
	ctx := context.Background()
	ix := New()

	w, _ := ix.ReplaceFile(ctx, "a.md")
	w.Create("late", tag.Keyword, tag.Index, 9)
	w.Create("early", tag.Keyword, tag.Index, 2)
	w.Create("mid", tag.Keyword, tag.Index, 5)
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	entries, err := ix.Entries(ctx, index.Filter{File: "a.md"})
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	var lines []int
	for _, e := range entries {
		lines = append(lines, e.Tag.Line)
	}
	if len(lines) != 3 || lines[0] != 2 || lines[1] != 5 || lines[2] != 9 {
		t.Errorf("Lines = %v, want ascending", lines)
	}
}

func TestEntriesCopiesFields(t *testing.T) {
	ctx := context.Background()
	ix := New()
	writeNote(t, ix, "a.md", "x")

	entries, _ := ix.Entries(ctx, index.Filter{})
	entries[0].Tag.Fields[tag.FieldIdentifier] = "mutated"

	again, _ := ix.Entries(ctx, index.Filter{})
	if again[0].Tag.Field(tag.FieldIdentifier) != "Z-a.md" {
		t.Error("Callers must not be able to mutate stored entries")
	}
}
