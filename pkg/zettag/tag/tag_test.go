package tag

import "testing"

func TestRecorderCollectsInOrder(t *testing.T) {
	rec := &Recorder{}

	h1, err := rec.Create("20240131094500", ID, NoRole, 2)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	h2, err := rec.Create("@kleinrock1975", Citekey, Bibliography, 7)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := rec.Attach(h1, FieldTitle, "Queueing Theory"); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := rec.Attach(h2, FieldIdentifier, "20240131094500"); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	tags := rec.Tags()
	if len(tags) != 2 {
		t.Fatalf("got %d tags, want 2", len(tags))
	}
	if tags[0].Name != "20240131094500" || tags[0].Kind != ID || tags[0].Line != 2 {
		t.Errorf("first tag = %+v", tags[0])
	}
	if got := tags[0].Field(FieldTitle); got != "Queueing Theory" {
		t.Errorf("title field = %q", got)
	}
	if got := tags[1].Field(FieldIdentifier); got != "20240131094500" {
		t.Errorf("identifier field = %q", got)
	}
	if got := tags[1].Field(FieldSummary); got != "" {
		t.Errorf("unattached field = %q, want empty", got)
	}
}

func TestRecorderRejectsBadHandle(t *testing.T) {
	rec := &Recorder{}
	if err := rec.Attach(Handle(0), FieldTitle, "x"); err == nil {
		t.Fatal("expected error for handle into empty recorder")
	}
	if _, err := rec.Create("a", Keyword, Index, 1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := rec.Attach(Handle(5), FieldTitle, "x"); err == nil {
		t.Fatal("expected error for out-of-range handle")
	}
}

func TestRecorderReset(t *testing.T) {
	rec := &Recorder{}
	if _, err := rec.Create("a", Keyword, Index, 1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	rec.Reset()
	if got := len(rec.Tags()); got != 0 {
		t.Fatalf("got %d tags after Reset, want 0", got)
	}
}

func TestKindNamesRoundTrip(t *testing.T) {
	for _, k := range []Kind{ID, Title, Keyword, Citekey, Wikilink, RefTitle} {
		back, ok := KindFromName(k.String())
		if !ok || back != k {
			t.Errorf("KindFromName(%q) = %v, %v", k.String(), back, ok)
		}
	}
	if _, ok := KindFromName("chapter"); ok {
		t.Error("KindFromName accepted an unknown name")
	}
	if ID.Code() != 'i' || Wikilink.Code() != 'w' {
		t.Errorf("codes = %c %c", ID.Code(), Wikilink.Code())
	}
}

func TestRoleNamesRoundTrip(t *testing.T) {
	for _, r := range []Role{Index, Bibliography, Identifier} {
		back, ok := RoleFromName(r.String())
		if !ok || back != r {
			t.Errorf("RoleFromName(%q) = %v, %v", r.String(), back, ok)
		}
	}
	if r, ok := RoleFromName(""); !ok || r != NoRole {
		t.Errorf("RoleFromName(\"\") = %v, %v", r, ok)
	}
	if _, ok := RoleFromName("primary"); ok {
		t.Error("RoleFromName accepted an unknown name")
	}
}

func TestFieldNamesRoundTrip(t *testing.T) {
	for _, f := range []FieldID{FieldIdentifier, FieldTitle, FieldEncodedName, FieldSummary} {
		back, ok := FieldFromName(f.String())
		if !ok || back != f {
			t.Errorf("FieldFromName(%q) = %v, %v", f.String(), back, ok)
		}
	}
}
