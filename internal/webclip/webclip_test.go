package webclip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestConvertPrefersMainContent(t *testing.T) {
	page := `<html><head><title>  My   Page </title></head><body>
<nav><a href="/">Home</a> | <a href="/about">About</a></nav>
<main><h1>Hello</h1><p>World of notes.</p></main>
<footer>Copyright</footer>
</body></html>`

	clip, err := New().Convert([]byte(page))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if clip.Title != "My Page" {
		t.Errorf("Title = %q, want My Page", clip.Title)
	}
	if !strings.Contains(clip.Markdown, "Hello") || !strings.Contains(clip.Markdown, "World of notes.") {
		t.Errorf("Markdown missing main content:\n%s", clip.Markdown)
	}
	if strings.Contains(clip.Markdown, "About") || strings.Contains(clip.Markdown, "Copyright") {
		t.Errorf("Markdown kept page chrome:\n%s", clip.Markdown)
	}
}

func TestConvertPrunesNoiseFromBody(t *testing.T) {
	page := `<html><body>
<script>var tracking = true;</script>
<p>Only this survives.</p>
</body></html>`

	clip, err := New().Convert([]byte(page))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !strings.Contains(clip.Markdown, "Only this survives.") {
		t.Errorf("Markdown lost the paragraph:\n%s", clip.Markdown)
	}
	if strings.Contains(clip.Markdown, "tracking") {
		t.Errorf("Markdown kept script text:\n%s", clip.Markdown)
	}
}

func TestConvertTitleFallsBackToHeading(t *testing.T) {
	page := `<html><body><article><h1>Fallback Heading</h1><p>Text.</p></article></body></html>`

	clip, err := New().Convert([]byte(page))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if clip.Title != "Fallback Heading" {
		t.Errorf("Title = %q, want Fallback Heading", clip.Title)
	}
}

func TestClipFetchesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>Served</title></head><body><main><p>Hi.</p></main></body></html>`))
	}))
	defer srv.Close()

	clip, err := New().Clip(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Clip: %v", err)
	}
	if clip.URL != srv.URL {
		t.Errorf("URL = %q, want %q", clip.URL, srv.URL)
	}
	if clip.Title != "Served" {
		t.Errorf("Title = %q, want Served", clip.Title)
	}
	if !strings.Contains(clip.Markdown, "Hi.") {
		t.Errorf("Markdown = %q", clip.Markdown)
	}
}

func TestClipRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"not": "html"}`))
	}))
	defer srv.Close()

	if _, err := New().Clip(context.Background(), srv.URL); err == nil {
		t.Fatalf("Clip should reject a non-html page")
	}
}

func TestClipRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := New().Clip(context.Background(), srv.URL); err == nil {
		t.Fatalf("Clip should fail on a 404")
	}
}
