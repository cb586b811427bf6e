// Package zettag turns zettelkasten notes into ctags-style tag
// records. Frontmatter metadata is tokenized and run through the
// extraction state machine; the markdown body is scanned for
// wikilinks and citations; finished records land in an index.
package zettag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zettelware/zettag/pkg/zettag/config"
	"github.com/zettelware/zettag/pkg/zettag/index"
	"github.com/zettelware/zettag/pkg/zettag/index/memindex"
	"github.com/zettelware/zettag/pkg/zettag/markdown"
	"github.com/zettelware/zettag/pkg/zettag/metadata"
	"github.com/zettelware/zettag/pkg/zettag/tag"
	"github.com/zettelware/zettag/pkg/zettag/vault"
	"github.com/zettelware/zettag/pkg/zettag/yamlite"
)

// Engine is the extraction facade: notes in, tag records out.
type Engine struct {
	cfg   *config.Config
	parts *config.Components
	index index.Index
}

// Options configures an Engine.
type Options struct {
	// Config drives extraction. Nil means config.Default().
	Config *config.Config
	// Index receives tag records. Nil means a fresh in-memory index.
	Index index.Index
}

// New creates an Engine with the given dependencies.
func New(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	parts, err := cfg.Components()
	if err != nil {
		return nil, err
	}
	ix := opts.Index
	if ix == nil {
		ix = memindex.New()
	}
	return &Engine{cfg: cfg, parts: parts, index: ix}, nil
}

// Close shuts down the engine and its index.
func (e *Engine) Close() error {
	return e.index.Close()
}

// Index exposes the engine's index for queries.
func (e *Engine) Index() index.Index {
	return e.index
}

// Config returns the engine's configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Extract runs extraction over one note and returns the finished tag
// records without touching the index.
func (e *Engine) Extract(content string) ([]tag.Tag, error) {
	rec := &tag.Recorder{}
	if err := e.scanInto(content, rec); err != nil {
		return nil, err
	}
	return e.finish(rec.Tags()), nil
}

// ScanStats reports one note's extraction.
type ScanStats struct {
	Tags int
}

// ScanNote extracts content's tags and replaces path's records in the
// index. When extraction fails the index keeps the note's previous
// records.
func (e *Engine) ScanNote(ctx context.Context, path, content string) (ScanStats, error) {
	rec := &tag.Recorder{}
	if err := e.scanInto(content, rec); err != nil {
		return ScanStats{}, fmt.Errorf("scan %s: %w", path, err)
	}
	tags := e.finish(rec.Tags())

	w, err := e.index.ReplaceFile(ctx, path)
	if err != nil {
		return ScanStats{}, err
	}
	for _, t := range tags {
		h, err := w.Create(t.Name, t.Kind, t.Role, t.Line)
		if err != nil {
			w.Discard()
			return ScanStats{}, err
		}
		for f, v := range t.Fields {
			if err := w.Attach(h, f, v); err != nil {
				w.Discard()
				return ScanStats{}, err
			}
		}
	}
	if err := w.Commit(); err != nil {
		return ScanStats{}, err
	}
	return ScanStats{Tags: len(tags)}, nil
}

// RemoveNote drops a note's records from the index. Removing a note
// the index never saw is not an error.
func (e *Engine) RemoveNote(ctx context.Context, path string) error {
	err := e.index.RemoveFile(ctx, path)
	if errors.Is(err, index.ErrFileUnknown) {
		return nil
	}
	return err
}

// VaultStats reports a whole-vault scan.
type VaultStats struct {
	Files   int // notes indexed
	Tags    int // records written
	Failed  int // notes skipped after an error
	Removed int // stale index entries pruned
}

// ScanVault reindexes every matching note under the vault and prunes
// index entries whose notes are gone. Notes that fail to read or
// extract are counted and skipped. The optional report callback sees
// every note in walk order.
func (e *Engine) ScanVault(ctx context.Context, v *vault.Vault, report func(path string, stats ScanStats, err error)) (VaultStats, error) {
	files, err := v.Files()
	if err != nil {
		return VaultStats{}, err
	}

	var vs VaultStats
	seen := make(map[string]bool, len(files))
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return vs, err
		}
		seen[rel] = true

		stats, err := e.scanFile(ctx, v, rel)
		if err != nil {
			vs.Failed++
		} else {
			vs.Files++
			vs.Tags += stats.Tags
		}
		if report != nil {
			report(rel, stats, err)
		}
	}

	known, err := e.index.Files(ctx)
	if err != nil {
		return vs, err
	}
	for _, path := range known {
		if seen[path] {
			continue
		}
		if err := e.RemoveNote(ctx, path); err != nil {
			return vs, err
		}
		vs.Removed++
	}
	return vs, nil
}

func (e *Engine) scanFile(ctx context.Context, v *vault.Vault, rel string) (ScanStats, error) {
	content, err := os.ReadFile(v.Abs(rel))
	if err != nil {
		return ScanStats{}, err
	}
	return e.ScanNote(ctx, rel, string(content))
}

// scanInto runs the frontmatter extractor and the body scanner over
// one note, feeding raw records into sink.
func (e *Engine) scanInto(content string, sink tag.Sink) error {
	note := markdown.Split(content)
	if note.Meta != "" {
		ex := metadata.NewExtractor(e.parts.Schema, sink)
		for _, tok := range yamlite.Tokenize(note.Meta, note.MetaLine) {
			if err := ex.Feed(tok); err != nil {
				return err
			}
		}
	}
	if e.cfg.Body.Enabled {
		if err := e.parts.Scanner.Scan(note.Body, note.BodyLine, sink); err != nil {
			return err
		}
	}
	return nil
}

// finish attaches the render-time fields. The encoded name goes on
// first so a summary format can refer to it.
func (e *Engine) finish(tags []tag.Tag) []tag.Tag {
	schema := e.parts.Schema
	encode := schema.FieldEnabled(tag.FieldEncodedName)
	summarize := schema.FieldEnabled(tag.FieldSummary)
	if !encode && !summarize {
		return tags
	}
	for i := range tags {
		if tags[i].Fields == nil {
			tags[i].Fields = make(map[tag.FieldID]string, 2)
		}
		if encode {
			tags[i].Fields[tag.FieldEncodedName] = e.parts.Encoder.EncodedName(tags[i])
		}
		if summarize {
			tags[i].Fields[tag.FieldSummary] = e.parts.Summary.Render(tags[i])
		}
	}
	return tags
}

// NoteSkeleton renders frontmatter for a fresh note using the
// configured key names, followed by an empty body. Extra pairs are
// written as plain scalars after the title.
func (e *Engine) NoteSkeleton(id, title string, extra ...[2]string) string {
	var b strings.Builder
	b.WriteString("---\n")
	if key := e.cfg.Keys.ID; key != "" && id != "" {
		fmt.Fprintf(&b, "%s: %s\n", key, id)
	}
	if key := e.cfg.Keys.Title; key != "" && title != "" {
		fmt.Fprintf(&b, "%s: %s\n", key, quoteScalar(title))
	}
	for _, kv := range extra {
		fmt.Fprintf(&b, "%s: %s\n", kv[0], kv[1])
	}
	b.WriteString("---\n\n")
	return b.String()
}

// quoteScalar double-quotes a value so titles with colons or hash
// marks survive the round trip through the tokenizer.
func quoteScalar(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
