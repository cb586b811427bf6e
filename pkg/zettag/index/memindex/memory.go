// Package memindex is an in-memory index.Index for tests and one-shot
// scans that never touch disk.
package memindex

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zettelware/zettag/pkg/zettag/index"
	"github.com/zettelware/zettag/pkg/zettag/tag"
)

// Index keeps all entries in memory, grouped by file.
type Index struct {
	mu     sync.RWMutex
	nextID int64
	files  map[string][]index.Entry
}

// New creates an empty in-memory index.
func New() *Index {
	return &Index{nextID: 1, files: make(map[string][]index.Entry)}
}

// Close implements index.Index.
func (ix *Index) Close() error { return nil }

// ReplaceFile opens a writer collecting path's replacement tags.
func (ix *Index) ReplaceFile(ctx context.Context, path string) (index.Writer, error) {
	return &writer{ix: ix, path: path}, nil
}

// RemoveFile drops a file and its tags.
func (ix *Index) RemoveFile(ctx context.Context, path string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.files[path]; !ok {
		return index.ErrFileUnknown
	}
	delete(ix.files, path)
	return nil
}

// Files lists indexed paths in lexical order.
func (ix *Index) Files(ctx context.Context) ([]string, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, 0, len(ix.files))
	for path := range ix.files {
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}

// Entries returns matching entries ordered by file, then line.
func (ix *Index) Entries(ctx context.Context, f index.Filter) ([]index.Entry, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	paths := make([]string, 0, len(ix.files))
	for path := range ix.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var out []index.Entry
	for _, path := range paths {
		for _, e := range ix.files[path] {
			if !f.Match(e) {
				continue
			}
			out = append(out, copyEntry(e))
			if f.Limit > 0 && len(out) == f.Limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// Stats reports index totals.
func (ix *Index) Stats(ctx context.Context) (index.Stats, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	st := index.Stats{ByKind: make(map[tag.Kind]int64)}
	st.Files = int64(len(ix.files))
	for _, entries := range ix.files {
		st.Tags += int64(len(entries))
		for _, e := range entries {
			st.ByKind[e.Tag.Kind]++
		}
	}
	return st, nil
}

// writer buffers one file's tags until Commit.
type writer struct {
	ix      *Index
	path    string
	pending []tag.Tag
	done    bool
}

// Create implements tag.Sink.
func (w *writer) Create(name string, kind tag.Kind, role tag.Role, line int) (tag.Handle, error) {
	w.pending = append(w.pending, tag.Tag{Name: name, Kind: kind, Role: role, Line: line})
	return tag.Handle(len(w.pending) - 1), nil
}

// Attach implements tag.Sink.
func (w *writer) Attach(h tag.Handle, field tag.FieldID, value string) error {
	if h < 0 || int(h) >= len(w.pending) {
		return fmt.Errorf("attach %s: no tag with handle %d", field, int(h))
	}
	t := &w.pending[h]
	if t.Fields == nil {
		t.Fields = make(map[tag.FieldID]string, 2)
	}
	t.Fields[field] = value
	return nil
}

// Commit swaps the file's previous entries for the buffered batch,
// stored in line order with creation order breaking ties.
func (w *writer) Commit() error {
	if w.done {
		return nil
	}
	w.done = true

	w.ix.mu.Lock()
	defer w.ix.mu.Unlock()
	entries := make([]index.Entry, len(w.pending))
	for i, t := range w.pending {
		entries[i] = index.Entry{ID: w.ix.nextID, File: w.path, Tag: t}
		w.ix.nextID++
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Tag.Line < entries[j].Tag.Line
	})
	w.ix.files[w.path] = entries
	return nil
}

// Discard abandons the batch.
func (w *writer) Discard() error {
	w.done = true
	w.pending = nil
	return nil
}

func copyEntry(e index.Entry) index.Entry {
	if e.Tag.Fields != nil {
		fields := make(map[tag.FieldID]string, len(e.Tag.Fields))
		for k, v := range e.Tag.Fields {
			fields[k] = v
		}
		e.Tag.Fields = fields
	}
	return e
}
