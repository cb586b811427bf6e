package index

import (
	"context"
	"errors"

	"github.com/zettelware/zettag/pkg/zettag/tag"
)

// ErrFileUnknown is returned when an operation names a file the index
// has never seen.
var ErrFileUnknown = errors.New("file not indexed")

// Entry is one indexed tag together with its source file.
type Entry struct {
	ID   int64
	File string
	Tag  tag.Tag
}

// Filter narrows Entries queries. The zero value matches everything.
type Filter struct {
	File       string     // exact source file path
	Name       string     // exact tag name
	Kinds      []tag.Kind // any of these kinds; empty means all
	Roles      []tag.Role // any of these roles; empty means all
	Identifier string     // notes whose deferred identifier equals this
	Limit      int        // 0 means unlimited
}

// Match reports whether e passes the filter, ignoring Limit.
func (f Filter) Match(e Entry) bool {
	if f.File != "" && e.File != f.File {
		return false
	}
	if f.Name != "" && e.Tag.Name != f.Name {
		return false
	}
	if f.Identifier != "" {
		v, ok := e.Tag.Fields[tag.FieldIdentifier]
		if !ok || v != f.Identifier {
			return false
		}
	}
	if len(f.Kinds) > 0 && !containsKind(f.Kinds, e.Tag.Kind) {
		return false
	}
	if len(f.Roles) > 0 && !containsRole(f.Roles, e.Tag.Role) {
		return false
	}
	return true
}

func containsKind(kinds []tag.Kind, k tag.Kind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}

func containsRole(roles []tag.Role, r tag.Role) bool {
	for _, c := range roles {
		if c == r {
			return true
		}
	}
	return false
}

// Stats summarizes index contents.
type Stats struct {
	Files  int64
	Tags   int64
	ByKind map[tag.Kind]int64
}

// Writer receives one file's replacement tags. It is a tag.Sink whose
// handles stay valid until Commit or Discard; Commit atomically swaps
// the file's previous tags for the new batch.
type Writer interface {
	tag.Sink
	Commit() error
	Discard() error
}

// Index persists extracted tags per note file.
type Index interface {
	Close() error

	// ReplaceFile opens a writer that will replace path's tags.
	ReplaceFile(ctx context.Context, path string) (Writer, error)

	// RemoveFile drops a file and its tags.
	RemoveFile(ctx context.Context, path string) error

	// Files lists indexed file paths in lexical order.
	Files(ctx context.Context) ([]string, error)

	// Entries returns matching entries ordered by file, then line.
	Entries(ctx context.Context, f Filter) ([]Entry, error)

	// Stats reports index totals.
	Stats(ctx context.Context) (Stats, error)
}
