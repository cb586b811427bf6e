// Package vault locates note files on disk. A Vault is rooted at a
// directory and applies include and exclude glob patterns to decide
// which files belong to the collection. Paths handed out by a Vault
// are slash-separated and relative to the root, so they can be used
// directly as index keys on any platform.
package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Vault is a directory of notes filtered by glob patterns.
type Vault struct {
	root    string
	include []string
	exclude []string
}

// Open roots a vault at dir. Include patterns select files relative to
// the root; exclude patterns veto them. An empty include list selects
// every file. Patterns use doublestar syntax, so "**/*.md" matches
// markdown files at any depth.
func Open(dir string, include, exclude []string) (*Vault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve vault root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", abs)
	}
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("open vault: bad pattern %q", p)
		}
	}
	return &Vault{root: abs, include: include, exclude: exclude}, nil
}

// Root returns the absolute path of the vault directory.
func (v *Vault) Root() string { return v.root }

// Abs converts a vault-relative path back to an absolute one.
func (v *Vault) Abs(rel string) string {
	return filepath.Join(v.root, filepath.FromSlash(rel))
}

// Rel converts an absolute path inside the vault to the relative form
// used as an index key. The second result is false for paths outside
// the vault.
func (v *Vault) Rel(abs string) (string, bool) {
	rel, err := filepath.Rel(v.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Match reports whether a vault-relative path belongs to the
// collection: it must match an include pattern (or the include list
// must be empty) and no exclude pattern.
func (v *Vault) Match(rel string) bool {
	for _, p := range v.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	if len(v.include) == 0 {
		return true
	}
	for _, p := range v.include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Files walks the vault and returns the sorted relative paths of all
// matching files. Hidden directories are skipped, which keeps the
// index database under .zettag out of its own scan.
func (v *Vault) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != v.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, ok := v.Rel(path)
		if !ok {
			return nil
		}
		if v.Match(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk vault: %w", err)
	}
	sort.Strings(files)
	return files, nil
}
