// Package zid mints identifiers for new notes.
package zid

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Style selects the identifier form.
type Style int

// Identifier styles.
const (
	// StyleTimestamp mints wall-clock ids in the classic
	// zettelkasten form, 20240131094500 for example.
	StyleTimestamp Style = iota
	// StyleULID mints ULIDs: 26 characters, lexicographically
	// sortable, safe to mint many per second.
	StyleULID
)

var styleNames = [...]string{
	StyleTimestamp: "timestamp",
	StyleULID:      "ulid",
}

// String returns the style name used in configuration files.
func (s Style) String() string {
	if int(s) < len(styleNames) {
		return styleNames[s]
	}
	return fmt.Sprintf("Style(%d)", int(s))
}

// StyleFromName resolves a configuration value to a Style.
func StyleFromName(name string) (Style, bool) {
	for i, n := range styleNames {
		if n == name {
			return Style(i), true
		}
	}
	return 0, false
}

// timestampLayout is second-resolution wall clock time.
const timestampLayout = "20060102150405"

// Generator mints note identifiers. Construct with New; a Generator is
// safe for concurrent use.
type Generator struct {
	style Style
	now   func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	floor   time.Time
}

// New returns a generator minting ids of the given style.
func New(style Style) *Generator {
	return &Generator{
		style:   style,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewID mints the next identifier. Timestamp ids minted faster than
// the clock ticks are bumped forward one second at a time, so ids from
// one generator never collide.
func (g *Generator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.style == StyleULID {
		return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
	}

	t := g.now().Truncate(time.Second)
	if !t.After(g.floor) {
		t = g.floor.Add(time.Second)
	}
	g.floor = t
	return t.Format(timestampLayout)
}
