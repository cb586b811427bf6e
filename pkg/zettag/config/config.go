// Package config loads and validates zettag configuration files.
package config

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/zettelware/zettag/pkg/zettag/render"
	"github.com/zettelware/zettag/pkg/zettag/tag"
	"github.com/zettelware/zettag/pkg/zettag/zid"
)

// DefaultFileName is the config file looked up in the vault root.
const DefaultFileName = ".zettag.yaml"

// DefaultIndexPath is the index database, relative to the vault root.
const DefaultIndexPath = ".zettag/index.db"

// Config drives extraction and indexing.
type Config struct {
	Vault string `yaml:"vault"` // note tree root
	Index string `yaml:"index"` // index database path

	Include []string `yaml:"include"` // glob patterns for note files
	Exclude []string `yaml:"exclude"`

	Keys          Keys              `yaml:"keys"`
	Prefixes      map[string]string `yaml:"prefixes"` // tag kind -> name prefix
	Sigil         string            `yaml:"sigil"`
	SummaryFormat string            `yaml:"summary-format"`

	Kinds  map[string]bool `yaml:"kinds"`
	Roles  map[string]bool `yaml:"roles"`
	Fields map[string]bool `yaml:"fields"`

	Body  Body    `yaml:"body"`
	Watch Watch   `yaml:"watch"`
	New   NewNote `yaml:"new"`
}

// Keys names the frontmatter keys recognized during extraction.
// Empty entries disable the key.
type Keys struct {
	ID         string `yaml:"id"`
	Title      string `yaml:"title"`
	Keywords   string `yaml:"keywords"`
	Citations  string `yaml:"citations"`
	Next       string `yaml:"next"`
	References string `yaml:"references"`
	RefID      string `yaml:"reference-id"`
	RefTitle   string `yaml:"reference-title"`
}

// Body controls markdown body scanning.
type Body struct {
	Enabled bool `yaml:"enabled"`
}

// Watch controls the vault watcher.
type Watch struct {
	DebounceMS int `yaml:"debounce-ms"`
}

// NewNote controls note creation.
type NewNote struct {
	IDStyle string `yaml:"id-style"` // timestamp or ulid
}

// Default returns the configuration used when no file is present:
// conventional key names, no prefixes, everything enabled.
func Default() *Config {
	return &Config{
		Vault:   ".",
		Index:   DefaultIndexPath,
		Include: []string{"**/*.md"},
		Keys: Keys{
			ID:         "id",
			Title:      "title",
			Keywords:   "keywords",
			Citations:  "nocite",
			Next:       "next",
			References: "references",
			RefID:      "id",
			RefTitle:   "title",
		},
		Sigil:         "@",
		SummaryFormat: render.DefaultSummaryFormat,
		Body:          Body{Enabled: true},
		Watch:         Watch{DebounceMS: 400},
		New:           NewNote{IDStyle: "timestamp"},
	}
}

// Load reads a config file over the defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path if it exists and falls back to Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks names, patterns and formats.
func (c *Config) Validate() error {
	for name := range c.Prefixes {
		if _, ok := tag.KindFromName(name); !ok {
			return fmt.Errorf("prefixes: unknown tag kind %q", name)
		}
	}
	for name := range c.Kinds {
		if _, ok := tag.KindFromName(name); !ok {
			return fmt.Errorf("kinds: unknown tag kind %q", name)
		}
	}
	for name := range c.Roles {
		if _, ok := tag.RoleFromName(name); !ok || name == "" {
			return fmt.Errorf("roles: unknown role %q", name)
		}
	}
	for name := range c.Fields {
		if _, ok := tag.FieldFromName(name); !ok {
			return fmt.Errorf("fields: unknown field %q", name)
		}
	}
	for _, pattern := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("bad glob pattern %q", pattern)
		}
	}
	if _, err := render.CompileSummary(c.SummaryFormat); err != nil {
		return err
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch debounce must not be negative")
	}
	if _, ok := zid.StyleFromName(c.New.IDStyle); !ok {
		return fmt.Errorf("new: unknown id style %q", c.New.IDStyle)
	}
	return nil
}

// IDStyle returns the configured identifier style for new notes.
func (c *Config) IDStyle() zid.Style {
	s, _ := zid.StyleFromName(c.New.IDStyle)
	return s
}
