package metadata

import (
	"strings"

	"github.com/zettelware/zettag/pkg/zettag/tag"
)

// FieldKind classifies what a matched metadata key means for extraction.
type FieldKind int

const (
	// FieldNone marks an unrecognized key; values under it are ignored.
	FieldNone FieldKind = iota
	// FieldIdentifier is the note's own id, deferred onto every tag of the record.
	FieldIdentifier
	// FieldTitle is the note's display title, deferred like the identifier.
	FieldTitle
	// FieldKeyword yields one index tag per value scalar.
	FieldKeyword
	// FieldCitation yields bibliography tags from a citation key list.
	FieldCitation
	// FieldNextLink yields a link tag naming a successor note.
	FieldNextLink
	// FieldReferenceBlock introduces the nested reference entries.
	FieldReferenceBlock
	// FieldReferenceID is the id of one nested reference entry.
	FieldReferenceID
	// FieldReferenceTitle is the title of one nested reference entry.
	FieldReferenceTitle
)

var fieldKindNames = []string{
	FieldNone:           "none",
	FieldIdentifier:     "identifier",
	FieldTitle:          "title",
	FieldKeyword:        "keyword",
	FieldCitation:       "citation",
	FieldNextLink:       "next-link",
	FieldReferenceBlock: "reference-block",
	FieldReferenceID:    "reference-id",
	FieldReferenceTitle: "reference-title",
}

// String returns a stable lowercase name for the field kind.
func (f FieldKind) String() string {
	if f < 0 || int(f) >= len(fieldKindNames) {
		return "none"
	}
	return fieldKindNames[f]
}

// accumKind names which deferred accumulator a field feeds, if any.
type accumKind int

const (
	accumNone accumKind = iota
	accumID
	accumTitle
)

// fieldPolicy drives tag construction for one field kind. Every
// recognized field goes through the same builder path consulting one
// of these rows.
type fieldPolicy struct {
	kind   tag.Kind
	role   tag.Role
	accum  accumKind
	split  bool // split the scalar into citation list entries
	sigil  bool // guarantee the citation marker prefix on the name
	prefix bool // apply the configured per-kind name prefix
}

var fieldPolicies = map[FieldKind]fieldPolicy{
	FieldIdentifier:     {kind: tag.ID, accum: accumID, prefix: true},
	FieldTitle:          {kind: tag.Title, accum: accumTitle, prefix: true},
	FieldKeyword:        {kind: tag.Keyword, role: tag.Index, prefix: true},
	FieldCitation:       {kind: tag.Citekey, role: tag.Bibliography, split: true, sigil: true},
	FieldNextLink:       {kind: tag.Wikilink, role: tag.Identifier, prefix: true},
	FieldReferenceID:    {kind: tag.Citekey, role: tag.Bibliography, accum: accumID, sigil: true},
	FieldReferenceTitle: {kind: tag.RefTitle, accum: accumTitle, prefix: true},
}

// Schema maps metadata keys to field kinds and carries the knobs that
// shape tag names. Key matching is exact and case sensitive. Nil enable
// maps mean everything of that dimension is enabled.
type Schema struct {
	// Keys matches scalar keys of the top-level mapping.
	Keys map[string]FieldKind
	// RefKeys matches scalar keys inside a reference entry.
	RefKeys map[string]FieldKind

	// Prefixes are prepended to tag names, per kind.
	Prefixes map[tag.Kind]string
	// Sigil is the citation marker, "@" unless overridden.
	Sigil string

	// Kinds, Roles and Fields gate tag creation and patch attachment.
	Kinds  map[tag.Kind]bool
	Roles  map[tag.Role]bool
	Fields map[tag.FieldID]bool
}

// DefaultSchema returns the schema for conventional zettelkasten
// frontmatter: id, title, keywords, nocite, next and a references block
// whose entries carry id and title.
func DefaultSchema() *Schema {
	return &Schema{
		Keys: map[string]FieldKind{
			"id":         FieldIdentifier,
			"title":      FieldTitle,
			"keywords":   FieldKeyword,
			"nocite":     FieldCitation,
			"next":       FieldNextLink,
			"references": FieldReferenceBlock,
		},
		RefKeys: map[string]FieldKind{
			"id":    FieldReferenceID,
			"title": FieldReferenceTitle,
		},
		Prefixes: map[tag.Kind]string{},
		Sigil:    "@",
	}
}

// KindEnabled reports whether tags of the kind may be created.
func (s *Schema) KindEnabled(k tag.Kind) bool {
	if s.Kinds == nil {
		return true
	}
	return s.Kinds[k]
}

// RoleEnabled reports whether tags carrying the role may be created.
func (s *Schema) RoleEnabled(r tag.Role) bool {
	if r == tag.NoRole || s.Roles == nil {
		return true
	}
	return s.Roles[r]
}

// FieldEnabled reports whether the deferred field may be attached.
func (s *Schema) FieldEnabled(f tag.FieldID) bool {
	if s.Fields == nil {
		return true
	}
	return s.Fields[f]
}

func (s *Schema) sigil() string {
	if s.Sigil == "" {
		return "@"
	}
	return s.Sigil
}

func (s *Schema) prefix(k tag.Kind) string {
	if s.Prefixes == nil {
		return ""
	}
	return s.Prefixes[k]
}

// citationDelims separate entries of a citation key list.
const citationDelims = " \t\r\n,"

// SplitCitations breaks a scalar into citation names. Entries already
// carrying the sigil keep it untouched, bare citation keys gain exactly
// one, and entries that start with neither the sigil nor a citation key
// character are dropped.
func (s *Schema) SplitCitations(text string) []string {
	sig := s.sigil()
	var out []string
	for _, raw := range strings.FieldsFunc(text, func(r rune) bool {
		return strings.ContainsRune(citationDelims, r)
	}) {
		if strings.HasPrefix(raw, sig) {
			out = append(out, raw)
			continue
		}
		if citekeyStart(rune(raw[0])) {
			out = append(out, sig+raw)
		}
	}
	return out
}

// EnsureSigil prepends the citation marker unless the name already
// starts with it.
func (s *Schema) EnsureSigil(name string) string {
	sig := s.sigil()
	if strings.HasPrefix(name, sig) {
		return name
	}
	return sig + name
}

func citekeyStart(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
