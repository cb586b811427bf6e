// Package tag defines the tag records produced by extraction and the sink
// interface extractors write them to.
package tag

import "fmt"

// Kind classifies a tag record.
type Kind int

// Tag kinds, one per extracted construct.
const (
	ID Kind = iota
	Title
	Keyword
	Citekey
	Wikilink
	RefTitle
)

var kindNames = [...]string{"id", "title", "keyword", "citekey", "wikilink", "reftitle"}
var kindCodes = [...]byte{'i', 't', 'k', 'c', 'w', 'r'}

// String returns the kind's name ("id", "keyword", ...).
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Code returns the kind's one-letter code used in compact listings.
func (k Kind) Code() byte {
	if k < 0 || int(k) >= len(kindCodes) {
		return '?'
	}
	return kindCodes[k]
}

// KindFromName maps a kind name back to its Kind.
func KindFromName(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// Role qualifies how a tag references its target.
type Role int

// Tag roles. NoRole marks a plain definition tag.
const (
	NoRole Role = iota
	Index
	Bibliography
	Identifier
)

var roleNames = [...]string{"", "index", "bibliography", "identifier"}

// String returns the role's name, empty for NoRole.
func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// RoleFromName maps a role name back to its Role.
func RoleFromName(name string) (Role, bool) {
	for i, n := range roleNames {
		if i > 0 && n == name {
			return Role(i), true
		}
	}
	if name == "" {
		return NoRole, true
	}
	return 0, false
}

// FieldID identifies an attachable tag field.
type FieldID int

// Attachable fields. FieldIdentifier and FieldTitle are filled in after tag
// creation; FieldEncodedName and FieldSummary are rendered at output time and
// exist here so configuration can enable them by id.
const (
	FieldIdentifier FieldID = iota
	FieldTitle
	FieldEncodedName
	FieldSummary
)

var fieldNames = [...]string{"identifier", "title", "encodedTagName", "summaryLine"}

// String returns the field's name.
func (f FieldID) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldNames[f]
}

// FieldFromName resolves a field name as written in configuration and
// format strings.
func FieldFromName(name string) (FieldID, bool) {
	for i, n := range fieldNames {
		if n == name {
			return FieldID(i), true
		}
	}
	return 0, false
}

// Handle is an opaque reference to a created tag, valid for the sink that
// issued it.
type Handle int

// Tag is one extracted tag record.
type Tag struct {
	Name   string
	Kind   Kind
	Role   Role
	Line   int
	Fields map[FieldID]string
}

// Field returns the value attached under f, empty if absent.
func (t Tag) Field(f FieldID) string {
	return t.Fields[f]
}

// Sink receives tag records as extraction discovers them. Create returns a
// handle that later Attach calls patch fields onto. Implementations are driven
// by a single goroutine and need no internal locking.
type Sink interface {
	Create(name string, kind Kind, role Role, line int) (Handle, error)
	Attach(h Handle, field FieldID, value string) error
}

// Recorder is a Sink that collects tags in creation order. The zero value is
// ready to use.
type Recorder struct {
	tags []Tag
}

// Create appends a tag and returns its handle.
func (r *Recorder) Create(name string, kind Kind, role Role, line int) (Handle, error) {
	r.tags = append(r.tags, Tag{Name: name, Kind: kind, Role: role, Line: line})
	return Handle(len(r.tags) - 1), nil
}

// Attach sets a field on a previously created tag.
func (r *Recorder) Attach(h Handle, field FieldID, value string) error {
	if h < 0 || int(h) >= len(r.tags) {
		return fmt.Errorf("attach %s: no tag with handle %d", field, int(h))
	}
	t := &r.tags[h]
	if t.Fields == nil {
		t.Fields = make(map[FieldID]string, 2)
	}
	t.Fields[field] = value
	return nil
}

// Tags returns the collected tags in creation order.
func (r *Recorder) Tags() []Tag {
	return r.tags
}

// Reset drops all collected tags.
func (r *Recorder) Reset() {
	r.tags = r.tags[:0]
}
