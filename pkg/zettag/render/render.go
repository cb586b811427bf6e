// Package render turns tag records into output representations: the
// percent-encoded name field, summary lines and tags file rows.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zettelware/zettag/pkg/zettag/tag"
)

// DefaultSummaryFormat joins the deferred identifier and title.
const DefaultSummaryFormat = "%{identifier}:%{title}"

// ErrBadFormat reports an unusable summary format string.
var ErrBadFormat = errors.New("bad summary format")

const hexdigits = "0123456789abcdef"

// PercentEncode encodes every byte outside printable ASCII, plus the
// percent sign itself, as lowercase %xx.
func PercentEncode(s string) string {
	var b strings.Builder
	appendEncoded(&b, s)
	return b.String()
}

func appendEncoded(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x21 || c > 0x7e || c == '%' {
			b.WriteByte('%')
			b.WriteByte(hexdigits[c>>4])
			b.WriteByte(hexdigits[c&0x0f])
		} else {
			b.WriteByte(c)
		}
	}
}

func encodeHead(b *strings.Builder, c byte) {
	b.WriteByte('%')
	b.WriteByte(hexdigits[c>>4])
	b.WriteByte(hexdigits[c&0x0f])
}

// Encoder renders the encoded name field. Titles and keywords are
// percent-encoded with their own configured prefix kept verbatim;
// identifiers and citation keys pass through untouched.
type Encoder struct {
	prefixes map[tag.Kind]string
}

// NewEncoder returns an encoder using the given per-kind name
// prefixes. A nil map means no prefixes are configured.
func NewEncoder(prefixes map[tag.Kind]string) *Encoder {
	return &Encoder{prefixes: prefixes}
}

func (e *Encoder) prefix(k tag.Kind) string {
	if e.prefixes == nil {
		return ""
	}
	return e.prefixes[k]
}

var encodedKinds = []tag.Kind{tag.Title, tag.Keyword, tag.RefTitle}

// EncodedName returns the form of the tag name written to machine
// readable outputs. The name's own prefix stays verbatim; a name that
// instead begins with another kind's prefix, or with an exclamation
// mark, gets its first byte encoded so renderings never collide.
func (e *Encoder) EncodedName(t tag.Tag) string {
	encodable := false
	for _, k := range encodedKinds {
		if t.Kind == k {
			encodable = true
			break
		}
	}
	if !encodable {
		return t.Name
	}

	var b strings.Builder
	rest := t.Name
	own := e.prefix(t.Kind)
	switch {
	case own != "" && strings.HasPrefix(rest, own):
		b.WriteString(own)
		rest = rest[len(own):]
	case e.foreignPrefix(t.Kind, rest):
		encodeHead(&b, rest[0])
		rest = rest[1:]
	case len(rest) > 0 && rest[0] == '!':
		// a leading bang would sort among pseudo-tags
		encodeHead(&b, rest[0])
		rest = rest[1:]
	}
	appendEncoded(&b, rest)
	return b.String()
}

func (e *Encoder) foreignPrefix(k tag.Kind, name string) bool {
	for _, other := range encodedKinds {
		if other == k {
			continue
		}
		if p := e.prefix(other); p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

type sumPart struct {
	lit   string
	field tag.FieldID
	ref   bool
	name  bool
}

// Summary is a compiled summary format string.
type Summary struct {
	parts []sumPart
}

// CompileSummary parses a format string. Literal text is copied
// through and "%%" is a literal percent sign. A "%{identifier}"-style
// reference inserts the named field value; "%{name}" inserts the tag
// name itself.
func CompileSummary(format string) (*Summary, error) {
	var parts []sumPart
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, sumPart{lit: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			lit.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			return nil, fmt.Errorf("%w: trailing %% in %q", ErrBadFormat, format)
		}
		switch format[i] {
		case '%':
			lit.WriteByte('%')
		case '{':
			end := strings.IndexByte(format[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated reference in %q", ErrBadFormat, format)
			}
			name := format[i+1 : i+end]
			part := sumPart{name: true}
			if name != "name" {
				f, ok := tag.FieldFromName(name)
				if !ok {
					return nil, fmt.Errorf("%w: unknown field %q", ErrBadFormat, name)
				}
				part = sumPart{field: f, ref: true}
			}
			flush()
			parts = append(parts, part)
			i += end
		default:
			return nil, fmt.Errorf("%w: unknown directive %%%c", ErrBadFormat, format[i])
		}
	}
	flush()
	return &Summary{parts: parts}, nil
}

// MustSummary compiles a format known to be valid at build time.
func MustSummary(format string) *Summary {
	s, err := CompileSummary(format)
	if err != nil {
		panic(err)
	}
	return s
}

// Render fills the format from one tag. Absent fields render as
// empty strings.
func (s *Summary) Render(t tag.Tag) string {
	var b strings.Builder
	for _, p := range s.parts {
		switch {
		case p.name:
			b.WriteString(t.Name)
		case p.ref:
			b.WriteString(t.Field(p.field))
		default:
			b.WriteString(p.lit)
		}
	}
	return b.String()
}

// tagLineFields fixes the column order of attached fields.
var tagLineFields = []tag.FieldID{
	tag.FieldIdentifier,
	tag.FieldTitle,
	tag.FieldEncodedName,
	tag.FieldSummary,
}

// TagLine renders one tags file row: name, file and line address,
// then the kind code and any attached fields with their values
// percent-encoded.
func TagLine(t tag.Tag, file string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\t%s\t%d;\"\tkind:%c", t.Name, file, t.Line, t.Kind.Code())
	if t.Role != tag.NoRole {
		fmt.Fprintf(&b, "\troles:%s", t.Role)
	}
	for _, f := range tagLineFields {
		if v, ok := t.Fields[f]; ok {
			fmt.Fprintf(&b, "\t%s:%s", f, PercentEncode(v))
		}
	}
	return b.String()
}

// Xref renders one cross-reference listing row with fixed-width
// columns: name, kind, line, file, then the summary when one is
// attached.
func Xref(t tag.Tag, file string) string {
	row := fmt.Sprintf("%-16s %-8s %4d %-16s %s",
		t.Name, t.Kind, t.Line, file, t.Field(tag.FieldSummary))
	return strings.TrimRight(row, " ")
}
