// Package markdown scans note bodies for wikilinks and citations and
// splits frontmatter from the text around it.
package markdown

import (
	"regexp"
	"strings"

	"github.com/zettelware/zettag/pkg/zettag/tag"
)

// Note is a source file split into its metadata block and body.
// MetaLine and BodyLine are the 1-based lines where each part starts.
type Note struct {
	Meta     string
	MetaLine int
	Body     string
	BodyLine int
}

// Split separates a leading frontmatter block, fenced by a "---" first
// line and a "---" or "..." line, from the body. Files without the
// fence are all body.
func Split(src string) Note {
	lines := strings.Split(src, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t\r") != "---" {
		return Note{Body: src, BodyLine: 1}
	}
	for i := 1; i < len(lines); i++ {
		mark := strings.TrimRight(lines[i], " \t\r")
		if mark == "---" || mark == "..." {
			return Note{
				Meta:     strings.Join(lines[1:i], "\n"),
				MetaLine: 2,
				Body:     strings.Join(lines[i+1:], "\n"),
				BodyLine: i + 2,
			}
		}
	}
	// unterminated fence, treat the whole file as metadata
	return Note{Meta: strings.Join(lines[1:], "\n"), MetaLine: 2}
}

var (
	wikiRe = regexp.MustCompile(`\[\[([^][#|]+)(?:#[^][|]*)?(?:\|[^][]*)?\]\]`)
	citeRe = regexp.MustCompile(`@([a-zA-Z0-9_][a-zA-Z0-9_:.#$%&+?<>~/-]*)`)
	codeRe = regexp.MustCompile("`[^`]*`")
)

// Scanner extracts link and citation tags from markdown text. Fenced
// code blocks, inline code spans and HTML comments are skipped.
type Scanner struct {
	schema *scanSchema
}

type scanSchema struct {
	kinds map[tag.Kind]bool
	roles map[tag.Role]bool
}

// NewScanner returns a body scanner. Nil maps enable everything.
func NewScanner(kinds map[tag.Kind]bool, roles map[tag.Role]bool) *Scanner {
	return &Scanner{schema: &scanSchema{kinds: kinds, roles: roles}}
}

func (s *scanSchema) kind(k tag.Kind) bool {
	if s.kinds == nil {
		return true
	}
	return s.kinds[k]
}

func (s *scanSchema) role(r tag.Role) bool {
	if s.roles == nil {
		return true
	}
	return s.roles[r]
}

// Scan walks body line by line and creates one tag per wikilink and
// per citation. base is the 1-based line number of the first body line.
func (s *Scanner) Scan(body string, base int, sink tag.Sink) error {
	var fence string // active code fence marker, "" outside
	inComment := false

	for i, line := range strings.Split(body, "\n") {
		n := base + i
		trimmed := strings.TrimLeft(line, " \t")

		if fence != "" {
			if fenceCloser(trimmed, fence) {
				fence = ""
			}
			continue
		}
		if !inComment && (strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t")) {
			// indented verbatim block
			continue
		}
		if mark := fenceMarker(trimmed); mark != "" {
			fence = mark
			continue
		}

		line, inComment = stripComments(line, inComment)
		line = codeRe.ReplaceAllStringFunc(line, blank)
		if err := s.scanLine(line, n, sink); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) scanLine(line string, n int, sink tag.Sink) error {
	// wikilinks first; their spans are blanked so link targets never
	// double as citations
	if s.schema.kind(tag.Wikilink) && s.schema.role(tag.Identifier) {
		for _, m := range wikiRe.FindAllStringSubmatchIndex(line, -1) {
			target := strings.TrimSpace(line[m[2]:m[3]])
			if target == "" {
				continue
			}
			if _, err := sink.Create(target, tag.Wikilink, tag.Identifier, n); err != nil {
				return err
			}
		}
	}
	line = wikiRe.ReplaceAllStringFunc(line, blank)

	if !s.schema.kind(tag.Citekey) || !s.schema.role(tag.Bibliography) {
		return nil
	}
	for _, m := range citeRe.FindAllStringSubmatchIndex(line, -1) {
		if !citeBoundary(line, m[0]) {
			continue
		}
		name := "@" + line[m[2]:m[3]]
		if _, err := sink.Create(name, tag.Citekey, tag.Bibliography, n); err != nil {
			return err
		}
	}
	return nil
}

// citeBoundary rejects markers glued to a word, an escape or another
// marker, so emails and escaped citations stay untagged.
func citeBoundary(line string, at int) bool {
	if at == 0 {
		return true
	}
	switch c := line[at-1]; {
	case c == '@' || c == '\\' || c == '_':
		return false
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return false
	}
	return true
}

func fenceMarker(trimmed string) string {
	if strings.HasPrefix(trimmed, "```") {
		return "```"
	}
	if strings.HasPrefix(trimmed, "~~~") {
		return "~~~"
	}
	return ""
}

// fenceCloser reports whether the line ends an open fence: a marker
// run, possibly longer than the opener, with only whitespace after it.
func fenceCloser(trimmed, fence string) bool {
	if !strings.HasPrefix(trimmed, fence) {
		return false
	}
	rest := strings.TrimLeft(trimmed, fence[:1])
	return strings.TrimRight(rest, " \t\r") == ""
}

// stripComments blanks HTML comment content, carrying open comments
// across lines.
func stripComments(line string, open bool) (string, bool) {
	var b strings.Builder
	for {
		if open {
			end := strings.Index(line, "-->")
			if end < 0 {
				return b.String(), true
			}
			line = line[end+3:]
			open = false
			continue
		}
		start := strings.Index(line, "<!--")
		if start < 0 {
			b.WriteString(line)
			return b.String(), false
		}
		b.WriteString(line[:start])
		line = line[start+4:]
		open = true
	}
}

func blank(s string) string {
	return strings.Repeat(" ", len(s))
}
