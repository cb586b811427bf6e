// Package yamlite tokenizes the YAML subset found in note frontmatter.
//
// It is not a YAML parser. It covers what zettelkasten metadata blocks
// actually use: block mappings by indentation, block sequences by dash
// items, flow sequences and mappings, plain and quoted scalars, literal
// and folded block scalars, comments and document markers. Everything
// else degrades to plain scalars rather than erroring.
package yamlite

import (
	"strings"

	"github.com/zettelware/zettag/pkg/zettag/metadata"
)

type frame struct {
	indent   int
	sequence bool
}

// Tokenizer converts metadata text into a token stream, one line at a
// time. Use Tokenize unless lines arrive incrementally.
type Tokenizer struct {
	out    []metadata.Token
	frames []frame
	flow   []byte // open flow brackets, innermost last

	bsActive bool // collecting a block scalar
	bsFolded bool
	bsMin    int // content must be indented past this
	bsIndent int // detected content indentation, -1 until known
	bsLine   int
	bsLines  []string
}

// Tokenize scans src and returns its token stream, bracketed by
// stream start and end. base is the 1-based source line of the first
// line of src, so tags report positions in the enclosing file.
func Tokenize(src string, base int) []metadata.Token {
	t := NewTokenizer()
	for i, line := range strings.Split(src, "\n") {
		t.Line(line, base+i)
	}
	return t.Finish()
}

// NewTokenizer returns a tokenizer with the stream already opened.
func NewTokenizer() *Tokenizer {
	t := &Tokenizer{bsIndent: -1}
	t.emit(metadata.StreamStart, "", 0)
	return t
}

// Line consumes one source line. n is its 1-based line number.
func (t *Tokenizer) Line(line string, n int) {
	line = strings.TrimSuffix(line, "\r")

	if t.bsActive && !t.blockScalarLine(line, n) {
		return
	}
	if len(t.flow) > 0 {
		t.flowChunk(strings.TrimLeft(line, " \t"), n)
		return
	}

	indent := 0
	for indent < len(line) && line[indent] == ' ' {
		indent++
	}
	rest := line[indent:]

	switch {
	case rest == "" || rest[0] == '#':
		return
	case indent == 0 && isDocMarker(rest, "---"):
		t.closePast(-1)
		t.emit(metadata.DocumentStart, "", n)
		return
	case indent == 0 && isDocMarker(rest, "..."):
		t.closePast(-1)
		t.emit(metadata.DocumentEnd, "", n)
		return
	}
	t.block(indent, rest, n)
}

// Finish flushes pending state and closes the stream.
func (t *Tokenizer) Finish() []metadata.Token {
	t.flushBlockScalar()
	for i := len(t.flow) - 1; i >= 0; i-- {
		if t.flow[i] == '[' {
			t.emit(metadata.FlowSequenceEnd, "", 0)
		} else {
			t.emit(metadata.FlowMappingEnd, "", 0)
		}
	}
	t.flow = t.flow[:0]
	t.closePast(-1)
	t.emit(metadata.StreamEnd, "", 0)
	return t.out
}

func (t *Tokenizer) emit(tt metadata.TokenType, text string, line int) {
	t.out = append(t.out, metadata.Token{Type: tt, Text: text, Line: line})
}

func isDocMarker(rest, marker string) bool {
	if !strings.HasPrefix(rest, marker) {
		return false
	}
	tail := rest[len(marker):]
	return tail == "" || tail[0] == ' ' || tail[0] == '\t'
}

// block handles one line of block-context content at the given indent.
func (t *Tokenizer) block(indent int, rest string, n int) {
	// dash items may chain: "- - a" opens nested sequences
	for rest == "-" || strings.HasPrefix(rest, "- ") {
		t.alignSequence(indent)
		if rest == "-" {
			return
		}
		body := rest[1:]
		pad := 0
		for pad < len(body) && body[pad] == ' ' {
			pad++
		}
		indent += 1 + pad
		rest = body[pad:]
		if rest == "" || rest[0] == '#' {
			return
		}
	}

	if key, val, ok := splitKey(rest); ok {
		t.alignMapping(indent)
		t.emit(metadata.KeyMarker, "", n)
		t.emit(metadata.Scalar, key, n)
		t.value(val, indent, n)
		return
	}

	t.closePast(indent)
	if sc := plainScalar(rest); sc != "" {
		t.emit(metadata.Scalar, sc, n)
	}
}

// closePast pops frames indented deeper than indent.
func (t *Tokenizer) closePast(indent int) {
	for len(t.frames) > 0 && t.frames[len(t.frames)-1].indent > indent {
		t.frames = t.frames[:len(t.frames)-1]
		t.emit(metadata.BlockEnd, "", 0)
	}
}

// alignSequence prepares the frame stack for a dash item. A dash at
// the same indentation as the enclosing mapping belongs to a
// zero-indented sequence, which produces no sequence tokens at all.
func (t *Tokenizer) alignSequence(indent int) {
	t.closePast(indent)
	if n := len(t.frames); n > 0 && t.frames[n-1].indent == indent {
		return
	}
	t.frames = append(t.frames, frame{indent: indent, sequence: true})
	t.emit(metadata.BlockSequenceStart, "", 0)
}

// alignMapping prepares the frame stack for a key at the given indent.
func (t *Tokenizer) alignMapping(indent int) {
	t.closePast(indent)
	if n := len(t.frames); n > 0 && t.frames[n-1].indent == indent && !t.frames[n-1].sequence {
		return
	}
	t.frames = append(t.frames, frame{indent: indent})
	t.emit(metadata.BlockMappingStart, "", 0)
}

// splitKey splits "key: value" lines. The separator is a colon followed
// by whitespace or end of line, so URLs in values stay intact.
func splitKey(rest string) (key, val string, ok bool) {
	if rest[0] == '"' || rest[0] == '\'' {
		text, tail, qok := quotedScalar(rest)
		if !qok {
			return "", "", false
		}
		tail = strings.TrimLeft(tail, " \t")
		if tail == ":" {
			return text, "", true
		}
		if strings.HasPrefix(tail, ": ") {
			return text, tail[2:], true
		}
		return "", "", false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] != ':' {
			continue
		}
		if i+1 == len(rest) {
			return strings.TrimRight(rest[:i], " \t"), "", true
		}
		if rest[i+1] == ' ' || rest[i+1] == '\t' {
			return strings.TrimRight(rest[:i], " \t"), rest[i+2:], true
		}
	}
	return "", "", false
}

// value emits tokens for the text after "key:".
func (t *Tokenizer) value(val string, keyIndent, n int) {
	val = strings.TrimLeft(val, " \t")
	if val == "" || val[0] == '#' {
		return
	}
	switch val[0] {
	case '[', '{':
		t.flowChunk(val, n)
	case '"', '\'':
		if text, _, ok := quotedScalar(val); ok {
			t.emit(metadata.Scalar, text, n)
		} else {
			// unterminated quote, keep the raw text
			t.emit(metadata.Scalar, val, n)
		}
	case '|', '>':
		t.bsActive = true
		t.bsFolded = val[0] == '>'
		t.bsMin = keyIndent
		t.bsIndent = -1
		t.bsLine = 0
		t.bsLines = t.bsLines[:0]
	default:
		if sc := plainScalar(val); sc != "" {
			t.emit(metadata.Scalar, sc, n)
		}
	}
}

// plainScalar strips an end-of-line comment and surrounding space.
func plainScalar(s string) string {
	if i := strings.Index(s, " #"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// quotedScalar reads a leading quoted scalar and returns the remainder.
func quotedScalar(s string) (text, rest string, ok bool) {
	quote := s[0]
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == quote && quote == '\'' && i+1 < len(s) && s[i+1] == '\'':
			b.WriteByte('\'')
			i++
		case c == quote:
			return b.String(), s[i+1:], true
		case c == '\\' && quote == '"' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", "", false
}

// blockScalarLine consumes one line of a literal or folded scalar.
// It reports true when the line is not part of the scalar and must be
// processed normally.
func (t *Tokenizer) blockScalarLine(line string, n int) bool {
	indent := 0
	for indent < len(line) && line[indent] == ' ' {
		indent++
	}
	blank := indent == len(line)
	if !blank && t.bsIndent < 0 {
		if indent <= t.bsMin {
			t.flushBlockScalar()
			return true
		}
		t.bsIndent = indent
	}
	if !blank && indent < t.bsIndent {
		t.flushBlockScalar()
		return true
	}
	if t.bsLine == 0 {
		t.bsLine = n
	}
	if blank {
		t.bsLines = append(t.bsLines, "")
	} else {
		t.bsLines = append(t.bsLines, line[t.bsIndent:])
	}
	return false
}

func (t *Tokenizer) flushBlockScalar() {
	if !t.bsActive {
		return
	}
	t.bsActive = false
	lines := t.bsLines
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return
	}
	sep := "\n"
	if t.bsFolded {
		sep = " "
	}
	t.emit(metadata.Scalar, strings.Join(lines, sep), t.bsLine)
}

// flowChunk consumes flow-context text, possibly continuing a flow
// collection opened on an earlier line.
func (t *Tokenizer) flowChunk(s string, n int) {
	i := 0
	for i < len(s) {
		switch c := s[i]; c {
		case ' ', '\t', ',':
			i++
		case '#':
			return
		case '[':
			t.flow = append(t.flow, '[')
			t.emit(metadata.FlowSequenceStart, "", n)
			i++
		case '{':
			t.flow = append(t.flow, '{')
			t.emit(metadata.FlowMappingStart, "", n)
			i++
		case ']':
			if t.closeFlow('[') {
				t.emit(metadata.FlowSequenceEnd, "", n)
			}
			i++
		case '}':
			if t.closeFlow('{') {
				t.emit(metadata.FlowMappingEnd, "", n)
			}
			i++
		case ':':
			// stray separator, the scalar reader consumes paired ones
			i++
		default:
			text, next := flowScalar(s, i)
			i = next
			if j := skipSpace(s, i); j < len(s) && s[j] == ':' && isFlowColon(s, j) {
				t.emit(metadata.KeyMarker, "", n)
				i = j + 1
			}
			t.emit(metadata.Scalar, text, n)
		}
	}
}

func (t *Tokenizer) closeFlow(open byte) bool {
	n := len(t.flow)
	if n == 0 || t.flow[n-1] != open {
		return false
	}
	t.flow = t.flow[:n-1]
	return true
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

// isFlowColon reports whether the colon at j separates a key from its
// value rather than sitting inside a scalar.
func isFlowColon(s string, j int) bool {
	if j+1 == len(s) {
		return true
	}
	switch s[j+1] {
	case ' ', '\t', ',', ']', '}':
		return true
	}
	return false
}

// flowScalar reads one quoted or plain scalar starting at i.
func flowScalar(s string, i int) (string, int) {
	if s[i] == '"' || s[i] == '\'' {
		if text, rest, ok := quotedScalar(s[i:]); ok {
			return text, len(s) - len(rest)
		}
		return s[i+1:], len(s)
	}
	start := i
	for i < len(s) {
		switch s[i] {
		case ',', ']', '}', '#':
			return strings.TrimSpace(s[start:i]), i
		case ':':
			if isFlowColon(s, i) {
				return strings.TrimSpace(s[start:i]), i
			}
		}
		i++
	}
	return strings.TrimSpace(s[start:]), i
}
