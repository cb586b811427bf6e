package metadata

import "fmt"

// TokenType identifies a structural event in a metadata token stream.
type TokenType int

const (
	// StreamStart opens a token stream and resets all extractor state.
	StreamStart TokenType = iota
	// StreamEnd closes a token stream and flushes pending patches.
	StreamEnd
	// DocumentStart separates documents within one stream.
	DocumentStart
	// DocumentEnd terminates the current document.
	DocumentEnd
	// BlockMappingStart opens an indentation-delimited mapping.
	BlockMappingStart
	// FlowMappingStart opens a {}-delimited mapping.
	FlowMappingStart
	// BlockSequenceStart opens an indentation-delimited sequence.
	BlockSequenceStart
	// FlowSequenceStart opens a []-delimited sequence.
	FlowSequenceStart
	// BlockEnd closes the innermost block container, mapping or sequence.
	BlockEnd
	// FlowMappingEnd closes a {}-delimited mapping.
	FlowMappingEnd
	// FlowSequenceEnd closes a []-delimited sequence.
	FlowSequenceEnd
	// KeyMarker announces that the next scalar is a mapping key.
	KeyMarker
	// Scalar carries a text value with its source line.
	Scalar
)

var tokenNames = []string{
	StreamStart:        "stream-start",
	StreamEnd:          "stream-end",
	DocumentStart:      "document-start",
	DocumentEnd:        "document-end",
	BlockMappingStart:  "block-mapping-start",
	FlowMappingStart:   "flow-mapping-start",
	BlockSequenceStart: "block-sequence-start",
	FlowSequenceStart:  "flow-sequence-start",
	BlockEnd:           "block-end",
	FlowMappingEnd:     "flow-mapping-end",
	FlowSequenceEnd:    "flow-sequence-end",
	KeyMarker:          "key",
	Scalar:             "scalar",
}

// String returns a stable lowercase name for the token type.
func (t TokenType) String() string {
	if t < 0 || int(t) >= len(tokenNames) {
		return fmt.Sprintf("token(%d)", int(t))
	}
	return tokenNames[t]
}

// Token is one event produced by a tokenizer and consumed by an Extractor.
// Text and Line are meaningful only for Scalar tokens.
type Token struct {
	Type TokenType
	Text string
	Line int
}

func (t Token) String() string {
	if t.Type == Scalar {
		return fmt.Sprintf("scalar(%q@%d)", t.Text, t.Line)
	}
	return t.Type.String()
}
