package metadata

import (
	"errors"
	"fmt"

	"github.com/zettelware/zettag/pkg/zettag/tag"
)

// ErrUnbalanced reports a container end token with no open container.
var ErrUnbalanced = errors.New("unbalanced container end")

type containerKind int8

const (
	containerMapping containerKind = iota
	containerSequence
)

// record is one pending tag scope: the tags awaiting their deferred
// fields plus the identifier/title accumulators that will patch them.
type record struct {
	queue    []tag.Handle
	id       string
	hasID    bool
	title    string
	hasTitle bool
}

// Extractor turns a metadata token stream into tag records on a Sink.
//
// Keys of the top-level mapping select what the following value scalars
// mean; identifier and title values are additionally held back and
// patched onto every tag of the record once it closes, so tags created
// before those keys appear still receive them. A nested reference block
// repeats the same mechanic per entry with its own scope.
//
// Feed returns ErrUnbalanced when a container end arrives with nothing
// open; every other irregularity degrades to fewer tags.
type Extractor struct {
	schema *Schema
	sink   tag.Sink

	stack    []containerKind
	mapping  int
	sequence int

	keyPending bool
	expected   FieldKind
	refMode    bool

	outer record
	ref   record
}

// NewExtractor returns an extractor writing through sink. A nil schema
// selects DefaultSchema.
func NewExtractor(schema *Schema, sink tag.Sink) *Extractor {
	if schema == nil {
		schema = DefaultSchema()
	}
	return &Extractor{schema: schema, sink: sink}
}

// Reset discards all state, including tags still awaiting patches.
func (e *Extractor) Reset() {
	e.stack = e.stack[:0]
	e.mapping, e.sequence = 0, 0
	e.keyPending = false
	e.expected = FieldNone
	e.refMode = false
	e.outer = record{}
	e.ref = record{}
}

// Depths returns the open mapping and sequence counts, in that order.
func (e *Extractor) Depths() (int, int) { return e.mapping, e.sequence }

// Pending returns how many tags await deferred patching.
func (e *Extractor) Pending() int { return len(e.outer.queue) + len(e.ref.queue) }

// Feed consumes one token.
func (e *Extractor) Feed(t Token) error {
	switch t.Type {
	case StreamStart:
		e.Reset()

	case StreamEnd, DocumentStart, DocumentEnd:
		e.keyPending = false
		e.expected = FieldNone
		return e.flush()

	case BlockMappingStart, FlowMappingStart:
		e.keyPending = false
		e.stack = append(e.stack, containerMapping)
		e.mapping++

	case BlockSequenceStart, FlowSequenceStart:
		e.keyPending = false
		e.stack = append(e.stack, containerSequence)
		e.sequence++

	case BlockEnd, FlowMappingEnd, FlowSequenceEnd:
		e.keyPending = false
		k, ok := e.pop()
		if !ok {
			return fmt.Errorf("%s: %w", t.Type, ErrUnbalanced)
		}
		if k == containerMapping {
			e.mapping--
		} else {
			e.sequence--
		}
		return e.containerClosed(k)

	case KeyMarker:
		return e.markKey()

	case Scalar:
		wasKey := e.keyPending
		e.keyPending = false
		if wasKey {
			e.classifyKey(t.Text)
			return nil
		}
		return e.value(t)
	}
	return nil
}

func (e *Extractor) pop() (containerKind, bool) {
	n := len(e.stack)
	if n == 0 {
		return 0, false
	}
	k := e.stack[n-1]
	e.stack = e.stack[:n-1]
	return k, true
}

// markKey arms key classification for the next scalar when the marker
// sits at a recognized depth; anywhere else it cancels the current
// expectation.
func (e *Extractor) markKey() error {
	switch {
	case e.mapping == 1 && e.sequence == 0:
		if e.refMode {
			// a top-level key means the reference block is over
			if err := e.exitRef(); err != nil {
				return err
			}
		}
		e.keyPending = true
	case e.refMode && e.mapping == 2:
		e.keyPending = true
	default:
		e.keyPending = false
		e.expected = FieldNone
	}
	return nil
}

// classifyKey matches a key scalar against the active key table.
// Unmatched keys clear the expectation so their values are skipped.
func (e *Extractor) classifyKey(key string) {
	table := e.schema.Keys
	if e.refMode && e.mapping >= 2 {
		table = e.schema.RefKeys
	}
	fk := table[key]
	if fk == FieldReferenceBlock {
		if len(e.schema.RefKeys) == 0 {
			fk = FieldNone
		} else {
			e.refMode = true
		}
	}
	e.expected = fk
}

// value builds tags for one value scalar according to the expected
// field's policy. Values outside the field's depth are ignored.
func (e *Extractor) value(t Token) error {
	if e.expected == FieldNone {
		return nil
	}
	if e.refMode {
		if e.mapping != 2 {
			return nil
		}
	} else if e.mapping != 1 {
		return nil
	}
	pol, ok := fieldPolicies[e.expected]
	if !ok {
		return nil
	}

	rec := &e.outer
	if e.refMode {
		rec = &e.ref
	}
	switch pol.accum {
	case accumID:
		rec.id, rec.hasID = t.Text, true
	case accumTitle:
		rec.title, rec.hasTitle = t.Text, true
	}

	if pol.split {
		for _, name := range e.schema.SplitCitations(t.Text) {
			if err := e.emit(rec, name, pol, t.Line); err != nil {
				return err
			}
		}
		return nil
	}
	name := t.Text
	if pol.sigil {
		name = e.schema.EnsureSigil(name)
	}
	return e.emit(rec, name, pol, t.Line)
}

// emit creates one tag and queues it for deferred patching. A
// disabled kind or a disabled role creates nothing.
func (e *Extractor) emit(rec *record, name string, pol fieldPolicy, line int) error {
	if !e.schema.KindEnabled(pol.kind) {
		return nil
	}
	if !e.schema.RoleEnabled(pol.role) {
		return nil
	}
	if pol.prefix {
		name = e.schema.prefix(pol.kind) + name
	}
	h, err := e.sink.Create(name, pol.kind, pol.role, line)
	if err != nil {
		return err
	}
	rec.queue = append(rec.queue, h)
	return nil
}

// containerClosed reacts to a popped container while in reference
// mode: a mapping dropping back to depth one finishes one reference
// entry, and closing the enclosing structure leaves reference mode.
func (e *Extractor) containerClosed(k containerKind) error {
	if !e.refMode {
		return nil
	}
	if k == containerMapping {
		switch e.mapping {
		case 1:
			return e.drainRef()
		case 0:
			return e.exitRef()
		}
		return nil
	}
	if e.mapping < 2 && e.sequence < 2 {
		return e.exitRef()
	}
	return nil
}

func (e *Extractor) drainRef() error {
	e.expected = FieldNone
	return e.drain(&e.ref)
}

func (e *Extractor) exitRef() error {
	e.refMode = false
	return e.drainRef()
}

// flush ends the current document: leftover reference state first,
// then the outer record.
func (e *Extractor) flush() error {
	if e.refMode {
		if err := e.exitRef(); err != nil {
			return err
		}
	}
	return e.drain(&e.outer)
}

// drain patches every queued tag with the record's accumulated
// identifier and title, newest tag first, then clears the record. A
// field is attached only when a value arrived and the field itself or
// the summary rendering depends on it.
func (e *Extractor) drain(rec *record) error {
	q := rec.queue
	id, hasID := rec.id, rec.hasID
	title, hasTitle := rec.title, rec.hasTitle
	rec.queue = rec.queue[:0]
	rec.id, rec.hasID = "", false
	rec.title, rec.hasTitle = "", false

	patchID := hasID &&
		(e.schema.FieldEnabled(tag.FieldIdentifier) || e.schema.FieldEnabled(tag.FieldSummary))
	patchTitle := hasTitle &&
		(e.schema.FieldEnabled(tag.FieldTitle) || e.schema.FieldEnabled(tag.FieldSummary))
	if !patchID && !patchTitle {
		return nil
	}
	for i := len(q) - 1; i >= 0; i-- {
		if patchID {
			if err := e.sink.Attach(q[i], tag.FieldIdentifier, id); err != nil {
				return err
			}
		}
		if patchTitle {
			if err := e.sink.Attach(q[i], tag.FieldTitle, title); err != nil {
				return err
			}
		}
	}
	return nil
}
