// Package rewrite implements the streaming semantic rewrite engine: an
// event-driven pass over a MusicXML document that transposes note pitches,
// key signatures and chord symbols by a semitone interval while reproducing
// every other byte of the document unchanged.
//
// Byte fidelity is achieved by slicing raw source bytes per decoder token:
// anything not captured by a rewrite rule is copied verbatim, preserving
// attribute order, quoting, entities and whitespace exactly as written.
package rewrite

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"

	"github.com/tonerow/capo/core/encoding"
	"github.com/tonerow/capo/core/errors"
	"github.com/tonerow/capo/core/key"
	"github.com/tonerow/capo/core/pitch"
)

// Transpose rewrites doc by the given semitone interval. A fresh engine is
// constructed per call; all scratch state (context stack, capture buffers,
// harmony records) is call-scoped, so concurrent calls on shared input are
// safe. Malformed markup yields a *errors.ParseError and no output.
func Transpose(doc []byte, semitones int) ([]byte, error) {
	preamble, body := SplitPreamble(doc)

	t := &transposer{semitones: semitones, src: body}
	if err := t.run(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(preamble)+t.out.Len())
	out = append(out, preamble...)
	out = append(out, t.out.Bytes()...)
	return out, nil
}

// noteState is the per-note scratch record. The transposed alter is
// remembered so a later accidental element can be remapped.
type noteState struct {
	rewritten bool
	alter     int
}

// leafCapture buffers one simple element (accidental, fifths) whose text may
// be replaced on close. inner holds the verbatim source bytes between the
// tags for the pass-through case; other holds only the non-text children
// (comments, processing instructions), which survive a text substitution.
type leafCapture struct {
	name    string
	openRaw []byte
	text    bytes.Buffer
	inner   bytes.Buffer
	other   bytes.Buffer
}

// transposer is the event state machine. One instance serves exactly one
// call and is then discarded.
type transposer struct {
	semitones int
	src       []byte
	out       bytes.Buffer

	stack   []string
	note    *noteState
	block   *subtree
	capture *leafCapture
}

func (t *transposer) run() error {
	dec := xml.NewDecoder(bytes.NewReader(t.src))

	var prev int64
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.NewParse("MusicXML", err)
		}
		off := dec.InputOffset()
		raw := t.src[prev:off]
		prev = off
		t.handle(tok, raw)
	}
	return nil
}

func (t *transposer) push(name string) { t.stack = append(t.stack, name) }

func (t *transposer) pop() {
	if n := len(t.stack); n > 0 {
		t.stack = t.stack[:n-1]
	}
}

func (t *transposer) parent() string {
	if n := len(t.stack); n > 0 {
		return t.stack[n-1]
	}
	return ""
}

func (t *transposer) handle(tok xml.Token, raw []byte) {
	if t.block != nil {
		t.block.feed(tok, raw)
		if t.block.done {
			t.out.Write(t.processBlock(t.block))
			t.block = nil
		}
		return
	}

	switch tok := tok.(type) {
	case xml.StartElement:
		name := tok.Name.Local
		if t.capture != nil {
			// Unexpected child inside a captured leaf: the leaf no
			// longer matches any capture rule, pass it through.
			t.flushCapture()
		}
		switch {
		case name == "pitch":
			t.block = newSubtree(name, raw)
			return
		case (name == "root" || name == "bass") && t.parent() == "harmony":
			t.block = newSubtree(name, raw)
			return
		case name == "accidental" && t.note != nil && t.parent() == "note":
			t.capture = &leafCapture{name: name, openRaw: raw}
			t.push(name)
			return
		case name == "fifths" && t.parent() == "key":
			t.capture = &leafCapture{name: name, openRaw: raw}
			t.push(name)
			return
		case name == "note":
			t.note = &noteState{}
		}
		t.push(name)
		t.out.Write(raw)

	case xml.EndElement:
		name := tok.Name.Local
		if t.capture != nil && t.capture.name == name {
			t.pop()
			t.finishCapture(raw)
			return
		}
		t.pop()
		if name == "note" {
			t.note = nil
		}
		t.out.Write(raw)

	case xml.CharData:
		if t.capture != nil {
			t.capture.text.Write(tok)
			t.capture.inner.Write(raw)
			return
		}
		t.out.Write(raw)

	default:
		if t.capture != nil {
			t.capture.inner.Write(raw)
			t.capture.other.Write(raw)
			return
		}
		t.out.Write(raw)
	}
}

// flushCapture abandons an active leaf capture, emitting what was consumed
// so far byte-for-byte.
func (t *transposer) flushCapture() {
	t.out.Write(t.capture.openRaw)
	t.out.Write(t.capture.inner.Bytes())
	t.capture = nil
}

// finishCapture closes a captured leaf, emitting either rewritten text or
// the original bytes.
func (t *transposer) finishCapture(closeRaw []byte) {
	c := t.capture
	t.capture = nil

	switch c.name {
	case "fifths":
		v, err := strconv.Atoi(string(bytes.TrimSpace(c.text.Bytes())))
		if err == nil {
			t.emitCaptured(c, strconv.Itoa(key.TransposeFifths(v, t.semitones)), closeRaw)
			return
		}
	case "accidental":
		if t.note != nil && t.note.rewritten {
			if name, ok := pitch.AccidentalName(t.note.alter); ok {
				t.emitCaptured(c, name, closeRaw)
				return
			}
		}
	}

	t.out.Write(c.openRaw)
	t.out.Write(c.inner.Bytes())
	t.out.Write(closeRaw)
}

// emitCaptured writes a captured leaf with substituted text. Non-text
// children ride along after the new value; a self-closing source leaf is
// expanded into a paired element so the value lands inside it.
func (t *transposer) emitCaptured(c *leafCapture, text string, closeRaw []byte) {
	open := c.openRaw
	if len(closeRaw) == 0 {
		open, closeRaw = splitSelfClosing(c.openRaw, c.name)
	}
	t.out.Write(open)
	t.out.WriteString(text)
	t.out.Write(c.other.Bytes())
	t.out.Write(closeRaw)
}

// splitSelfClosing converts a self-closing tag into a paired open/close tag
// pair, preserving any attributes. The open tag is copied since the input
// slice aliases the source document.
func splitSelfClosing(openRaw []byte, name string) (open, closing []byte) {
	trimmed := bytes.TrimSuffix(openRaw, []byte("/>"))
	open = make([]byte, 0, len(trimmed)+1)
	open = append(open, trimmed...)
	open = append(open, '>')
	return open, []byte("</" + name + ">")
}

// processBlock rewrites a completed pitch or root/bass subtree.
func (t *transposer) processBlock(b *subtree) []byte {
	switch b.name {
	case "pitch":
		return t.rewritePitch(b)
	case "root", "bass":
		return t.rewriteHarmony(b)
	}
	return b.verbatim()
}

func (t *transposer) rewritePitch(b *subtree) []byte {
	stepSeg, _ := b.findLeaf("step")
	if stepSeg == nil || stepSeg.nested {
		return b.verbatim()
	}
	step, ok := parseStep(stepSeg.text.String())
	if !ok {
		return b.verbatim()
	}

	alter := 0
	if alterSeg, _ := b.findLeaf("alter"); alterSeg != nil {
		if alterSeg.nested {
			return b.verbatim()
		}
		alter = parseIntDefault(alterSeg.text.String(), 0)
	}
	octave := pitch.DefaultOctave
	if octaveSeg, _ := b.findLeaf("octave"); octaveSeg != nil {
		if octaveSeg.nested {
			return b.verbatim()
		}
		octave = parseIntDefault(octaveSeg.text.String(), pitch.DefaultOctave)
	}

	p := pitch.Transpose(step, alter, octave, t.semitones)
	if t.note != nil {
		t.note.rewritten = true
		t.note.alter = p.Alter
	}
	return renderTransposed(b, "step", "alter", "octave", p)
}

func (t *transposer) rewriteHarmony(b *subtree) []byte {
	prefix := b.name + "-"
	h, ok := harmonyFromSubtree(b, prefix)
	if !ok {
		return b.verbatim()
	}
	p := h.transposed(t.semitones)
	return renderTransposed(b, prefix+"step", prefix+"alter", "", p)
}

// renderTransposed re-emits a buffered subtree with its step, alter and
// octave leaves substituted for the transposed values. The alter element is
// dropped when the new alteration is zero and inserted (after the step
// element, cloning the surrounding indentation) when nonzero and previously
// absent, so the block always ends with at most one alteration element
// consistent with the transposed value. Everything else in the subtree is
// emitted byte-for-byte.
func renderTransposed(b *subtree, stepName, alterName, octaveName string, p pitch.Pitch) []byte {
	_, stepIdx := b.findLeaf(stepName)
	_, alterIdx := b.findLeaf(alterName)
	octaveIdx := -1
	if octaveName != "" {
		_, octaveIdx = b.findLeaf(octaveName)
	}

	dropAlter := alterIdx >= 0 && p.Alter == 0
	insertAlter := alterIdx < 0 && p.Alter != 0
	// A pitch without an octave element was read as octave 4; the rebuilt
	// element states the octave explicitly since transposition may move it.
	// It goes after the alter element when one survives, otherwise after step.
	insertOctave := octaveName != "" && octaveIdx < 0
	octaveAfterAlter := insertOctave && alterIdx >= 0 && !dropAlter

	// Indentation to clone for an inserted element: the whitespace run
	// immediately before the step leaf, if any.
	var indent []byte
	if stepIdx > 0 {
		if s := b.segs[stepIdx-1]; !s.leaf && isSpace(s.full.Bytes()) {
			indent = s.full.Bytes()
		}
	}

	var out bytes.Buffer
	// Substituted leaves keep their source tags; a self-closing leaf is
	// expanded so the value lands inside the element.
	writeLeaf := func(s *seg, name, text string) {
		open, closing := s.openRaw, s.closeRaw
		if len(closing) == 0 {
			open, closing = splitSelfClosing(s.openRaw, name)
		}
		out.Write(open)
		out.WriteString(text)
		out.Write(closing)
	}
	out.Write(b.openRaw)
	for i, s := range b.segs {
		if dropAlter {
			if i == alterIdx {
				continue
			}
			// Swallow the dropped element's leading whitespace as well.
			if i == alterIdx-1 && !s.leaf && isSpace(s.full.Bytes()) {
				continue
			}
		}
		switch i {
		case stepIdx:
			writeLeaf(s, stepName, encoding.EscapeXMLText(string(p.Step)))
			if insertAlter {
				out.Write(indent)
				out.WriteString("<" + alterName + ">")
				out.WriteString(strconv.Itoa(p.Alter))
				out.WriteString("</" + alterName + ">")
			}
			if insertOctave && !octaveAfterAlter {
				out.Write(indent)
				out.WriteString("<" + octaveName + ">")
				out.WriteString(strconv.Itoa(p.Octave))
				out.WriteString("</" + octaveName + ">")
			}
		case alterIdx:
			writeLeaf(s, alterName, strconv.Itoa(p.Alter))
			if octaveAfterAlter {
				out.Write(indent)
				out.WriteString("<" + octaveName + ">")
				out.WriteString(strconv.Itoa(p.Octave))
				out.WriteString("</" + octaveName + ">")
			}
		case octaveIdx:
			writeLeaf(s, octaveName, strconv.Itoa(p.Octave))
		default:
			out.Write(s.full.Bytes())
		}
	}
	out.Write(b.closeRaw)
	return out.Bytes()
}
