// Package score parses a MusicXML document into header + ordered parts +
// ordered raw measures for fan-out use, and answers structural queries such
// as the source key signature. Measure text is kept verbatim so a split
// document reassembles byte-for-byte.
package score

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/tonerow/capo/core/errors"
	"github.com/tonerow/capo/core/key"
	"github.com/tonerow/capo/core/rewrite"
	corexml "github.com/tonerow/capo/core/xml"
)

// Document is a split score. Preamble is the XML declaration/DOCTYPE block,
// Header everything from the root open tag up to the first part element,
// Trailer everything after the last part (normally just the root close tag).
type Document struct {
	Preamble []byte
	Header   []byte
	Parts    []Part
	Trailer  []byte
}

// Part is one instrument/voice line. OpenTag and CloseTag carry the
// surrounding whitespace so Assemble reproduces the source exactly; each
// measure likewise includes its leading inter-measure whitespace.
type Part struct {
	ID       string
	OpenTag  []byte
	Measures [][]byte
	CloseTag []byte
}

// Split parses a document into its structural pieces. The concatenation
// invariant holds: Assemble() of the result equals the input byte-for-byte.
func Split(doc []byte) (*Document, error) {
	preamble, body := rewrite.SplitPreamble(doc)
	d := &Document{Preamble: preamble}

	dec := xml.NewDecoder(bytes.NewReader(body))

	var (
		prev     int64 // offset of the first byte not yet assigned
		depth    int
		cur      *Part
		inPart   int   // nesting depth inside the current part element
		mStart   int64 // unassigned-start when the current measure opened
		inMeas   int   // nesting depth inside the current measure
		sawPart  bool
	)

	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParse("MusicXML", err)
		}
		end := dec.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case cur == nil && depth == 2 && t.Name.Local == "part":
				if !sawPart {
					d.Header = body[:start]
					prev = start
					sawPart = true
				}
				cur = &Part{ID: attr(t, "id"), OpenTag: body[prev:end]}
				prev = end
				inPart = 0
			case cur != nil && inMeas > 0:
				inMeas++
			case cur != nil && inPart == 0 && t.Name.Local == "measure":
				mStart = prev
				inMeas = 1
			case cur != nil:
				inPart++
			}
		case xml.EndElement:
			depth--
			switch {
			case cur != nil && inMeas > 0:
				inMeas--
				if inMeas == 0 {
					cur.Measures = append(cur.Measures, body[mStart:end])
					prev = end
				}
			case cur != nil && inPart > 0:
				inPart--
			case cur != nil:
				// The part's own closing tag.
				cur.CloseTag = body[prev:end]
				prev = end
				d.Parts = append(d.Parts, *cur)
				cur = nil
			}
		}
	}

	if !sawPart {
		d.Header = body
		return d, nil
	}
	d.Trailer = body[prev:]
	return d, nil
}

// Assemble reconstructs the serialized document.
func (d *Document) Assemble() []byte {
	var out bytes.Buffer
	out.Write(d.Preamble)
	out.Write(d.Header)
	for _, p := range d.Parts {
		out.Write(p.OpenTag)
		for _, m := range p.Measures {
			out.Write(m)
		}
		out.Write(p.CloseTag)
	}
	out.Write(d.Trailer)
	return out.Bytes()
}

// MeasureCount returns the total number of measures across all parts.
func (d *Document) MeasureCount() int {
	n := 0
	for _, p := range d.Parts {
		n += len(p.Measures)
	}
	return n
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// FindKey returns the first key signature in the document. The second
// return is false when none is present, in which case the zero-fifths major
// default is returned for labeling purposes.
func FindKey(doc []byte) (key.Signature, bool) {
	def := key.Signature{Fifths: 0, Mode: key.ModeMajor}

	_, body := rewrite.SplitPreamble(doc)
	parsed, err := corexml.Parse(body)
	if err != nil {
		return def, false
	}
	node, err := parsed.XPathFirst("//attributes/key")
	if err != nil || node == nil {
		return def, false
	}

	sig := def
	if f := node.First("fifths"); f != nil {
		if v, err := strconv.Atoi(strings.TrimSpace(f.Text())); err == nil {
			sig.Fifths = v
		}
	}
	if m := node.First("mode"); m != nil {
		sig.Mode = key.NormalizeMode(m.Text())
	}
	return sig, true
}
