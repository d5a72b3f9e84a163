package rewrite

import (
	"bytes"
	"encoding/xml"
)

// seg is one top-level piece of a buffered subtree: either a leaf element
// (open tag, accumulated text, close tag) or plain raw bytes between leaves
// (whitespace, comments).
type seg struct {
	leaf     bool
	name     string
	openRaw  []byte
	closeRaw []byte
	text     bytes.Buffer // decoded character data of a leaf
	full     bytes.Buffer // verbatim source bytes of the whole segment
	nested   bool         // leaf contains child elements; never substituted
}

// subtree buffers one container element (pitch, root, bass) token by token
// so it can be rewritten atomically once the whole element is known. This
// replaces retroactive patching of already-emitted output: a step spelling
// depends on an alter seen later in the same block.
type subtree struct {
	name     string
	openRaw  []byte
	closeRaw []byte
	segs     []*seg
	cur      *seg
	depth    int
	done     bool
}

func newSubtree(name string, openRaw []byte) *subtree {
	return &subtree{name: name, openRaw: openRaw}
}

// feed consumes the next decoder token and its raw source bytes. Once the
// container's own end tag arrives, done is set.
func (b *subtree) feed(tok xml.Token, raw []byte) {
	switch t := tok.(type) {
	case xml.StartElement:
		if b.cur == nil {
			b.cur = &seg{leaf: true, name: t.Name.Local, openRaw: raw}
			b.cur.full.Write(raw)
			b.depth = 1
			return
		}
		b.cur.nested = true
		b.cur.full.Write(raw)
		b.depth++
	case xml.EndElement:
		if b.cur == nil {
			// The container's own closing tag.
			b.closeRaw = raw
			b.done = true
			return
		}
		b.depth--
		b.cur.full.Write(raw)
		if b.depth == 0 {
			b.cur.closeRaw = raw
			b.segs = append(b.segs, b.cur)
			b.cur = nil
		}
	case xml.CharData:
		if b.cur != nil {
			b.cur.text.Write(t)
			b.cur.full.Write(raw)
			return
		}
		b.plain(raw)
	default:
		// Comments and processing instructions ride along verbatim.
		if b.cur != nil {
			b.cur.full.Write(raw)
			return
		}
		b.plain(raw)
	}
}

func (b *subtree) plain(raw []byte) {
	s := &seg{}
	s.full.Write(raw)
	b.segs = append(b.segs, s)
}

// findLeaf returns the first leaf segment with the given element name.
func (b *subtree) findLeaf(name string) (*seg, int) {
	for i, s := range b.segs {
		if s.leaf && s.name == name {
			return s, i
		}
	}
	return nil, -1
}

// verbatim re-emits the subtree exactly as it appeared in the source.
func (b *subtree) verbatim() []byte {
	var out bytes.Buffer
	out.Write(b.openRaw)
	for _, s := range b.segs {
		out.Write(s.full.Bytes())
	}
	out.Write(b.closeRaw)
	return out.Bytes()
}

// isSpace reports whether raw is entirely XML whitespace.
func isSpace(raw []byte) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}
