package rewrite

import "bytes"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SplitPreamble detects an optional UTF-8 BOM, XML declaration, and DOCTYPE
// at the start of a document and separates them from the body. The preamble
// is returned verbatim, including trailing whitespace, so callers can
// prepend it unchanged to rewritten output. The DOCTYPE scan is aware of an
// internal subset: a '>' inside [...] does not terminate the declaration.
func SplitPreamble(doc []byte) (preamble, body []byte) {
	i := 0
	if bytes.HasPrefix(doc, utf8BOM) {
		i = len(utf8BOM)
	}
	i = skipSpace(doc, i)

	if bytes.HasPrefix(doc[i:], []byte("<?xml")) {
		end := bytes.Index(doc[i:], []byte("?>"))
		if end < 0 {
			return doc[:i], doc[i:]
		}
		i += end + 2
		i = skipSpace(doc, i)
	}

	if bytes.HasPrefix(doc[i:], []byte("<!DOCTYPE")) {
		depth := 0
		j := i
	scan:
		for ; j < len(doc); j++ {
			switch doc[j] {
			case '[':
				depth++
			case ']':
				depth--
			case '>':
				if depth <= 0 {
					j++
					break scan
				}
			}
		}
		i = j
		i = skipSpace(doc, i)
	}

	return doc[:i], doc[i:]
}

func skipSpace(data []byte, i int) int {
	for i < len(data) {
		switch data[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}
