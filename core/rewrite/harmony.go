package rewrite

import (
	"strconv"
	"strings"

	"github.com/tonerow/capo/core/pitch"
)

// harmonyNote is the per-block bookkeeping for one chord root or bass: the
// captured step and alteration, and whether the source block carried an
// explicit alter sub-element. The joint {step, alter} pair is transposed as
// a unit; transposing the step on its own would misspell chords like Cb.
type harmonyNote struct {
	step         byte
	alter        int
	hasAlterElem bool
}

// harmonyFromSubtree extracts chord fields from a buffered root or bass
// subtree. prefix is "root-" or "bass-". ok is false when the block carries
// no usable step element, in which case it passes through verbatim.
func harmonyFromSubtree(b *subtree, prefix string) (harmonyNote, bool) {
	stepSeg, _ := b.findLeaf(prefix + "step")
	if stepSeg == nil || stepSeg.nested {
		return harmonyNote{}, false
	}
	step, ok := parseStep(stepSeg.text.String())
	if !ok {
		return harmonyNote{}, false
	}

	h := harmonyNote{step: step}
	if alterSeg, _ := b.findLeaf(prefix + "alter"); alterSeg != nil {
		if alterSeg.nested {
			return harmonyNote{}, false
		}
		h.hasAlterElem = true
		h.alter = parseIntDefault(alterSeg.text.String(), 0)
	}
	return h, true
}

// transposed returns the chord's new spelling; octave is meaningless for
// chord symbols and ignored.
func (h harmonyNote) transposed(semitones int) pitch.Pitch {
	return pitch.Class(h.step, h.alter, semitones)
}

// parseStep extracts a step letter A-G from element text.
func parseStep(text string) (byte, bool) {
	s := strings.TrimSpace(text)
	if len(s) != 1 {
		return 0, false
	}
	c := s[0]
	if c >= 'a' && c <= 'g' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'G' {
		return 0, false
	}
	return c, true
}

// parseIntDefault parses element text as an integer, silently defaulting
// when missing or unparsable.
func parseIntDefault(text string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return def
	}
	return n
}
