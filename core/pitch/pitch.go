// Package pitch provides semitone-accurate pitch transposition.
//
// Spelling is intentionally sharp-only: every chromatic pitch class maps to
// one fixed spelling from {C,C#,D,D#,E,F,F#,G,G#,A,A#,B}, regardless of the
// destination key. Downstream consumers rely on this, so it must not be made
// key-aware without re-deriving the full behavioral contract.
package pitch

import (
	"regexp"
	"strconv"

	"github.com/tonerow/capo/core/errors"
)

// Pitch is one transposed note spelling. Alter is the chromatic alteration
// in semitones (1 = sharp); Octave follows scientific pitch notation.
type Pitch struct {
	Step   byte
	Alter  int
	Octave int
}

// DefaultOctave is assumed when a source note carries no octave element.
const DefaultOctave = 4

// naturalSemitones maps a step letter to its semitone offset within the octave.
var naturalSemitones = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// spelling is the fixed sharp-preferring table indexed by pitch class.
var spelling = [12]Pitch{
	{Step: 'C', Alter: 0},
	{Step: 'C', Alter: 1},
	{Step: 'D', Alter: 0},
	{Step: 'D', Alter: 1},
	{Step: 'E', Alter: 0},
	{Step: 'F', Alter: 0},
	{Step: 'F', Alter: 1},
	{Step: 'G', Alter: 0},
	{Step: 'G', Alter: 1},
	{Step: 'A', Alter: 0},
	{Step: 'A', Alter: 1},
	{Step: 'B', Alter: 0},
}

// Transpose shifts a pitch by the given number of semitones.
// It is pure and total: unknown step letters are treated as C.
func Transpose(step byte, alter, octave, semitones int) Pitch {
	total := naturalSemitones[step] + alter + octave*12 + semitones

	newOctave := total / 12
	if total < 0 && total%12 != 0 {
		newOctave--
	}
	class := ((total % 12) + 12) % 12

	p := spelling[class]
	p.Octave = newOctave
	return p
}

// Class shifts a pitch class only, ignoring octave. Used for chord
// root/bass symbols, which carry no octave information.
func Class(step byte, alter, semitones int) Pitch {
	total := naturalSemitones[step] + alter + semitones
	class := ((total % 12) + 12) % 12
	return spelling[class]
}

// accidentalNames maps an alter value to its canonical accidental name.
var accidentalNames = map[int]string{
	2:  "double-sharp",
	1:  "sharp",
	0:  "natural",
	-1: "flat",
	-2: "double-flat",
}

// AccidentalName returns the canonical accidental name for an alter value.
// The second return is false for alters outside [-2,2], in which case the
// caller should leave the original accidental text untouched.
func AccidentalName(alter int) (string, bool) {
	name, ok := accidentalNames[alter]
	return name, ok
}

// intervalPattern is the required shape of an interval argument: an optional
// sign followed by decimal digits. A missing sign means positive.
var intervalPattern = regexp.MustCompile(`^[+-]?\d+$`)

// ParseSemitones parses a signed semitone interval string. Invalid input is
// an *errors.IntervalError and must be rejected before any document parsing.
func ParseSemitones(s string) (int, error) {
	if !intervalPattern.MatchString(s) {
		return 0, &errors.IntervalError{Input: s}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Pattern matched but the value does not fit an int.
		return 0, &errors.IntervalError{Input: s, Err: err}
	}
	return n, nil
}
