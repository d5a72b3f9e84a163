// Package key provides circle-of-fifths key signature transposition and
// human-readable key naming.
package key

import "strings"

// Mode values recognized in key signatures. Anything else is treated as major.
const (
	ModeMajor = "major"
	ModeMinor = "minor"
)

// Signature is one key signature: a signed count of sharps (positive) or
// flats (negative) plus a mode. Fifths is kept within [-7,7].
type Signature struct {
	Fifths int
	Mode   string
}

// fifthsDelta maps a semitone interval normalized into [0,12) to the change
// in the fifths count. Chromatic steps do not correspond 1:1 with
// circle-of-fifths steps, so this table is authoritative; naive
// fifths+semitones addition is wrong for every interval but 0.
var fifthsDelta = [12]int{0, 7, 2, -3, 4, -1, 6, 1, -4, 3, -2, 5}

// TransposeFifths shifts a key signature by the given semitone interval.
// The result is wrapped into [-7,7]; twelve fifths-steps are one full
// enharmonic cycle, so wrapping preserves the sounding key. Out-of-range
// input fifths are wrapped the same way first.
func TransposeFifths(fifths, semitones int) int {
	n := ((semitones % 12) + 12) % 12
	return wrapFifths(wrapFifths(fifths) + fifthsDelta[n])
}

func wrapFifths(f int) int {
	for f > 7 {
		f -= 12
	}
	for f < -7 {
		f += 12
	}
	return f
}

// Tonic spellings by fifths, index = fifths+7. The sharp/flat boundary is
// conventional, not derivable from a formula, hence explicit tables.
var majorTonics = [15]string{
	"Cb", "Gb", "Db", "Ab", "Eb", "Bb", "F",
	"C", "G", "D", "A", "E", "B", "F#", "C#",
}

var minorTonics = [15]string{
	"Ab", "Eb", "Bb", "F", "C", "G", "D",
	"A", "E", "B", "F#", "C#", "G#", "D#", "A#",
}

// Name returns the display label for a key signature, e.g. "Bb major" or
// "F# minor". Fifths outside [-7,7] are clamped to the nearest bound.
func Name(fifths int, mode string) string {
	if fifths > 7 {
		fifths = 7
	}
	if fifths < -7 {
		fifths = -7
	}
	if NormalizeMode(mode) == ModeMinor {
		return minorTonics[fifths+7] + " minor"
	}
	return majorTonics[fifths+7] + " major"
}

// NormalizeMode maps a raw mode string to ModeMajor or ModeMinor.
// Unknown and empty modes default to major.
func NormalizeMode(mode string) string {
	if strings.EqualFold(strings.TrimSpace(mode), ModeMinor) {
		return ModeMinor
	}
	return ModeMajor
}

// Name returns the display label for the signature.
func (s Signature) Name() string {
	return Name(s.Fifths, s.Mode)
}
