// Package allkeys fans a document out into twelve independently transposed
// copies, in a chosen practice order, with display labels derived from the
// source key signature.
package allkeys

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tonerow/capo/core/errors"
	"github.com/tonerow/capo/core/key"
	"github.com/tonerow/capo/core/rewrite"
	"github.com/tonerow/capo/core/score"
)

// Order selects the key sequence used for the fan-out.
type Order int

const (
	// Chromatic ascends by semitones: 0..11.
	Chromatic Order = iota
	// CircleOfFourths steps by perfect fourths from the tonic, the
	// canonical jazz practice order.
	CircleOfFourths
)

// ParseOrder maps an order name to its Order value.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "chromatic":
		return Chromatic, nil
	case "fourths", "circle-of-fourths":
		return CircleOfFourths, nil
	}
	return 0, errors.NewUnsupported("key order", fmt.Sprintf("%q is not chromatic or fourths", s))
}

func (o Order) String() string {
	if o == CircleOfFourths {
		return "fourths"
	}
	return "chromatic"
}

var chromaticSeq = [12]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}

// Successive +5 semitone steps from the tonic, wrapped mod 12.
var fourthsSeq = [12]int{0, 5, 10, 3, 8, 1, 6, 11, 4, 9, 2, 7}

// Sequence returns the semitone intervals for an order, in output order.
func Sequence(o Order) []int {
	if o == CircleOfFourths {
		return append([]int(nil), fourthsSeq[:]...)
	}
	return append([]int(nil), chromaticSeq[:]...)
}

// Rendering is one transposed copy of the source document.
type Rendering struct {
	Label     string
	Semitones int
	Document  []byte
}

// Batch is the result of one fan-out run. ID correlates the renderings in
// manifests and logs.
type Batch struct {
	ID         string
	Order      Order
	Renderings []Rendering
}

// Generate produces exactly twelve renderings of doc, one per semitone
// interval of the requested order, in that order. Labels come from the
// source key signature transposed per entry; a source without a key
// signature is labeled from the zero-fifths major default (the musical
// transposition itself is unaffected). The first failing key aborts the
// whole batch.
func Generate(doc []byte, order Order) (*Batch, error) {
	sig, _ := score.FindKey(doc)

	batch := &Batch{
		ID:         uuid.New().String(),
		Order:      order,
		Renderings: make([]Rendering, 0, 12),
	}
	for _, s := range Sequence(order) {
		out, err := rewrite.Transpose(doc, s)
		if err != nil {
			return nil, errors.Wrapf(err, "transposing by %d semitones", s)
		}
		label := key.Name(key.TransposeFifths(sig.Fifths, s), sig.Mode)
		batch.Renderings = append(batch.Renderings, Rendering{
			Label:     label,
			Semitones: s,
			Document:  out,
		})
	}
	return batch, nil
}
