package allkeys

import (
	"bytes"
	"regexp"
	"strconv"

	"github.com/tonerow/capo/core/errors"
	"github.com/tonerow/capo/core/score"
)

// measureNumber matches the number attribute in a measure open tag, with
// either quote style.
var measureNumber = regexp.MustCompile(`(<measure\b[^>]*?\bnumber=)("[^"]*"|'[^']*')`)

// finalBarline matches a final (light-heavy) bar-style value.
var finalBarline = regexp.MustCompile(`(<bar-style\s*>\s*)light-heavy(\s*</bar-style>)`)

// GenerateCombined produces the combined-score variant: one document whose
// every part carries all twelve transpositions back to back, so each part
// holds 12x the original measure count. Measures are renumbered 1..12N and
// each interior key segment's final barline is softened to a double
// (light-light) barline; only the last segment keeps the final barline.
func GenerateCombined(doc []byte, order Order) ([]byte, error) {
	batch, err := Generate(doc, order)
	if err != nil {
		return nil, err
	}

	splits := make([]*score.Document, len(batch.Renderings))
	for i, r := range batch.Renderings {
		d, err := score.Split(r.Document)
		if err != nil {
			return nil, errors.Wrapf(err, "splitting %s rendering", r.Label)
		}
		splits[i] = d
	}

	base := splits[0]
	combined := &score.Document{
		Preamble: base.Preamble,
		Header:   base.Header,
		Trailer:  base.Trailer,
		Parts:    make([]score.Part, len(base.Parts)),
	}

	for pi, basePart := range base.Parts {
		part := score.Part{
			ID:       basePart.ID,
			OpenTag:  basePart.OpenTag,
			CloseTag: basePart.CloseTag,
		}
		number := 0
		for si, split := range splits {
			if pi >= len(split.Parts) {
				return nil, errors.NewNotFound("part", basePart.ID)
			}
			segment := split.Parts[pi].Measures
			last := si == len(splits)-1
			for mi, m := range segment {
				number++
				out := renumberMeasure(m, number)
				if !last && mi == len(segment)-1 {
					out = softenFinalBarline(out)
				}
				part.Measures = append(part.Measures, out)
			}
		}
		combined.Parts[pi] = part
	}

	return combined.Assemble(), nil
}

// renumberMeasure rewrites the number attribute in the measure's open tag,
// keeping the source quote style.
func renumberMeasure(measure []byte, n int) []byte {
	replaced := false
	return measureNumber.ReplaceAllFunc(measure, func(m []byte) []byte {
		if replaced {
			return m
		}
		replaced = true
		sub := measureNumber.FindSubmatch(m)
		quote := sub[2][0]
		var out bytes.Buffer
		out.Write(sub[1])
		out.WriteByte(quote)
		out.WriteString(strconv.Itoa(n))
		out.WriteByte(quote)
		return out.Bytes()
	})
}

// softenFinalBarline downgrades a light-heavy (final) barline to a
// light-light (double) barline between key segments.
func softenFinalBarline(measure []byte) []byte {
	return finalBarline.ReplaceAll(measure, []byte("${1}light-light${2}"))
}
