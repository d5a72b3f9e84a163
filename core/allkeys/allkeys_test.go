package allkeys

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tonerow/capo/core/score"
)

const melody = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="4.0">
  <part-list>
    <score-part id="P1">
      <part-name>Lead</part-name>
    </score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <attributes>
        <key>
          <fifths>0</fifths>
          <mode>major</mode>
        </key>
      </attributes>
      <note>
        <pitch>
          <step>C</step>
          <octave>4</octave>
        </pitch>
      </note>
    </measure>
    <measure number="2">
      <note>
        <pitch>
          <step>G</step>
          <octave>4</octave>
        </pitch>
      </note>
      <barline location="right">
        <bar-style>light-heavy</bar-style>
      </barline>
    </measure>
  </part>
</score-partwise>
`

// TestSequences verifies both key orders, including the third
// element of the circle of fourths.
func TestSequences(t *testing.T) {
	chrom := Sequence(Chromatic)
	if len(chrom) != 12 {
		t.Fatalf("chromatic sequence has %d entries", len(chrom))
	}
	for i, s := range chrom {
		if s != i {
			t.Errorf("chromatic[%d] = %d, want %d", i, s, i)
		}
	}

	fourths := Sequence(CircleOfFourths)
	want := []int{0, 5, 10, 3, 8, 1, 6, 11, 4, 9, 2, 7}
	for i, s := range fourths {
		if s != want[i] {
			t.Errorf("fourths[%d] = %d, want %d", i, s, want[i])
		}
	}
	if fourths[2] != 10 {
		t.Errorf("fourths[2] = %d, want 10", fourths[2])
	}
}

// TestParseOrder verifies order name parsing.
func TestParseOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    Order
		wantErr bool
	}{
		{"chromatic", Chromatic, false},
		{"fourths", CircleOfFourths, false},
		{"circle-of-fourths", CircleOfFourths, false},
		{"fifths", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseOrder(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseOrder(%q) should fail", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseOrder(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOrder(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestGenerate verifies the twelve renderings, their order, and labeling
// from the source key signature.
func TestGenerate(t *testing.T) {
	batch, err := Generate([]byte(melody), CircleOfFourths)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if batch.ID == "" {
		t.Error("batch should carry an ID")
	}
	if len(batch.Renderings) != 12 {
		t.Fatalf("expected 12 renderings, got %d", len(batch.Renderings))
	}

	wantLabels := []string{
		"C major", "F major", "Bb major", "Eb major", "Ab major", "C# major",
		"F# major", "B major", "E major", "A major", "D major", "G major",
	}
	wantSemitones := []int{0, 5, 10, 3, 8, 1, 6, 11, 4, 9, 2, 7}
	for i, r := range batch.Renderings {
		if r.Label != wantLabels[i] {
			t.Errorf("rendering %d label = %q, want %q", i, r.Label, wantLabels[i])
		}
		if r.Semitones != wantSemitones[i] {
			t.Errorf("rendering %d semitones = %d, want %d", i, r.Semitones, wantSemitones[i])
		}
		if len(r.Document) == 0 {
			t.Errorf("rendering %d has no document", i)
		}
	}

	// Zero-interval rendering reproduces the source document.
	if !bytes.Equal(batch.Renderings[0].Document, []byte(melody)) {
		t.Error("zero-semitone rendering should equal the source")
	}
	// The +5 rendering is in F: one flat.
	if !bytes.Contains(batch.Renderings[1].Document, []byte("<fifths>-1</fifths>")) {
		t.Error("F major rendering should carry fifths -1")
	}
}

// TestGenerateUnkeyedSource verifies the labeling default when the source
// has no key signature.
func TestGenerateUnkeyedSource(t *testing.T) {
	doc := "<score-partwise><part id=\"P1\"><measure number=\"1\"/></part></score-partwise>"
	batch, err := Generate([]byte(doc), Chromatic)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got := batch.Renderings[7].Label; got != "G major" {
		t.Errorf("label at +7 = %q, want %q (C major default)", got, "G major")
	}
}

// TestGenerateMalformed verifies that a bad document aborts the batch.
func TestGenerateMalformed(t *testing.T) {
	batch, err := Generate([]byte("<score-partwise><part>"), Chromatic)
	if err == nil {
		t.Fatal("Generate should fail")
	}
	if batch != nil {
		t.Error("failed batch should be nil")
	}
}

// TestGenerateCombined verifies the combined-score variant: 12x measures,
// contiguous renumbering, and barline softening between key segments.
func TestGenerateCombined(t *testing.T) {
	out, err := GenerateCombined([]byte(melody), Chromatic)
	if err != nil {
		t.Fatalf("GenerateCombined failed: %v", err)
	}

	doc, err := score.Split(out)
	if err != nil {
		t.Fatalf("Split of combined output failed: %v", err)
	}
	if len(doc.Parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(doc.Parts))
	}
	if got := len(doc.Parts[0].Measures); got != 24 {
		t.Fatalf("expected 12x2 measures, got %d", got)
	}

	text := string(out)
	for _, fragment := range []string{
		`<measure number="1">`,
		`<measure number="3">`,
		`<measure number="24">`,
	} {
		if !strings.Contains(text, fragment) {
			t.Errorf("combined output missing %q", fragment)
		}
	}
	if got := strings.Count(text, `<measure number="2">`); got != 1 {
		t.Errorf("measure number 2 should appear once, found %d", got)
	}

	// Interior key segments end on a double barline; only the last keeps
	// the final barline.
	if got := strings.Count(text, "light-light"); got != 11 {
		t.Errorf("expected 11 softened barlines, got %d", got)
	}
	if got := strings.Count(text, "light-heavy"); got != 1 {
		t.Errorf("expected exactly one final barline, got %d", got)
	}
}

// TestRenumberMeasureQuoteStyles verifies the number attribute is rewritten
// with either quote style, keeping the source quoting.
func TestRenumberMeasureQuoteStyles(t *testing.T) {
	tests := []struct {
		name    string
		measure string
		n       int
		want    string
	}{
		{
			"double quotes",
			`<measure number="3"><note/></measure>`,
			14,
			`<measure number="14"><note/></measure>`,
		},
		{
			"single quotes",
			`<measure number='3'><note/></measure>`,
			14,
			`<measure number='14'><note/></measure>`,
		},
		{
			"other attributes untouched",
			`<measure implicit="yes" number='1' width="180.5"/>`,
			25,
			`<measure implicit="yes" number='25' width="180.5"/>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renumberMeasure([]byte(tt.measure), tt.n)
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
