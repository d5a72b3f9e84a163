package score

import (
	"bytes"
	"testing"

	"github.com/tonerow/capo/core/errors"
	"github.com/tonerow/capo/core/key"
)

const twoPartScore = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="4.0">
  <part-list>
    <score-part id="P1">
      <part-name>Lead</part-name>
    </score-part>
    <score-part id="P2">
      <part-name>Bass</part-name>
    </score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <attributes>
        <key>
          <fifths>2</fifths>
          <mode>minor</mode>
        </key>
      </attributes>
    </measure>
    <measure number="2">
      <note><rest/></note>
    </measure>
  </part>
  <part id="P2">
    <measure number="1">
      <note><rest/></note>
    </measure>
  </part>
</score-partwise>
`

// TestSplitStructure verifies header boundaries, part ids and measure counts.
func TestSplitStructure(t *testing.T) {
	doc, err := Split([]byte(twoPartScore))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(doc.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(doc.Parts))
	}
	if doc.Parts[0].ID != "P1" || doc.Parts[1].ID != "P2" {
		t.Errorf("part ids = %q, %q", doc.Parts[0].ID, doc.Parts[1].ID)
	}
	if len(doc.Parts[0].Measures) != 2 || len(doc.Parts[1].Measures) != 1 {
		t.Errorf("measure counts = %d, %d; want 2, 1",
			len(doc.Parts[0].Measures), len(doc.Parts[1].Measures))
	}
	if doc.MeasureCount() != 3 {
		t.Errorf("MeasureCount() = %d, want 3", doc.MeasureCount())
	}

	// The part-list metadata belongs to the header, not to any part.
	if !bytes.Contains(doc.Header, []byte("<part-list>")) {
		t.Error("header should contain the part-list")
	}
	if bytes.Contains(doc.Header, []byte(`<part id=`)) {
		t.Error("header should end before the first part element")
	}
}

// TestSplitAssembleRoundTrip verifies the byte-for-byte reconstruction
// invariant.
func TestSplitAssembleRoundTrip(t *testing.T) {
	doc, err := Split([]byte(twoPartScore))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if got := doc.Assemble(); string(got) != twoPartScore {
		t.Errorf("Assemble() diverged from input:\n%s", got)
	}
}

// TestSplitNoParts verifies a structurally valid document without parts.
func TestSplitNoParts(t *testing.T) {
	in := "<score-partwise><part-list/></score-partwise>"
	doc, err := Split([]byte(in))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(doc.Parts) != 0 {
		t.Errorf("expected no parts, got %d", len(doc.Parts))
	}
	if got := doc.Assemble(); string(got) != in {
		t.Errorf("Assemble() diverged: %s", got)
	}
}

// TestSplitMalformed verifies the ParseError contract.
func TestSplitMalformed(t *testing.T) {
	_, err := Split([]byte("<score-partwise><part id='P1'>"))
	if err == nil {
		t.Fatal("Split should fail on malformed input")
	}
	if !errors.Is(err, errors.ErrMalformed) {
		t.Errorf("error should wrap ErrMalformed, got %v", err)
	}
}

// TestFindKey verifies key detection and the labeling default.
func TestFindKey(t *testing.T) {
	sig, found := FindKey([]byte(twoPartScore))
	if !found {
		t.Fatal("FindKey should find the key signature")
	}
	if sig.Fifths != 2 || sig.Mode != key.ModeMinor {
		t.Errorf("FindKey = %+v, want fifths 2 minor", sig)
	}

	sig, found = FindKey([]byte("<score-partwise><part id=\"P1\"/></score-partwise>"))
	if found {
		t.Error("FindKey should report a missing key signature")
	}
	if sig.Fifths != 0 || sig.Mode != key.ModeMajor {
		t.Errorf("default signature = %+v, want fifths 0 major", sig)
	}
}
