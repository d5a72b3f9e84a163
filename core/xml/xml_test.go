package xml

import "testing"

const sample = `<?xml version="1.0"?>
<score-partwise version="4.0">
	<part id="P1">
		<measure number="1">
			<attributes>
				<key><fifths>2</fifths><mode>minor</mode></key>
			</attributes>
		</measure>
		<measure number="2"/>
	</part>
</score-partwise>`

// TestParseValidXML verifies parsing of well-formed XML.
func TestParseValidXML(t *testing.T) {
	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	root := doc.Root()
	if root == nil || root.Name() != "score-partwise" {
		t.Errorf("Root() = %v, want score-partwise element", root)
	}
	if root.Attr("version") != "4.0" {
		t.Errorf("version attr = %q", root.Attr("version"))
	}
}

// TestParseInvalidXML verifies error handling for malformed XML.
func TestParseInvalidXML(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"unclosed tag", "<root><element></root>"},
		{"mismatched tags", "<root></other>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.xml))
			if err == nil {
				t.Error("Parse should fail for invalid XML")
			}
		})
	}
}

// TestXPathQueries verifies XPathFirst, Count, and node accessors.
func TestXPathQueries(t *testing.T) {
	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	node, err := doc.XPathFirst("//attributes/key")
	if err != nil {
		t.Fatalf("XPathFirst failed: %v", err)
	}
	if node == nil {
		t.Fatal("XPathFirst should find the key element")
	}
	if f := node.First("fifths"); f == nil || f.Text() != "2" {
		t.Errorf("fifths text = %v", f)
	}

	n, err := doc.Count("//measure")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Count(//measure) = %d, want 2", n)
	}

	missing, err := doc.XPathFirst("//nothing")
	if err != nil {
		t.Fatalf("XPathFirst failed: %v", err)
	}
	if missing != nil {
		t.Error("XPathFirst should return nil for no match")
	}
}

// TestXPathInvalid verifies compile-time validation of expressions.
func TestXPathInvalid(t *testing.T) {
	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := doc.XPath("///["); err == nil {
		t.Error("XPath should reject an invalid expression")
	}
}
