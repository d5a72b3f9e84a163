// Package mxl reads compressed MusicXML (.mxl) containers. An .mxl file is
// a zip archive whose META-INF/container.xml names the score document via a
// rootfile entry.
package mxl

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"

	"github.com/tonerow/capo/core/errors"
	corexml "github.com/tonerow/capo/core/xml"
)

const containerPath = "META-INF/container.xml"

var zipMagic = []byte("PK\x03\x04")

// IsContainer reports whether data looks like a zip container.
func IsContainer(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// Extract returns the score document from an .mxl container. The rootfile
// named by META-INF/container.xml wins; without a usable container entry the
// first top-level .xml or .musicxml member is used instead.
func Extract(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.NewParse("mxl container", err)
	}

	if path := rootfilePath(zr); path != "" {
		doc, err := readMember(zr, path)
		if err == nil {
			return doc, nil
		}
	}

	for _, f := range zr.File {
		name := f.Name
		if strings.Contains(name, "/") {
			continue
		}
		if strings.HasSuffix(name, ".xml") || strings.HasSuffix(name, ".musicxml") {
			return readMember(zr, name)
		}
	}
	return nil, errors.NewNotFound("score document", "")
}

// rootfilePath resolves the full-path attribute of the first rootfile entry
// in container.xml, or "" when absent or unreadable.
func rootfilePath(zr *zip.Reader) string {
	data, err := readMember(zr, containerPath)
	if err != nil {
		return ""
	}
	doc, err := corexml.Parse(data)
	if err != nil {
		return ""
	}
	node, err := doc.XPathFirst("//rootfile")
	if err != nil || node == nil {
		return ""
	}
	return node.Attr("full-path")
}

func readMember(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", name)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", name)
		}
		return data, nil
	}
	return nil, errors.NewNotFound("archive member", name)
}
