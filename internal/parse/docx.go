package parse

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// zipMagic is the local-file-header signature every Word document starts with.
var zipMagic = []byte("PK\x03\x04")

// DocxParagraphs extracts paragraph texts from a Word document, in document
// order, including paragraphs nested inside tables. Empty paragraphs are
// kept so day buffers preserve their structure.
func DocxParagraphs(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	paras, err := docxParagraphs(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return paras, nil
}

// docxParagraphs unpacks an in-memory Word document.
func docxParagraphs(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open document archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		defer rc.Close()
		return extractParagraphs(rc)
	}
	return nil, errors.New("word/document.xml not found")
}

// extractParagraphs streams the wordprocessing XML and concatenates the w:t
// runs of each w:p element.
func extractParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var paras []string
	var cur strings.Builder
	depth := 0
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				depth++
				if depth == 1 {
					cur.Reset()
				}
			case "t":
				if depth > 0 {
					inText = true
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if depth == 1 {
					paras = append(paras, cur.String())
				}
				if depth > 0 {
					depth--
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && depth > 0 {
				cur.Write(t)
			}
		}
	}
	return paras, nil
}
