// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls plain text out of downloaded PDFs so cached
// acquisitions can serve content without re-parsing the file.
package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Result holds the extracted content of one PDF.
type Result struct {
	Text  string `json:"text" yaml:"text"`
	Pages int    `json:"pages" yaml:"pages"`
}

// Text extracts the full plain text of the PDF at path. Pages that fail
// to decode are skipped; extraction fails only when the document itself
// cannot be opened or yields no text at all.
func Text(path string) (*Result, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	pages := r.NumPage()
	if pages < 1 {
		return nil, fmt.Errorf("%s: document has no pages", path)
	}

	var sb strings.Builder
	decoded := 0
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
		decoded++
	}

	text := strings.TrimSpace(sb.String())
	if decoded == 0 || text == "" {
		return nil, fmt.Errorf("%s: no extractable text", path)
	}
	return &Result{Text: text, Pages: pages}, nil
}
