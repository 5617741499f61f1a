package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	errs "github.com/fraudlens/fraudlens/errors"
)

// Page is the text of one non-empty PDF page.
type Page struct {
	Number int
	Text   string
	Source string
}

// ExtractPDFPages reads every page of the PDF and returns the non-empty
// ones, numbered from 1. Source carries the file name only.
func ExtractPDFPages(path string) ([]Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	source := filepath.Base(path)
	var pages []Page
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the whole document.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text, Source: source})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no extractable text in %s", errs.ErrNotFound, path)
	}
	return pages, nil
}
