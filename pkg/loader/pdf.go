package loader

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFLoader extracts the plain text of every page of a PDF.
type PDFLoader struct{}

func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

// Load recovers from panics inside the PDF parser, which can happen on
// malformed files, and reports them as errors.
func (l *PDFLoader) Load(ctx context.Context, path string) (doc *Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc = nil
			err = fmt.Errorf("parsing pdf %s: %v", path, rec)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	doc = &Document{Path: path}
	fonts := make(map[string]*pdf.Font)

	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("extracting text from page %d: %w", i, err)
		}

		doc.Pages = append(doc.Pages, Page{Text: text, Number: i})
	}

	return doc, nil
}
