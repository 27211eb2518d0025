// Package loader reads uploaded documents from disk into plain text pages.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions no loader handles.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Page is one contiguous piece of document text. PDFs yield one page per
// physical page; plain text files yield a single page.
type Page struct {
	// Text is the extracted page text.
	Text string

	// Number is the 1-based page number, or 0 for formats without pages.
	Number int
}

// Document is the loaded content of a single file.
type Document struct {
	Path  string
	Pages []Page
}

// Text returns all page text joined by blank lines.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Loader extracts text from a file of a specific format.
type Loader interface {
	Load(ctx context.Context, path string) (*Document, error)
}

// Registry dispatches to a Loader by file extension.
type Registry struct {
	loaders map[string]Loader
}

// New returns a Registry with the PDF and plain text loaders registered.
func New() *Registry {
	r := &Registry{loaders: map[string]Loader{}}
	text := NewTextLoader()
	r.Register(".txt", text)
	r.Register(".md", text)
	r.Register(".pdf", NewPDFLoader())
	return r
}

// Register binds a loader to an extension such as ".txt".
func (r *Registry) Register(ext string, l Loader) {
	r.loaders[strings.ToLower(ext)] = l
}

// Extensions lists the registered extensions.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	return exts
}

// CheckSupported returns ErrUnsupportedFormat when path has an extension
// without a registered loader.
func (r *Registry) CheckSupported(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := r.loaders[ext]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return nil
}

// Load reads path with the loader registered for its extension.
func (r *Registry) Load(ctx context.Context, path string) (*Document, error) {
	if err := r.CheckSupported(path); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.loaders[strings.ToLower(filepath.Ext(path))].Load(ctx, path)
}
