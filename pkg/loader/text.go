package loader

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TextLoader loads UTF-8 text files. Invalid byte sequences are replaced
// with U+FFFD.
type TextLoader struct{}

func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

func (l *TextLoader) Load(_ context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading text file: %w", err)
	}

	return &Document{
		Path:  path,
		Pages: []Page{{Text: strings.ToValidUTF8(string(data), "�")}},
	}, nil
}
