// Package docextract pulls plain text out of uploaded documents. The file
// extension alone selects the extractor.
package docextract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyDocument       = errors.New("no extractable text in document")
)

// Section is a page, slide or sheet. Label is its 1-based position.
type Section struct {
	Label int
	Text  string
}

type Document struct {
	Name     string
	Ext      string
	Sections []Section
}

type extractor func(data []byte) ([]Section, error)

var extractors = map[string]extractor{
	".pdf":  extractPDF,
	".docx": extractDOCX,
	".pptx": extractPPTX,
	".xlsx": extractXLSX,
	".txt":  extractPlain,
	".md":   extractPlain,
}

// Supported reports whether name has an extension with an extractor.
func Supported(name string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(name))]
	return ok
}

func Extract(name string, data []byte) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(name))
	fn, ok := extractors[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}

	sections, err := fn(data)
	if err != nil {
		return nil, fmt.Errorf("extract %s failed: %w", name, err)
	}
	kept := sections[:0]
	for _, s := range sections {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil, ErrEmptyDocument
	}
	return &Document{Name: filepath.Base(name), Ext: ext, Sections: kept}, nil
}

func extractPlain(data []byte) ([]Section, error) {
	return []Section{{Label: 1, Text: string(data)}}, nil
}
