package docextract

import (
	"bytes"

	"github.com/ledongthuc/pdf"
)

func extractPDF(data []byte) ([]Section, error) {
	if len(data) == 0 {
		return nil, nil
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	sections := make([]Section, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		sections = append(sections, Section{Label: i, Text: text})
	}
	return sections, nil
}
