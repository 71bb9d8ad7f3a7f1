package ocr

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractTextFromPDF pulls the text layer out of a PDF invoice. Pages are
// concatenated with blank lines; the extraction core treats line breaks as
// ordinary whitespace anyway.
func ExtractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A page without a text layer is not fatal; scanned pages
			// go through OCR instead
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("PDF has no extractable text layer")
	}

	return sb.String(), nil
}
