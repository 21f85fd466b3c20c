// Package extractor pulls plain text out of uploaded files.
package extractor

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/errors"
)

// MessageUnreadable is shown when a file of an allowed type cannot be read.
const MessageUnreadable = "Could not extract text from the uploaded file"

// Extract returns the text content of data. Text files are read as UTF-8
// with invalid sequences replaced; PDFs go through the PDF text layer.
func Extract(format ingestion.Format, data []byte) (string, error) {
	switch format {
	case ingestion.FormatText:
		return strings.ToValidUTF8(string(data), "\uFFFD"), nil
	case ingestion.FormatPDF:
		return extractPDF(data)
	default:
		return "", apperrors.Newf(apperrors.ErrUnsupportedFile, http.StatusBadRequest, "no extractor for %q", format)
	}
}

func extractPDF(data []byte) (text string, err error) {
	// the PDF parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = unreadable(fmt.Errorf("pdf parser panic: %v", r))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", unreadable(err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", unreadable(err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", unreadable(err)
	}
	return buf.String(), nil
}

func unreadable(cause error) error {
	return fmt.Errorf("%w: %w", apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, MessageUnreadable), cause)
}
