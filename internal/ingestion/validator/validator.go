// Package validator checks uploads before any extraction work: the file
// type must be allowed and the payload must fit the configured size.
package validator

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/errors"
)

const (
	MessageUnsupportedFile = "Unsupported file type. Please upload a PDF or TXT file."
	MessageNoFile          = "No file uploaded"
	MessageTooLarge        = "File is too large"
)

var formatsByExtension = map[string]ingestion.Format{
	".pdf": ingestion.FormatPDF,
	".txt": ingestion.FormatText,
}

// Validator holds the upload policy.
type Validator struct {
	maxBytes int64
	allowed  map[string]ingestion.Format
}

// New builds a Validator. Extensions the extractor cannot handle are
// ignored even when listed.
func New(maxBytes int64, allowedExtensions []string) *Validator {
	allowed := make(map[string]ingestion.Format, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if f, ok := formatsByExtension[ext]; ok {
			allowed[ext] = f
		}
	}
	return &Validator{maxBytes: maxBytes, allowed: allowed}
}

// Validate returns the upload's format, or an AppError carrying the
// message shown to the client.
func (v *Validator) Validate(up *ingestion.Upload) (ingestion.Format, error) {
	if up == nil {
		return "", apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, MessageNoFile)
	}
	format, ok := v.allowed[strings.ToLower(filepath.Ext(up.Filename))]
	if !ok {
		return "", apperrors.New(apperrors.ErrUnsupportedFile, http.StatusBadRequest, MessageUnsupportedFile)
	}
	if v.maxBytes > 0 && int64(len(up.Data)) > v.maxBytes {
		return "", apperrors.Newf(apperrors.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge,
			"%s (limit %d bytes)", MessageTooLarge, v.maxBytes)
	}
	return format, nil
}
