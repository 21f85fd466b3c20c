// Package ingestion defines the upload types, response shapes and Kafka
// event schema of the document ingestion pipeline.
package ingestion

import (
	"regexp"
	"strings"
	"time"
)

// Format is the detected source format of an upload.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatText Format = "txt"
)

// DefaultFilename is used when the client sends a file part without a name.
const DefaultFilename = "DocumentUnknown.txt"

// Upload is one file received from a client or read from disk.
type Upload struct {
	Filename string
	Data     []byte
}

// UploadResponse is the body returned by the upload endpoints.
type UploadResponse struct {
	Status     string `json:"status"`
	DocumentID int64  `json:"documentId,omitempty"`
	Message    string `json:"message,omitempty"`
}

// DeletedDocument identifies what a delete removed.
type DeletedDocument struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
}

// DeleteResponse is the body returned by a successful delete.
type DeleteResponse struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
	DeletedDocument DeletedDocument `json:"deletedDocument"`
}

// Document event types.
const (
	EventDocumentCreated = "document.created"
	EventDocumentDeleted = "document.deleted"
)

// DocumentEvent is the Kafka payload published whenever the corpus changes.
type DocumentEvent struct {
	Type       string    `json:"type"`
	DocumentID int64     `json:"documentId"`
	Filename   string    `json:"filename"`
	Format     Format    `json:"format,omitempty"`
	TermCount  int       `json:"termCount,omitempty"`
	SizeBytes  int       `json:"sizeBytes,omitempty"`
	LatencyMs  int64     `json:"latencyMs,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

var (
	extensionPattern  = regexp.MustCompile(`(?i)\.(txt|pdf)$`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanFilename turns an uploaded file name into a display name: the
// .txt/.pdf extension is removed, underscores become spaces and runs of
// whitespace collapse to one space.
func CleanFilename(name string) string {
	name = extensionPattern.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, "_", " ")
	name = whitespacePattern.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
