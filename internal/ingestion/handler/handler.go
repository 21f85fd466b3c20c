// Package handler exposes upload and document management over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/documents"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/logger"
)

const (
	FormField = "document"

	MessageIDRequired   = "Document ID is required"
	MessageInvalidID    = "Invalid document ID"
	MessageNotFound     = "Document not found"
	MessageDeleteFailed = "Failed to delete document"
	MessageDeleted      = "Document deleted successfully"
	MessageUploadFailed = "Internal Server Error"
	MessageListFailed   = "Failed to fetch documents"

	// multipartOverhead covers boundaries and part headers on top of the
	// file itself.
	multipartOverhead = 1 << 20
)

// DocumentService is the part of service.Service the handler calls.
type DocumentService interface {
	Ingest(ctx context.Context, up *ingestion.Upload) (*documents.Document, error)
	Delete(ctx context.Context, id int64) (*documents.Document, error)
	Get(ctx context.Context, id int64) (*documents.Document, error)
	List(ctx context.Context) ([]documents.Document, error)
}

type Handler struct {
	service        DocumentService
	maxUploadBytes int64
	logger         *slog.Logger
}

func New(svc DocumentService, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        svc,
		maxUploadBytes: maxUploadBytes,
		logger:         slog.Default().With("component", "ingestion-handler"),
	}
}

// Upload accepts a multipart form with the file in the "document" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	up, err := h.readUpload(r)
	if err != nil {
		h.writeUploadError(w, log, err)
		return
	}
	doc, err := h.service.Ingest(ctx, up)
	if err != nil {
		h.writeUploadError(w, log, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ingestion.UploadResponse{Status: "success", DocumentID: doc.ID})
}

func (h *Handler) readUpload(r *http.Request) (*ingestion.Upload, error) {
	file, header, err := r.FormFile(FormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, apperrors.New(apperrors.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, validator.MessageTooLarge)
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, nil
		default:
			return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "Malformed upload")
		}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &ingestion.Upload{Filename: header.Filename, Data: data}, nil
}

func (h *Handler) writeUploadError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		log.Error("upload failed", "error", err)
	} else {
		log.Warn("upload rejected", "error", err, "status_code", status)
	}
	h.writeJSON(w, status, ingestion.UploadResponse{
		Status:  "error",
		Message: apperrors.PublicMessage(err, MessageUploadFailed),
	})
}

// List returns every document, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.List(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("listing documents failed", "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), MessageListFailed)
		return
	}
	if docs == nil {
		docs = []documents.Document{}
	}
	h.writeJSON(w, http.StatusOK, docs)
}

// Get serves GET /api/v1/documents/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, msg := parseID(r.PathValue("id"))
	if msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}
	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrDocumentNotFound) {
			h.writeError(w, http.StatusNotFound, MessageNotFound)
			return
		}
		logger.FromContext(r.Context()).Error("fetching document failed", "doc_id", id, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "Failed to fetch document")
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

// DeletePost serves POST /api/delete with body {"documentId": ...}. The id
// may be a JSON number or a numeric string.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DocumentID any `json:"documentId"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, MessageIDRequired)
		return
	}

	var raw string
	switch v := body.DocumentID.(type) {
	case nil:
	case string:
		raw = v
	case float64:
		if v == 0 {
			break
		}
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			h.writeError(w, http.StatusBadRequest, MessageInvalidID)
			return
		}
		raw = strconv.FormatInt(int64(v), 10)
	case bool:
		if v {
			h.writeError(w, http.StatusBadRequest, MessageInvalidID)
			return
		}
	default:
		h.writeError(w, http.StatusBadRequest, MessageInvalidID)
		return
	}
	h.delete(w, r, raw)
}

// DeleteByPath serves DELETE /api/v1/documents/{id}.
func (h *Handler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, r.PathValue("id"))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, raw string) {
	ctx := r.Context()
	id, msg := parseID(raw)
	if msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}
	doc, err := h.service.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrDocumentNotFound) {
			h.writeError(w, http.StatusNotFound, MessageNotFound)
			return
		}
		logger.FromContext(ctx).Error("delete document failed", "doc_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, MessageDeleteFailed)
		return
	}
	h.writeJSON(w, http.StatusOK, ingestion.DeleteResponse{
		Success: true,
		Message: MessageDeleted,
		DeletedDocument: ingestion.DeletedDocument{
			ID:       doc.ID,
			Filename: doc.Filename,
		},
	})
}

// parseID returns the id or the client message explaining why raw is not one.
func parseID(raw string) (int64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return 0, MessageIDRequired
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, MessageInvalidID
	}
	return id, ""
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"error": true, "message": message})
}
