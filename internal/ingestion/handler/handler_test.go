package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/documents"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion/service"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion/validator"
)

func newTestMux(t *testing.T) (*http.ServeMux, documents.Store) {
	t.Helper()
	store, err := documents.OpenBadgerStore("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := service.New(store, validator.New(1<<16, []string{".pdf", ".txt"}), nil)
	h := New(svc, 1<<16)
	return routes(h), store
}

func routes(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", h.Upload)
	mux.HandleFunc("GET /api/documents", h.List)
	mux.HandleFunc("GET /api/v1/documents/{id}", h.Get)
	mux.HandleFunc("POST /api/delete", h.DeletePost)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", h.DeleteByPath)
	return mux
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, mux http.Handler, field, filename string, data []byte) (*httptest.ResponseRecorder, ingestion.UploadResponse) {
	t.Helper()
	body, contentType := multipartBody(t, field, filename, data)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp ingestion.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestUploadText(t *testing.T) {
	mux, store := newTestMux(t)

	rec, resp := upload(t, mux, FormField, "Travel_Guide.TXT", []byte("Travelling through the mountains"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", resp.Status)
	require.NotZero(t, resp.DocumentID)

	doc, err := store.Get(context.Background(), resp.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "Travel Guide", doc.Filename)
	assert.Equal(t, "Travelling through the mountains", doc.ContentRaw)
}

func TestUploadErrors(t *testing.T) {
	mux, _ := newTestMux(t)

	tests := []struct {
		name     string
		field    string
		filename string
		data     []byte
		status   int
		message  string
	}{
		{"no file", "", "", nil, http.StatusBadRequest, validator.MessageNoFile},
		{"unsupported", FormField, "slides.pptx", []byte("x"), http.StatusBadRequest, validator.MessageUnsupportedFile},
		{"too large", FormField, "big.txt", bytes.Repeat([]byte("a"), 1<<16+1), http.StatusRequestEntityTooLarge, validator.MessageTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := upload(t, mux, tt.field, tt.filename, tt.data)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "error", resp.Status)
			assert.Contains(t, resp.Message, tt.message)
			assert.Zero(t, resp.DocumentID)
		})
	}
}

func TestListAndGet(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	_, first := upload(t, mux, FormField, "first.txt", []byte("alpha"))
	_, second := upload(t, mux, FormField, "second.txt", []byte("beta"))

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	var docs []documents.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, second.DocumentID, docs[0].ID)
	assert.Equal(t, first.DocumentID, docs[1].ID)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+strconv.FormatInt(first.DocumentID, 10), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "first", decodeMap(t, rec)["filename"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents/999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, MessageNotFound, decodeMap(t, rec)["message"])
}

func TestDeletePost(t *testing.T) {
	mux, _ := newTestMux(t)
	_, created := upload(t, mux, FormField, "old_notes.txt", []byte("notes"))
	id := strconv.FormatInt(created.DocumentID, 10)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing id", `{}`, http.StatusBadRequest, MessageIDRequired},
		{"empty body", ``, http.StatusBadRequest, MessageIDRequired},
		{"empty string", `{"documentId":""}`, http.StatusBadRequest, MessageIDRequired},
		{"not a number", `{"documentId":"abc"}`, http.StatusBadRequest, MessageInvalidID},
		{"fraction", `{"documentId":1.5}`, http.StatusBadRequest, MessageInvalidID},
		{"unknown", `{"documentId":999}`, http.StatusNotFound, MessageNotFound},
		{"numeric string", `{"documentId":"` + id + `"}`, http.StatusOK, MessageDeleted},
		{"already deleted", `{"documentId":` + id + `}`, http.StatusNotFound, MessageNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/delete", strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeMap(t, rec)["message"])
		})
	}
}

func TestDeleteByPathResponse(t *testing.T) {
	mux, _ := newTestMux(t)
	_, created := upload(t, mux, FormField, "q3_budget.pdf.txt", []byte("budget"))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+strconv.FormatInt(created.DocumentID, 10), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ingestion.DeleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, MessageDeleted, resp.Message)
	assert.Equal(t, created.DocumentID, resp.DeletedDocument.ID)
	assert.Equal(t, "q3 budget.pdf", resp.DeletedDocument.Filename)
}

type failingService struct{ DocumentService }

func (failingService) Delete(context.Context, int64) (*documents.Document, error) {
	return nil, errors.New("connection reset")
}

func (failingService) List(context.Context) ([]documents.Document, error) {
	return nil, errors.New("connection reset")
}

func TestStoreFailures(t *testing.T) {
	mux := routes(New(failingService{}, 1<<16))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/documents/7", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, MessageDeleteFailed, decodeMap(t, rec)["message"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, MessageListFailed, decodeMap(t, rec)["message"])
}
