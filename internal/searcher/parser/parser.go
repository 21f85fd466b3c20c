// Package parser decodes search requests from JSON bodies and query strings.
// It only checks the request shape; turning the query into terms is the
// ranker's job.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/errors"
)

const (
	MessageQueryRequired = "Query parameter is required"
	MessageQueryTooLong  = "Query is too long"
	MessageInvalidBody   = "Request body must be a JSON object"
)

// Request is a validated search request. Query is passed on verbatim.
type Request struct {
	Query string
	Debug bool
}

type body struct {
	Query     any `json:"query"`
	DebugMode any `json:"debugMode"`
}

// Parser validates requests against a maximum query size.
type Parser struct {
	maxQueryBytes int
}

// New returns a Parser. maxQueryBytes <= 0 disables the size check.
func New(maxQueryBytes int) *Parser {
	return &Parser{maxQueryBytes: maxQueryBytes}
}

// Decode reads a {query, debugMode} JSON body. A missing, empty or
// non-string query is an input error; a whitespace-only query is accepted
// and later yields an empty result.
func (p *Parser) Decode(r io.Reader) (*Request, error) {
	var b body
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, MessageQueryRequired)
		}
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, MessageInvalidBody)
	}
	query, ok := b.Query.(string)
	if !ok {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, MessageQueryRequired)
	}
	debug, _ := b.DebugMode.(bool)
	return p.build(query, debug)
}

// FromValues reads q and debug from a URL query string.
func (p *Parser) FromValues(v url.Values) (*Request, error) {
	debug := false
	if s := v.Get("debug"); s != "" {
		parsed, err := strconv.ParseBool(s)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "debug must be a boolean, got %q", s)
		}
		debug = parsed
	}
	return p.build(v.Get("q"), debug)
}

func (p *Parser) build(query string, debug bool) (*Request, error) {
	if query == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, MessageQueryRequired)
	}
	if p.maxQueryBytes > 0 && len(query) > p.maxQueryBytes {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
			fmt.Sprintf("%s (limit %d bytes)", MessageQueryTooLong, p.maxQueryBytes))
	}
	return &Request{Query: query, Debug: debug}, nil
}
