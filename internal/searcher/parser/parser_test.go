package parser

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/errors"
)

func TestDecode(t *testing.T) {
	p := New(0)
	req, err := p.Decode(strings.NewReader(`{"query":"Budget report","debugMode":true}`))
	require.NoError(t, err)
	assert.Equal(t, "Budget report", req.Query)
	assert.True(t, req.Debug)

	req, err = p.Decode(strings.NewReader(`{"query":"   "}`))
	require.NoError(t, err)
	assert.Equal(t, "   ", req.Query)
	assert.False(t, req.Debug)
}

func TestDecodeRejects(t *testing.T) {
	p := New(0)
	bodies := map[string]string{
		"missing":    `{}`,
		"empty":      `{"query":""}`,
		"number":     `{"query":42}`,
		"array":      `{"query":["a"]}`,
		"null":       `{"query":null}`,
		"no body":    ``,
		"not json":   `query=budget`,
		"json array": `["budget"]`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			_, err := p.Decode(strings.NewReader(body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
			assert.Equal(t, 400, apperrors.HTTPStatusCode(err))
		})
	}
}

func TestDecodeNonBooleanDebugIsOff(t *testing.T) {
	req, err := New(0).Decode(strings.NewReader(`{"query":"a","debugMode":"yes"}`))
	require.NoError(t, err)
	assert.False(t, req.Debug)
}

func TestFromValues(t *testing.T) {
	p := New(0)
	req, err := p.FromValues(url.Values{"q": {"repot"}, "debug": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, "repot", req.Query)
	assert.True(t, req.Debug)

	_, err = p.FromValues(url.Values{})
	assert.Equal(t, MessageQueryRequired, apperrors.PublicMessage(err, ""))

	_, err = p.FromValues(url.Values{"q": {"a"}, "debug": {"maybe"}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestQueryLimit(t *testing.T) {
	p := New(8)
	_, err := p.FromValues(url.Values{"q": {"a very long query"}})
	require.Error(t, err)
	assert.Contains(t, apperrors.PublicMessage(err, ""), MessageQueryTooLong)

	_, err = p.FromValues(url.Values{"q": {"short"}})
	assert.NoError(t, err)
}
