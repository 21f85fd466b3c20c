package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	DocumentID int64  `json:"documentId"`
	Filename   string `json:"filename"`
}

func TestEncodeSetsTypeHeader(t *testing.T) {
	msg, err := encode(Event{Key: "7", Type: "document.created", Value: payload{DocumentID: 7, Filename: "notes"}})
	require.NoError(t, err)
	assert.Equal(t, []byte("7"), msg.Key)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, HeaderEventType, msg.Headers[0].Key)
	assert.Equal(t, "document.created", string(msg.Headers[0].Value))
	assert.JSONEq(t, `{"documentId":7,"filename":"notes"}`, string(msg.Value))
}

func TestEncodeRejectsUnmarshalable(t *testing.T) {
	_, err := encode(Event{Value: make(chan int)})
	assert.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON[payload]([]byte(`{"documentId":3,"filename":"a"}`))
	require.NoError(t, err)
	assert.Equal(t, payload{DocumentID: 3, Filename: "a"}, got)

	_, err = DecodeJSON[payload]([]byte(`{`))
	assert.Error(t, err)
}
