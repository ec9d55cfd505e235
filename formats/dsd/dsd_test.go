package dsd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Queue  string                 `json:"queue" cbor:"queue" msgpack:"queue"`
	Result map[string]interface{} `json:"result" cbor:"result" msgpack:"result"`
}

func TestConversion(t *testing.T) {
	t.Parallel()

	in := &envelope{
		Queue: "data",
		Result: map[string]interface{}{
			"fonts": []interface{}{"Arial", "Verdana"},
		},
	}

	for _, format := range []SerializationFormat{JSON, YAML, CBOR, MsgPack} {
		data, err := Dump(in, format)
		require.NoError(t, err, format.String())
		assert.Equal(t, byte(format), data[0])

		out := &envelope{}
		loaded, err := Load(data, out)
		require.NoError(t, err, format.String())
		assert.Equal(t, format, loaded)
		assert.Equal(t, "data", out.Queue, format.String())
		assert.Equal(t, []interface{}{"Arial", "Verdana"}, out.Result["fonts"], format.String())
	}
}

func TestAutoFormat(t *testing.T) {
	t.Parallel()

	data, err := Dump(map[string]string{"event": "copy"}, AUTO)
	require.NoError(t, err)
	assert.Equal(t, `J{"event":"copy"}`, string(data))

	raw, err := DumpWithoutIdentifier(map[string]string{"event": "copy"}, YAML)
	require.NoError(t, err)
	assert.Equal(t, "event: copy\n", string(raw))
}

func TestFormatErrors(t *testing.T) {
	t.Parallel()

	_, err := Dump("x", SerializationFormat(1))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load([]byte("J"), nil)
	assert.ErrorIs(t, err, ErrNoMoreSpace)

	_, err = Load([]byte("Q{}"), &envelope{})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	for name, expected := range map[string]SerializationFormat{
		"json":    JSON,
		"YAML":    YAML,
		"cbor":    CBOR,
		"msgpack": MsgPack,
	} {
		format, err := ParseFormat(name)
		require.NoError(t, err)
		assert.Equal(t, expected, format)
	}
	assert.True(t, JSON.IsText())
	assert.False(t, CBOR.IsText())
}

func TestHTTP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"queue":"events"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	in := &envelope{}
	format, err := LoadFromHTTPRequest(req, in)
	require.NoError(t, err)
	assert.Equal(t, JSON, format)
	assert.Equal(t, "events", in.Queue)

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{}`))
	_, err = LoadFromHTTPRequest(req, in)
	assert.ErrorIs(t, err, ErrMissingContentType)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html, application/cbor")
	rec := httptest.NewRecorder()
	require.NoError(t, DumpToHTTPResponse(rec, req, in, JSON))
	assert.Equal(t, "application/cbor", rec.Header().Get("Content-Type"))

	out := &envelope{}
	require.NoError(t, LoadAsFormat(rec.Body.Bytes(), CBOR, out))
	assert.Equal(t, "events", out.Queue)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, DumpToHTTPResponse(rec, req, in, AUTO))
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"queue":"events","result":null}`, rec.Body.String())
}
