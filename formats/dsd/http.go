package dsd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTP Errors.
var (
	ErrMissingBody        = errors.New("dsd: missing http body")
	ErrMissingContentType = errors.New("dsd: missing http content type")
)

const (
	httpHeaderContentType = "Content-Type"
	httpHeaderAccept      = "Accept"
)

// LoadFromHTTPRequest loads the data from the body into the given interface.
func LoadFromHTTPRequest(r *http.Request, t interface{}) (format SerializationFormat, err error) {
	if r.Body == nil {
		return 0, ErrMissingBody
	}
	defer func() {
		_ = r.Body.Close()
	}()

	// Read full body.
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return 0, fmt.Errorf("dsd: failed to read http body: %w", err)
	}
	if len(data) == 0 {
		return 0, ErrMissingBody
	}

	// Get mime type from header, then check, clean and verify it.
	mimeType := cleanMimeType(r.Header.Get(httpHeaderContentType))
	if mimeType == "" {
		return 0, ErrMissingContentType
	}
	format, ok := MimeTypeToFormat[mimeType]
	if !ok {
		return 0, ErrIncompatibleFormat
	}

	// Parse data.
	return format, LoadAsFormat(data, format, t)
}

// DumpToHTTPResponse serializes the interface in the format requested by the
// Accept header of the request and writes it to the response.
func DumpToHTTPResponse(w http.ResponseWriter, r *http.Request, t interface{}, fallbackFormat SerializationFormat) error {
	format := FormatFromAccept(r)
	if format == AUTO {
		format = fallbackFormat
	}
	format, ok := format.ValidateSerializationFormat()
	if !ok {
		return ErrIncompatibleFormat
	}
	mimeType, ok := FormatToMimeType[format]
	if !ok {
		return ErrIncompatibleFormat
	}

	// Serialize data.
	data, err := DumpWithoutIdentifier(t, format)
	if err != nil {
		return fmt.Errorf("dsd: failed to serialize: %w", err)
	}

	// Write data to response.
	w.Header().Set(httpHeaderContentType, mimeType)
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("dsd: failed to write response: %w", err)
	}
	return nil
}

// FormatFromAccept returns the first supported format of the Accept header,
// or AUTO if none is supported.
func FormatFromAccept(r *http.Request) SerializationFormat {
	for _, accepted := range strings.Split(r.Header.Get(httpHeaderAccept), ",") {
		if format, ok := MimeTypeToFormat[cleanMimeType(accepted)]; ok {
			return format
		}
	}
	return AUTO
}

func cleanMimeType(mimeType string) string {
	if strings.Contains(mimeType, ";") {
		mimeType = strings.SplitN(mimeType, ";", 2)[0]
	}
	return strings.TrimSpace(mimeType)
}

// Format and MimeType mappings.
var (
	FormatToMimeType = map[SerializationFormat]string{
		JSON:    "application/json; charset=utf-8",
		CBOR:    "application/cbor",
		MsgPack: "application/msgpack",
		YAML:    "application/yaml",
	}
	MimeTypeToFormat = map[string]SerializationFormat{
		"application/json":    JSON,
		"application/cbor":    CBOR,
		"application/msgpack": MsgPack,
		"application/yaml":    YAML,
		"application/x-yaml":  YAML,
	}
)
