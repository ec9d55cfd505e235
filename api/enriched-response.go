package api

import (
	"bufio"
	"errors"
	"net"
	"net/http"
)

// EnrichedResponseWriter remembers the status code written to it.
type EnrichedResponseWriter struct {
	http.ResponseWriter
	Status int
}

// NewEnrichedResponseWriter wraps the given response writer.
func NewEnrichedResponseWriter(w http.ResponseWriter) *EnrichedResponseWriter {
	return &EnrichedResponseWriter{
		ResponseWriter: w,
		Status:         http.StatusOK,
	}
}

// WriteHeader records the status code and passes it on.
func (ew *EnrichedResponseWriter) WriteHeader(code int) {
	ew.Status = code
	ew.ResponseWriter.WriteHeader(code)
}

// Hijack passes the connection of the wrapped writer on, if supported.
func (ew *EnrichedResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := ew.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	ew.Status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}
