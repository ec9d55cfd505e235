package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaccad/Juicyscore-test/modules"
)

const (
	defaultWait = 2 * time.Second
	defaultTick = 5 * time.Millisecond
)

type testBackend struct {
	lock   sync.Mutex
	events []string
	data   []map[string]interface{}
}

func (b *testBackend) Queues() []*modules.QueueStatus {
	return []*modules.QueueStatus{{
		Name:  "events",
		State: "running",
		Entries: []*modules.EntryStatus{{
			Module: "copy-paste",
			Kind:   "continuous",
			Delay:  "2s",
			Offset: "2s",
			Armed:  true,
		}},
	}}
}

func (b *testBackend) Dispatch(eventType string, data map[string]interface{}) int {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.events = append(b.events, eventType)
	b.data = append(b.data, data)
	return 1
}

func TestQueuesEndpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(NewServer(&testBackend{}, NewHub()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/queues")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var queues []*modules.QueueStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&queues))
	require.Len(t, queues, 1)
	assert.Equal(t, "events", queues[0].Name)
	assert.Equal(t, "copy-paste", queues[0].Entries[0].Module)
}

func TestEventEndpoint(t *testing.T) {
	t.Parallel()

	backend := &testBackend{}
	srv := httptest.NewServer(NewServer(backend, NewHub()).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/events/paste", "application/json", strings.NewReader(`{"length":5}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/v1/events/copy", "", nil)
	require.NoError(t, err)
	var response eventResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	_ = resp.Body.Close()
	assert.Equal(t, eventResponse{Event: "copy", Listeners: 1}, response)

	resp, err = http.Post(srv.URL+"/api/v1/events/paste", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/events/paste")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	backend.lock.Lock()
	defer backend.lock.Unlock()
	assert.Equal(t, []string{"paste", "copy"}, backend.events)
	assert.Equal(t, float64(5), backend.data[0]["length"])
	assert.Nil(t, backend.data[1])
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(NewServer(&testBackend{}, NewHub()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	buf := &bytes.Buffer{}
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, buf.String(), "go_goroutines")
}

func TestResultStream(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	srv := httptest.NewServer(NewServer(&testBackend{}, hub).Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/results"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer func() { _ = conn.Close() }()

	assert.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, defaultWait, defaultTick)

	hub.Publish([]byte(`{"queue":"data"}`))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(defaultWait)))
	msgType, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	assert.JSONEq(t, `{"queue":"data"}`, string(msg))

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)

	// new clients are rejected after closing
	_, resp, err = websocket.DefaultDialer.Dial(wsURL, nil)
	assert.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		_ = resp.Body.Close()
	}
}

// closingWriter closes the hub while the websocket upgrade takes over the
// connection.
type closingWriter struct {
	http.ResponseWriter
	hub *Hub
}

func (cw *closingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	cw.hub.Close()
	return cw.ResponseWriter.(http.Hijacker).Hijack()
}

func TestResultStreamClosedDuringUpgrade(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeHTTP(&closingWriter{ResponseWriter: w, hub: hub}, r)
	}))
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(defaultWait)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error: %v", err)
	assert.Equal(t, 0, hub.ClientCount())

	hub.Publish([]byte(`{"queue":"data"}`))
}

func TestServe(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(&testBackend{}, NewHub())
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- srv.serve(ctx, listener)
	}()

	assert.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/api/v1/queues")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, defaultWait, defaultTick)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(defaultWait):
		t.Fatal("server did not stop")
	}
}
