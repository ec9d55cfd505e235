package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Kaccad/Juicyscore-test/formats/dsd"
	"github.com/Kaccad/Juicyscore-test/log"
	"github.com/Kaccad/Juicyscore-test/metrics"
	"github.com/Kaccad/Juicyscore-test/modules"
)

const shutdownTimeout = 5 * time.Second

// Backend provides the data served by the API.
type Backend interface {
	// Queues returns the status of all queues.
	Queues() []*modules.QueueStatus
	// Dispatch dispatches a window event and returns the amount of listeners called.
	Dispatch(eventType string, data map[string]interface{}) int
}

// Server is the HTTP API server.
type Server struct {
	backend Backend
	hub     *Hub
	router  *mux.Router
}

// NewServer returns a server for the given backend. Results published to the
// hub are streamed to websocket clients.
func NewServer(backend Backend, hub *Hub) *Server {
	srv := &Server{
		backend: backend,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	srv.router.Use(RequestLogger)
	srv.router.HandleFunc("/metrics", handleMetrics).Methods(http.MethodGet)
	srv.router.HandleFunc("/api/v1/queues", srv.handleQueues).Methods(http.MethodGet)
	srv.router.HandleFunc("/api/v1/events/{name:[A-Za-z0-9_-]+}", srv.handleEvent).Methods(http.MethodPost)
	srv.router.Handle("/api/v1/results", hub).Methods(http.MethodGet)

	return srv
}

// Handler returns the root handler of the server.
func (srv *Server) Handler() http.Handler {
	return srv.router
}

// RequestLogger is a logging middleware.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ew := NewEnrichedResponseWriter(w)
		next.ServeHTTP(ew, r)
		log.Debugf("api request: %s %d %s %s", r.RemoteAddr, ew.Status, r.Method, r.RequestURI)
	})
}

// Serve serves the API on the given address until the context is canceled.
func (srv *Server) Serve(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	return srv.serve(ctx, listener)
}

func (srv *Server) serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           srv.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		srv.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warningf("api: failed to shut down cleanly: %s", err)
		}
	}()

	log.Infof("api: starting to listen on %s", listener.Addr())
	err := server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		<-shutdownDone
		log.Info("api: stopped")
		return nil
	}
	log.Errorf("api: failed to listen on %s: %s", listener.Addr(), err)
	return err
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	metrics.WritePrometheus(w)
}

func (srv *Server) handleQueues(w http.ResponseWriter, r *http.Request) {
	err := dsd.DumpToHTTPResponse(w, r, srv.backend.Queues(), dsd.JSON)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type eventResponse struct {
	Event     string `json:"event" cbor:"event" msgpack:"event"`
	Listeners int    `json:"listeners" cbor:"listeners" msgpack:"listeners"`
}

func (srv *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	eventType := mux.Vars(r)["name"]

	// The body is optional and holds the event data.
	var data map[string]interface{}
	if r.ContentLength != 0 {
		if _, err := dsd.LoadFromHTTPRequest(r, &data); err != nil && !errors.Is(err, dsd.ErrMissingBody) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	listeners := srv.backend.Dispatch(eventType, data)
	err := dsd.DumpToHTTPResponse(w, r, &eventResponse{
		Event:     eventType,
		Listeners: listeners,
	}, dsd.JSON)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
