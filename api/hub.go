package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tevino/abool"

	"github.com/Kaccad/Juicyscore-test/log"
)

const clientSendQueueSize = 100

// Hub broadcasts messages to all connected websocket clients.
type Hub struct {
	lock    sync.RWMutex
	clients map[*hubClient]struct{}
	closed  *abool.AtomicBool
}

type hubClient struct {
	hub       *Hub
	conn      *websocket.Conn
	sendQueue chan []byte

	shutdownSignal chan struct{}
	shuttingDown   *abool.AtomicBool
}

// NewHub returns a new Hub without clients.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*hubClient]struct{}),
		closed:  abool.New(),
	}
}

func allowAnyOrigin(r *http.Request) bool {
	return true
}

// ServeHTTP upgrades the connection to a websocket and subscribes it to the
// hub. Messages sent by the client are ignored.
func (hub *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if hub.closed.IsSet() {
		http.Error(w, "result stream is closed", http.StatusServiceUnavailable)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin:     allowAnyOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 65536,
	}
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied with an error
		log.Warningf("api: could not upgrade to websocket: %s", err)
		return
	}

	client := &hubClient{
		hub:            hub,
		conn:           wsConn,
		sendQueue:      make(chan []byte, clientSendQueueSize),
		shutdownSignal: make(chan struct{}),
		shuttingDown:   abool.New(),
	}

	hub.lock.Lock()
	if hub.closed.IsSet() {
		hub.lock.Unlock()
		_ = wsConn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "result stream is closed"),
			time.Now().Add(time.Second),
		)
		_ = wsConn.Close()
		return
	}
	hub.clients[client] = struct{}{}
	hub.lock.Unlock()
	log.Debugf("api: result stream client %s connected", r.RemoteAddr)

	go client.reader()
	go client.writer()
}

// Publish sends the message to all connected clients. Clients that cannot
// keep up miss the message.
func (hub *Hub) Publish(msg []byte) {
	hub.lock.RLock()
	defer hub.lock.RUnlock()

	for client := range hub.clients {
		select {
		case client.sendQueue <- msg:
		default:
			log.Debugf("api: result stream client %s is too slow, dropping message", client.conn.RemoteAddr())
		}
	}
}

// ClientCount returns the amount of connected clients.
func (hub *Hub) ClientCount() int {
	hub.lock.RLock()
	defer hub.lock.RUnlock()

	return len(hub.clients)
}

// Close disconnects all clients and rejects new ones.
func (hub *Hub) Close() {
	hub.lock.Lock()
	if !hub.closed.SetToIf(false, true) {
		hub.lock.Unlock()
		return
	}
	clients := make([]*hubClient, 0, len(hub.clients))
	for client := range hub.clients {
		clients = append(clients, client)
	}
	hub.lock.Unlock()

	for _, client := range clients {
		client.shutdown()
	}
}

func (hub *Hub) remove(client *hubClient) {
	hub.lock.Lock()
	defer hub.lock.Unlock()

	delete(hub.clients, client)
}

func (client *hubClient) reader() {
	for {
		_, _, err := client.conn.ReadMessage()
		if err != nil {
			if !client.shuttingDown.IsSet() &&
				!websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warningf("api: websocket read error: %s", err)
			}
			client.shutdown()
			return
		}
	}
}

func (client *hubClient) writer() {
	for {
		var data []byte

		select {
		case data = <-client.sendQueue:
		case <-client.shutdownSignal:
			return
		}

		err := client.conn.WriteMessage(websocket.TextMessage, data)
		if err != nil {
			if !client.shuttingDown.IsSet() &&
				!websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warningf("api: websocket write error: %s", err)
			}
			client.shutdown()
			return
		}
	}
}

func (client *hubClient) shutdown() {
	if !client.shuttingDown.SetToIf(false, true) {
		return
	}

	client.hub.remove(client)
	close(client.shutdownSignal)
	_ = client.conn.Close()
	log.Debugf("api: result stream client %s disconnected", client.conn.RemoteAddr())
}
