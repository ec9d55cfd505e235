package host

import (
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/Kaccad/Juicyscore-test/log"
)

// Event is a signal dispatched on a Window.
type Event struct {
	Type string
	Data map[string]interface{}
	Time time.Time
}

// Listener receives events from a Window.
type Listener func(Event)

// ListenerID identifies a registered listener.
type ListenerID = uuid.UUID

type registeredListener struct {
	id ListenerID
	fn Listener
}

// Window is an event target. Listeners are called in registration order.
type Window struct {
	lock      sync.RWMutex
	listeners map[string][]registeredListener
}

// NewWindow returns an empty Window.
func NewWindow() *Window {
	return &Window{
		listeners: make(map[string][]registeredListener),
	}
}

// AddEventListener registers fn for the given event type and returns a handle
// to remove it again.
func (w *Window) AddEventListener(eventType string, fn Listener) ListenerID {
	id, err := uuid.NewV4()
	if err != nil {
		// The random source failed, fall back to a time based id.
		id = uuid.Must(uuid.NewV1())
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	w.listeners[eventType] = append(w.listeners[eventType], registeredListener{
		id: id,
		fn: fn,
	})
	return id
}

// RemoveEventListener removes the listener with the given handle. It returns
// whether a listener was removed.
func (w *Window) RemoveEventListener(eventType string, id ListenerID) bool {
	w.lock.Lock()
	defer w.lock.Unlock()

	registered := w.listeners[eventType]
	for i, l := range registered {
		if l.id == id {
			w.listeners[eventType] = append(registered[:i:i], registered[i+1:]...)
			if len(w.listeners[eventType]) == 0 {
				delete(w.listeners, eventType)
			}
			return true
		}
	}
	return false
}

// ListenerCount returns the amount of listeners registered for the event type.
func (w *Window) ListenerCount(eventType string) int {
	w.lock.RLock()
	defer w.lock.RUnlock()

	return len(w.listeners[eventType])
}

// Dispatch calls every listener of the event type and returns how many were
// called. Listeners run on the calling goroutine.
func (w *Window) Dispatch(eventType string, data map[string]interface{}) int {
	w.lock.RLock()
	registered := make([]registeredListener, len(w.listeners[eventType]))
	copy(registered, w.listeners[eventType])
	w.lock.RUnlock()

	if len(registered) == 0 {
		log.Tracef("host: no listeners for window event %s", eventType)
		return 0
	}

	event := Event{
		Type: eventType,
		Data: data,
		Time: time.Now(),
	}
	for _, l := range registered {
		l.fn(event)
	}
	return len(registered)
}
