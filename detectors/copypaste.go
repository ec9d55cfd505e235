package detectors

import (
	"fmt"
	"sync"

	"github.com/Kaccad/Juicyscore-test/host"
	"github.com/Kaccad/Juicyscore-test/log"
	"github.com/Kaccad/Juicyscore-test/modules"
)

// Clipboard events observed by CopyPaste.
const (
	EventCopy  = "copy"
	EventPaste = "paste"
)

type subscription struct {
	eventType string
	id        host.ListenerID
}

var _ modules.ContinuousModule = &CopyPaste{}

// CopyPaste reports every copy and paste event of the window.
type CopyPaste struct {
	lock          sync.Mutex
	win           *host.Window
	subscriptions []subscription
}

// NewCopyPaste returns a new copy/paste detector.
func NewCopyPaste() *CopyPaste {
	return &CopyPaste{}
}

// Name implements modules.Module.
func (cp *CopyPaste) Name() string { return "copy-paste" }

// Kind implements modules.Module.
func (cp *CopyPaste) Kind() modules.Kind { return modules.KindContinuous }

// Start subscribes to the clipboard events of the window.
func (cp *CopyPaste) Start(scope *modules.Scope, onReady modules.ReadinessFunc) error {
	if scope == nil || scope.Win == nil {
		return fmt.Errorf("%w: window", ErrMissingCapability)
	}

	cp.lock.Lock()
	defer cp.lock.Unlock()

	if len(cp.subscriptions) > 0 {
		return nil
	}

	report := func(event host.Event) {
		result := make(modules.Result, len(event.Data)+2)
		for k, v := range event.Data {
			result[k] = v
		}
		result["event"] = event.Type
		result["time"] = event.Time
		onReady(result)
	}

	cp.win = scope.Win
	for _, eventType := range []string{EventPaste, EventCopy} {
		cp.subscriptions = append(cp.subscriptions, subscription{
			eventType: eventType,
			id:        scope.Win.AddEventListener(eventType, report),
		})
	}
	log.Tracef("detectors: copy-paste subscribed to %d window events", len(cp.subscriptions))
	return nil
}

// Stop removes the listeners registered by Start, and only those.
func (cp *CopyPaste) Stop(scope *modules.Scope) {
	cp.lock.Lock()
	defer cp.lock.Unlock()

	for _, sub := range cp.subscriptions {
		if !cp.win.RemoveEventListener(sub.eventType, sub.id) {
			log.Debugf("detectors: copy-paste listener for %s was already removed", sub.eventType)
		}
	}
	cp.subscriptions = nil
	cp.win = nil
}
