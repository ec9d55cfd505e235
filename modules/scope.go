package modules

import "github.com/Kaccad/Juicyscore-test/host"

// Scope bundles the host capabilities available to modules. It is shared by
// all modules of all queues and must be treated as read-only by the queue.
type Scope struct {
	Win *host.Window
	Doc *host.Document
	Nav *host.Navigator
}
