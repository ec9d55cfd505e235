package run

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/Kaccad/Juicyscore-test/detectors"
	"github.com/Kaccad/Juicyscore-test/host"
	"github.com/Kaccad/Juicyscore-test/log"
	"github.com/Kaccad/Juicyscore-test/modules"
)

// Queue Names.
const (
	EventsQueue = "events"
	DataQueue   = "data"
)

// BuildQueues creates the queues of the detector on the shared scope. The
// events queue holds the continuous modules and the data queue the one-shot
// modules. callbackFor returns the readiness callback of a queue.
func BuildQueues(scope *modules.Scope, callbackFor func(queueName string) modules.ReadinessFunc, opts ...modules.QueueOption) ([]*modules.Queue, error) {
	events := modules.NewQueue(EventsQueue, scope, callbackFor(EventsQueue), opts...)
	if err := events.Add(detectors.NewCopyPaste(), msToDuration(copyPasteDelay())); err != nil {
		return nil, fmt.Errorf("failed to add copy-paste detector: %w", err)
	}

	data := modules.NewQueue(DataQueue, scope, callbackFor(DataQueue), opts...)
	if err := data.Add(detectors.NewFonts(fontFamilies), msToDuration(fontsDelay())); err != nil {
		return nil, fmt.Errorf("failed to add fonts detector: %w", err)
	}
	if err := data.Add(detectors.NewNavigator(), msToDuration(navigatorDelay())); err != nil {
		return nil, fmt.Errorf("failed to add navigator detector: %w", err)
	}

	return []*modules.Queue{events, data}, nil
}

// StartQueues starts all queues in order.
func StartQueues(queues []*modules.Queue) error {
	for _, q := range queues {
		if err := q.Start(); err != nil {
			return err
		}
		log.Infof("run: started queue %s with %d modules", q.Name(), q.Len())
	}
	return nil
}

// StopQueues stops all queues and returns all failures.
func StopQueues(queues []*modules.Queue) error {
	var errs *multierror.Error
	for _, q := range queues {
		if err := q.Stop(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to stop queue %s: %w", q.Name(), err))
		}
	}
	return errs.ErrorOrNil()
}

// backend serves the API.
type backend struct {
	win    *host.Window
	queues []*modules.Queue
}

func (b *backend) Queues() []*modules.QueueStatus {
	statuses := make([]*modules.QueueStatus, 0, len(b.queues))
	for _, q := range b.queues {
		statuses = append(statuses, q.Status())
	}
	return statuses
}

func (b *backend) Dispatch(eventType string, data map[string]interface{}) int {
	return b.win.Dispatch(eventType, data)
}
