package modules

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/Kaccad/Juicyscore-test/log"
)

type entry struct {
	module     Module
	kind       Kind
	oneShot    OneShotModule
	continuous ContinuousModule

	delay time.Duration

	// guarded by the queue lock
	timer       Timer
	fired       bool
	starting    bool
	stopPending bool
}

// Queue starts modules with staggered, cumulative delays against a shared
// scope and funnels all their results into a single readiness callback.
type Queue struct {
	name    string
	scope   *Scope
	onReady ReadinessFunc
	ctx     context.Context
	timers  Timers

	lock    sync.Mutex
	state   QueueState
	entries []*entry

	deliverLock sync.Mutex
	metrics     *queueMetrics
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithTimers sets the source of deferred calls. Defaults to SystemTimers.
func WithTimers(timers Timers) QueueOption {
	return func(q *Queue) {
		q.timers = timers
	}
}

// WithContext sets the context passed to one-shot modules. Stopping the queue
// does not cancel it. Defaults to context.Background().
func WithContext(ctx context.Context) QueueOption {
	return func(q *Queue) {
		q.ctx = ctx
	}
}

// NewQueue returns an empty queue. The scope is borrowed and must outlive the
// queue. Calls to onReady are serialized.
func NewQueue(name string, scope *Scope, onReady ReadinessFunc, opts ...QueueOption) *Queue {
	q := &Queue{
		name:    name,
		scope:   scope,
		onReady: onReady,
		ctx:     context.Background(),
		timers:  SystemTimers,
		metrics: newQueueMetrics(name),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.onReady == nil {
		q.onReady = func(Result) {}
	}
	return q
}

// Name returns the name of the queue.
func (q *Queue) Name() string {
	return q.name
}

// State returns the lifecycle state of the queue.
func (q *Queue) State() QueueState {
	q.lock.Lock()
	defer q.lock.Unlock()

	return q.state
}

// Len returns the amount of modules in the queue.
func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()

	return len(q.entries)
}

// Add appends a module to the queue. The module is started delay after the
// module added before it. Modules can only be added before the queue is
// started.
func (q *Queue) Add(module Module, delay time.Duration) error {
	oneShot, continuous, err := resolve(module)
	if err != nil {
		return err
	}
	if delay < 0 {
		return fmt.Errorf("%w: negative delay %s for module %s", ErrContractViolation, delay, module.Name())
	}

	q.lock.Lock()
	defer q.lock.Unlock()

	if q.state != QueueStatePending {
		return fmt.Errorf("%w (module %s, queue %s)", ErrQueueStarted, module.Name(), q.name)
	}

	q.entries = append(q.entries, &entry{
		module:     module,
		kind:       module.Kind(),
		oneShot:    oneShot,
		continuous: continuous,
		delay:      delay,
	})
	return nil
}

// Start arms a timer for every module. A module fires after the sum of its
// own delay and the delays of all modules before it, measured from now.
// A queue can only be started once.
func (q *Queue) Start() error {
	q.lock.Lock()
	defer q.lock.Unlock()

	switch q.state {
	case QueueStateRunning:
		return fmt.Errorf("%w (queue %s)", ErrAlreadyStarted, q.name)
	case QueueStateStopped:
		return fmt.Errorf("%w (queue %s)", ErrQueueStopped, q.name)
	}
	q.state = QueueStateRunning

	var offset time.Duration
	for _, e := range q.entries {
		offset += e.delay
		e := e
		e.timer = q.timers.AfterFunc(offset, func() {
			q.fire(e)
		})
		log.Tracef("modules: %s/%s armed at +%s", q.name, e.module.Name(), offset)
	}

	log.Debugf("modules: queue %s started with %d modules", q.name, len(q.entries))
	return nil
}

func (q *Queue) fire(e *entry) {
	q.lock.Lock()
	if q.state != QueueStateRunning || e.timer == nil || e.fired {
		q.lock.Unlock()
		return
	}
	e.fired = true
	if e.kind == KindContinuous {
		e.starting = true
	}
	q.lock.Unlock()

	q.metrics.dispatched.Inc()
	log.Debugf("modules: %s/%s: dispatching %s module", q.name, e.module.Name(), e.kind)

	switch e.kind {
	case KindOneShot:
		q.execOneShot(e)
	case KindContinuous:
		q.startContinuous(e)
	}
}

func (q *Queue) execOneShot(e *entry) {
	result, err := q.runExec(e)
	if err != nil {
		q.handleFailure(err)
		return
	}
	if result == nil {
		result = Result{}
	}
	q.deliver(result)
}

func (q *Queue) startContinuous(e *entry) {
	err := q.runStart(e)
	if err != nil {
		q.handleFailure(err)
	}

	// Stop was called while starting, stop the module now.
	q.lock.Lock()
	e.starting = false
	stopNow := e.stopPending
	e.stopPending = false
	q.lock.Unlock()

	if stopNow {
		if err := q.runStop(e); err != nil {
			q.handleFailure(err)
		}
	}
}

// deliver passes a result to the readiness callback.
func (q *Queue) deliver(result Result) {
	if q.State() == QueueStateStopped {
		log.Debugf("modules: queue %s received a result after it was stopped", q.name)
	}

	q.deliverLock.Lock()
	defer q.deliverLock.Unlock()

	q.metrics.delivered.Inc()
	q.onReady(result)
}

// Stop cancels all pending timers and stops all continuous modules, including
// those that have not started yet. One-shot modules that are already executing
// are not canceled and still deliver their result. Stop is idempotent. The
// returned error holds all failures of module Stop functions.
func (q *Queue) Stop() error {
	q.lock.Lock()
	if q.state != QueueStateRunning {
		q.lock.Unlock()
		return nil
	}
	q.state = QueueStateStopped

	var toStop []*entry
	for _, e := range q.entries {
		if e.timer == nil {
			continue
		}
		if e.kind == KindContinuous {
			if e.starting {
				e.stopPending = true
			} else {
				toStop = append(toStop, e)
			}
		}
		e.timer.Stop()
		e.timer = nil
	}
	q.lock.Unlock()

	var errs *multierror.Error
	for _, e := range toStop {
		if err := q.runStop(e); err != nil {
			q.handleFailure(err)
			errs = multierror.Append(errs, err)
		}
	}

	log.Debugf("modules: queue %s stopped", q.name)
	return errs.ErrorOrNil()
}
