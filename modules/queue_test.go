package modules

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	lock    sync.Mutex
	results []Result
}

func (r *recorder) onReady(result Result) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.results = append(r.results, result)
}

func (r *recorder) get() []Result {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Result(nil), r.results...)
}

type testContinuous struct {
	name string

	lock    sync.Mutex
	onReady ReadinessFunc
	starts  int
	stops   int
}

func (m *testContinuous) Name() string { return m.name }

func (m *testContinuous) Kind() Kind { return KindContinuous }

func (m *testContinuous) Start(scope *Scope, onReady ReadinessFunc) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.starts++
	m.onReady = onReady
	return nil
}

func (m *testContinuous) Stop(scope *Scope) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.stops++
	m.onReady = nil
}

// signal emulates an external signal and returns whether a subscriber was notified.
func (m *testContinuous) signal(result Result) bool {
	m.lock.Lock()
	onReady := m.onReady
	m.lock.Unlock()

	if onReady == nil {
		return false
	}
	onReady(result)
	return true
}

func (m *testContinuous) counts() (starts, stops int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.starts, m.stops
}

func TestCumulativeDelay(t *testing.T) {
	t.Parallel()

	mt := newManualTimers()
	q := NewQueue("cumulative", &Scope{}, nil, WithTimers(mt))

	var (
		lock    sync.Mutex
		firedAt = make(map[string]time.Duration)
	)
	record := func(name string) OneShotModule {
		return NewOneShot(name, func(context.Context, *Scope) (Result, error) {
			lock.Lock()
			defer lock.Unlock()
			firedAt[name] = mt.Now()
			return nil, nil
		})
	}
	require.NoError(t, q.Add(record("a"), 100*time.Millisecond))
	require.NoError(t, q.Add(record("b"), 200*time.Millisecond))
	require.NoError(t, q.Add(record("c"), 50*time.Millisecond))
	require.NoError(t, q.Start())

	mt.Advance(99 * time.Millisecond)
	assert.Empty(t, firedAt)

	mt.Advance(time.Second)
	assert.Equal(t, map[string]time.Duration{
		"a": 100 * time.Millisecond,
		"b": 300 * time.Millisecond,
		"c": 350 * time.Millisecond,
	}, firedAt)

	status := q.Status()
	assert.Equal(t, "running", status.State)
	require.Len(t, status.Entries, 3)
	assert.Equal(t, "b", status.Entries[1].Module)
	assert.Equal(t, "one-shot", status.Entries[1].Kind)
	assert.Equal(t, "200ms", status.Entries[1].Delay)
	assert.Equal(t, "300ms", status.Entries[1].Offset)
	assert.True(t, status.Entries[1].Armed)
	assert.True(t, status.Entries[1].Fired)
}

func TestZeroDelaysKeepRegistrationOrder(t *testing.T) {
	t.Parallel()

	mt := newManualTimers()
	rec := &recorder{}
	q := NewQueue("zero", &Scope{}, rec.onReady, WithTimers(mt))

	for _, name := range []string{"first", "second", "third"} {
		name := name
		require.NoError(t, q.Add(NewOneShot(name, func(context.Context, *Scope) (Result, error) {
			return Result{"module": name}, nil
		}), 0))
	}
	require.NoError(t, q.Start())
	mt.Advance(0)

	assert.Equal(t, []Result{
		{"module": "first"},
		{"module": "second"},
		{"module": "third"},
	}, rec.get())
}

func TestOneShotDeliveredOnce(t *testing.T) {
	t.Parallel()

	mt := newManualTimers()
	rec := &recorder{}
	q := NewQueue("one-shot-once", &Scope{}, rec.onReady, WithTimers(mt))

	execs := 0
	require.NoError(t, q.Add(NewOneShot("a", func(context.Context, *Scope) (Result, error) {
		execs++
		return Result{"a": 1}, nil
	}), 10*time.Millisecond))
	require.NoError(t, q.Add(NewOneShot("nothing", nil), 10*time.Millisecond))
	require.NoError(t, q.Start())

	mt.Advance(10 * time.Millisecond)
	assert.Equal(t, []Result{{"a": 1}}, rec.get())

	mt.Advance(time.Minute)
	assert.Equal(t, []Result{{"a": 1}, {}}, rec.get())
	assert.Equal(t, 1, execs)

	assert.Equal(t, uint64(2), metrics.GetOrCreateCounter(`detect_queue_delivered_total{queue="one-shot-once"}`).Get())
	assert.Equal(t, uint64(2), metrics.GetOrCreateCounter(`detect_queue_dispatched_total{queue="one-shot-once"}`).Get())
}

func TestContinuousMultipleDelivery(t *testing.T) {
	t.Parallel()

	mt := newManualTimers()
	rec := &recorder{}
	q := NewQueue("continuous-multi", &Scope{}, rec.onReady, WithTimers(mt))

	m := &testContinuous{name: "clipboard"}
	require.NoError(t, q.Add(m, 20*time.Millisecond))
	require.NoError(t, q.Start())

	// not started yet
	assert.False(t, m.signal(Result{"event": "early"}))

	mt.Advance(20 * time.Millisecond)
	assert.True(t, m.signal(Result{"event": "copy"}))
	assert.True(t, m.signal(Result{"event": "paste"}))
	assert.True(t, m.signal(Result{"event": "copy"}))

	assert.Equal(t, []Result{
		{"event": "copy"},
		{"event": "paste"},
		{"event": "copy"},
	}, rec.get())

	starts, _ := m.counts()
	assert.Equal(t, 1, starts)
}

func TestStopCancelsPending(t *testing.T) {
	t.Parallel()

	mt := newManualTimers()
	rec := &recorder{}
	q := NewQueue("stop-pending", &Scope{}, rec.onReady, WithTimers(mt))

	execs := 0
	require.NoError(t, q.Add(NewOneShot("fonts", func(context.Context, *Scope) (Result, error) {
		execs++
		return Result{"fonts": 3}, nil
	}), 100*time.Millisecond))
	require.NoError(t, q.Start())

	mt.Advance(50 * time.Millisecond)
	require.NoError(t, q.Stop())
	assert.Equal(t, 0, mt.Pending())

	mt.Advance(time.Second)
	assert.Empty(t, rec.get())
	assert.Equal(t, 0, execs)
	assert.Equal(t, QueueStateStopped, q.State())
}

func TestStopTearsDownContinuous(t *testing.T) {
	t.Parallel()

	mt := newManualTimers()
	q := NewQueue("stop-continuous", &Scope{}, nil, WithTimers(mt))

	started := &testContinuous{name: "started"}
	neverStarted := &testContinuous{name: "never started"}
	require.NoError(t, q.Add(started, 10*time.Millisecond))
	require.NoError(t, q.Add(neverStarted, time.Hour))
	require.NoError(t, q.Start())
	mt.Advance(10 * time.Millisecond)

	require.NoError(t, q.Stop())
	require.NoError(t, q.Stop())
	require.NoError(t, q.Stop())

	starts, stops := started.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops)

	starts, stops = neverStarted.counts()
	assert.Equal(t, 0, starts)
	assert.Equal(t, 1, stops)

	// the stopped module no longer reports
	assert.False(t, started.signal(Result{"event": "copy"}))

	mt.Advance(2 * time.Hour)
	starts, _ = neverStarted.counts()
	assert.Equal(t, 0, starts)
}

func TestStopBeforeStart(t *testing.T) {
	t.Parallel()

	mt := newManualTimers()
	q := NewQueue("stop-before-start", &Scope{}, nil, WithTimers(mt))
	m := &testContinuous{name: "idle"}
	require.NoError(t, q.Add(m, 0))

	require.NoError(t, q.Stop())
	_, stops := m.counts()
	assert.Equal(t, 0, stops)
	assert.Equal(t, QueueStatePending, q.State())
}

func TestAddRejectsInvalidModules(t *testing.T) {
	t.Parallel()

	q := NewQueue("contract", &Scope{}, nil, WithTimers(newManualTimers()))

	assert.ErrorIs(t, q.Add(nil, 0), ErrContractViolation)
	assert.ErrorIs(t, q.Add(&nameOnly{kind: KindOneShot}, 0), ErrContractViolation)
	assert.ErrorIs(t, q.Add(&nameOnly{kind: KindContinuous}, 0), ErrContractViolation)
	assert.ErrorIs(t, q.Add(&nameOnly{kind: KindUnknown}, 0), ErrContractViolation)
	assert.ErrorIs(t, q.Add(NewOneShot("negative", nil), -time.Second), ErrContractViolation)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, QueueStatePending, q.State())
}

func TestQueueLifecycleViolations(t *testing.T) {
	t.Parallel()

	mt := newManualTimers()
	q := NewQueue("lifecycle", &Scope{}, nil, WithTimers(mt))
	require.NoError(t, q.Add(NewOneShot("a", nil), time.Second))
	require.NoError(t, q.Start())

	err := q.Start()
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.ErrorIs(t, err, ErrContractViolation)
	assert.Equal(t, 1, mt.Pending(), "second start must not arm timers")

	err = q.Add(NewOneShot("late", nil), 0)
	assert.ErrorIs(t, err, ErrQueueStarted)
	assert.ErrorIs(t, err, ErrContractViolation)
	assert.Equal(t, 1, q.Len())

	require.NoError(t, q.Stop())
	err = q.Start()
	assert.ErrorIs(t, err, ErrQueueStopped)
	assert.ErrorIs(t, q.Add(NewOneShot("later", nil), 0), ErrQueueStarted)
}

func TestQueueIsolation(t *testing.T) {
	t.Parallel()

	mt := newManualTimers()
	scope := &Scope{}
	eventsRec := &recorder{}
	dataRec := &recorder{}

	events := NewQueue("isolation-events", scope, eventsRec.onReady, WithTimers(mt))
	data := NewQueue("isolation-data", scope, dataRec.onReady, WithTimers(mt))

	clipboard := &testContinuous{name: "clipboard"}
	require.NoError(t, events.Add(clipboard, 20*time.Millisecond))
	require.NoError(t, data.Add(NewOneShot("fonts", func(_ context.Context, s *Scope) (Result, error) {
		assert.Same(t, scope, s)
		return Result{"fonts": []string{"Arial"}}, nil
	}), 10*time.Millisecond))

	require.NoError(t, events.Start())
	require.NoError(t, data.Start())
	mt.Advance(time.Second)
	clipboard.signal(Result{"event": "paste"})

	assert.Equal(t, []Result{{"event": "paste"}}, eventsRec.get())
	assert.Equal(t, []Result{{"fonts": []string{"Arial"}}}, dataRec.get())

	require.NoError(t, data.Stop())
	assert.Equal(t, QueueStateRunning, events.State())
	assert.True(t, clipboard.signal(Result{"event": "copy"}))
	assert.Len(t, eventsRec.get(), 2)
}

func TestInFlightOneShotDeliversAfterStop(t *testing.T) {
	t.Parallel()

	mt := newManualTimers()
	rec := &recorder{}
	q := NewQueue("in-flight", &Scope{}, rec.onReady, WithTimers(mt))

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, q.Add(NewOneShot("slow", func(context.Context, *Scope) (Result, error) {
		close(started)
		<-release
		return Result{"late": true}, nil
	}), 10*time.Millisecond))
	require.NoError(t, q.Start())

	done := make(chan struct{})
	go func() {
		mt.Advance(10 * time.Millisecond)
		close(done)
	}()
	<-started

	require.NoError(t, q.Stop())
	assert.Empty(t, rec.get())

	close(release)
	<-done
	assert.Equal(t, []Result{{"late": true}}, rec.get())
}

type blockingContinuous struct {
	testContinuous

	started chan struct{}
	release chan struct{}
}

func (m *blockingContinuous) Start(scope *Scope, onReady ReadinessFunc) error {
	close(m.started)
	<-m.release
	return m.testContinuous.Start(scope, onReady)
}

func TestStopWhileContinuousStarting(t *testing.T) {
	t.Parallel()

	mt := newManualTimers()
	q := NewQueue("stop-while-starting", &Scope{}, nil, WithTimers(mt))

	m := &blockingContinuous{
		testContinuous: testContinuous{name: "slow subscriber"},
		started:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	require.NoError(t, q.Add(m, 0))
	require.NoError(t, q.Start())

	done := make(chan struct{})
	go func() {
		mt.Advance(0)
		close(done)
	}()
	<-m.started

	require.NoError(t, q.Stop())
	_, stops := m.counts()
	assert.Equal(t, 0, stops)

	close(m.release)
	<-done
	starts, stops := m.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops)
	assert.False(t, m.signal(Result{"event": "copy"}))
}

func TestModuleFailures(t *testing.T) { //nolint:paralleltest // Uses the global error reporting channel.
	reports := make(chan *ModuleError, 10)
	SetErrorReportingChannel(reports)
	defer SetErrorReportingChannel(nil)

	mt := newManualTimers()
	rec := &recorder{}
	q := NewQueue("failures", &Scope{}, rec.onReady, WithTimers(mt))

	errFonts := errors.New("no font access")
	require.NoError(t, q.Add(NewOneShot("erroring", func(context.Context, *Scope) (Result, error) {
		return Result{"partial": true}, errFonts
	}), 0))
	require.NoError(t, q.Add(NewOneShot("panicking", func(context.Context, *Scope) (Result, error) {
		var m map[string]int
		m["boom"]++
		return nil, nil
	}), 0))
	require.NoError(t, q.Add(NewContinuous("failing start", func(*Scope, ReadinessFunc) error {
		return errFonts
	}, func(*Scope) {
		panic("stop exploded")
	}), 0))
	require.NoError(t, q.Add(NewOneShot("working", func(context.Context, *Scope) (Result, error) {
		return Result{"ok": true}, nil
	}), 0))
	require.NoError(t, q.Start())
	mt.Advance(0)

	// failed executions are not delivered, others are unaffected
	assert.Equal(t, []Result{{"ok": true}}, rec.get())

	execErr := <-reports
	assert.Equal(t, "erroring", execErr.ModuleName)
	assert.Equal(t, PhaseExec, execErr.Phase)
	assert.ErrorIs(t, execErr, errFonts)

	panicErr := <-reports
	panicked, me := IsPanic(panicErr)
	require.True(t, panicked)
	assert.Equal(t, "panicking", me.ModuleName)
	assert.NotEmpty(t, me.StackTrace)

	startErr := <-reports
	assert.Equal(t, PhaseStart, startErr.Phase)
	assert.Equal(t, "failures", startErr.QueueName)

	// stop panics are recovered and returned
	err := q.Stop()
	require.Error(t, err)
	panicked, me = IsPanic(err)
	require.True(t, panicked)
	assert.Equal(t, PhaseStop, me.Phase)
	stopErr := <-reports
	assert.Equal(t, "failing start", stopErr.ModuleName)

	assert.Equal(t, uint64(4), metrics.GetOrCreateCounter(`detect_queue_failed_total{queue="failures"}`).Get())
}

func TestStaleDeliveryIsNotBlocked(t *testing.T) {
	t.Parallel()

	mt := newManualTimers()
	rec := &recorder{}
	q := NewQueue("stale", &Scope{}, rec.onReady, WithTimers(mt))

	// ignores stop, like a misbehaving module would
	var leaked ReadinessFunc
	require.NoError(t, q.Add(NewContinuous("leaky", func(_ *Scope, onReady ReadinessFunc) error {
		leaked = onReady
		return nil
	}, nil), 0))
	require.NoError(t, q.Start())
	mt.Advance(0)
	require.NoError(t, q.Stop())

	leaked(Result{"event": "copy"})
	assert.Equal(t, []Result{{"event": "copy"}}, rec.get())
}

func TestQueueWithSystemTimers(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping test in short mode, as it depends on wall clock timing")
	}

	results := make(chan Result, 2)
	q := NewQueue("system", &Scope{}, func(r Result) { results <- r }, WithContext(context.Background()))
	require.NoError(t, q.Add(NewOneShot("first", func(context.Context, *Scope) (Result, error) {
		return Result{"n": 1}, nil
	}), 10*time.Millisecond))
	require.NoError(t, q.Add(NewOneShot("second", func(context.Context, *Scope) (Result, error) {
		return Result{"n": 2}, nil
	}), 20*time.Millisecond))

	start := time.Now()
	require.NoError(t, q.Start())

	first := <-results
	second := <-results
	assert.Equal(t, Result{"n": 1}, first)
	assert.Equal(t, Result{"n": 2}, second)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	require.NoError(t, q.Stop())
}
