package modules

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	// ErrContractViolation is returned when a queue is used against its
	// contract, eg. when adding a module that does not implement its kind.
	ErrContractViolation = errors.New("contract violation")

	// ErrAlreadyStarted is returned when starting a queue twice.
	ErrAlreadyStarted = fmt.Errorf("%w: queue already started", ErrContractViolation)

	// ErrQueueStarted is returned when adding modules to a started queue.
	ErrQueueStarted = fmt.Errorf("%w: cannot add modules to a started queue", ErrContractViolation)

	// ErrQueueStopped is returned when starting a stopped queue.
	ErrQueueStopped = fmt.Errorf("%w: queue was stopped", ErrContractViolation)

	errorReportingChannel     chan *ModuleError
	errorReportingChannelLock sync.RWMutex
)

// Execution phases of a module.
const (
	PhaseExec  = "exec"
	PhaseStart = "start"
	PhaseStop  = "stop"
)

// ModuleError wraps a panic or error of a module into an error that can be reported.
type ModuleError struct {
	Message string

	QueueName  string
	ModuleName string
	Phase      string // one of "exec", "start" or "stop"
	Severity   string // one of "error" or "panic"

	Err        error
	PanicValue interface{}
	StackTrace string
}

func newModuleError(queueName, moduleName, phase string, err error) *ModuleError {
	return &ModuleError{
		Message:    fmt.Sprintf("%s/%s: %s failed: %s", queueName, moduleName, phase, err),
		QueueName:  queueName,
		ModuleName: moduleName,
		Phase:      phase,
		Severity:   "error",
		Err:        err,
	}
}

func newPanicError(queueName, moduleName, phase string, panicValue interface{}) *ModuleError {
	return &ModuleError{
		Message:    fmt.Sprintf("%s/%s: %s panicked: %v", queueName, moduleName, phase, panicValue),
		QueueName:  queueName,
		ModuleName: moduleName,
		Phase:      phase,
		Severity:   "panic",
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
	}
}

// Error returns the string representation of the error.
func (me *ModuleError) Error() string {
	return me.Message
}

// Unwrap returns the wrapped module error, if any.
func (me *ModuleError) Unwrap() error {
	return me.Err
}

// Report reports the error through the configured reporting channel.
func (me *ModuleError) Report() {
	errorReportingChannelLock.RLock()
	defer errorReportingChannelLock.RUnlock()

	if errorReportingChannel != nil {
		select {
		case errorReportingChannel <- me:
		default:
		}
	}
}

// IsPanic returns whether the given error is a wrapped panic by the modules package and additionally returns it, if true.
func IsPanic(err error) (bool, *ModuleError) {
	var me *ModuleError
	if errors.As(err, &me) && me.Severity == "panic" {
		return true, me
	}
	return false, nil
}

// SetErrorReportingChannel sets the channel to report module errors through.
// Reports are dropped if the channel is full. Pass nil to stop reporting.
func SetErrorReportingChannel(reportingChannel chan *ModuleError) {
	errorReportingChannelLock.Lock()
	defer errorReportingChannelLock.Unlock()

	errorReportingChannel = reportingChannel
}
