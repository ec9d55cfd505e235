package modules

import (
	"context"
	"fmt"
)

// Kind discriminates the two module shapes.
type Kind uint8

// Module Kinds.
const (
	KindUnknown    Kind = 0
	KindOneShot    Kind = 1
	KindContinuous Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindOneShot:
		return "one-shot"
	case KindContinuous:
		return "continuous"
	default:
		return "unknown"
	}
}

// Result is an opaque mapping of named outputs of a module.
type Result map[string]interface{}

// ReadinessFunc receives the results of modules.
type ReadinessFunc func(Result)

// Module is the common part of all modules. The method set a module needs to
// implement is defined by its Kind.
type Module interface {
	Name() string
	Kind() Kind
}

// OneShotModule is executed once and returns a single result.
type OneShotModule interface {
	Module

	// Exec performs a bounded unit of work. It is called exactly once.
	Exec(ctx context.Context, scope *Scope) (Result, error)
}

// ContinuousModule subscribes to external signals and reports a result every
// time a signal fires.
type ContinuousModule interface {
	Module

	// Start subscribes to signals and returns without waiting for them.
	// onReady may be called any number of times from any goroutine, until
	// Stop is called. Start is called at most once.
	Start(scope *Scope, onReady ReadinessFunc) error

	// Stop releases all subscriptions made by Start. It must be safe to call
	// when Start was never called and when already stopped.
	Stop(scope *Scope)
}

// resolve checks that the module implements the method set of its declared
// kind and returns it as such.
func resolve(m Module) (OneShotModule, ContinuousModule, error) {
	if m == nil {
		return nil, nil, fmt.Errorf("%w: module is nil", ErrContractViolation)
	}

	switch m.Kind() {
	case KindOneShot:
		oneShot, ok := m.(OneShotModule)
		if !ok {
			return nil, nil, fmt.Errorf("%w: module %s declares kind %s, but does not implement Exec", ErrContractViolation, m.Name(), m.Kind())
		}
		return oneShot, nil, nil
	case KindContinuous:
		continuous, ok := m.(ContinuousModule)
		if !ok {
			return nil, nil, fmt.Errorf("%w: module %s declares kind %s, but does not implement Start and Stop", ErrContractViolation, m.Name(), m.Kind())
		}
		return nil, continuous, nil
	default:
		return nil, nil, fmt.Errorf("%w: module %s has unknown kind %d", ErrContractViolation, m.Name(), m.Kind())
	}
}

type oneShotFunc struct {
	name string
	fn   func(context.Context, *Scope) (Result, error)
}

// NewOneShot returns a one-shot module executing fn.
func NewOneShot(name string, fn func(ctx context.Context, scope *Scope) (Result, error)) OneShotModule {
	return &oneShotFunc{
		name: name,
		fn:   fn,
	}
}

func (m *oneShotFunc) Name() string { return m.name }

func (m *oneShotFunc) Kind() Kind { return KindOneShot }

func (m *oneShotFunc) Exec(ctx context.Context, scope *Scope) (Result, error) {
	if m.fn == nil {
		return nil, nil
	}
	return m.fn(ctx, scope)
}

type continuousFuncs struct {
	name  string
	start func(*Scope, ReadinessFunc) error
	stop  func(*Scope)
}

// NewContinuous returns a continuous module calling start and stop. The stop
// function must be idempotent.
func NewContinuous(name string, start func(scope *Scope, onReady ReadinessFunc) error, stop func(scope *Scope)) ContinuousModule {
	return &continuousFuncs{
		name:  name,
		start: start,
		stop:  stop,
	}
}

func (m *continuousFuncs) Name() string { return m.name }

func (m *continuousFuncs) Kind() Kind { return KindContinuous }

func (m *continuousFuncs) Start(scope *Scope, onReady ReadinessFunc) error {
	if m.start == nil {
		return nil
	}
	return m.start(scope, onReady)
}

func (m *continuousFuncs) Stop(scope *Scope) {
	if m.stop != nil {
		m.stop(scope)
	}
}
