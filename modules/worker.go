package modules

import (
	"errors"

	"github.com/Kaccad/Juicyscore-test/log"
)

// runExec executes a one-shot module while catching panics.
func (q *Queue) runExec(e *entry) (result Result, err error) {
	defer func() {
		// recover from panic
		panicVal := recover()
		if panicVal != nil {
			me := newPanicError(q.name, e.module.Name(), PhaseExec, panicVal)
			log.Errorf("modules: %s\n%s", me, me.StackTrace)
			result = nil
			err = me
		}
	}()

	result, err = e.oneShot.Exec(q.ctx, q.scope)
	if err != nil {
		err = newModuleError(q.name, e.module.Name(), PhaseExec, err)
	}
	return result, err
}

// runStart starts a continuous module while catching panics.
func (q *Queue) runStart(e *entry) (err error) {
	defer func() {
		// recover from panic
		panicVal := recover()
		if panicVal != nil {
			me := newPanicError(q.name, e.module.Name(), PhaseStart, panicVal)
			log.Errorf("modules: %s\n%s", me, me.StackTrace)
			err = me
		}
	}()

	err = e.continuous.Start(q.scope, q.deliver)
	if err != nil {
		err = newModuleError(q.name, e.module.Name(), PhaseStart, err)
	}
	return err
}

// runStop stops a continuous module while catching panics.
func (q *Queue) runStop(e *entry) (err error) {
	defer func() {
		// recover from panic
		panicVal := recover()
		if panicVal != nil {
			me := newPanicError(q.name, e.module.Name(), PhaseStop, panicVal)
			log.Errorf("modules: %s\n%s", me, me.StackTrace)
			err = me
		}
	}()

	e.continuous.Stop(q.scope)
	return nil
}

// handleFailure logs, counts and reports a failed module execution.
func (q *Queue) handleFailure(err error) {
	q.metrics.failed.Inc()

	var me *ModuleError
	if !errors.As(err, &me) {
		me = newModuleError(q.name, "?", "?", err)
	}
	if me.Severity != "panic" {
		// panics were already logged with their stack trace
		log.Warningf("modules: %s", me)
	}
	me.Report()
}
