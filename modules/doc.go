// Package modules schedules detection modules against a shared scope.
//
// A module comes in one of two shapes:
//
// **One-shot modules**
// Execute once and return a single result. The result is delivered to the
// readiness callback of the queue exactly once. A running execution cannot be
// canceled by the queue.
//
// **Continuous modules**
// Subscribe to external signals when started and report a result whenever a
// signal fires, until they are stopped. Stopping is idempotent and is also
// done for modules that never started.
//
// **Queues**
// A queue holds an ordered list of modules, each with a delay. When the queue
// is started, every module is armed with the sum of its own delay and the
// delays of all modules added before it, which results in a cascade: "run A,
// then after its gap run B, then after B's gap run C". All results of all
// modules of a queue are funneled through the single readiness callback of
// that queue. Queues are independent of each other.
//
// Any execution by a module is done with panics caught and reported as a
// *ModuleError.
package modules
