// Package detectors provides the detection modules scheduled by the queues.
// The queues treat them as black boxes: they only rely on the module contract.
package detectors
