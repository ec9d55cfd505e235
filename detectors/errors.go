package detectors

import "errors"

// ErrMissingCapability is returned when the scope lacks a host capability
// required by a detector.
var ErrMissingCapability = errors.New("scope is missing a required capability")
