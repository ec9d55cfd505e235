// Package api provides the optional HTTP interface of the detector: queue
// status, event injection, metrics and a websocket stream of results.
package api
