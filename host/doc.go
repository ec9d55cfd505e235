// Package host provides the capability objects detection modules are allowed
// to use: a window-like event target, a document-like font registry and a
// navigator-like description of the machine.
//
// Modules never reach for these globally. They receive them bundled in a
// scope, which keeps them testable in isolation.
package host
