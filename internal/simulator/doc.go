// Package simulator provides in-process NAMUR instruments for offline
// development and integration tests. A Server listens on TCP and answers
// like an IKA instrument behind a serial gateway, with switches for the
// fault modes seen in the field: silence, cross-wired configuration and
// stray bytes left on the line.
package simulator
