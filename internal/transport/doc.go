// Package transport implements the NAMUR request path to a single instrument.
//
// A Transport owns one protocol.ByteStream. Requests are serialized so that
// exactly one command is on the wire at a time, the connection is opened on
// demand and reopened after faults, and every response line is classified
// by a namur.Decoder. Timeouts and I/O errors are absorbed and reported as an
// empty value; after too many consecutive faults the connection is closed so
// the next request starts from a fresh connect.
package transport
