// Package namur interprets responses of the NAMUR ASCII command protocol used
// by laboratory instruments.
//
// The protocol carries no type information. A response is matched against the
// command that produced it with these rules, first match wins:
//
//  1. No line received: None.
//  2. Identity commands (name, type, version): the line verbatim.
//  3. Line contains a cross-wiring sentinel: *MisconfiguredDeviceError.
//  4. Line contains the full command (echoing instruments): the text after it.
//  5. Last characters of line and command differ: ErrMisaligned.
//  6. Boolean status: first character compared with the active flag.
//  7. Two character status: first two characters compared with the active code.
//  8. Otherwise a number followed by a two character readback suffix.
//
// Which rule applies to a verb is recorded in a CommandTable so firmware
// specific conventions can be changed without touching the transport.
package namur
