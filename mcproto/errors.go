// Package mcproto implements the binary framing and packet codec for the
// Minecraft Java Edition Server List Ping dialects, both the modern
// VarInt-framed protocol (1.7+) and the fixed-layout legacy ping (1.6),
// as declared at https://minecraft.wiki/w/Java_Edition_protocol
package mcproto

import "github.com/pkg/errors"

// ErrVarIntTooLong is returned when a VarInt would require a sixth byte.
var ErrVarIntTooLong = errors.New("VarInt is too long")

// ErrInsufficientData is returned when a read asks for more bytes than a
// ByteReader holds.
var ErrInsufficientData = errors.New("insufficient data")

// ErrUnreadOutOfRange is returned when Unread is asked to rewind further
// than the cursor has advanced.
var ErrUnreadOutOfRange = errors.New("unread length out of range")

// ErrConnectionClosed is returned when the peer closes the connection
// (sends FIN) in the middle of a read.
var ErrConnectionClosed = errors.New("connection closed by peer")

// ErrTimeout is returned when a single socket read exceeds its deadline.
var ErrTimeout = errors.New("read timed out")

// ErrMalformedFrame covers positionally-invalid input: an impossible field
// value (such as a negative length or a frame longer than MaxFrameLength),
// a legacy header that doesn't match the expected sentinel bytes, and
// similar shape violations.
var ErrMalformedFrame = errors.New("malformed frame")
