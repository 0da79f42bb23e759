package mcproto

import (
	"encoding/binary"
	"io"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxVarIntBytes is the most bytes a 32-bit VarInt can occupy.
const MaxVarIntBytes = 5

// MaxFrameLength bounds the in-memory buffer allocated for a single frame.
// The wire protocol itself permits up to 2^21-1, but a maintenance
// placeholder never needs a frame anywhere near that size; anything larger
// is treated as malformed input rather than trusted and allocated.
const MaxFrameLength = 32 * 1024

// ByteReader holds an in-memory buffer and a cursor, implementing the
// primitive reads of the wire format plus Unread. It never reads past the
// end of its buffer: a read that needs more bytes than remain fails with
// ErrInsufficientData. Fixed-width reads leave the cursor untouched when
// they fail; ReadVarInt, ReadString and ReadUTF16BE can advance it before
// failing.
type ByteReader struct {
	buf []byte
	i   int
}

// NewByteReader wraps a byte slice for sequential decoding.
func NewByteReader(buf []byte) *ByteReader {
	return &ByteReader{buf: buf}
}

// Len returns the total length of the underlying buffer.
func (r *ByteReader) Len() int {
	return len(r.buf)
}

// Remaining returns the number of unread bytes.
func (r *ByteReader) Remaining() int {
	return len(r.buf) - r.i
}

// Bytes returns the full underlying buffer, unaffected by the cursor.
func (r *ByteReader) Bytes() []byte {
	return r.buf
}

func (r *ByteReader) require(n int) error {
	if r.Remaining() < n {
		return ErrInsufficientData
	}
	return nil
}

// ReadByte reads a single unsigned byte.
func (r *ByteReader) ReadByte() (byte, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	b := r.buf[r.i]
	r.i++
	return b, nil
}

// ReadBool reads a single byte as a boolean (0x00/0x01, anything nonzero is true).
func (r *ByteReader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// ReadVarInt reads an unsigned, little-endian 7-bit-group VarInt, failing
// with ErrVarIntTooLong if a sixth byte would be required.
func (r *ByteReader) ReadVarInt() (int32, error) {
	var result int32
	for j := 0; j < MaxVarIntBytes; j++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= int32(b&0x7F) << (7 * uint(j))
		if b&0x80 == 0 {
			return result, nil
		}
	}
	return 0, ErrVarIntTooLong
}

// ReadString reads a VarInt-length-prefixed UTF-8 string.
func (r *ByteReader) ReadString() (string, error) {
	length, err := r.ReadVarInt()
	if err != nil {
		return "", err
	}
	if length < 0 {
		return "", ErrMalformedFrame
	}
	if err := r.require(int(length)); err != nil {
		return "", err
	}
	start := r.i
	r.i += int(length)
	return string(r.buf[start:r.i]), nil
}

// ReadUnsignedShort reads a big-endian uint16.
func (r *ByteReader) ReadUnsignedShort() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.i : r.i+2])
	r.i += 2
	return v, nil
}

// ReadInt reads a big-endian, two's-complement int32.
func (r *ByteReader) ReadInt() (int32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := int32(binary.BigEndian.Uint32(r.buf[r.i : r.i+4]))
	r.i += 4
	return v, nil
}

// ReadLong reads a big-endian, two's-complement int64.
func (r *ByteReader) ReadLong() (int64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}
	v := int64(binary.BigEndian.Uint64(r.buf[r.i : r.i+8]))
	r.i += 8
	return v, nil
}

// ReadUUID reads 16 raw big-endian bytes with no textual encoding.
func (r *ByteReader) ReadUUID() (uuid.UUID, error) {
	if err := r.require(16); err != nil {
		return uuid.UUID{}, err
	}
	var u uuid.UUID
	copy(u[:], r.buf[r.i:r.i+16])
	r.i += 16
	return u, nil
}

// ReadBytes copies the next n bytes.
func (r *ByteReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrMalformedFrame
	}
	if err := r.require(n); err != nil {
		return nil, err
	}
	start := r.i
	r.i += n
	out := make([]byte, n)
	copy(out, r.buf[start:r.i])
	return out, nil
}

// ReadUTF16BE reads symbolLen UTF-16-BE code units (symbolLen*2 bytes) and
// decodes them to a Go string.
func (r *ByteReader) ReadUTF16BE(symbolLen int) (string, error) {
	raw, err := r.ReadBytes(symbolLen * 2)
	if err != nil {
		return "", err
	}
	decoded, _, err := transform.Bytes(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder(), raw)
	if err != nil {
		return "", errInvalidEncoding(err)
	}
	return string(decoded), nil
}

// Unread rewinds the cursor by k bytes. It fails without mutating state if
// k exceeds the current cursor position.
func (r *ByteReader) Unread(k int) error {
	if k > r.i {
		return ErrUnreadOutOfRange
	}
	r.i -= k
	return nil
}

func errInvalidEncoding(cause error) error {
	return &encodingError{cause: cause}
}

type encodingError struct{ cause error }

func (e *encodingError) Error() string { return "invalid encoding: " + e.cause.Error() }
func (e *encodingError) Unwrap() error { return e.cause }

// ReadVarIntFromStream reads a VarInt directly from an io.Reader, one byte
// at a time, rather than from a pre-buffered ByteReader. This is used to
// decode the frame-length VarInt straight off the socket, where the first
// byte has typically already been peeled off to demultiplex the legacy
// 0xFE sentinel from the modern framing and is supplied as firstByte.
func ReadVarIntFromStream(r io.Reader, firstByte byte) (int32, error) {
	var result int32
	b := firstByte
	for j := 0; j < MaxVarIntBytes; j++ {
		if j > 0 {
			var buf [1]byte
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				return 0, translateReadErr(err)
			}
			b = buf[0]
		}
		result |= int32(b&0x7F) << (7 * uint(j))
		if b&0x80 == 0 {
			return result, nil
		}
	}
	return 0, ErrVarIntTooLong
}

func translateReadErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrConnectionClosed
	}
	return err
}
