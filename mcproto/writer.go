package mcproto

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// WriteVarInt appends value encoded as a VarInt to buf.
func WriteVarInt(buf *bytes.Buffer, value int32) {
	v := uint32(value)
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf.WriteByte(b)
		if v == 0 {
			return
		}
	}
}

// WriteString appends a VarInt-length-prefixed UTF-8 string to buf.
func WriteString(buf *bytes.Buffer, s string) {
	WriteVarInt(buf, int32(len(s)))
	buf.WriteString(s)
}

// WriteUnsignedShort appends a big-endian uint16 to buf.
func WriteUnsignedShort(buf *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	buf.Write(tmp[:])
}

// WriteLong appends a big-endian int64 to buf.
func WriteLong(buf *bytes.Buffer, v int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	buf.Write(tmp[:])
}

// EncodeUTF16BE encodes s to UTF-16-BE code units.
func EncodeUTF16BE(s string) ([]byte, error) {
	encoded, _, err := transform.Bytes(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder(), []byte(s))
	if err != nil {
		return nil, err
	}
	return encoded, nil
}

// BuildFramedStringResponse builds a complete, length-prefixed modern
// packet carrying a single VarInt-length-prefixed string payload:
// <VarInt frameLen> <packetID> <VarInt len(body)> <body>
func BuildFramedStringResponse(packetID byte, body string) []byte {
	var inner bytes.Buffer
	inner.WriteByte(packetID)
	WriteString(&inner, body)

	var framed bytes.Buffer
	WriteVarInt(&framed, int32(inner.Len()))
	framed.Write(inner.Bytes())
	return framed.Bytes()
}

// BuildPongResponse builds the exact 10-byte pong wire sequence:
// <VarInt 9> <VarInt 1> <i64-BE nonce>
func BuildPongResponse(nonce int64) []byte {
	var inner bytes.Buffer
	WriteVarInt(&inner, PacketIdPing)
	WriteLong(&inner, nonce)

	var framed bytes.Buffer
	WriteVarInt(&framed, int32(inner.Len()))
	framed.Write(inner.Bytes())
	return framed.Bytes()
}
