package mcproto

import (
	"bytes"
	"net"
	"time"
)

// legacyPingHostMessage is the fixed plugin-message name a 1.6 client sends
// as part of its server list ping.
const legacyPingHostMessage = "MC|PingHost"

// ReadLegacyServerListPing decodes the fixed-layout 1.6 ping that follows
// the already-consumed 0xFE sentinel byte. Every step is positionally
// rigid; any mismatch is ErrMalformedFrame.
func ReadLegacyServerListPing(conn net.Conn, timeout time.Duration) (*LegacyPing, error) {
	header, err := ReadExactly(conn, 2, timeout)
	if err != nil {
		return nil, err
	}
	if header[0] != 0x01 || header[1] != 0xFA {
		return nil, ErrMalformedFrame
	}

	nameLenBytes, err := ReadExactly(conn, 2, timeout)
	if err != nil {
		return nil, err
	}
	nameLen := NewByteReader(nameLenBytes)
	messageNameLen, err := nameLen.ReadUnsignedShort()
	if err != nil {
		return nil, err
	}
	if messageNameLen != 11 {
		return nil, ErrMalformedFrame
	}

	nameBytes, err := ReadExactly(conn, int(messageNameLen)*2, timeout)
	if err != nil {
		return nil, err
	}
	messageName, err := NewByteReader(nameBytes).ReadUTF16BE(int(messageNameLen))
	if err != nil {
		return nil, err
	}
	if messageName != legacyPingHostMessage {
		return nil, ErrMalformedFrame
	}

	remainingLenBytes, err := ReadExactly(conn, 2, timeout)
	if err != nil {
		return nil, err
	}
	remainingLen, err := NewByteReader(remainingLenBytes).ReadUnsignedShort()
	if err != nil {
		return nil, err
	}

	body, err := ReadExactly(conn, int(remainingLen), timeout)
	if err != nil {
		return nil, err
	}
	reader := NewByteReader(body)

	protocolVersion, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	hostChars, err := reader.ReadUnsignedShort()
	if err != nil {
		return nil, err
	}
	if int(hostChars)*2 != int(remainingLen)-7 {
		return nil, ErrMalformedFrame
	}
	hostname, err := reader.ReadUTF16BE(int(hostChars))
	if err != nil {
		return nil, err
	}
	port, err := reader.ReadInt()
	if err != nil {
		return nil, err
	}

	return &LegacyPing{
		ProtocolVersion: int(protocolVersion),
		ServerAddress:   hostname,
		ServerPort:      port,
	}, nil
}

// BuildLegacyStatusBlob builds the precomputed 1.6-compatible response:
// 0xFF <u16-BE char-count> <UTF-16-BE payload>, where payload is the
// null-separated string "§1\0<protocol>\0Too old!\0The client is too old.
// Please use client 1.7+\0<N>\0<N>\0" and N is the configured sample count.
func BuildLegacyStatusBlob(protocol int, sampleCount int) ([]byte, error) {
	payload := "§1\x00" +
		itoa(protocol) + "\x00" +
		"Too old!\x00" +
		"The client is too old. Please use client 1.7+\x00" +
		itoa(sampleCount) + "\x00" +
		itoa(sampleCount) + "\x00"

	encoded, err := EncodeUTF16BE(payload)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.WriteByte(0xFF)
	WriteUnsignedShort(&out, uint16(len(encoded)/2))
	out.Write(encoded)
	return out.Bytes(), nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
