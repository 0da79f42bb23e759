package mcproto

import (
	"net"
	"time"
)

// ReadNextPacket demultiplexes the first byte of a connection's next frame:
// 0xFE switches to the legacy 1.6 ping flow and returns its decoded fields
// in legacy; any other byte is VarInt byte 0 of a modern frame length, and
// the remaining frame bytes are read into a Packet with its packet id
// already peeled off. On success exactly one of packet and legacy is
// non-nil; on error both are nil.
func ReadNextPacket(conn net.Conn, timeout time.Duration) (packet *Packet, legacy *LegacyPing, err error) {
	head, err := ReadByteExactly(conn, timeout)
	if err != nil {
		return nil, nil, err
	}

	if head == PacketIdLegacyServerListPing {
		legacy, err = ReadLegacyServerListPing(conn, timeout)
		return nil, legacy, err
	}

	length, err := ReadFrameLength(conn, head, timeout)
	if err != nil {
		return nil, nil, err
	}
	if length < 0 || int(length) > MaxFrameLength {
		return nil, nil, ErrMalformedFrame
	}

	body, err := ReadExactly(conn, int(length), timeout)
	if err != nil {
		return nil, nil, err
	}

	reader := NewByteReader(body)
	packetID, err := reader.ReadByte()
	if err != nil {
		return nil, nil, err
	}

	return &Packet{
		Length:   int(length),
		PacketID: int(packetID),
		Data:     body[len(body)-reader.Remaining():],
	}, nil, nil
}
