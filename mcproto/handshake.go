package mcproto

import "strings"

// DecodeHandshake decodes the single Handshaking-state packet:
// VarInt version, String server_addr, u16 port, u8 next_state.
func DecodeHandshake(r *ByteReader) (*Handshake, error) {
	version, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	addr, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	port, err := r.ReadUnsignedShort()
	if err != nil {
		return nil, err
	}
	nextState, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	return &Handshake{
		ProtocolVersion: int(version),
		ServerAddress:   addr,
		ServerPort:      port,
		NextState:       decodeNextState(nextState),
	}, nil
}

func decodeNextState(b byte) State {
	switch b {
	case 0x01:
		return StateStatus
	case 0x02:
		return StateLogin
	case 0x03:
		return StateTransfer
	default:
		return StateUnknown
	}
}

// EscapeControlChars renders \0 \r \t \n as literal two-character escapes,
// for safely logging an attacker-controlled server_address field.
func EscapeControlChars(s string) string {
	replacer := strings.NewReplacer(
		"\x00", "\\0",
		"\r", "\\r",
		"\t", "\\t",
		"\n", "\\n",
	)
	return replacer.Replace(s)
}
