package mcproto

import (
	"fmt"

	"github.com/google/uuid"
)

// State is the per-connection protocol state, advanced only forward per the
// Handshaking -> {Status,Login,Transfer,Unknown} -> reply lifecycle.
type State int

const (
	StateHandshaking State = iota
	StateStatus
	StateLogin
	StateTransfer
	StateUnknown
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateStatus:
		return "status"
	case StateLogin:
		return "login"
	case StateTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

const (
	PacketIdHandshake            = 0x00
	PacketIdStatusRequest        = 0x00
	PacketIdPing                 = 0x01
	PacketIdLoginStart           = 0x00
	PacketIdLegacyServerListPing = 0xFE
)

var trimLimit = 64

func trimBytes(data []byte) ([]byte, string) {
	if len(data) < trimLimit {
		return data, ""
	}
	return data[:trimLimit], "..."
}

// Frame is a decoded modern frame: the VarInt length and the raw payload
// bytes that follow it (packet id + packet-specific body).
type Frame struct {
	Length  int
	Payload []byte
}

func (f *Frame) String() string {
	trimmed, cont := trimBytes(f.Payload)
	return fmt.Sprintf("Frame:[len=%d, payload=%#X%s]", f.Length, trimmed, cont)
}

// Packet is a frame that has had its packet id peeled off the payload.
type Packet struct {
	Length   int
	PacketID int
	Data     []byte
}

func (p *Packet) String() string {
	trimmed, cont := trimBytes(p.Data)
	return fmt.Sprintf("Packet:[len=%d, packetId=%d, data=%#X%s]", p.Length, p.PacketID, trimmed, cont)
}

// Handshake is the decoded payload of the single Handshaking-state packet.
type Handshake struct {
	ProtocolVersion int
	ServerAddress   string
	ServerPort      uint16
	NextState       State
}

// LoginStart is the decoded payload of the Login-state start packet. The
// wire layout varies by client version (see DecodeLoginStart), so HasUUID
// distinguishes "no UUID was present" from a zero UUID.
type LoginStart struct {
	Name    string
	HasUUID bool
	UUID    uuid.UUID
}

// LegacyPing is the decoded payload of a 1.6 MC|PingHost plugin message.
type LegacyPing struct {
	ProtocolVersion int
	ServerAddress   string
	ServerPort      int32
}

// StatusVersion is the "version" object of the status JSON document.
type StatusVersion struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

// PlayerEntry is one entry of the status document's player sample list.
type PlayerEntry struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// StatusPlayers is the "players" object of the status JSON document.
type StatusPlayers struct {
	Max    int           `json:"max"`
	Online int           `json:"online"`
	Sample []PlayerEntry `json:"sample,omitempty"`
}

// StatusText wraps a plain chat component, used both for the status
// description and the login kick message.
type StatusText struct {
	Text string `json:"text"`
}

// StatusResponse is the full status JSON document sent in reply to a
// Status Request packet.
type StatusResponse struct {
	Version     StatusVersion `json:"version"`
	Players     StatusPlayers `json:"players"`
	Description StatusText    `json:"description"`
	Favicon     string        `json:"favicon,omitempty"`
}
