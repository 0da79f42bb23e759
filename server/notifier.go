package server

import (
	"context"
	"fmt"
	"net"

	"github.com/google/uuid"
)

// PlayerInfo identifies the player attempting to log in, decoded from the
// login-start packet.
type PlayerInfo struct {
	Name string    `json:"name"`
	Uuid uuid.UUID `json:"uuid,omitempty"`
}

func (p *PlayerInfo) String() string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s", p.Name, p.Uuid)
}

// ClientInfo identifies the remote end of a connection.
type ClientInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func ClientInfoFromAddr(addr net.Addr) *ClientInfo {
	if addr == nil {
		return nil
	}
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return nil
	}
	return &ClientInfo{
		Host: tcpAddr.IP.String(),
		Port: tcpAddr.Port,
	}
}

// LoginNotifier is called when a client completes the login handshake and
// is kicked with the configured maintenance message. Status and ping
// traffic never reaches it: a real login attempt is the one event worth
// telling an operator about.
type LoginNotifier interface {
	NotifyKickedLogin(ctx context.Context, clientAddr net.Addr, playerInfo *PlayerInfo, kickMessage string) error
}
