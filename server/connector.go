package server

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/slp-responder/slp-responder/mcproto"
	"github.com/slp-responder/slp-responder/status"
)

const handshakeTimeout = 5 * time.Second

// Connector services accepted connections: each HandleConnection call
// demuxes the first byte of one connection, drives the handshake/status/
// login/ping state machine, and writes the locally-built reply. It never
// dials anywhere else.
type Connector struct {
	metrics      *ResponderMetrics
	clientFilter *ClientFilter
	notifier     LoginNotifier
	store        *status.Store
}

func NewConnector(metrics *ResponderMetrics, store *status.Store) *Connector {
	return &Connector{
		metrics:      metrics,
		clientFilter: NewClientFilterAllowAll(),
		store:        store,
	}
}

func (c *Connector) SetClientFilter(filter *ClientFilter) {
	c.clientFilter = filter
}

func (c *Connector) SetLoginNotifier(notifier LoginNotifier) {
	c.notifier = notifier
}

// HandleConnection services one connection end to end. It always closes
// the connection before returning, on every exit path.
func (c *Connector) HandleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	clientAddr := conn.RemoteAddr()

	if tcpAddr, ok := clientAddr.(*net.TCPAddr); ok {
		if c.clientFilter != nil && !c.clientFilter.Allow(tcpAddr.AddrPort()) {
			logrus.WithField("client", clientAddr).Debug("Client is blocked")
			return
		}
	}

	c.metrics.ActiveConnections.Add(1)
	defer c.metrics.ActiveConnections.Add(-1)

	logrus.WithField("client", clientAddr).Debug("Accepted connection")
	defer logrus.WithField("client", clientAddr).Debug("Closing connection")

	state := mcproto.StateHandshaking

	for {
		packet, legacy, err := mcproto.ReadNextPacket(conn, handshakeTimeout)
		if err != nil {
			c.logReadFailure(clientAddr, err)
			return
		}

		if legacy != nil {
			c.handleLegacyPing(conn, clientAddr, legacy)
			return
		}

		cont, err := c.dispatch(ctx, conn, clientAddr, &state, packet)
		if err != nil {
			logrus.WithError(err).WithField("client", clientAddr).Warn("Failed to handle packet")
			c.metrics.Errors.With("type", "dispatch").Add(1)
			return
		}
		if !cont {
			return
		}
	}
}

func (c *Connector) logReadFailure(clientAddr net.Addr, err error) {
	switch err {
	case mcproto.ErrTimeout:
		logrus.WithField("client", clientAddr).Debug("Connection timed out")
	case mcproto.ErrConnectionClosed:
		logrus.WithField("client", clientAddr).Debug("Client closed connection")
	default:
		logrus.WithError(err).WithField("client", clientAddr).Warn("Failed to read packet")
		c.metrics.Errors.With("type", "read").Add(1)
	}
}

// dispatch handles one decoded packet and returns whether the connection
// loop should continue reading another frame.
func (c *Connector) dispatch(ctx context.Context, conn net.Conn, clientAddr net.Addr, state *mcproto.State, packet *mcproto.Packet) (bool, error) {
	logrus.
		WithField("client", clientAddr).
		WithField("length", packet.Length).
		WithField("packetID", packet.PacketID).
		WithField("state", state.String()).
		Debug("Got packet")

	switch {
	case packet.PacketID == mcproto.PacketIdHandshake && *state == mcproto.StateHandshaking:
		return c.handleHandshake(clientAddr, state, packet)

	case packet.PacketID == mcproto.PacketIdStatusRequest && *state == mcproto.StateStatus:
		return c.handleStatusRequest(conn, clientAddr, state, packet)

	case packet.PacketID == mcproto.PacketIdLoginStart && *state == mcproto.StateLogin:
		c.handleLogin(ctx, conn, clientAddr, packet)
		return false, nil

	case packet.PacketID == 0x00 && (*state == mcproto.StateTransfer || *state == mcproto.StateUnknown):
		logrus.WithField("client", clientAddr).Debug("Dropping packet in terminal state")
		return false, nil

	case packet.PacketID == 0x01:
		c.handlePing(conn, clientAddr, packet)
		return false, nil

	default:
		logrus.WithField("client", clientAddr).WithField("packetID", packet.PacketID).Warn("Unexpected packet id")
		return false, nil
	}
}

func (c *Connector) handleHandshake(clientAddr net.Addr, state *mcproto.State, packet *mcproto.Packet) (bool, error) {
	reader := mcproto.NewByteReader(packet.Data)
	handshake, err := mcproto.DecodeHandshake(reader)
	if err != nil {
		return false, err
	}

	logrus.
		WithField("client", clientAddr).
		WithField("protocolVersion", handshake.ProtocolVersion).
		WithField("serverAddress", mcproto.EscapeControlChars(handshake.ServerAddress)).
		WithField("port", handshake.ServerPort).
		WithField("nextState", handshake.NextState.String()).
		Debug("Got handshake")

	*state = handshake.NextState
	return true, nil
}

func (c *Connector) handleStatusRequest(conn net.Conn, clientAddr net.Addr, state *mcproto.State, packet *mcproto.Packet) (bool, error) {
	if packet.Length != 1 {
		logrus.WithField("client", clientAddr).WithField("length", packet.Length).Warn("Malformed status request length")
		return false, nil
	}

	snap := c.store.Current()
	frame := snap.StatusReplyFrame()
	if err := writeAll(conn, frame); err != nil {
		return false, err
	}
	c.metrics.StatusServed.Add(1)
	c.metrics.BytesTransmitted.Add(float64(len(frame)))

	*state = mcproto.StateUnknown
	return true, nil
}

func (c *Connector) handleLogin(ctx context.Context, conn net.Conn, clientAddr net.Addr, packet *mcproto.Packet) {
	reader := mcproto.NewByteReader(packet.Data)
	login, err := mcproto.DecodeLoginStart(reader)
	if err != nil {
		logrus.WithError(err).WithField("client", clientAddr).Warn("Failed to decode login start")
		c.metrics.Errors.With("type", "dispatch").Add(1)
		return
	}

	playerInfo := &PlayerInfo{Name: login.Name}
	if login.HasUUID {
		playerInfo.Uuid = login.UUID
	}

	logrus.WithField("client", clientAddr).WithField("player", playerInfo).Info("Kicking login attempt")

	snap := c.store.Current()
	kickFrame := snap.LoginKickFrame()
	if err := writeAll(conn, kickFrame); err != nil {
		logrus.WithError(err).WithField("client", clientAddr).Warn("Failed to write kick response")
		return
	}
	c.metrics.LoginsKicked.Add(1)
	c.metrics.BytesTransmitted.Add(float64(len(kickFrame)))

	if c.notifier != nil {
		if err := c.notifier.NotifyKickedLogin(ctx, clientAddr, playerInfo, snap.KickMessage); err != nil {
			logrus.WithError(err).Warn("Failed to notify kicked login")
		}
	}
}

func (c *Connector) handlePing(conn net.Conn, clientAddr net.Addr, packet *mcproto.Packet) {
	reader := mcproto.NewByteReader(packet.Data)
	nonce, err := reader.ReadLong()
	if err != nil {
		logrus.WithError(err).WithField("client", clientAddr).Warn("Failed to decode ping nonce")
		c.metrics.Errors.With("type", "dispatch").Add(1)
		return
	}

	if err := writeAll(conn, mcproto.BuildPongResponse(nonce)); err != nil {
		logrus.WithError(err).WithField("client", clientAddr).Warn("Failed to write pong response")
		return
	}
	c.metrics.PingServed.Add(1)
	c.metrics.BytesTransmitted.Add(10)
}

func (c *Connector) handleLegacyPing(conn net.Conn, clientAddr net.Addr, legacy *mcproto.LegacyPing) {
	logrus.
		WithField("client", clientAddr).
		WithField("protocolVersion", legacy.ProtocolVersion).
		WithField("serverAddress", mcproto.EscapeControlChars(legacy.ServerAddress)).
		Debug("Got legacy server list ping")

	snap := c.store.Current()
	if err := writeAll(conn, snap.LegacyBlob); err != nil {
		logrus.WithError(err).WithField("client", clientAddr).Warn("Failed to write legacy status blob")
		return
	}
	c.metrics.LegacyPingsServed.Add(1)
	c.metrics.BytesTransmitted.Add(float64(len(snap.LegacyBlob)))
}

func writeAll(conn net.Conn, data []byte) error {
	_, err := conn.Write(data)
	return err
}
