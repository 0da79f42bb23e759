package mcproto

import (
	"errors"
	"io"
	"net"
	"time"
)

// DefaultReadTimeout is the deadline applied to every single socket read
// while demultiplexing and decoding one connection's packets.
const DefaultReadTimeout = 5 * time.Second

// ReadExactly blocks until exactly n bytes have been read from conn or the
// deadline (timeout from now) expires. A short read ending in peer-FIN
// fails with ErrConnectionClosed; a deadline expiry fails with ErrTimeout.
func ReadExactly(conn net.Conn, n int, timeout time.Duration) ([]byte, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	_, err := io.ReadFull(conn, buf)
	if err == nil {
		return buf, nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return nil, ErrTimeout
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, ErrConnectionClosed
	}
	return nil, err
}

// ReadByteExactly reads a single byte under the same deadline discipline as
// ReadExactly.
func ReadByteExactly(conn net.Conn, timeout time.Duration) (byte, error) {
	b, err := ReadExactly(conn, 1, timeout)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// connDeadlineReader adapts a net.Conn + fixed per-read timeout to the
// io.Reader shape ReadVarIntFromStream expects, re-arming the deadline on
// every call so each byte of a multi-byte VarInt gets its own per-read
// timeout.
type connDeadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (c connDeadlineReader) Read(p []byte) (int, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	n, err := c.conn.Read(p)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return n, ErrTimeout
		}
		if errors.Is(err, io.EOF) {
			return n, ErrConnectionClosed
		}
	}
	return n, err
}

// ReadFrameLength reads the VarInt frame length directly from conn,
// treating firstByte as VarInt byte 0 (it may carry the continuation bit)
// and reading any further continuation bytes straight off the socket
// rather than requiring them to be pre-buffered.
func ReadFrameLength(conn net.Conn, firstByte byte, timeout time.Duration) (int32, error) {
	return ReadVarIntFromStream(connDeadlineReader{conn: conn, timeout: timeout}, firstByte)
}
