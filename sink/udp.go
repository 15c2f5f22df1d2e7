package sink

import (
	"fmt"
	"net"
)

// UDP sends each epoch as one datagram
type UDP struct {
	dest string
	conn *net.UDPConn
}

// NewUDP dials dest, a host:port that may be a broadcast address
func NewUDP(dest string) (*UDP, error) {
	if dest == "" {
		return nil, fmt.Errorf("udp: %w", ErrNoDestination)
	}
	addr, err := net.ResolveUDPAddr("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}
	return &UDP{dest: dest, conn: conn}, nil
}

func (u *UDP) Send(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	_, err := u.conn.Write(p)
	return err
}

func (u *UDP) Close() error {
	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.conn = nil
	return err
}
