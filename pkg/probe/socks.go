package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

const (
	socksVersion4   = 0x04
	socksVersion5   = 0x05
	socksCmdConnect = 0x01

	// socks4Granted is the SOCKS4 "request granted" reply code.
	socks4Granted = 90
)

// SOCKS5Handshake connects to addr and performs the version 5 method
// negotiation, offering only the no-auth method. A nil return means the server
// answered [0x05, 0x00], i.e. it speaks SOCKS5 and accepts unauthenticated
// clients. The connection is closed before returning.
func SOCKS5Handshake(ctx context.Context, addr string, timeout time.Duration) error {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	if _, err := conn.Write([]byte{socksVersion5, 0x01, 0x00}); err != nil {
		return fmt.Errorf("write greeting: %w", err)
	}

	var reply [2]byte
	if _, err := io.ReadFull(conn, reply[:]); err != nil {
		return fmt.Errorf("read method selection: %w", err)
	}
	if reply[0] != socksVersion5 || reply[1] != 0x00 {
		return fmt.Errorf("no-auth method rejected: % x", reply)
	}
	return nil
}

// SOCKS4Handshake connects to addr and sends a version 4 CONNECT request for
// the fixed probe target ("ipv4:port"). A nil return means the 8-byte reply
// carried code 90 (request granted). Only handshake acceptance is tested; the
// granted tunnel is dropped without sending a byte through it.
func SOCKS4Handshake(ctx context.Context, addr, target string, timeout time.Duration) error {
	req, err := socks4ConnectRequest(target)
	if err != nil {
		return err
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	if _, err := conn.Write(req); err != nil {
		return fmt.Errorf("write connect request: %w", err)
	}

	var reply [8]byte
	if _, err := io.ReadFull(conn, reply[:]); err != nil {
		return fmt.Errorf("read connect reply: %w", err)
	}
	if reply[1] != socks4Granted {
		return fmt.Errorf("request rejected with code %d", reply[1])
	}
	return nil
}

// socks4ConnectRequest encodes a SOCKS4 CONNECT request for target, which must
// be an IPv4 literal with port. The user-id field is left empty.
func socks4ConnectRequest(target string) ([]byte, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return nil, fmt.Errorf("invalid probe target %q: %w", target, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid probe target port %q", portStr)
	}
	ip4 := net.ParseIP(host).To4()
	if ip4 == nil {
		return nil, fmt.Errorf("probe target %q is not an IPv4 address", host)
	}

	return []byte{
		socksVersion4,
		socksCmdConnect,
		byte(port >> 8), byte(port),
		ip4[0], ip4[1], ip4[2], ip4[3],
		0x00,
	}, nil
}
