package probe

import (
	"context"
	"net"
	"time"
)

// TCPConnect opens a raw TCP connection to addr ("host:port") and closes it
// immediately. It returns the time the connect took, or an error if the
// connection did not complete within the timeout.
func TCPConnect(ctx context.Context, addr string, timeout time.Duration) (time.Duration, error) {
	dialer := net.Dialer{Timeout: timeout}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return 0, err
	}
	latency := time.Since(start)
	conn.Close()

	return latency, nil
}
