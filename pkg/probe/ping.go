package probe

import (
	"context"
	"errors"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// Ping sends a single ICMP echo request to host and waits for the reply. A nil
// return means a reply arrived within the timeout. The pinger runs in
// unprivileged UDP mode so no raw-socket capability is required.
//
// ICMP is an auxiliary signal only: plenty of proxies block echo requests yet
// forward traffic fine, so callers must not treat a failure here as dead.
func Ping(ctx context.Context, host string, timeout time.Duration) error {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return err
	}
	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(false)

	if err := pinger.RunWithContext(ctx); err != nil {
		return err
	}
	if pinger.Statistics().PacketsRecv == 0 {
		return errors.New("no echo reply within timeout")
	}
	return nil
}
