package probe

import (
	"context"
	"io"
	"net/http"
	"time"
)

// SpeedResult carries the two throughput observations for one proxy. The two
// fields are either both measured or both the -1 sentinel; callers rely on
// that pairing.
type SpeedResult struct {
	LatencyMs int
	KBps      float64
}

// SpeedFailed is the sentinel result for a speed measurement that could not
// run or did not finish.
var SpeedFailed = SpeedResult{LatencyMs: -1, KBps: -1}

// MeasureSpeed downloads the reference payload through client, reporting the
// time to the first response byte as latency and bytes/elapsed as KB/s. Any
// failure yields SpeedFailed; this probe never returns an error.
func MeasureSpeed(ctx context.Context, client *http.Client, payloadURL, userAgent string) SpeedResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, payloadURL, nil)
	if err != nil {
		return SpeedFailed
	}
	req.Header.Set("User-Agent", pickUserAgent(userAgent))
	req.Header.Set("Connection", "close")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return SpeedFailed
	}
	defer resp.Body.Close()
	latency := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		return SpeedFailed
	}

	received, err := io.Copy(io.Discard, resp.Body)
	elapsed := time.Since(start).Seconds()
	if err != nil || received == 0 || elapsed <= 0 {
		return SpeedFailed
	}

	return SpeedResult{
		LatencyMs: int(latency.Milliseconds()),
		KBps:      float64(received) / 1024 / elapsed,
	}
}
