package checker

import "math"

// Score rates a completed evaluation on a 0-100 scale using fixed weights:
// anonymity (elite 40, anonymous 20), a latency bonus that decays linearly to
// zero at 1s, a speed bonus that saturates around 1 MB/s, and 20 points for
// speaking HTTPS or SOCKS5. A dead proxy always scores 0.
func Score(info ProxyInfo) int {
	if !info.IsAlive {
		return 0
	}

	total := 0.0

	switch info.Anonymity {
	case AnonymityElite:
		total += 40
	case AnonymityAnonymous:
		total += 20
	}

	if info.LatencyMs > 0 && info.LatencyMs < 1000 {
		total += math.Round(20 * (1 - float64(info.LatencyMs)/1000))
	}
	if info.DownloadSpeedKBps > 0 {
		total += math.Round(20 * (1 - math.Exp(-info.DownloadSpeedKBps/1000)))
	}
	if info.Type == TypeHTTPS || info.Type == TypeSOCKS5 {
		total += 20
	}

	if total > 100 {
		return 100
	}
	return int(total)
}
