package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		info ProxyInfo
		want int
	}{
		{
			"dead scores zero whatever else was measured",
			ProxyInfo{IsAlive: false, Anonymity: AnonymityElite, Type: TypeSOCKS5, LatencyMs: 1, DownloadSpeedKBps: 99999},
			0,
		},
		{
			"alive transparent http with nothing measured",
			ProxyInfo{IsAlive: true, Anonymity: AnonymityTransparent, Type: TypeHTTP, LatencyMs: -1, DownloadSpeedKBps: -1},
			0,
		},
		{
			"elite alone",
			ProxyInfo{IsAlive: true, Anonymity: AnonymityElite, Type: TypeHTTP, LatencyMs: -1, DownloadSpeedKBps: -1},
			40,
		},
		{
			"anonymous alone",
			ProxyInfo{IsAlive: true, Anonymity: AnonymityAnonymous, Type: TypeHTTP, LatencyMs: -1, DownloadSpeedKBps: -1},
			20,
		},
		{
			"https tunneling bonus",
			ProxyInfo{IsAlive: true, Anonymity: AnonymityTransparent, Type: TypeHTTPS, LatencyMs: -1, DownloadSpeedKBps: -1},
			20,
		},
		{
			"socks5 bonus",
			ProxyInfo{IsAlive: true, Anonymity: AnonymityTransparent, Type: TypeSOCKS5, LatencyMs: -1, DownloadSpeedKBps: -1},
			20,
		},
		{
			"latency bonus decays linearly",
			ProxyInfo{IsAlive: true, Anonymity: AnonymityElite, Type: TypeHTTP, LatencyMs: 500, DownloadSpeedKBps: -1},
			50,
		},
		{
			"latency at the cutoff earns nothing",
			ProxyInfo{IsAlive: true, Anonymity: AnonymityElite, Type: TypeHTTP, LatencyMs: 1000, DownloadSpeedKBps: -1},
			40,
		},
		{
			"zero latency earns nothing",
			ProxyInfo{IsAlive: true, Anonymity: AnonymityElite, Type: TypeHTTP, LatencyMs: 0, DownloadSpeedKBps: -1},
			40,
		},
		{
			"speed bonus saturates",
			ProxyInfo{IsAlive: true, Anonymity: AnonymityElite, Type: TypeHTTP, LatencyMs: -1, DownloadSpeedKBps: 2000},
			57,
		},
		{
			"typical good socks5",
			ProxyInfo{IsAlive: true, Anonymity: AnonymityElite, Type: TypeSOCKS5, LatencyMs: 500, DownloadSpeedKBps: 2000},
			87,
		},
		{
			"ceiling at one hundred",
			ProxyInfo{IsAlive: true, Anonymity: AnonymityElite, Type: TypeSOCKS5, LatencyMs: 1, DownloadSpeedKBps: 1e9},
			100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.info))
		})
	}
}
