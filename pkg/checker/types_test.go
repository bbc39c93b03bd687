package checker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		raw  string
		host string
		port int
	}{
		{"127.0.0.1:8080", "127.0.0.1", 8080},
		{"proxy.example.com:3128", "proxy.example.com", 3128},
		{"[2001:db8::1]:1080", "2001:db8::1", 1080},
		{"10.0.0.1:1", "10.0.0.1", 1},
		{"10.0.0.1:65535", "10.0.0.1", 65535},
	}
	for _, tt := range tests {
		ep, err := ParseEndpoint(tt.raw)
		require.NoError(t, err, "input %q", tt.raw)
		assert.Equal(t, tt.host, ep.Host)
		assert.Equal(t, tt.port, ep.Port)
	}
}

func TestParseEndpointMalformed(t *testing.T) {
	inputs := []string{
		"",
		"127.0.0.1",       // no port
		"127.0.0.1:",      // empty port
		":8080",           // empty host
		"127.0.0.1:http",  // non-numeric port
		"127.0.0.1:0",     // port out of range
		"127.0.0.1:65536", // port out of range
		"127.0.0.1:-1",
		"1.2.3.4:80:extra",
	}
	for _, raw := range inputs {
		_, err := ParseEndpoint(raw)
		require.Error(t, err, "input %q", raw)
		assert.ErrorIs(t, err, ErrMalformedAddress, "input %q", raw)
	}
}

func TestEndpointAddressRoundTrip(t *testing.T) {
	for _, raw := range []string{"127.0.0.1:8080", "proxy.example.com:3128", "[2001:db8::1]:1080"} {
		ep, err := ParseEndpoint(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, ep.Address())
	}
}

func TestAnonymityLevelString(t *testing.T) {
	assert.Equal(t, "unknown", AnonymityUnknown.String())
	assert.Equal(t, "transparent", AnonymityTransparent.String())
	assert.Equal(t, "anonymous", AnonymityAnonymous.String())
	assert.Equal(t, "elite", AnonymityElite.String())
}

func TestAnonymityLevelJSON(t *testing.T) {
	b, err := json.Marshal(AnonymityElite)
	require.NoError(t, err)
	assert.Equal(t, `"elite"`, string(b))

	b, err = json.Marshal(ProxyInfo{Address: "1.2.3.4:80", Anonymity: AnonymityTransparent, LatencyMs: -1, DownloadSpeedKBps: -1})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"anonymity":"transparent"`)
	assert.Contains(t, string(b), `"latency_ms":-1`)
}
