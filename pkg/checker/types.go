package checker

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// ProxyType is the highest-capability protocol a proxy was observed to speak.
type ProxyType string

const (
	TypeUnknown ProxyType = "unknown"
	TypeHTTP    ProxyType = "http"
	TypeHTTPS   ProxyType = "https"
	TypeSOCKS4  ProxyType = "socks4"
	TypeSOCKS5  ProxyType = "socks5"
)

// AnonymityLevel classifies how much a proxy reveals about the originating client.
type AnonymityLevel int

const (
	AnonymityUnknown AnonymityLevel = iota
	AnonymityTransparent
	AnonymityAnonymous
	AnonymityElite
)

func (a AnonymityLevel) String() string {
	switch a {
	case AnonymityTransparent:
		return "transparent"
	case AnonymityAnonymous:
		return "anonymous"
	case AnonymityElite:
		return "elite"
	default:
		return "unknown"
	}
}

func (a AnonymityLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// ErrMalformedAddress is returned by ParseEndpoint for input that is not a
// valid "host:port" string.
var ErrMalformedAddress = errors.New("malformed proxy address")

// Endpoint is a validated proxy address. It is immutable once parsed.
type Endpoint struct {
	Host string
	Port int
}

// Address returns the canonical "host:port" form, bracketing IPv6 hosts.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// ParseEndpoint validates raw as "host:port" and decomposes it. The port must
// be numeric and within 1-65535. No network I/O is performed.
func ParseEndpoint(raw string) (Endpoint, error) {
	host, portStr, err := net.SplitHostPort(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrMalformedAddress, raw)
	}
	if host == "" {
		return Endpoint{}, fmt.Errorf("%w: empty host in %q", ErrMalformedAddress, raw)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: non-numeric port %q", ErrMalformedAddress, portStr)
	}
	if port < 1 || port > 65535 {
		return Endpoint{}, fmt.Errorf("%w: port %d out of range", ErrMalformedAddress, port)
	}
	return Endpoint{Host: host, Port: port}, nil
}

// ProxyInfo aggregates every observation made about one proxy. A record is
// populated during evaluation and never mutated once handed to the caller.
type ProxyInfo struct {
	Address           string         `json:"address"`
	Type              ProxyType      `json:"type"`
	Anonymity         AnonymityLevel `json:"anonymity"`
	Country           string         `json:"country,omitempty"`
	ASN               string         `json:"asn,omitempty"`
	OutgoingIP        string         `json:"outgoing_ip,omitempty"`
	IsAlive           bool           `json:"is_alive"`
	AdditionalHeaders string         `json:"additional_headers,omitempty"`
	LatencyMs         int            `json:"latency_ms"`
	DownloadSpeedKBps float64        `json:"download_speed_kbps"`
	Score             int            `json:"score"`
	IsBlacklisted     bool           `json:"is_blacklisted"`
	CheckedAt         time.Time      `json:"checked_at"`
}
