// Package probe implements the stateless network probes used to interrogate
// candidate proxies: raw TCP and ICMP reachability, SOCKS4/SOCKS5 handshakes,
// HTTP and HTTPS fetches routed through a proxy, download speed measurement,
// and DNSBL lookups. Every probe converts network failures into result values
// and bounds its wall time by the caller-supplied timeout.
package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	netproxy "golang.org/x/net/proxy"
	"h12.io/socks"
)

// NewClient builds an http.Client that routes every request through the proxy
// described by proxyURL. Supported schemes are http, https, socks4, socks4a
// and socks5. The client never follows redirects and never reuses
// connections, so each request observes the proxy from a cold start.
func NewClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}

	transport := baseTransport()

	switch u.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	case "socks5":
		dialer, err := netproxy.SOCKS5("tcp", u.Host, nil, netproxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks5 dialer: %w", err)
		}
		if cd, ok := dialer.(netproxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	case "socks4", "socks4a":
		// h12.io/socks is the only dialer around that still speaks SOCKS4.
		dial := socks.Dial(fmt.Sprintf("%s://%s?timeout=%s", u.Scheme, u.Host, timeout))
		transport.DialContext = nil
		transport.Dial = dial
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

// baseTransport returns the transport settings shared by all proxy clients.
// Keep-alives and compression are off so that measurements are not skewed by
// connection reuse, and certificate errors are ignored because free proxies
// routinely intercept TLS.
func baseTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 0,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
		DisableKeepAlives:     true,
		DisableCompression:    true,
		MaxIdleConns:          0,
		IdleConnTimeout:       1 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
