package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/corpix/uarand"
)

// maxEchoBody caps how much of an echo response is parsed. Echo services
// answer in a few hundred bytes; anything larger is a misbehaving proxy
// injecting its own content.
const maxEchoBody = 64 << 10

// EchoPayload is what an echo endpoint reported back about our request.
type EchoPayload struct {
	// Origin is the IP address the endpoint saw the request come from.
	Origin string
	// Headers is the request-header set as the endpoint received it,
	// including anything the proxy injected along the way.
	Headers map[string]string
}

// FetchEcho issues a GET to an httpbin-style echo endpoint through client and
// parses the `{origin, headers}` JSON reply. It is the baseline liveness
// check: a proxy that cannot complete this round trip is considered dead.
func FetchEcho(ctx context.Context, client *http.Client, echoURL, userAgent string) (*EchoPayload, error) {
	resp, err := doGet(ctx, client, echoURL, userAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var body struct {
		Origin  string            `json:"origin"`
		Headers map[string]string `json:"headers"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxEchoBody)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode echo response: %w", err)
	}
	if body.Origin == "" {
		return nil, errors.New("echo response missing origin")
	}

	return &EchoPayload{Origin: body.Origin, Headers: body.Headers}, nil
}

// FetchHTTPS issues a GET to a well-known HTTPS URL through client. A nil
// return means the proxy tunneled the TLS request and answered with a
// success-class status, i.e. it is HTTPS-capable.
func FetchHTTPS(ctx context.Context, client *http.Client, testURL, userAgent string) error {
	resp, err := doGet(ctx, client, testURL, userAgent)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

func doGet(ctx context.Context, client *http.Client, rawURL, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", pickUserAgent(userAgent))
	req.Header.Set("Accept", "application/json, text/plain")
	req.Header.Set("Connection", "close")

	return client.Do(req)
}

// pickUserAgent returns the configured User-Agent, or a random browser one
// when none is configured so that scans do not carry a fixed fingerprint.
func pickUserAgent(configured string) string {
	if configured != "" {
		return configured
	}
	return uarand.GetRandom()
}
