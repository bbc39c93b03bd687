package checker

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"proxyprobe/internal/logger"
	"proxyprobe/pkg/geo"
	"proxyprobe/pkg/probe"
)

// GeoResolver resolves the geolocation of an outgoing IP. A nil resolver
// leaves Country and ASN empty on every record.
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) (geo.Info, error)
}

// Config holds the probe endpoints and limits a Checker runs with.
type Config struct {
	EchoURL      string
	HTTPSURL     string
	SpeedURL     string
	DNSBLZone    string
	SOCKS4Target string
	Timeout      time.Duration
	MaxWorkers   int
	UserAgent    string
}

// DefaultConfig returns sensible defaults for ad-hoc use.
func DefaultConfig() Config {
	return Config{
		EchoURL:      "http://httpbin.org/get",
		HTTPSURL:     "https://api.ipify.org",
		SpeedURL:     "http://cachefly.cachefly.net/1mb.test",
		DNSBLZone:    "zen.spamhaus.org",
		SOCKS4Target: "8.8.8.8:80",
		Timeout:      15 * time.Second,
		MaxWorkers:   10,
	}
}

// Checker evaluates candidate proxies: Check runs the full probe sequence for
// one endpoint, CheckAll drives a batch under the worker limit.
type Checker struct {
	config Config
	geo    GeoResolver
	log    zerolog.Logger

	// OnResult, when set before CheckAll starts, is called once per completed
	// record from the collecting goroutine.
	OnResult func(ProxyInfo)

	realIPOnce sync.Once
	ownIP      string
}

func New(config Config, geoResolver GeoResolver) *Checker {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 10
	}
	return &Checker{
		config: config,
		geo:    geoResolver,
		log:    logger.WithComponent("checker"),
	}
}

// SetTimeout overrides the per-probe timeout.
func (c *Checker) SetTimeout(timeout time.Duration) {
	c.config.Timeout = timeout
}

// SetMaxWorkers overrides the number of concurrent evaluations.
func (c *Checker) SetMaxWorkers(workers int) {
	if workers > 0 {
		c.config.MaxWorkers = workers
	}
}

// Check runs the full evaluation for one endpoint. The echo fetch through the
// proxy decides liveness; a dead proxy is returned immediately with defaults.
// Everything after that degrades independently: a failed geo lookup, type
// probe, speed test or blacklist query only leaves its own fields at their
// unknown values and never aborts the evaluation.
func (c *Checker) Check(ctx context.Context, ep Endpoint) ProxyInfo {
	info := newRecord(ep.Address())

	client, err := probe.NewClient("http://"+ep.Address(), c.config.Timeout)
	if err != nil {
		return info
	}

	echo, err := probe.FetchEcho(ctx, client, c.config.EchoURL, c.config.UserAgent)
	if err != nil {
		c.log.Debug().Str("proxy", info.Address).Err(err).Msg("Baseline echo fetch failed")
		return info
	}

	info.IsAlive = true
	info.OutgoingIP = firstAddr(echo.Origin)

	if c.geo != nil {
		if g, err := c.geo.Resolve(ctx, info.OutgoingIP); err == nil {
			info.Country = g.Country
			info.ASN = g.ASN
		} else {
			c.log.Debug().Str("proxy", info.Address).Err(err).Msg("Geo lookup failed")
		}
	}

	info.Type = c.detectType(ctx, ep)
	info.Anonymity, info.AdditionalHeaders = classifyAnonymity(echo.Headers, c.realIP(ctx))

	if speedClient, err := probe.NewClient(proxyURL(ep, info.Type), c.config.Timeout); err == nil {
		speed := probe.MeasureSpeed(ctx, speedClient, c.config.SpeedURL, c.config.UserAgent)
		info.LatencyMs = speed.LatencyMs
		info.DownloadSpeedKBps = speed.KBps
	}

	info.Score = Score(info)
	info.IsBlacklisted = probe.Blacklisted(ctx, info.OutgoingIP, c.config.DNSBLZone, c.config.Timeout)

	return info
}

// CheckAll evaluates every address in the list. Malformed addresses yield a
// dead placeholder record without any network I/O; the rest are fed to a
// fixed pool of workers. The returned slice holds exactly one record per
// input address, placeholders first, then evaluations in completion order.
func (c *Checker) CheckAll(ctx context.Context, addresses []string) []ProxyInfo {
	if len(addresses) == 0 {
		return nil
	}

	l := c.log.With().Str("run", uuid.NewString()[:8]).Logger()

	records := make([]ProxyInfo, 0, len(addresses))

	queue := make(chan Endpoint, len(addresses))
	results := make(chan ProxyInfo, len(addresses))

	pending := 0
	for _, addr := range addresses {
		ep, err := ParseEndpoint(addr)
		if err != nil {
			l.Warn().Str("address", addr).Err(err).Msg("Skipping malformed address")
			rec := newRecord(addr)
			records = append(records, rec)
			if c.OnResult != nil {
				c.OnResult(rec)
			}
			continue
		}
		queue <- ep
		pending++
	}
	close(queue)

	workers := c.config.MaxWorkers
	if workers > pending {
		workers = pending
	}

	l.Info().Int("count", pending).Int("workers", workers).Msg("Starting check batch")

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ep := range queue {
				select {
				case <-ctx.Done():
					// Cancelled runs still owe one record per input.
					results <- newRecord(ep.Address())
				default:
					results <- c.Check(ctx, ep)
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	aliveCount := 0
	typeCounts := make(map[ProxyType]int)
	for info := range results {
		records = append(records, info)
		if info.IsAlive {
			aliveCount++
			typeCounts[info.Type]++
		}
		if c.OnResult != nil {
			c.OnResult(info)
		}
	}

	ev := l.Info().Int("alive", aliveCount).Int("total", len(records))
	for t, n := range typeCounts {
		ev = ev.Int(string(t), n)
	}
	ev.Msg("Check batch finished")

	return records
}

// QuickResult holds the outcome of the cheap liveness pass: the three
// baseline probes run in parallel against one endpoint.
type QuickResult struct {
	Address    string `json:"address"`
	Pingable   bool   `json:"pingable"`
	TCPConnect bool   `json:"tcp_connect"`
	HTTPAlive  bool   `json:"http_alive"`
	LatencyMs  int    `json:"latency_ms"`
}

// QuickCheck races the ping, TCP connect and echo fetch probes in parallel
// and reports their individual outcomes. HTTPAlive is the signal that matches
// what Check uses for liveness; ICMP and TCP are auxiliary. LatencyMs is the
// TCP connect time, -1 when the connect failed.
func (c *Checker) QuickCheck(ctx context.Context, ep Endpoint) QuickResult {
	result := QuickResult{Address: ep.Address(), LatencyMs: -1}

	var wg conc.WaitGroup
	wg.Go(func() {
		result.Pingable = probe.Ping(ctx, ep.Host, c.config.Timeout) == nil
	})
	wg.Go(func() {
		if latency, err := probe.TCPConnect(ctx, ep.Address(), c.config.Timeout); err == nil {
			result.TCPConnect = true
			result.LatencyMs = int(latency.Milliseconds())
		}
	})
	wg.Go(func() {
		client, err := probe.NewClient("http://"+ep.Address(), c.config.Timeout)
		if err != nil {
			return
		}
		_, err = probe.FetchEcho(ctx, client, c.config.EchoURL, c.config.UserAgent)
		result.HTTPAlive = err == nil
	})
	wg.Wait()

	return result
}

// QuickCheckAll runs QuickCheck for every address under the worker limit and
// returns results in input order. Malformed addresses yield an all-false
// result without any network I/O.
func (c *Checker) QuickCheckAll(ctx context.Context, addresses []string) []QuickResult {
	results := make([]QuickResult, len(addresses))
	sem := make(chan struct{}, c.config.MaxWorkers)
	var wg sync.WaitGroup

	for i, addr := range addresses {
		ep, err := ParseEndpoint(addr)
		if err != nil {
			results[i] = QuickResult{Address: addr, LatencyMs: -1}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, ep Endpoint) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = c.QuickCheck(ctx, ep)
		}(i, ep)
	}

	wg.Wait()
	return results
}

// detectType finds the highest-capability protocol the proxy speaks, probing
// SOCKS5, SOCKS4 and HTTPS tunneling in priority order and stopping at the
// first success. An alive proxy that answers none of them is plain HTTP.
func (c *Checker) detectType(ctx context.Context, ep Endpoint) ProxyType {
	addr := ep.Address()

	if err := probe.SOCKS5Handshake(ctx, addr, c.config.Timeout); err == nil {
		return TypeSOCKS5
	}
	if err := probe.SOCKS4Handshake(ctx, addr, c.config.SOCKS4Target, c.config.Timeout); err == nil {
		return TypeSOCKS4
	}
	if client, err := probe.NewClient("http://"+addr, c.config.Timeout); err == nil {
		if probe.FetchHTTPS(ctx, client, c.config.HTTPSURL, c.config.UserAgent) == nil {
			return TypeHTTPS
		}
	}
	return TypeHTTP
}

// realIP learns the caller's own public IP once per Checker via a direct,
// unproxied echo fetch. Without it transparent proxies can only be classified
// as anonymous.
func (c *Checker) realIP(ctx context.Context) string {
	c.realIPOnce.Do(func() {
		client := &http.Client{Timeout: c.config.Timeout}
		echo, err := probe.FetchEcho(ctx, client, c.config.EchoURL, c.config.UserAgent)
		if err != nil {
			c.log.Warn().Err(err).Msg("Could not learn own IP, transparent detection degraded")
			return
		}
		c.ownIP = firstAddr(echo.Origin)
	})
	return c.ownIP
}

// expectedHeaders are the names a plain client request carries to the echo
// endpoint; anything else echoed back was injected along the way.
// X-Amzn-Trace-Id comes from the load balancer in front of httpbin.org, not
// from the proxy.
var expectedHeaders = map[string]bool{
	"Host":            true,
	"User-Agent":      true,
	"Accept":          true,
	"Accept-Encoding": true,
	"Accept-Language": true,
	"Connection":      true,
	"X-Amzn-Trace-Id": true,
}

// classifyAnonymity grades the echoed request headers. X-Forwarded-For or Via
// betray proxy use; X-Forwarded-For carrying the caller's real IP makes the
// proxy transparent. A proxy injecting neither is elite.
func classifyAnonymity(headers map[string]string, realIP string) (AnonymityLevel, string) {
	canonical := make(map[string]string, len(headers))
	for name, value := range headers {
		canonical[http.CanonicalHeaderKey(name)] = value
	}

	var injected []string
	for name := range canonical {
		if !expectedHeaders[name] {
			injected = append(injected, name)
		}
	}
	sort.Strings(injected)

	level := AnonymityElite
	forwarded, hasForwarded := canonical["X-Forwarded-For"]
	_, hasVia := canonical["Via"]
	if hasForwarded || hasVia {
		level = AnonymityAnonymous
		if realIP != "" && strings.Contains(forwarded, realIP) {
			level = AnonymityTransparent
		}
	}

	return level, strings.Join(injected, ", ")
}

// newRecord returns the untested baseline for one address: dead, unknown
// type and the -1 measurement sentinels. Evaluation upgrades fields from
// here.
func newRecord(address string) ProxyInfo {
	return ProxyInfo{
		Address:           address,
		Type:              TypeUnknown,
		LatencyMs:         -1,
		DownloadSpeedKBps: -1,
		CheckedAt:         time.Now(),
	}
}

// proxyURL renders the proxy URL for an endpoint with the scheme matching the
// detected type. HTTP-family proxies are always spoken to over plain http;
// TLS only ever runs inside the tunnel.
func proxyURL(ep Endpoint, t ProxyType) string {
	scheme := "http"
	switch t {
	case TypeSOCKS4:
		scheme = "socks4"
	case TypeSOCKS5:
		scheme = "socks5"
	}
	return fmt.Sprintf("%s://%s", scheme, ep.Address())
}

// firstAddr extracts the first address from an echo origin value, which may
// be a comma-separated list when the proxy forwarded our IP along.
func firstAddr(origin string) string {
	if i := strings.IndexByte(origin, ','); i >= 0 {
		origin = origin[:i]
	}
	return strings.TrimSpace(origin)
}
