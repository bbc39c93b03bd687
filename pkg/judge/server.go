// Package judge implements a self-hostable echo endpoint speaking the
// httpbin-style `{origin, headers}` contract, so scans can point at an
// operator-controlled judge instead of a public service.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"proxyprobe/internal/logger"
)

type Server struct {
	server *http.Server
	config *Config
	stats  *Stats
	log    zerolog.Logger
}

type Config struct {
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type Stats struct {
	RequestsHandled int64
	FailedRequests  int64
	mu              sync.RWMutex
}

// echoResponse is the body served to probing clients. Field order and names
// follow httpbin's /get endpoint; decoders ignore the extras.
type echoResponse struct {
	Args    map[string]string `json:"args"`
	Headers map[string]string `json:"headers"`
	Origin  string            `json:"origin"`
	URL     string            `json:"url"`
}

func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	return &Server{
		config: config,
		stats:  &Stats{},
		log:    logger.WithComponent("judge"),
	}
}

func DefaultConfig() *Config {
	return &Config{
		ListenAddr:   ":8089",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:           s.config.ListenAddr,
		Handler:        s, // Use the server itself as the handler
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.incrementFailedRequests()
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/", "/get":
		s.handleEcho(w, r)
	case "/stats":
		s.handleStats(w)
	case "/health":
		s.handleHealth(w)
	default:
		s.incrementFailedRequests()
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleEcho reports the peer address and the request headers exactly as they
// arrived, which is all a probing client needs to grade a proxy.
func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	origin, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		origin = r.RemoteAddr
	}
	// Like httpbin, a forwarded-for chain is prepended to the peer address.
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		origin = forwarded + ", " + origin
	}

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		headers[name] = strings.Join(values, ",")
	}
	headers["Host"] = r.Host

	resp := echoResponse{
		Args:    map[string]string{},
		Headers: headers,
		Origin:  origin,
		URL:     fmt.Sprintf("http://%s%s", r.Host, r.URL.Path),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("Echo write failed")
		s.incrementFailedRequests()
		return
	}

	s.incrementRequestsHandled()
}

func (s *Server) handleStats(w http.ResponseWriter) {
	stats := s.getStats()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{
	"requests_handled": %d,
	"failed_requests": %d
}`, stats.RequestsHandled, stats.FailedRequests)
}

func (s *Server) handleHealth(w http.ResponseWriter) {
	stats := s.getStats()

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK - %d requests served", stats.RequestsHandled)
}

func (s *Server) getStats() Stats {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()
	return Stats{
		RequestsHandled: s.stats.RequestsHandled,
		FailedRequests:  s.stats.FailedRequests,
	}
}

func (s *Server) incrementRequestsHandled() {
	s.stats.mu.Lock()
	s.stats.RequestsHandled++
	s.stats.mu.Unlock()
}

func (s *Server) incrementFailedRequests() {
	s.stats.mu.Lock()
	s.stats.FailedRequests++
	s.stats.mu.Unlock()
}
