package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"proxyprobe/internal/config"
	"proxyprobe/internal/database"
	"proxyprobe/internal/logger"
	"proxyprobe/internal/output"
	"proxyprobe/pkg/checker"
	"proxyprobe/pkg/geo"
	"proxyprobe/pkg/judge"
)

var (
	configPath  = flag.String("config", "", "Path to config file")
	genConfig   = flag.Bool("gen-config", false, "Generate default config file")
	showVersion = flag.Bool("version", false, "Show version")
	inputPath   = flag.String("input", "", "Proxy list file, one host:port per line (- for stdin)")
	outputPath  = flag.String("o", "", "Write results to a file instead of stdout")
	format      = flag.String("format", "", "Output format: table, csv or json (overrides config)")
	timeout     = flag.Duration("timeout", 0, "Per-probe timeout (overrides config)")
	concurrency = flag.Int("concurrency", 0, "Concurrent evaluations (overrides config)")
	quick       = flag.Bool("quick", false, "Run only the fast liveness pass (ping, TCP connect, HTTP)")
	judgeMode   = flag.Bool("judge", false, "Run the echo judge server instead of probing")
)

const (
	Version = "1.0.0"
	Banner  = `
______ ______ ______ ______ ______ ______ ______ ______

 ____   ____    ___  __  ____   __ ____   ____    ___   ____   _____
|  _ \ |  _ \  / _ \ \ \/ /\ \ / /|  _ \ |  _ \  / _ \ | __ ) | ____|
| |_) || |_) || | | | \  /  \ V / | |_) || |_) || | | ||  _ \ |  _|
|  __/ |  _ < | |_| | /  \   | |  |  __/ |  _ < | |_| || |_) || |___
|_|    |_| \_\ \___/ /_/\_\  |_|  |_|    |_| \_\ \___/ |____/ |_____|

ProxyProbe - Proxy Liveness / Protocol / Anonymity Scanner v%s

______ ______ ______ ______ ______ ______ ______ ______

`
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("ProxyProbe v%s\n", Version)
		return
	}

	fmt.Printf(Banner, Version)

	if *genConfig {
		if err := config.SaveConfigTemplate("config.yaml"); err != nil {
			log.Fatalf("Failed to generate config: %v", err)
		}
		fmt.Println("Default config generated: config.yaml")
		return
	}

	// Load .env before viper reads the environment
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Log.Level)
	l := logger.WithComponent("main")

	l.Info().Str("version", Version).Msg("Starting ProxyProbe")
	config.PrintConfig(cfg)

	// Flag overrides
	if *timeout > 0 {
		cfg.Probe.Timeout = *timeout
	}
	if *concurrency > 0 {
		cfg.Checker.MaxWorkers = *concurrency
	}
	if *format != "" {
		cfg.Output.Format = *format
	}

	if *judgeMode {
		runJudge(cfg, l)
		return
	}

	addresses, err := loadAddresses(*inputPath, flag.Args())
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to load proxy list")
	}
	if len(addresses) == 0 {
		l.Fatal().Msg("No proxy addresses given; pass host:port arguments or -input")
	}

	// Cancel the batch on SIGINT/SIGTERM; workers finish their current probe.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		l.Warn().Msg("Interrupted, abandoning queued checks")
		cancel()
	}()

	var dbService *database.Service
	if cfg.Geo.CacheEnabled {
		db, err := database.NewDB(cfg.Database.Path)
		if err != nil {
			l.Warn().Err(err).Msg("Geo cache unavailable, continuing without it")
		} else {
			defer db.Close()
			dbService = database.NewService(db)
			if deleted, err := dbService.CleanupStale(ctx, cfg.Database.MaxAge); err == nil && deleted > 0 {
				l.Debug().Int64("deleted", deleted).Msg("Expired stale geo cache entries")
			}
		}
	}
	geoResolver := geo.NewResolver(geo.Config{
		APIURL:  cfg.Geo.APIURL,
		Timeout: cfg.Geo.Timeout,
	}, dbService, cfg.Database.MaxAge)

	chk := checker.New(checker.Config{
		EchoURL:      cfg.Probe.EchoURL,
		HTTPSURL:     cfg.Probe.HTTPSURL,
		SpeedURL:     cfg.Probe.SpeedURL,
		DNSBLZone:    cfg.Probe.DNSBLZone,
		SOCKS4Target: cfg.Probe.SOCKS4Target,
		Timeout:      cfg.Probe.Timeout,
		MaxWorkers:   cfg.Checker.MaxWorkers,
		UserAgent:    cfg.Probe.UserAgent,
	}, geoResolver)

	out := io.Writer(os.Stdout)
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			l.Fatal().Err(err).Str("path", *outputPath).Msg("Cannot create output file")
		}
		defer f.Close()
		out = f
	}

	start := time.Now()

	if *quick {
		results := chk.QuickCheckAll(ctx, addresses)
		if err := output.QuickTable(out, results); err != nil {
			l.Fatal().Err(err).Msg("Failed to write results")
		}
		l.Info().Int("count", len(results)).Dur("elapsed", time.Since(start)).Msg("Quick check finished")
		return
	}

	writer, err := output.NewWriter(cfg.Output.Format)
	if err != nil {
		l.Fatal().Err(err).Msg("Invalid output format")
	}

	bar := progressbar.Default(int64(len(addresses)), "probing")
	chk.OnResult = func(checker.ProxyInfo) {
		_ = bar.Add(1)
	}

	results := chk.CheckAll(ctx, addresses)
	_ = bar.Finish()

	if err := writer.Write(out, results); err != nil {
		l.Fatal().Err(err).Msg("Failed to write results")
	}

	alive := 0
	for _, r := range results {
		if r.IsAlive {
			alive++
		}
	}
	l.Info().
		Int("total", len(results)).
		Int("alive", alive).
		Dur("elapsed", time.Since(start)).
		Msg("Scan finished")

	if dbService != nil {
		if stats, err := dbService.GetGeoStats(ctx, cfg.Database.MaxAge); err == nil {
			l.Debug().Int("entries", stats.Total).Int("fresh", stats.Fresh).Msg("Geo cache state")
		}
	}
}

// runJudge serves the echo judge until interrupted.
func runJudge(cfg *config.Config, l zerolog.Logger) {
	server := judge.NewServer(&judge.Config{
		ListenAddr:   cfg.Judge.ListenAddr,
		ReadTimeout:  cfg.Judge.ReadTimeout,
		WriteTimeout: cfg.Judge.WriteTimeout,
		IdleTimeout:  cfg.Judge.IdleTimeout,
	})

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			l.Error().Err(err).Msg("Judge server error")
		}
	}()

	l.Info().Str("addr", cfg.Judge.ListenAddr).Msg("Echo judge started")
	l.Info().Msg("Press Ctrl+C to stop")

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	l.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		l.Error().Err(err).Msg("Judge shutdown error")
	}
}

// loadAddresses merges positional arguments with the optional list file,
// skipping blanks and #-comments and dropping duplicates while preserving
// first-seen order.
func loadAddresses(path string, args []string) ([]string, error) {
	var addresses []string
	seen := make(map[string]bool)

	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		if addr == "" || strings.HasPrefix(addr, "#") {
			return
		}
		if !seen[addr] {
			seen[addr] = true
			addresses = append(addresses, addr)
		}
	}

	for _, arg := range args {
		add(arg)
	}

	if path != "" {
		var r io.Reader
		if path == "-" {
			r = os.Stdin
		} else {
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("open proxy list: %w", err)
			}
			defer f.Close()
			r = f
		}

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			add(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read proxy list: %w", err)
		}
	}

	return addresses, nil
}
