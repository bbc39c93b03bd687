// Package geo resolves the country and network operator of IP addresses
// through an ip-api-compatible HTTP endpoint, with an optional sqlite-backed
// cache in front of it so batch scans do not hammer the public service.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"proxyprobe/internal/database"
	"proxyprobe/internal/database/models/model"
	"proxyprobe/internal/logger"
)

// ErrUnavailable marks a lookup that failed because the geolocation service
// could not be reached or refused the query.
var ErrUnavailable = errors.New("geo lookup unavailable")

// Info holds the geolocation of one IP address.
type Info struct {
	Country string
	ASN     string
}

// apiResponse defines the structure of the ip-api.com JSON response.
type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Country string `json:"country"`
	As      string `json:"as"`
}

type Config struct {
	// APIURL is a printf-style template with one %s placeholder for the IP.
	APIURL  string
	Timeout time.Duration
}

type Resolver struct {
	config Config
	client *http.Client
	cache  *database.Service
	maxAge time.Duration
	log    zerolog.Logger
}

// NewResolver builds a resolver for the configured endpoint. cache may be nil
// to disable caching; maxAge bounds how long cached entries stay usable.
func NewResolver(config Config, cache *database.Service, maxAge time.Duration) *Resolver {
	return &Resolver{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		cache:  cache,
		maxAge: maxAge,
		log:    logger.WithComponent("geo"),
	}
}

// Resolve returns the country and ASN for ip, serving from the cache when a
// fresh record exists. Cache failures degrade to a direct lookup; lookup
// failures return ErrUnavailable.
func (r *Resolver) Resolve(ctx context.Context, ip string) (Info, error) {
	if r.cache != nil {
		rec, err := r.cache.GetGeoRecord(ctx, ip)
		if err != nil {
			r.log.Warn().Err(err).Str("ip", ip).Msg("Geo cache read failed")
		} else if database.IsFresh(rec, r.maxAge) {
			return recordInfo(rec), nil
		}
	}

	info, err := r.fetch(ctx, ip)
	if err != nil {
		return Info{}, err
	}

	if r.cache != nil {
		if _, err := r.cache.UpsertGeoRecord(ctx, ip, info.Country, info.ASN); err != nil {
			r.log.Warn().Err(err).Str("ip", ip).Msg("Geo cache write failed")
		}
	}

	return info, nil
}

// fetch queries the geolocation endpoint directly.
func (r *Resolver) fetch(ctx context.Context, ip string) (Info, error) {
	apiURL := fmt.Sprintf(r.config.APIURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Info{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	if body.Status != "success" {
		return Info{}, fmt.Errorf("%w: %s", ErrUnavailable, body.Message)
	}

	return Info{Country: body.Country, ASN: body.As}, nil
}

func recordInfo(rec *model.GeoRecords) Info {
	var info Info
	if rec.Country != nil {
		info.Country = *rec.Country
	}
	if rec.Asn != nil {
		info.ASN = *rec.Asn
	}
	return info
}
