package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"proxyprobe/internal/database/models/model"
	"proxyprobe/internal/database/models/table"

	"github.com/go-jet/jet/v2/qrm"
	. "github.com/go-jet/jet/v2/sqlite"
)

// Service handles database operations for the geolocation cache
type Service struct {
	db *DB
}

// NewService creates a new database service
func NewService(db *DB) *Service {
	return &Service{db: db}
}

// GetGeoRecord returns the cached record for ip, or nil when none exists.
// Freshness is the caller's concern; see IsFresh.
func (s *Service) GetGeoRecord(ctx context.Context, ip string) (*model.GeoRecords, error) {
	stmt := SELECT(
		table.GeoRecords.AllColumns,
	).FROM(
		table.GeoRecords,
	).WHERE(
		table.GeoRecords.IP.EQ(String(ip)),
	)

	var rec model.GeoRecords
	err := stmt.QueryContext(ctx, s.db, &rec)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get geo record: %w", err)
	}

	return &rec, nil
}

// UpsertGeoRecord inserts or refreshes the cached lookup result for ip.
// Timestamps are stored as UTC so the scanned values compare cleanly with
// time.Since regardless of the host timezone.
func (s *Service) UpsertGeoRecord(ctx context.Context, ip, country, asn string) (*model.GeoRecords, error) {
	now := time.Now().UTC().Format("2006-01-02 15:04:05")

	stmt := table.GeoRecords.INSERT(
		table.GeoRecords.IP,
		table.GeoRecords.Country,
		table.GeoRecords.Asn,
		table.GeoRecords.ResolvedAt,
	).VALUES(
		ip,
		country,
		asn,
		String(now),
	).ON_CONFLICT(table.GeoRecords.IP).DO_UPDATE(SET(
		table.GeoRecords.Country.SET(String(country)),
		table.GeoRecords.Asn.SET(String(asn)),
		table.GeoRecords.ResolvedAt.SET(TimestampExp(String(now))),
	)).RETURNING(table.GeoRecords.AllColumns)

	var result model.GeoRecords
	err := stmt.QueryContext(ctx, s.db, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert geo record: %w", err)
	}

	return &result, nil
}

// CleanupStale removes cached records older than maxAge and reports how many
// rows were deleted
func (s *Service) CleanupStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	query := `DELETE FROM geo_records WHERE resolved_at < ?`

	res, err := s.db.ExecContext(ctx, query, cutoff.Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup stale geo records: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted geo records: %w", err)
	}

	return deleted, nil
}

// GetGeoStats returns statistics about the geolocation cache
func (s *Service) GetGeoStats(ctx context.Context, maxAge time.Duration) (GeoStats, error) {
	var stats GeoStats

	// Count total records using raw SQL
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM geo_records").Scan(&stats.Total)
	if err != nil {
		return stats, fmt.Errorf("failed to count geo records: %w", err)
	}

	// Count fresh records using raw SQL
	cutoff := time.Now().UTC().Add(-maxAge)
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM geo_records WHERE resolved_at >= ?",
		cutoff.Format("2006-01-02 15:04:05"),
	).Scan(&stats.Fresh)
	if err != nil {
		return stats, fmt.Errorf("failed to count fresh geo records: %w", err)
	}

	// Count by country using raw SQL
	rows, err := s.db.QueryContext(ctx,
		"SELECT COALESCE(country, ''), COUNT(*) FROM geo_records GROUP BY country")
	if err != nil {
		return stats, fmt.Errorf("failed to get geo record countries: %w", err)
	}
	defer rows.Close()

	stats.ByCountry = make(map[string]int)
	for rows.Next() {
		var country string
		var count int
		if err := rows.Scan(&country, &count); err != nil {
			return stats, fmt.Errorf("failed to scan geo country row: %w", err)
		}
		stats.ByCountry[country] = count
	}

	return stats, nil
}
