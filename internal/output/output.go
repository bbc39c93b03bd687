// Package output renders completed check batches as an aligned text table,
// CSV or JSON.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"proxyprobe/pkg/checker"
)

// Writer renders a batch of results to w.
type Writer interface {
	Write(w io.Writer, results []checker.ProxyInfo) error
}

// NewWriter returns the writer for format: table, csv or json.
func NewWriter(format string) (Writer, error) {
	switch format {
	case "table":
		return tableWriter{}, nil
	case "csv":
		return csvWriter{}, nil
	case "json":
		return jsonWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

type tableWriter struct{}

func (tableWriter) Write(w io.Writer, results []checker.ProxyInfo) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tTYPE\tANONYMITY\tCOUNTRY\tASN\tOUTGOING IP\tALIVE\tLATENCY\tSPEED\tSCORE\tDNSBL")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%v\t%s\t%s\t%d\t%v\n",
			r.Address,
			r.Type,
			r.Anonymity,
			orDash(r.Country),
			orDash(r.ASN),
			orDash(r.OutgoingIP),
			r.IsAlive,
			formatLatency(r.LatencyMs),
			formatSpeed(r.DownloadSpeedKBps),
			r.Score,
			r.IsBlacklisted,
		)
	}
	return tw.Flush()
}

type csvWriter struct{}

var csvHeader = []string{
	"Address", "Type", "Anonymity", "Country", "ASN", "OutgoingIP",
	"Alive", "LatencyMs", "DownloadSpeedKBps", "Score", "Blacklisted",
}

func (csvWriter) Write(w io.Writer, results []checker.ProxyInfo) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		record := []string{
			r.Address,
			string(r.Type),
			r.Anonymity.String(),
			r.Country,
			r.ASN,
			r.OutgoingIP,
			strconv.FormatBool(r.IsAlive),
			strconv.Itoa(r.LatencyMs),
			strconv.FormatFloat(r.DownloadSpeedKBps, 'f', 2, 64),
			strconv.Itoa(r.Score),
			strconv.FormatBool(r.IsBlacklisted),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonWriter struct{}

func (jsonWriter) Write(w io.Writer, results []checker.ProxyInfo) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// QuickTable renders quick-check results as an aligned table.
func QuickTable(w io.Writer, results []checker.QuickResult) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tPING\tTCP\tHTTP\tLATENCY")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%v\t%v\t%v\t%s\n",
			r.Address, r.Pingable, r.TCPConnect, r.HTTPAlive, formatLatency(r.LatencyMs))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatLatency(ms int) string {
	if ms < 0 {
		return "-"
	}
	return fmt.Sprintf("%dms", ms)
}

func formatSpeed(kbps float64) string {
	if kbps < 0 {
		return "-"
	}
	return fmt.Sprintf("%.1fKB/s", kbps)
}
