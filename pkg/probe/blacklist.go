package probe

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Blacklisted reports whether ip is listed in the DNS reputation zone. The
// query name is the IP with its octets reversed, prepended to the zone, per
// DNSBL convention. Any resolver failure, NXDOMAIN included, means "not
// listed"; an unreachable blacklist must not taint results.
func Blacklisted(ctx context.Context, ip, zone string, timeout time.Duration) bool {
	reversed := reverseIPv4(ip)
	if reversed == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addrs, err := net.DefaultResolver.LookupHost(ctx, reversed+"."+zone)
	return err == nil && len(addrs) > 0
}

// reverseIPv4 returns the octets of an IPv4 address in reverse order, or ""
// if ip is not a valid IPv4 address.
func reverseIPv4(ip string) string {
	ip4 := net.ParseIP(ip).To4()
	if ip4 == nil {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d.%d", ip4[3], ip4[2], ip4[1], ip4[0])
}
