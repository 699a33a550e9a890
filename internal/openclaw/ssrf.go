package openclaw

import (
	"net"
	"net/url"
)

// IsPrivateURL reports whether raw points at a private, loopback, or
// otherwise internal network target. The gateway URL is tenant-configurable,
// so this is the primary trust boundary of the client: it must run before
// every outbound call. Malformed URLs are classified unsafe (fail closed).
// Hostnames that are not IP literals are treated as safe; resolution-time
// pinning is the deployment's concern, not this check's.
func IsPrivateURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return true
	}

	ip := net.ParseIP(u.Hostname())
	if ip == nil {
		// Not an IP literal.
		return false
	}
	return isPrivateIP(ip)
}

// isPrivateIP checks if an IP is in a private, loopback, link-local, or
// "this network" range.
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsUnspecified() {
		return true
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	privateRanges := []string{
		"0.0.0.0/8",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
	}
	for _, r := range privateRanges {
		_, cidr, _ := net.ParseCIDR(r)
		if cidr != nil && cidr.Contains(ip) {
			return true
		}
	}

	// Unique-local IPv6 (fc00::/7).
	if ip.To4() == nil {
		if v6 := ip.To16(); v6 != nil && v6[0]&0xfe == 0xfc {
			return true
		}
	}

	return false
}
