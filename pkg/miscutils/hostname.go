// SPDX-License-Identifier: MPL-2.0

package miscutils

import (
	"net/netip"
	"strings"
)

const localDomain = ".local"

// SanitizeHostname returns hostname as an mDNS name: IPv4 and IPv6 addresses are
// returned unchanged, other names get a ".local" suffix unless they already end
// with it. The function is idempotent.
func SanitizeHostname(hostname string) string {
	if _, err := netip.ParseAddr(hostname); err == nil {
		return hostname
	}
	if strings.HasSuffix(hostname, localDomain) {
		return hostname
	}
	return hostname + localDomain
}
