// Package netutil expands address ranges into gobuster targets.
package netutil

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// MaxHosts caps how many addresses one range may expand to.
const MaxHosts = 1 << 16

// ExpandTargets turns a CIDR range (or a single IP) and a comma-separated
// port list into base URLs. Without ports the scheme's default is used and
// left out of the URL. Network and broadcast addresses of IPv4 ranges wider
// than /31 are skipped.
func ExpandTargets(cidr, ports, scheme string) ([]string, error) {
	prefix, err := parseRange(cidr)
	if err != nil {
		return nil, err
	}
	portList, err := parsePorts(ports)
	if err != nil {
		return nil, err
	}
	if len(portList) == 0 {
		portList = []int{defaultPort(scheme)}
	}

	hostBits := prefix.Addr().BitLen() - prefix.Bits()
	if hostBits > 16 {
		return nil, fmt.Errorf("range %s has more than %d addresses", prefix, MaxHosts)
	}

	first := prefix.Masked().Addr()
	last := lastAddr(prefix)
	skipEdges := prefix.Addr().Is4() && hostBits > 1

	var urls []string
	for addr := first; prefix.Contains(addr); addr = addr.Next() {
		if !(skipEdges && (addr == first || addr == last)) {
			for _, port := range portList {
				urls = append(urls, formatURL(scheme, addr, port))
			}
		}
		if addr == last {
			break
		}
	}
	return urls, nil
}

func parseRange(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if prefix, err := netip.ParsePrefix(s); err == nil {
		return prefix, nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid CIDR or IP: %q", s)
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func parsePorts(s string) ([]int, error) {
	var ports []int
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return nil, fmt.Errorf("invalid port %q", p)
		}
		ports = append(ports, n)
	}
	return ports, nil
}

func defaultPort(scheme string) int {
	if scheme == "https" {
		return 443
	}
	return 80
}

func lastAddr(p netip.Prefix) netip.Addr {
	b := p.Masked().Addr().AsSlice()
	hostBits := len(b)*8 - p.Bits()
	for i := len(b) - 1; i >= 0 && hostBits > 0; i-- {
		n := min(hostBits, 8)
		b[i] |= byte(1<<n - 1)
		hostBits -= n
	}
	addr, _ := netip.AddrFromSlice(b)
	return addr
}

func formatURL(scheme string, addr netip.Addr, port int) string {
	if port == defaultPort(scheme) {
		if addr.Is6() {
			return fmt.Sprintf("%s://[%s]", scheme, addr)
		}
		return fmt.Sprintf("%s://%s", scheme, addr)
	}
	return fmt.Sprintf("%s://%s", scheme, netip.AddrPortFrom(addr, uint16(port)))
}
