// Package netutil reports the address other devices on the local network
// can use to reach this host.
package netutil

import (
	"fmt"
	"net"
	"strings"
)

// AccessibleIP returns the host's LAN-reachable IPv4 address. It prefers
// addresses on physical-looking interfaces (ethernet, wifi) over bridges
// and virtual interfaces, and only considers private-range addresses.
func AccessibleIP() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("failed to enumerate interfaces: %w", err)
	}

	var fallback string
	for _, iface := range interfaces {
		if !usableInterface(iface) {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.IsLoopback() {
				continue
			}

			ipv4 := ipnet.IP.To4()
			if ipv4 == nil || !ipv4.IsPrivate() {
				continue
			}

			if preferredInterface(iface.Name) {
				return ipv4.String(), nil
			}
			if fallback == "" {
				fallback = ipv4.String()
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("no LAN-accessible IPv4 address found")
}

// usableInterface filters out interfaces that cannot carry LAN traffic:
// down links, loopback, and container/VM plumbing.
func usableInterface(iface net.Interface) bool {
	if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
		return false
	}

	for _, prefix := range []string{"br-", "veth", "docker", "virbr"} {
		if strings.HasPrefix(iface.Name, prefix) {
			return false
		}
	}
	return true
}

// preferredInterface reports whether the interface name looks like a
// physical ethernet or wifi adapter.
func preferredInterface(name string) bool {
	for _, prefix := range []string{"wl", "eth", "en", "wlan", "wifi"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
