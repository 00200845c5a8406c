// Package discovery advertises the gop server on the local network via
// multicast DNS and resolves it from clients, so devices can find each
// other without configured addresses.
package discovery

import (
	"context"
	"fmt"
	"net"

	"github.com/grandcat/zeroconf"
)

// ServiceType is the mDNS service type gop registers under.
const ServiceType = "_gop._tcp"

// Domain is the mDNS domain (always the local zone).
const Domain = "local."

// Advertisement is a running mDNS registration. Shut it down when the
// server stops so peers drop the stale entry promptly.
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise registers the service instance on all multicast-capable
// interfaces. The returned Advertisement must be shut down by the caller.
func Advertise(instance string, port int) (*Advertisement, error) {
	server, err := zeroconf.Register(instance, ServiceType, Domain, port,
		[]string{"app=gop", "api=/"}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	return &Advertisement{server: server}, nil
}

// Shutdown unregisters the service.
func (a *Advertisement) Shutdown() {
	a.server.Shutdown()
}

// Resolve browses the local network for a gop server and returns its
// host:port. The first instance found wins; the context bounds the wait,
// so callers should pass a deadline (a couple of seconds is plenty on a
// healthy LAN).
func Resolve(ctx context.Context) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, ServiceType, Domain, entries); err != nil {
		return "", fmt.Errorf("failed to browse for %s: %w", ServiceType, err)
	}

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("no gop server found on the local network: %w", ctx.Err())
		case entry, ok := <-entries:
			if !ok {
				return "", fmt.Errorf("no gop server found on the local network")
			}
			if addr := entryAddr(entry); addr != "" {
				return addr, nil
			}
		}
	}
}

// entryAddr extracts a dialable host:port from a service entry, preferring
// IPv4 addresses.
func entryAddr(entry *zeroconf.ServiceEntry) string {
	if entry == nil || entry.Port == 0 {
		return ""
	}

	for _, ip := range entry.AddrIPv4 {
		if ip != nil {
			return net.JoinHostPort(ip.String(), fmt.Sprintf("%d", entry.Port))
		}
	}
	for _, ip := range entry.AddrIPv6 {
		if ip != nil {
			return net.JoinHostPort(ip.String(), fmt.Sprintf("%d", entry.Port))
		}
	}
	return ""
}
