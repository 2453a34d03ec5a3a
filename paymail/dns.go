package paymail

import (
	"context"
	"net"
	"sort"
	"strconv"
	"strings"
)

// Resolver looks up SRV records. Tests substitute their own.
type Resolver interface {
	LookupSRV(ctx context.Context, service, proto, name string) (string, []*net.SRV, error)
}

type netResolver struct{}

func (netResolver) LookupSRV(ctx context.Context, service, proto, name string) (string, []*net.SRV, error) {
	return net.DefaultResolver.LookupSRV(ctx, service, proto, name)
}

// DefaultResolver uses the system resolver.
var DefaultResolver Resolver = netResolver{}

const (
	// SRVService is the service label of the _bsvalias._tcp record.
	SRVService = "bsvalias"

	// DefaultPort is used when a domain publishes no SRV record.
	DefaultPort = 443
)

// ResolveHost returns the host:port serving paymail for domain: the
// _bsvalias._tcp SRV target with the lowest priority (highest weight breaks
// ties), or domain:443 when the lookup fails or returns nothing.
func ResolveHost(ctx context.Context, domain string, r Resolver) string {
	fallback := net.JoinHostPort(domain, strconv.Itoa(DefaultPort))
	if r == nil {
		return fallback
	}
	_, addrs, err := r.LookupSRV(ctx, SRVService, "tcp", domain)
	if err != nil || len(addrs) == 0 {
		return fallback
	}

	sort.SliceStable(addrs, func(i, j int) bool {
		if addrs[i].Priority != addrs[j].Priority {
			return addrs[i].Priority < addrs[j].Priority
		}
		return addrs[i].Weight > addrs[j].Weight
	})
	best := addrs[0]
	return net.JoinHostPort(strings.TrimSuffix(best.Target, "."), strconv.Itoa(int(best.Port)))
}
