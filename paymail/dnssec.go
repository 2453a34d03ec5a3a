package paymail

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	// DefaultUpstream is the recursive resolver used when none is given.
	DefaultUpstream = "8.8.8.8:53"

	dnssecTimeout = 10 * time.Second
	edns0BufSize  = 4096
)

// DNSSECResolver is a Resolver that only accepts answers the upstream
// recursive resolver marked as authenticated (AD flag).
type DNSSECResolver struct {
	Upstream string
	Timeout  time.Duration
}

var _ Resolver = (*DNSSECResolver)(nil)

// NewDNSSECResolver creates a resolver querying upstream, or DefaultUpstream
// when upstream is empty.
func NewDNSSECResolver(upstream string) *DNSSECResolver {
	if upstream == "" {
		upstream = DefaultUpstream
	}
	return &DNSSECResolver{Upstream: upstream, Timeout: dnssecTimeout}
}

// LookupSRV queries _service._proto.name. The canonical name is not
// reported and is always empty.
func (r *DNSSECResolver) LookupSRV(ctx context.Context, service, proto, name string) (string, []*net.SRV, error) {
	qname := fmt.Sprintf("_%s._%s.%s", service, proto, name)

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(qname), dns.TypeSRV)
	msg.RecursionDesired = true
	msg.SetEdns0(edns0BufSize, true)

	client := &dns.Client{Timeout: r.Timeout}
	resp, _, err := client.ExchangeContext(ctx, msg, r.Upstream)
	if err != nil {
		return "", nil, fmt.Errorf("%w: SRV %s: %w", ErrDNSLookupFailed, qname, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", nil, fmt.Errorf("%w: SRV %s: rcode %s", ErrDNSLookupFailed, qname, dns.RcodeToString[resp.Rcode])
	}
	if !resp.AuthenticatedData {
		return "", nil, fmt.Errorf("%w: SRV %s", ErrDNSSECValidationFailed, qname)
	}

	var srvs []*net.SRV
	for _, rr := range resp.Answer {
		if srv, ok := rr.(*dns.SRV); ok {
			srvs = append(srvs, &net.SRV{
				Target:   strings.TrimSuffix(srv.Target, "."),
				Port:     srv.Port,
				Priority: srv.Priority,
				Weight:   srv.Weight,
			})
		}
	}
	if len(srvs) == 0 {
		return "", nil, fmt.Errorf("%w: no SRV records for %s", ErrDNSLookupFailed, qname)
	}
	return "", srvs, nil
}
