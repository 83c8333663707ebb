package dnsimple

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// ZoneFinder determines the zone apex a hostname belongs to.
type ZoneFinder interface {
	FindZone(ctx context.Context, hostname string) (string, error)
}

const (
	// soaQueryTimeout bounds a single SOA query.
	soaQueryTimeout = 750 * time.Millisecond

	// soaOverallTimeout bounds the whole walk for one hostname.
	soaOverallTimeout = 15 * time.Second

	// soaRetryDelay is the pause before retrying a timed-out query.
	soaRetryDelay = 250 * time.Millisecond
)

// soaFinder discovers the zone apex by querying SOA records, starting at
// the hostname and walking toward the root until a name answers.
type soaFinder struct {
	client  *dns.Client
	servers []string
	logger  *slog.Logger
}

// NewSOAFinder creates a ZoneFinder backed by the system resolver.
// The resolver configuration is read from /etc/resolv.conf.
func NewSOAFinder(logger *slog.Logger) (ZoneFinder, error) {
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return nil, fmt.Errorf("reading resolver config: %w", err)
	}

	servers := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		servers = append(servers, s+":"+conf.Port)
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("no nameservers in resolver config")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &soaFinder{
		client:  &dns.Client{Timeout: soaQueryTimeout},
		servers: servers,
		logger:  logger,
	}, nil
}

// FindZone walks from hostname toward the root, one label at a time,
// returning the first name that answers an SOA query. Names that resolve
// to NXDOMAIN or answer without an SOA are treated as below the apex.
// Timed-out queries are retried until the overall deadline expires.
func (f *soaFinder) FindZone(ctx context.Context, hostname string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, soaOverallTimeout)
	defer cancel()

	name := dns.Fqdn(hostname)
	for {
		labels := dns.SplitDomainName(name)
		if len(labels) < 2 {
			break
		}

		answered, err := f.querySOA(ctx, name)
		if err != nil {
			return "", fmt.Errorf("looking up SOA for %s: %w", name, err)
		}
		if answered {
			zone := strings.TrimSuffix(name, ".")
			f.logger.Debug("found zone apex",
				slog.String("hostname", hostname),
				slog.String("zone", zone),
			)
			return zone, nil
		}

		// No SOA at this name, move one label up.
		if len(labels) == 2 {
			break
		}
		name = dns.Fqdn(strings.Join(labels[1:], "."))
	}

	// Nothing answered. Fall back to the shortest candidate and let the
	// provider API confirm or reject it.
	return strings.TrimSuffix(name, "."), nil
}

// querySOA returns true if name answers an SOA query for itself.
// Only answer-section SOA records count; a referral means the apex is
// further up.
func (f *soaFinder) querySOA(ctx context.Context, name string) (bool, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(name, dns.TypeSOA)
	msg.RecursionDesired = true

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		var lastErr error
		for _, server := range f.servers {
			reply, _, err := f.client.ExchangeContext(ctx, msg, server)
			if err != nil {
				lastErr = err
				continue
			}

			if reply.Rcode == dns.RcodeNameError {
				return false, nil
			}
			for _, rr := range reply.Answer {
				if soa, ok := rr.(*dns.SOA); ok && strings.EqualFold(soa.Hdr.Name, name) {
					return true, nil
				}
			}
			return false, nil
		}

		// Every server timed out or errored. Wait briefly and retry until
		// the overall deadline cuts us off.
		f.logger.Debug("SOA lookup attempt failed, retrying",
			slog.String("name", name),
			slog.String("error", fmt.Sprint(lastErr)),
		)
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(soaRetryDelay):
		}
	}
}

// staticZoneFinder pins every hostname to a single configured zone.
type staticZoneFinder struct {
	zone string
}

func (f staticZoneFinder) FindZone(_ context.Context, hostname string) (string, error) {
	if hostname != f.zone && !strings.HasSuffix(hostname, "."+f.zone) {
		return "", fmt.Errorf("hostname %s is not within configured zone %s", hostname, f.zone)
	}
	return f.zone, nil
}
